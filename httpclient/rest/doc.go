// Package rest adds typed JSON helpers on top of httpclient. The catalog
// uses it for mutations; reads go through condcache instead.
//
//	api := rest.NewFromClient(client)
//	created, err := rest.Post[catalog.Technology](ctx, api, "/api/technologies", tech)
package rest
