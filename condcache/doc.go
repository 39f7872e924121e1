// Package condcache is a keyed read cache that revalidates with the server
// instead of expiring.
//
// Each key holds the last payload together with its validator (an ETag).
// A normal Request sends the validator; a 304 answer serves the cached
// payload and a 200 replaces it. WithForce skips the validator for a live
// read that still refreshes the entry:
//
//	techs := condcache.New[[]catalog.Technology](condcache.WithName("technologies"))
//	res, err := techs.Request(ctx, "all", condcache.HTTPExecutor[[]catalog.Technology](client, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/technologies",
//	}))
//
// Mutations should call InvalidateAll on the cache of the resource family
// they touch. Responses to requests that started before an invalidation are
// never stored.
package condcache
