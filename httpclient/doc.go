// Package httpclient provides the HTTP client used to reach the profile
// backend: bearer auth from an auth.TokenSource, a request id on every call,
// an OpenTelemetry span per request and optional retry of reads.
//
// A 304 Not Modified answer is not an error. Conditional readers inspect
// Response.NotModified and Response.ETag themselves.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    RetryReads: true,
//	}, httpclient.WithTokenSource(tokens))
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method:  http.MethodGet,
//	    Path:    "/api/technologies",
//	    Headers: map[string]string{"If-None-Match": etag},
//	})
//
// The rest subpackage adds typed JSON helpers for mutations.
package httpclient
