package condcache

import (
	"context"
	"maps"

	"github.com/kbukum/profilewizard/httpclient"
	"github.com/kbukum/profilewizard/httpclient/rest"
)

const headerIfNoneMatch = "If-None-Match"

// HTTPExecutor adapts an httpclient read to an Executor. The validator is
// sent as If-None-Match and the ETag of a 2xx answer becomes the new
// validator. 2xx bodies are decoded as JSON into T.
//
// Error statuses are reported as the classified *httpclient.Error, not as a
// *StatusError, so callers keep httpclient.IsNotFound and friends.
func HTTPExecutor[T any](client *httpclient.Client, req httpclient.Request) Executor[T] {
	return func(ctx context.Context, validator string) (Response[T], error) {
		r := req
		r.Headers = maps.Clone(req.Headers)
		if validator != "" {
			if r.Headers == nil {
				r.Headers = make(map[string]string, 1)
			}
			r.Headers[headerIfNoneMatch] = validator
		}

		resp, err := client.Do(ctx, r)
		if err != nil {
			return Response[T]{}, err
		}
		if resp.NotModified() {
			return Response[T]{StatusCode: resp.StatusCode}, nil
		}
		payload, err := rest.Decode[T](resp.Body)
		if err != nil {
			return Response[T]{}, err
		}
		return Response[T]{StatusCode: resp.StatusCode, Validator: resp.ETag(), Payload: payload}, nil
	}
}
