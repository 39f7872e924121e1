// Package redis provides a go-redis client wrapper with lifecycle support
// and a Redis-backed snapshot.Store.
//
//	comp := redis.NewComponent(cfg.Redis, log)
//	_ = comp.Start(ctx)
//	store := redis.NewSnapshotStore[session.Draft](comp.Client(),
//	    redis.WithCodec(snapshot.CodecFor[session.Draft](enc)))
package redis
