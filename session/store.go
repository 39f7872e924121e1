package session

import (
	"fmt"

	"github.com/kbukum/profilewizard/autosave"
	"github.com/kbukum/profilewizard/config"
	"github.com/kbukum/profilewizard/encryption"
	"github.com/kbukum/profilewizard/redis"
	"github.com/kbukum/profilewizard/snapshot"
)

// OpenStore builds the draft store selected by cfg.Backend. rc is only
// used, and then required, by the redis backend. Snapshots are sealed when
// cfg.Encryption carries a key.
func OpenStore(cfg config.AutosaveConfig, rc *redis.Client) (snapshot.Store[Draft], error) {
	enc, err := encryption.FromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("session: encryption: %w", err)
	}
	codec := snapshot.CodecFor[Draft](enc)

	switch cfg.Backend {
	case config.BackendMemory:
		return snapshot.NewMemoryStore[Draft](), nil
	case config.BackendFile, "":
		fs, err := snapshot.NewFileStore(cfg.Dir, codec)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.BackendRedis:
		if rc == nil {
			return nil, fmt.Errorf("session: redis backend needs a redis client")
		}
		return redis.NewSnapshotStore(rc, redis.WithCodec(codec)), nil
	default:
		return nil, fmt.Errorf("session: unknown backend %q", cfg.Backend)
	}
}

// AutosaveOptions maps cfg onto persister options.
func AutosaveOptions(cfg config.AutosaveConfig) []autosave.Option[Draft] {
	opts := []autosave.Option[Draft]{
		autosave.WithDelay[Draft](cfg.Delay),
		autosave.WithFlushOnStop[Draft](cfg.FlushOnStop),
	}
	if cfg.WriteTimeout > 0 {
		opts = append(opts, autosave.WithWriteTimeout[Draft](cfg.WriteTimeout))
	}
	return opts
}
