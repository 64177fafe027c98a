package cache

import (
	"context"
	"fmt"
	"time"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	MemoryEntries int
	Redis         RedisOptions
}

// New builds the cache named by opts.Backend. An empty backend means memory.
func New(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(opts.MemoryEntries), nil
	case BackendNone:
		return Nop{}, nil
	case BackendRedis:
		if opts.Redis.TTL == 0 {
			opts.Redis.TTL = 48 * time.Hour
		}
		r, err := NewRedis(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
