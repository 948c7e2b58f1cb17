package ledger

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
)

// accountCache holds slow-changing ledger reads (mint decimals, snapshot
// configs) for a short TTL so job bursts do not hammer the RPC node.
type accountCache struct {
	c *bigcache.BigCache
}

func newAccountCache() (*accountCache, error) {
	c, err := bigcache.New(context.Background(), bigcache.DefaultConfig(30*time.Second))
	if err != nil {
		return nil, err
	}
	return &accountCache{c: c}, nil
}

func (a *accountCache) get(key string) ([]byte, bool) {
	data, err := a.c.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (a *accountCache) set(key string, data []byte) {
	_ = a.c.Set(key, data)
}
