package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbinterface"
)

// EvictionHinter tracks last-touch recency per entity in a redis sorted
// set (one key per site), scored by unix time, and uses it to pick
// TryEvict candidates — a distributed LRU hint layered entirely outside
// dbinterface.SiteCache, which never evicts on its own (spec §4.8).
type EvictionHinter struct {
	conn *Connection
}

// New returns an EvictionHinter bound to conn.
func New(conn *Connection) *EvictionHinter {
	return &EvictionHinter{conn: conn}
}

func recencyKey(siteID uint32) string {
	return fmt.Sprintf("mutgos:site:%d:recency", siteID)
}

// Touch records id as just-accessed, called alongside every
// dbinterface.SiteCache.Get/Put by a caller that wants eviction hinting.
func (h *EvictionHinter) Touch(ctx context.Context, id dbid.Id) error {
	client, err := h.conn.GetClient(ctx)
	if err != nil {
		return err
	}

	return client.ZAdd(ctx, recencyKey(id.SiteID()), redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: id.String(),
	}).Err()
}

// Forget removes id from the recency set, called when an entity leaves
// the cache for good (delete, not a TryEvict candidate anymore).
func (h *EvictionHinter) Forget(ctx context.Context, id dbid.Id) error {
	client, err := h.conn.GetClient(ctx)
	if err != nil {
		return err
	}

	return client.ZRem(ctx, recencyKey(id.SiteID()), id.String()).Err()
}

// Sweep asks the recency set for up to maxCandidates of the coldest ids
// in cache's site, calls TryEvict on each, and drops whichever ones
// TryEvict actually removed (it is a no-op for anything still referenced
// or dirty) from the recency set.
func (h *EvictionHinter) Sweep(ctx context.Context, cache *dbinterface.SiteCache, maxCandidates int64) (int, error) {
	client, err := h.conn.GetClient(ctx)
	if err != nil {
		return 0, err
	}

	key := recencyKey(cache.SiteID())

	members, err := client.ZRange(ctx, key, 0, maxCandidates-1).Result()
	if err != nil {
		return 0, err
	}

	evicted := 0

	for _, m := range members {
		id, err := dbid.Parse(m, cache.SiteID())
		if err != nil {
			continue
		}

		if _, ok := cache.Lookup(id); !ok {
			_ = client.ZRem(ctx, key, m).Err()
			continue
		}

		cache.TryEvict(id)

		if _, stillCached := cache.Lookup(id); !stillCached {
			if err := client.ZRem(ctx, key, m).Err(); err == nil {
				evicted++
			}
		}
	}

	return evicted, nil
}
