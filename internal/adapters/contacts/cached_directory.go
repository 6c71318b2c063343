package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/domain/model"
)

const defaultTTLSeconds = 300

// CachedDirectory caches directory lookups in a TTL cache. Cache trouble is
// never fatal; lookups fall through to the inner directory.
type CachedDirectory struct {
	inner  core.ContactDirectory
	cache  core.CacheRepository
	ttl    int
	logger *slog.Logger
}

// CachedDirectoryOptions configures a CachedDirectory.
type CachedDirectoryOptions struct {
	Inner      core.ContactDirectory
	Cache      core.CacheRepository
	TTLSeconds int // defaults to 300
	Logger     *slog.Logger
}

// NewCachedDirectory wraps a directory with caching.
func NewCachedDirectory(opts CachedDirectoryOptions) *CachedDirectory {
	if opts.TTLSeconds <= 0 {
		opts.TTLSeconds = defaultTTLSeconds
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDirectory{
		inner:  opts.Inner,
		cache:  opts.Cache,
		ttl:    opts.TTLSeconds,
		logger: logger.With("component", "contact_cache"),
	}
}

// Lookup serves from cache when possible.
func (d *CachedDirectory) Lookup(ctx context.Context, role model.Role, id string) (*model.Contact, error) {
	key := cacheKey(role, id)

	if raw, err := d.cache.Get(ctx, key); err != nil {
		d.logger.WarnContext(ctx, "contact cache read failed", "key", key, "err", err)
	} else if raw != nil {
		var contact model.Contact
		if err := json.Unmarshal(raw, &contact); err == nil {
			return &contact, nil
		}
		d.logger.WarnContext(ctx, "contact cache entry corrupt, refetching", "key", key)
	}

	contact, err := d.inner.Lookup(ctx, role, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(contact); err == nil {
		if err := d.cache.Set(ctx, key, raw, d.ttl); err != nil {
			d.logger.WarnContext(ctx, "contact cache write failed", "key", key, "err", err)
		}
	}
	return contact, nil
}

func cacheKey(role model.Role, id string) string {
	return fmt.Sprintf("contact:%s:%s", role, id)
}
