package provider

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"timeboard/internal/logging"
	"timeboard/internal/timeutil"
	"timeboard/worklog"
)

const DefaultCacheTTL = 10 * time.Minute

// Store is the slice of storage a provider writes through.
type Store interface {
	UpsertEntry(entry worklog.Entry) (int64, error)
}

type Options struct {
	Store    Store
	Logger   *slog.Logger
	CacheDir string
	CacheTTL time.Duration
	Now      func() time.Time
}

// Base holds what every provider shares: identity, cache location, store and clock.
type Base struct {
	name      string
	source    worklog.Source
	cachePath string
	cacheTTL  time.Duration
	store     Store
	logger    *slog.Logger
	now       func() time.Time
}

func newBase(name string, source worklog.Source, options Options) Base {
	base := Base{
		name:     name,
		source:   source,
		cacheTTL: options.CacheTTL,
		store:    options.Store,
		logger:   options.Logger,
		now:      options.Now,
	}
	if base.cacheTTL <= 0 {
		base.cacheTTL = DefaultCacheTTL
	}
	if base.logger == nil {
		base.logger = logging.Discard()
	}
	if base.now == nil {
		base.now = time.Now
	}
	if strings.TrimSpace(options.CacheDir) != "" {
		base.cachePath = filepath.Join(options.CacheDir, name+"-cache.json")
	}
	base.logger = base.logger.With("provider", name)
	return base
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Source() worklog.Source {
	return b.source
}

func (b *Base) CachePath() string {
	return b.cachePath
}

// resolveRange returns the half-open [from, to) interval for a sync.
func (b *Base) resolveRange(options SyncOptions) (time.Time, time.Time, error) {
	from, to := timeutil.DefaultSyncRange(b.now().UTC())
	if !options.custom() {
		return from, to, nil
	}

	if value := strings.TrimSpace(options.CustomStart); value != "" {
		parsed, err := time.Parse(timeutil.DateLayout, value)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: customStart %q: %v", ErrInvalidRange, value, err)
		}
		from = parsed
	}
	if value := strings.TrimSpace(options.CustomEnd); value != "" {
		parsed, err := time.Parse(timeutil.DateLayout, value)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: customEnd %q: %v", ErrInvalidRange, value, err)
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s is after end", ErrInvalidRange, from.Format(timeutil.DateLayout))
	}
	return from, to, nil
}

type fetchFunc[R any] func(ctx context.Context, from, to time.Time) ([]R, error)

// loadOrFetch serves a fresh cache snapshot when allowed, otherwise fetches and, for the
// default range only, rewrites the snapshot. The bool reports a cache hit.
func loadOrFetch[R any](ctx context.Context, b *Base, options SyncOptions, fetch fetchFunc[R]) ([]R, bool, error) {
	from, to, err := b.resolveRange(options)
	if err != nil {
		return nil, false, err
	}

	useCache := !options.custom() && b.cachePath != ""
	if useCache && !options.ForceRefresh {
		records, ok, err := readCache[R](b.cachePath, b.cacheTTL, b.now())
		if err != nil {
			b.logger.Warn("ignoring unreadable cache", "path", b.cachePath, "error", err)
		}
		if ok {
			b.logger.Debug("serving cached snapshot", "path", b.cachePath, "records", len(records))
			return records, true, nil
		}
	}

	b.logger.Debug("fetching upstream", "from", from.Format(timeutil.DateLayout), "to", to.Format(timeutil.DateLayout))
	records, err := fetch(ctx, from, to)
	if err != nil {
		return nil, false, err
	}

	if useCache {
		if err := writeCache(b.cachePath, records); err != nil {
			b.logger.Warn("cache write failed", "path", b.cachePath, "error", err)
		}
	}
	return records, false, nil
}

func syncMessage(name string, count int, cached bool) string {
	if cached {
		return fmt.Sprintf("synced %d entries from %s (cached snapshot)", count, name)
	}
	return fmt.Sprintf("synced %d entries from %s", count, name)
}
