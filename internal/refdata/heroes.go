package refdata

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/internal/steam"
)

// UnknownHero is returned for ids missing from the table.
const UnknownHero = "Unknown hero"

// HeroTable maps hero ids to localized names. It is never mutated after load.
type HeroTable map[int]string

// Name returns the localized name for id or UnknownHero.
func (t HeroTable) Name(id int) string {
	if n, ok := t[id]; ok {
		return n
	}
	return UnknownHero
}

// HeroSource is satisfied by *steam.Client.
type HeroSource interface {
	Heroes(ctx context.Context) ([]steam.Hero, error)
}

// HeroCatalog loads the hero table on first use and keeps it for the process
// lifetime. Concurrent first callers share one request; a failed load is not
// cached, so the next caller tries again.
type HeroCatalog struct {
	src   HeroSource
	group singleflight.Group

	mu    sync.RWMutex
	table HeroTable
}

// NewHeroCatalog returns an empty catalog backed by src.
func NewHeroCatalog(src HeroSource) *HeroCatalog {
	return &HeroCatalog{src: src}
}

// Table returns the loaded table, fetching it if needed.
func (c *HeroCatalog) Table(ctx context.Context) (HeroTable, error) {
	c.mu.RLock()
	t := c.table
	c.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	v, err, shared := c.group.Do("heroes", func() (any, error) {
		c.mu.RLock()
		t := c.table
		c.mu.RUnlock()
		if t != nil {
			return t, nil
		}
		heroes, err := c.src.Heroes(ctx)
		if err != nil {
			return nil, err
		}
		table := make(HeroTable, len(heroes))
		for _, h := range heroes {
			table[h.ID] = h.LocalizedName
		}
		c.mu.Lock()
		c.table = table
		c.mu.Unlock()
		logger.REF.LogAttrs(ctx, slog.LevelInfo, "hero table loaded",
			slog.String("event", "refdata.heroes"),
			slog.String("status", "ok"),
			slog.Int("count", len(table)),
		)
		return table, nil
	})
	if err != nil {
		logger.REF.LogAttrs(ctx, slog.LevelWarn, "hero table load failed",
			slog.String("event", "refdata.heroes"),
			slog.String("status", "fail"),
			slog.Bool("shared", shared),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	return v.(HeroTable), nil
}

// Warm loads the table ahead of the first report.
func (c *HeroCatalog) Warm(ctx context.Context) error {
	_, err := c.Table(ctx)
	return err
}

// Len returns the number of loaded heroes, 0 before the first successful load.
func (c *HeroCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}
