package tilecache

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/geo"
)

// PrefetchResult reports what a Prefetch pass did.
type PrefetchResult struct {
	Zoom       int `json:"zoom"`
	Requested  int `json:"requested"`
	Downloaded int `json:"downloaded"`
	Cached     int `json:"already_cached"`
	Failed     int `json:"failed"`
}

// Prefetch caches every tile covering region at zoom. Downloads run on at
// most m.workers goroutines. A failed tile is counted and logged but does not
// cancel its siblings; only cancellation of ctx aborts the pass.
func (m *Manager) Prefetch(ctx context.Context, region domain.Region, zoom int) (PrefetchResult, error) {
	tiles, err := geo.TilesCoveringRegion(region, zoom)
	if err != nil {
		return PrefetchResult{}, fmt.Errorf("tilecache.Manager.Prefetch: %w", err)
	}

	var downloaded, cached, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for _, t := range tiles {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok, err := m.CacheTile(gctx, t)
			switch {
			case err != nil:
				failed.Add(1)
			case ok:
				downloaded.Add(1)
			default:
				cached.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := PrefetchResult{
		Zoom:       zoom,
		Requested:  len(tiles),
		Downloaded: int(downloaded.Load()),
		Cached:     int(cached.Load()),
		Failed:     int(failed.Load()),
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("tilecache.Manager.Prefetch: %w", err)
	}
	m.log.InfoContext(ctx, "tile prefetch finished",
		"zoom", zoom, "requested", res.Requested, "downloaded", res.Downloaded,
		"already_cached", res.Cached, "failed", res.Failed)
	return res, nil
}
