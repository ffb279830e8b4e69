// Package tilecache keeps a bounded set of raster map tiles on local storage
// so the map can be drawn without network access.
//
// Tiles live flat in one directory as "{z}_{x}_{y}.png". A file only appears
// at that path once its download completed and decoded as an image; nothing
// evicts tiles, the cache grows until ClearCache is called.
package tilecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png" // register the png decoder for image.DecodeConfig
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "golang.org/x/image/webp" // some tile servers answer with webp
	"golang.org/x/sync/singleflight"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/geo"
)

// DirName is the cache directory name under the app's document directory.
const DirName = "mapTiles"

// TileData is a cached tile ready to be drawn as an overlay polygon.
type TileData struct {
	Tile   domain.TileAddress
	Bounds geo.Bounds
	Path   string
	Size   int64
}

// fetchTimeout bounds one shared tile download.
const fetchTimeout = 30 * time.Second

// Manager downloads, lists, and purges cached tiles.
type Manager struct {
	dir     string
	fetcher Fetcher
	workers int
	log     *slog.Logger
	flight  singleflight.Group
}

// New constructs a Manager storing tiles in dir. workers bounds the number of
// parallel downloads issued by Prefetch.
func New(dir string, fetcher Fetcher, workers int, log *slog.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{dir: dir, fetcher: fetcher, workers: workers, log: log}
}

// Dir returns the cache directory.
func (m *Manager) Dir() string { return m.dir }

// Path returns the deterministic file path for tile t.
func (m *Manager) Path(t domain.TileAddress) string {
	return filepath.Join(m.dir, t.Filename())
}

// CacheTile makes tile t available offline. It is idempotent: when the file
// already exists nothing is downloaded and downloaded is false. Concurrent
// calls for the same tile share one download, and a caller giving up does not
// cancel it for the others.
//
// On failure the error is logged and returned, and the target path is left
// untouched.
func (m *Manager) CacheTile(ctx context.Context, t domain.TileAddress) (downloaded bool, err error) {
	if !t.Valid() {
		return false, fmt.Errorf("tilecache.Manager.CacheTile: %w: tile %s outside the grid", domain.ErrValidation, t)
	}
	path := m.Path(t)
	if exists(path) {
		return false, nil
	}

	ch := m.flight.DoChan(t.Filename(), func() (any, error) {
		// Detached from the starting caller; each waiter selects on its own ctx.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		if exists(path) {
			return false, nil
		}
		if err := os.MkdirAll(m.dir, 0o755); err != nil {
			return false, fmt.Errorf("create cache dir: %w", err)
		}

		data, err := m.fetcher.Fetch(ctx, t)
		if err != nil {
			m.log.WarnContext(ctx, "tile download failed", "tile", t.String(), "error", err)
			return false, err
		}
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			m.log.WarnContext(ctx, "tile download is not an image", "tile", t.String(), "error", err)
			return false, fmt.Errorf("decode tile %s: %w", t, err)
		}
		if err := writeAtomic(m.dir, path, data); err != nil {
			return false, err
		}
		m.log.DebugContext(ctx, "tile cached", "tile", t.String(), "bytes", len(data))
		return true, nil
	})

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("tilecache.Manager.CacheTile: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return false, fmt.Errorf("tilecache.Manager.CacheTile: %w", res.Err)
		}
		return res.Val.(bool), nil
	}
}

// LoadCachedTiles scans the cache directory and returns every tile whose file
// name matches "{z}_{x}_{y}.png", ordered by z, x, y. Other files are skipped
// silently. A missing directory yields an empty list.
func (m *Manager) LoadCachedTiles() ([]TileData, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []TileData{}, nil
		}
		return nil, fmt.Errorf("tilecache.Manager.LoadCachedTiles: %w", err)
	}

	tiles := make([]TileData, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		t, ok := geo.ParseTileFilename(e.Name())
		if !ok {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		tiles = append(tiles, TileData{
			Tile:   t,
			Bounds: geo.TileBounds(t),
			Path:   filepath.Join(m.dir, e.Name()),
			Size:   size,
		})
	}

	sort.Slice(tiles, func(i, j int) bool {
		a, b := tiles[i].Tile, tiles[j].Tile
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	return tiles, nil
}

// ClearCache deletes every file in the cache directory. Deletion is
// best-effort: a file that cannot be removed does not stop the others, and
// all failures are returned joined once the pass is complete.
func (m *Manager) ClearCache() (removed int, err error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("tilecache.Manager.ClearCache: %w", err)
	}

	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.Name())); err != nil {
			m.log.Warn("could not delete cached tile", "file", e.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("tilecache.Manager.ClearCache: %w", errors.Join(errs...))
	}
	return removed, nil
}

// Stats summarises the cache contents.
type Stats struct {
	Tiles int   `json:"tiles"`
	Bytes int64 `json:"bytes"`
}

// Stats counts cached tiles and their total size on disk.
func (m *Manager) Stats() (Stats, error) {
	tiles, err := m.LoadCachedTiles()
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	for _, t := range tiles {
		s.Tiles++
		s.Bytes += t.Size
	}
	return s, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes data to a temp file in dir and renames it onto path, so
// readers never observe a half-written tile.
func writeAtomic(dir, path string, data []byte) error {
	f, err := os.CreateTemp(dir, ".tile-*")
	if err != nil {
		return fmt.Errorf("create temp tile: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp tile: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp tile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit tile: %w", err)
	}
	return nil
}
