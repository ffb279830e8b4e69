package tilecache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkordes/travel-diary/internal/domain"
)

// DefaultURLTemplate is the OpenStreetMap standard tile layer.
const DefaultURLTemplate = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

// maxTileBytes caps a single tile download. Real OSM tiles are well under 100KB.
const maxTileBytes = 4 << 20

// Fetcher downloads the raw image bytes of one tile.
type Fetcher interface {
	Fetch(ctx context.Context, t domain.TileAddress) ([]byte, error)
}

// HTTPFetcher downloads tiles from a {z}/{x}/{y} URL template.
type HTTPFetcher struct {
	client      *http.Client
	urlTemplate string
	userAgent   string
}

// NewHTTPFetcher constructs an HTTPFetcher. The OSM tile usage policy
// requires an identifying User-Agent, so userAgent should never be empty.
func NewHTTPFetcher(client *http.Client, urlTemplate, userAgent string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	return &HTTPFetcher{client: client, urlTemplate: urlTemplate, userAgent: userAgent}
}

// URL expands the template for tile t.
func (f *HTTPFetcher) URL(t domain.TileAddress) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
	).Replace(f.urlTemplate)
}

// Fetch performs a single GET for the tile. There is no retry: a failed
// download is retried only when the user triggers it again.
func (f *HTTPFetcher) Fetch(ctx context.Context, t domain.TileAddress) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(t), nil)
	if err != nil {
		return nil, fmt.Errorf("tilecache.HTTPFetcher.Fetch: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "image/png,image/webp;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tilecache.HTTPFetcher.Fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tilecache.HTTPFetcher.Fetch: tile %s: unexpected status %d", t, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("tilecache.HTTPFetcher.Fetch: read body: %w", err)
	}
	if len(data) > maxTileBytes {
		return nil, fmt.Errorf("tilecache.HTTPFetcher.Fetch: tile %s exceeds %d bytes", t, maxTileBytes)
	}
	return data, nil
}
