package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Kind separates the two provider content namespaces. Provider stream IDs are
// only unique within a kind, so item IDs are always prefixed with it.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ItemID builds the synthesized catalog ID for a provider-native stream ID.
// "movie_42" and "series_42" stay distinct even when the provider reuses 42.
func ItemID(kind Kind, nativeID string) string {
	return string(kind) + "_" + nativeID
}

// Item is the normalized unit of content. Optional upstream fields default to
// empty string or zero, never null, so consumers don't need presence checks.
// For series, VideoURL is empty at listing time (episodes are resolved
// separately via SeriesID).
type Item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	CoverURL    string  `json:"coverUrl"`
	Category    string  `json:"category"`
	Synopsis    string  `json:"synopsis"`
	VideoURL    string  `json:"videoUrl"`
	Kind        Kind    `json:"kind"`
	Language    string  `json:"language"`
	Popularity  float64 `json:"popularity"`
	SeasonCount int     `json:"seasonCount"`
	SeriesID    string  `json:"seriesId,omitempty"`
}

// Category is one provider category scoped by kind. A movie category and a
// series category sharing a name are kept as two entries.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Episode is one playable episode of a series, produced by episode resolution.
type Episode struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	StreamURL          string `json:"streamUrl"`
	Season             int    `json:"season"`
	Episode            int    `json:"episode"`
	WatchHistoryMarker string `json:"watchHistoryMarker"`
}

// WatchMarker returns the stable key clients use to record watch progress for
// an episode. Keyed on series identity plus position so it survives provider
// episode-ID churn.
func WatchMarker(seriesID string, season, episode int) string {
	return fmt.Sprintf("%s:s%02de%02d", seriesID, season, episode)
}

// SortEpisodes orders episodes by (season, episode) ascending. Upstream
// season-key iteration order is unspecified, so callers must not rely on
// arrival order.
func SortEpisodes(eps []Episode) {
	sort.SliceStable(eps, func(i, j int) bool {
		if eps[i].Season != eps[j].Season {
			return eps[i].Season < eps[j].Season
		}
		return eps[i].Episode < eps[j].Episode
	})
}

// Page is one client-side page sliced out of a full upstream listing.
type Page struct {
	Items   []Item `json:"items"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	HasMore bool   `json:"hasMore"`
}

// Paginate slices [(page-1)*size, page*size) out of items. Page numbers start
// at 1; out-of-range pages yield an empty (not nil) item list so JSON encodes
// as [] rather than null.
func Paginate(items []Item, page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	total := len(items)
	start := (page - 1) * size
	end := page * size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	out := make([]Item, end-start)
	copy(out, items[start:end])
	return Page{
		Items:   out,
		Total:   total,
		Page:    page,
		HasMore: page*size < total,
	}
}

// IndexCategories returns the distinct, non-empty category names observed on
// items, sorted lexicographically for stable display order. It only reflects
// the items in hand; callers paging through a catalog get a page-local index.
func IndexCategories(items []Item) []string {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Category != "" {
			seen[it.Category] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Catalog is a normalized snapshot of one provider's content, safe for
// concurrent replace/read.
type Catalog struct {
	mu         sync.RWMutex
	Items      []Item     `json:"items"`
	Categories []Category `json:"categories"`
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Replace swaps in a freshly fetched item + category set.
func (c *Catalog) Replace(items []Item, categories []Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Items = items
	c.Categories = categories
}

// Snapshot returns a copy of items and categories for read-only use.
func (c *Catalog) Snapshot() (items []Item, categories []Category) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items = make([]Item, len(c.Items))
	copy(items, c.Items)
	categories = make([]Category, len(c.Categories))
	copy(categories, c.Categories)
	return items, categories
}

// Save writes the catalog to path as JSON using a temp-file-then-rename
// strategy so readers never see a partially-written file.
func (c *Catalog) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(filepath.Clean(path))
	tmp, err := os.CreateTemp(dir, ".catalog-*.json.tmp")
	if err != nil {
		return fmt.Errorf("catalog save: create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("catalog save: write: %w", writeErr)
		}
		return fmt.Errorf("catalog save: close: %w", closeErr)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog save: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog save: rename: %w", err)
	}
	return nil
}

// Load replaces the catalog with the contents of path (JSON).
func (c *Catalog) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var out struct {
		Items      []Item     `json:"items"`
		Categories []Category `json:"categories"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	c.Replace(out.Items, out.Categories)
	return nil
}
