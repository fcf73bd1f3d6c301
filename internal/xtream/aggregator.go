package xtream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/showgate/showgate/internal/catalog"
)

// streamRecord is the union of fields observed across get_vod_streams and
// get_series responses. Scalar fields that vary in type across panels are
// declared any and coerced.
type streamRecord struct {
	StreamID           any    `json:"stream_id"`
	SeriesID           any    `json:"series_id"`
	ID                 any    `json:"id"`
	Name               string `json:"name"`
	Title              string `json:"title"`
	StreamIcon         string `json:"stream_icon"`
	Cover              string `json:"cover"`
	Plot               string `json:"plot"`
	Genre              string `json:"genre"`
	Language           string `json:"language"`
	CategoryID         any    `json:"category_id"`
	CategoryName       string `json:"category_name"`
	Rating             any    `json:"rating"`
	Rating5Based       any    `json:"rating_5based"`
	SeasonCount        any    `json:"season_count"`
	ContainerExtension string `json:"container_extension"`
}

type categoryRecord struct {
	CategoryID   any    `json:"category_id"`
	CategoryName string `json:"category_name"`
}

type episodeRecord struct {
	ID                 any    `json:"id"`
	EpisodeNum         any    `json:"episode_num"`
	Title              string `json:"title"`
	Season             any    `json:"season"`
	ContainerExtension string `json:"container_extension"`
}

// FetchCategories issues the movie and series category requests in parallel
// and concatenates the results. Each request is independently fault-tolerant:
// a failed or malformed response for one kind yields an empty list for that
// kind, never an error for the whole operation. No dedup across kinds; a
// movie category and a series category sharing a name stay separate entries.
func (c *Client) FetchCategories(ctx context.Context, creds Credentials) ([]catalog.Category, error) {
	creds = creds.Normalize()
	if !creds.Complete() {
		return nil, ErrNotConfigured
	}
	var wg sync.WaitGroup
	var movieCats, seriesCats []catalog.Category
	wg.Add(2)
	go func() {
		defer wg.Done()
		movieCats = c.fetchCategoryList(ctx, creds, catalog.KindMovie)
	}()
	go func() {
		defer wg.Done()
		seriesCats = c.fetchCategoryList(ctx, creds, catalog.KindSeries)
	}()
	wg.Wait()
	return append(movieCats, seriesCats...), nil
}

// fetchCategoryList degrades to nil on any upstream or decode failure.
func (c *Client) fetchCategoryList(ctx context.Context, creds Credentials, kind catalog.Kind) []catalog.Category {
	action := "get_vod_categories"
	if kind == catalog.KindSeries {
		action = "get_series_categories"
	}
	body, err := c.apiGet(ctx, creds.apiBase()+"&action="+action)
	if err != nil {
		return nil
	}
	recs := decodeCategories(body)
	out := make([]catalog.Category, 0, len(recs))
	for _, r := range recs {
		id := flexString(r.CategoryID)
		if id == "" {
			continue
		}
		out = append(out, catalog.Category{
			ID:   id,
			Name: strings.TrimSpace(r.CategoryName),
			Kind: kind,
		})
	}
	return out
}

// FetchItems fetches the full upstream listing for kind (optionally filtered
// server-side by categoryID), then slices the requested page client-side and
// normalizes only the sliced records. One full upstream fetch per page request
// is a known inefficiency accepted for provider-API simplicity; these panels
// have no cursor support. Upstream failure or a non-array payload is treated
// as an empty listing, never an error.
func (c *Client) FetchItems(ctx context.Context, creds Credentials, kind catalog.Kind, categoryID string, page, pageSize int) (catalog.Page, error) {
	creds = creds.Normalize()
	if !creds.Complete() {
		return catalog.Page{}, ErrNotConfigured
	}
	recs := c.fetchListing(ctx, creds, kind, categoryID)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(recs)
	start := (page - 1) * pageSize
	end := page * pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := make([]catalog.Item, 0, end-start)
	for _, rec := range recs[start:end] {
		if it, ok := normalizeRecord(creds, kind, rec, nil); ok {
			items = append(items, it)
		}
	}
	return catalog.Page{
		Items:   items,
		Total:   total,
		Page:    page,
		HasMore: page*pageSize < total,
	}, nil
}

// fetchListing returns the raw records for kind, nil on any failure.
func (c *Client) fetchListing(ctx context.Context, creds Credentials, kind catalog.Kind, categoryID string) []streamRecord {
	action := "get_vod_streams"
	if kind == catalog.KindSeries {
		action = "get_series"
	}
	u := creds.apiBase() + "&action=" + action
	if categoryID != "" {
		u += "&category_id=" + url.QueryEscape(categoryID)
	}
	body, err := c.apiGet(ctx, u)
	if err != nil {
		return nil
	}
	return decodeRecords(body)
}

// normalizeRecord maps one upstream record to an Item. catNames, when
// non-nil, resolves category_id to a display name for records that don't
// carry category_name themselves. Records without a usable native ID are
// dropped (ok=false).
func normalizeRecord(creds Credentials, kind catalog.Kind, rec streamRecord, catNames map[string]string) (catalog.Item, bool) {
	nativeID := flexString(rec.StreamID)
	if kind == catalog.KindSeries {
		nativeID = flexString(rec.SeriesID)
		if nativeID == "" {
			nativeID = flexString(rec.ID)
		}
	}
	if nativeID == "" {
		return catalog.Item{}, false
	}
	title := strings.TrimSpace(rec.Name)
	if title == "" {
		title = strings.TrimSpace(rec.Title)
	}
	cover := rec.StreamIcon
	if cover == "" {
		cover = rec.Cover
	}
	category := strings.TrimSpace(rec.CategoryName)
	if category == "" && catNames != nil {
		category = catNames[flexString(rec.CategoryID)]
	}
	if category == "" {
		category = strings.TrimSpace(rec.Genre)
	}
	popularity := flexFloat(rec.Rating5Based)
	if popularity == 0 {
		popularity = flexFloat(rec.Rating)
	}
	it := catalog.Item{
		ID:         catalog.ItemID(kind, nativeID),
		Title:      title,
		CoverURL:   cover,
		Category:   category,
		Synopsis:   rec.Plot,
		Kind:       kind,
		Language:   strings.TrimSpace(rec.Language),
		Popularity: popularity,
	}
	if kind == catalog.KindMovie {
		ext := containerExt(rec.ContainerExtension, "mp4")
		it.VideoURL = fmt.Sprintf("%s/movie/%s/%s/%s.%s",
			creds.BaseURL, url.PathEscape(creds.Username), url.PathEscape(creds.Password),
			url.PathEscape(nativeID), url.PathEscape(ext))
	} else {
		// Series have no single playable URL; episodes resolve later.
		it.SeriesID = nativeID
		it.SeasonCount = flexInt(rec.SeasonCount)
	}
	return it, true
}

// FetchEpisodes resolves the episode list for one series. The panel returns a
// mapping of season label to episode records in arbitrary key order, so the
// flattened list is sorted by (season, episode) before returning. Upstream
// failure yields an empty list, never an error.
func (c *Client) FetchEpisodes(ctx context.Context, creds Credentials, seriesID string) ([]catalog.Episode, error) {
	creds = creds.Normalize()
	if !creds.Complete() {
		return nil, ErrNotConfigured
	}
	body, err := c.apiGet(ctx, creds.apiBase()+"&action=get_series_info&series_id="+url.QueryEscape(seriesID))
	if err != nil {
		return []catalog.Episode{}, nil
	}
	var info struct {
		Episodes map[string][]episodeRecord `json:"episodes"`
	}
	if err := json.Unmarshal(body, &info); err != nil || info.Episodes == nil {
		return []catalog.Episode{}, nil
	}
	eps := make([]catalog.Episode, 0, 32)
	for seasonKey, recs := range info.Episodes {
		seasonNum := flexInt(seasonKey)
		for _, rec := range recs {
			id := flexString(rec.ID)
			if id == "" {
				continue
			}
			season := flexInt(rec.Season)
			if season == 0 {
				season = seasonNum
			}
			epNum := flexInt(rec.EpisodeNum)
			ext := containerExt(rec.ContainerExtension, "mkv")
			eps = append(eps, catalog.Episode{
				ID:                 id,
				Name:               strings.TrimSpace(rec.Title),
				Season:             season,
				Episode:            epNum,
				StreamURL:          fmt.Sprintf("%s/series/%s/%s/%s.%s", creds.BaseURL, url.PathEscape(creds.Username), url.PathEscape(creds.Password), url.PathEscape(id), url.PathEscape(ext)),
				WatchHistoryMarker: catalog.WatchMarker(seriesID, season, epNum),
			})
		}
	}
	catalog.SortEpisodes(eps)
	return eps, nil
}

// Diagnose performs an authentication-only call to the panel root and maps
// the provider-reported account status to a typed error. An empty catalog is
// ambiguous (no content vs rejected credentials); this call disambiguates.
// nil means the account checks out and the catalog is genuinely empty.
func (c *Client) Diagnose(ctx context.Context, creds Credentials) error {
	creds = creds.Normalize()
	if !creds.Complete() {
		return ErrNotConfigured
	}
	body, err := c.apiGet(ctx, creds.apiBase())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	var auth struct {
		UserInfo struct {
			Status any `json:"status"`
		} `json:"user_info"`
	}
	if err := json.Unmarshal(body, &auth); err != nil {
		return fmt.Errorf("%w: malformed auth response", ErrProviderUnreachable)
	}
	switch strings.ToLower(flexString(auth.UserInfo.Status)) {
	case "disabled", "banned":
		return ErrAccountDisabled
	case "expired":
		return ErrAccountExpired
	}
	return nil
}

// CombinedResult is one page of the combined catalog fetch plus the
// page-local category index.
type CombinedResult struct {
	Page       catalog.Page `json:"page"`
	Categories []string     `json:"categories"`
}

// FetchCombined is the direct-variant entry point: categories and listings
// for both kinds in one fan-out round trip. The four upstream calls run
// concurrently with per-call isolation; the aggregator waits for all to
// settle before composing. Category names are joined onto items so the index
// can be built from item pages.
//
// The category index in the result covers only the returned page, not the
// whole catalog. The relay's separate categories action fetches the full
// list; this asymmetry is deliberate (the direct variant avoids paying for
// the whole catalog on every page).
//
// When the fetch yields zero categories AND zero items across both kinds,
// the account-status diagnostic runs to disambiguate "no content" from
// "provider rejected us". It must not run when any items exist, even with
// empty categories.
func (c *Client) FetchCombined(ctx context.Context, creds Credentials, page, pageSize int) (CombinedResult, error) {
	creds = creds.Normalize()
	if !creds.Complete() {
		return CombinedResult{}, ErrNotConfigured
	}

	var wg sync.WaitGroup
	var movieCats, seriesCats []catalog.Category
	var movieRecs, seriesRecs []streamRecord
	wg.Add(4)
	go func() {
		defer wg.Done()
		movieCats = c.fetchCategoryList(ctx, creds, catalog.KindMovie)
	}()
	go func() {
		defer wg.Done()
		seriesCats = c.fetchCategoryList(ctx, creds, catalog.KindSeries)
	}()
	go func() {
		defer wg.Done()
		movieRecs = c.fetchListing(ctx, creds, catalog.KindMovie, "")
	}()
	go func() {
		defer wg.Done()
		seriesRecs = c.fetchListing(ctx, creds, catalog.KindSeries, "")
	}()
	wg.Wait()

	if len(movieCats) == 0 && len(seriesCats) == 0 && len(movieRecs) == 0 && len(seriesRecs) == 0 {
		if err := c.Diagnose(ctx, creds); err != nil {
			return CombinedResult{}, err
		}
		return CombinedResult{Page: catalog.Paginate(nil, page, pageSize), Categories: []string{}}, nil
	}

	movieNames := categoryNameMap(movieCats)
	seriesNames := categoryNameMap(seriesCats)
	items := make([]catalog.Item, 0, len(movieRecs)+len(seriesRecs))
	for _, rec := range movieRecs {
		if it, ok := normalizeRecord(creds, catalog.KindMovie, rec, movieNames); ok {
			items = append(items, it)
		}
	}
	for _, rec := range seriesRecs {
		if it, ok := normalizeRecord(creds, catalog.KindSeries, rec, seriesNames); ok {
			items = append(items, it)
		}
	}

	p := catalog.Paginate(items, page, pageSize)
	return CombinedResult{
		Page:       p,
		Categories: catalog.IndexCategories(p.Items),
	}, nil
}

func categoryNameMap(cats []catalog.Category) map[string]string {
	m := make(map[string]string, len(cats))
	for _, c := range cats {
		m[c.ID] = c.Name
	}
	return m
}
