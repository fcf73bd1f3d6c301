package catalog

import (
	"path/filepath"
	"testing"
)

func TestItemID_distinctAcrossKinds(t *testing.T) {
	movie := ItemID(KindMovie, "42")
	series := ItemID(KindSeries, "42")
	if movie == series {
		t.Fatalf("movie and series IDs collide: %q", movie)
	}
	if movie != "movie_42" {
		t.Errorf("movie ID = %q", movie)
	}
	if series != "series_42" {
		t.Errorf("series ID = %q", series)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]Item, 7)
	for i := range items {
		items[i].ID = ItemID(KindMovie, string(rune('a'+i)))
	}
	cases := []struct {
		page, size          int
		wantLen, wantTotal  int
		wantHasMore         bool
	}{
		{1, 3, 3, 7, true},
		{2, 3, 3, 7, true},
		{3, 3, 1, 7, false},
		{4, 3, 0, 7, false},
		{1, 10, 7, 7, false},
		{0, 3, 3, 7, true}, // page clamps to 1
	}
	for _, tc := range cases {
		p := Paginate(items, tc.page, tc.size)
		if len(p.Items) != tc.wantLen {
			t.Errorf("page %d size %d: got %d items, want %d", tc.page, tc.size, len(p.Items), tc.wantLen)
		}
		if p.Total != tc.wantTotal {
			t.Errorf("page %d size %d: total = %d, want %d", tc.page, tc.size, p.Total, tc.wantTotal)
		}
		if p.HasMore != tc.wantHasMore {
			t.Errorf("page %d size %d: hasMore = %v, want %v", tc.page, tc.size, p.HasMore, tc.wantHasMore)
		}
		if p.Items == nil {
			t.Errorf("page %d size %d: items is nil, want empty slice", tc.page, tc.size)
		}
	}
}

func TestPaginate_exactBoundary(t *testing.T) {
	items := make([]Item, 6)
	p := Paginate(items, 2, 3)
	if p.HasMore {
		t.Error("page 2 of 6 items at size 3 is the last page; hasMore should be false")
	}
	if len(p.Items) != 3 {
		t.Errorf("got %d items, want 3", len(p.Items))
	}
}

func TestIndexCategories(t *testing.T) {
	items := []Item{
		{Category: "Drama"},
		{Category: "Action"},
		{Category: ""},
		{Category: "Drama"},
		{Category: "Comedy"},
	}
	got := IndexCategories(items)
	want := []string{"Action", "Comedy", "Drama"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSortEpisodes(t *testing.T) {
	eps := []Episode{
		{Season: 2, Episode: 1},
		{Season: 1, Episode: 3},
		{Season: 1, Episode: 1},
		{Season: 2, Episode: 2},
		{Season: 1, Episode: 2},
	}
	SortEpisodes(eps)
	prev := eps[0]
	for _, ep := range eps[1:] {
		if ep.Season < prev.Season || (ep.Season == prev.Season && ep.Episode < prev.Episode) {
			t.Fatalf("episodes out of order: s%de%d after s%de%d", ep.Season, ep.Episode, prev.Season, prev.Episode)
		}
		prev = ep
	}
}

func TestCatalogSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c := New()
	c.Replace(
		[]Item{{ID: "movie_1", Title: "First", Kind: KindMovie, VideoURL: "http://p/movie/u/p/1.mp4"}},
		[]Category{{ID: "9", Name: "Drama", Kind: KindMovie}},
	)
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	items, cats := loaded.Snapshot()
	if len(items) != 1 || items[0].ID != "movie_1" {
		t.Errorf("items = %+v", items)
	}
	if len(cats) != 1 || cats[0].Name != "Drama" {
		t.Errorf("categories = %+v", cats)
	}
}
