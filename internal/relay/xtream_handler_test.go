package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/showgate/showgate/internal/catalog"
	"github.com/showgate/showgate/internal/xtream"
)

func newTestServer() *Server {
	client := &xtream.Client{
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Limiter:    rate.NewLimiter(rate.Inf, 1),
		UserAgent:  "Showgate/1.0",
	}
	return New(":0", 20, client)
}

// upstreamPanel counts every request it receives so tests can assert the
// relay never reached upstream.
func upstreamPanel(calls *atomic.Int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("action") {
		case "get_vod_categories":
			w.Write([]byte(`[{"category_id":"1","category_name":"Action"}]`))
		case "get_series_categories":
			w.Write([]byte(`[{"category_id":"9","category_name":"Drama"}]`))
		case "get_vod_streams":
			w.Write([]byte(`[{"stream_id":1,"name":"One"},{"stream_id":2,"name":"Two"},{"stream_id":3,"name":"Three"}]`))
		case "get_series":
			w.Write([]byte(`[{"series_id":4,"name":"Show"}]`))
		case "get_series_info":
			w.Write([]byte(`{"episodes":{"1":[{"id":11,"episode_num":1,"title":"pilot"}]}}`))
		default:
			w.Write([]byte(`{"user_info":{"status":"Active"}}`))
		}
	}
}

func postXtream(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/xtream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleXtream_invalidBody(t *testing.T) {
	rec := postXtream(t, newTestServer(), `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid request body", body["error"])
}

func TestHandleXtream_missingCredentials(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(upstreamPanel(&calls))
	defer upstream.Close()

	cases := []string{
		`{"action":"vod"}`,
		`{"action":"vod","url":"` + upstream.URL + `","username":"u"}`,
		`{"action":"vod","url":"` + upstream.URL + `","password":"p"}`,
		`{"action":"categories","username":"u","password":"p"}`,
		`{"action":"vod","url":"  ","username":"u","password":"p"}`,
	}
	s := newTestServer()
	for _, body := range cases {
		rec := postXtream(t, s, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "missing provider credentials (url, username, password)", resp["error"])
	}
	assert.Zero(t, calls.Load(), "rejected requests must not hit upstream")
}

func TestHandleXtream_unknownAction(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(upstreamPanel(&calls))
	defer upstream.Close()

	rec := postXtream(t, newTestServer(),
		`{"action":"drop_tables","url":"`+upstream.URL+`","username":"u","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown action", resp["error"])
	assert.Zero(t, calls.Load())
}

func TestHandleXtream_categories(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(upstreamPanel(&calls))
	defer upstream.Close()

	rec := postXtream(t, newTestServer(),
		`{"action":"categories","url":"`+upstream.URL+`","username":"u","password":"p"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Categories []catalog.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 2)
	assert.Equal(t, "Action", resp.Categories[0].Name)
	assert.Equal(t, catalog.KindSeries, resp.Categories[1].Kind)
}

func TestHandleXtream_vodPagination(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(upstreamPanel(&calls))
	defer upstream.Close()

	rec := postXtream(t, newTestServer(),
		`{"action":"vod","url":"`+upstream.URL+`","username":"u","password":"p","page":2,"limit":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var page catalog.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.False(t, page.HasMore)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "movie_3", page.Items[0].ID)
}

func TestHandleXtream_seriesEpisodes(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(upstreamPanel(&calls))
	defer upstream.Close()

	s := newTestServer()

	rec := postXtream(t, s,
		`{"action":"series_episodes","url":"`+upstream.URL+`","username":"u","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "series_id is required")

	rec = postXtream(t, s,
		`{"action":"series_episodes","url":"`+upstream.URL+`","username":"u","password":"p","series_id":"4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Episodes []catalog.Episode `json:"episodes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Episodes, 1)
	assert.Equal(t, "pilot", resp.Episodes[0].Name)
	assert.Equal(t, "4:s01e01", resp.Episodes[0].WatchHistoryMarker)
}

func TestHandleXtream_emptyListsNotNull(t *testing.T) {
	// Upstream rejects everything; the relay must still answer 200 with
	// empty arrays, never null.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer upstream.Close()

	s := newTestServer()
	rec := postXtream(t, s,
		`{"action":"categories","url":"`+upstream.URL+`","username":"u","password":"p"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"categories":[]}`, rec.Body.String())

	rec = postXtream(t, s,
		`{"action":"series_episodes","url":"`+upstream.URL+`","username":"u","password":"p","series_id":"4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"episodes":[]}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/xtream", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Body.String(), "preflight must short-circuit before handlers")
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}
