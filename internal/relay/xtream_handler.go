package relay

import (
	"encoding/json"
	"net/http"

	"github.com/showgate/showgate/internal/catalog"
	"github.com/showgate/showgate/internal/xtream"
)

// apiRequest is the single multiplexed request shape: one action field picks
// the operation, credentials ride in the body (the relay holds no account).
type apiRequest struct {
	Action     string `json:"action"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	CategoryID string `json:"category_id"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	SeriesID   string `json:"series_id"`
}

// handleXtream dispatches categories | vod | series | series_episodes.
// Requests missing any credential field are rejected before any upstream
// call is attempted.
func (s *Server) handleXtream(w http.ResponseWriter, r *http.Request) {
	var req apiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	creds := xtream.Credentials{
		BaseURL:  req.URL,
		Username: req.Username,
		Password: req.Password,
	}.Normalize()
	if !creds.Complete() {
		writeError(w, http.StatusBadRequest, "missing provider credentials (url, username, password)")
		return
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = s.PageSize
	}

	switch req.Action {
	case "categories":
		cats, err := s.client.FetchCategories(r.Context(), creds)
		if err != nil {
			upstreamFailuresTotal.WithLabelValues("categories").Inc()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if cats == nil {
			cats = []catalog.Category{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": cats})

	case "vod", "series":
		kind := catalog.KindMovie
		if req.Action == "series" {
			kind = catalog.KindSeries
		}
		pageResult, err := s.client.FetchItems(r.Context(), creds, kind, req.CategoryID, page, limit)
		if err != nil {
			upstreamFailuresTotal.WithLabelValues(req.Action).Inc()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, pageResult)

	case "series_episodes":
		if req.SeriesID == "" {
			writeError(w, http.StatusBadRequest, "missing series_id")
			return
		}
		eps, err := s.client.FetchEpisodes(r.Context(), creds, req.SeriesID)
		if err != nil {
			upstreamFailuresTotal.WithLabelValues("series_episodes").Inc()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if eps == nil {
			eps = []catalog.Episode{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"episodes": eps})

	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
