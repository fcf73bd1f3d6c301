package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/showgate/showgate/internal/catalog"
	"github.com/showgate/showgate/internal/xtream"
)

// Relay reaches the provider through the relay's action-multiplexed
// endpoint, shipping credentials in each request body.
type Relay struct {
	Endpoint   string // e.g. https://gate.example.com/api/xtream
	Creds      xtream.Credentials
	HTTPClient *http.Client
}

type relayRequest struct {
	Action     string `json:"action"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	CategoryID string `json:"category_id,omitempty"`
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	SeriesID   string `json:"series_id,omitempty"`
}

func (r *Relay) post(ctx context.Context, req relayRequest, out any) error {
	creds := r.Creds.Normalize()
	if !creds.Complete() {
		return xtream.ErrNotConfigured
	}
	req.URL = creds.BaseURL
	req.Username = creds.Username
	req.Password = creds.Password

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	client := r.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: xtream.DefaultTimeout}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("relay %s: %w", req.Action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("relay %s: %s", req.Action, e.Error)
		}
		return fmt.Errorf("relay %s: HTTP %d", req.Action, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *Relay) Categories(ctx context.Context) ([]catalog.Category, error) {
	var out struct {
		Categories []catalog.Category `json:"categories"`
	}
	if err := r.post(ctx, relayRequest{Action: "categories"}, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func (r *Relay) Items(ctx context.Context, kind catalog.Kind, categoryID string, page, pageSize int) (catalog.Page, error) {
	action := "vod"
	if kind == catalog.KindSeries {
		action = "series"
	}
	var out catalog.Page
	err := r.post(ctx, relayRequest{
		Action:     action,
		CategoryID: categoryID,
		Page:       page,
		Limit:      pageSize,
	}, &out)
	return out, err
}

func (r *Relay) Episodes(ctx context.Context, seriesID string) ([]catalog.Episode, error) {
	var out struct {
		Episodes []catalog.Episode `json:"episodes"`
	}
	if err := r.post(ctx, relayRequest{Action: "series_episodes", SeriesID: seriesID}, &out); err != nil {
		return nil, err
	}
	return out.Episodes, nil
}
