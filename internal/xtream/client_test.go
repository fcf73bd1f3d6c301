package xtream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

// newTestClient returns a client without pacing so fixtures run fast.
func newTestClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Limiter:    rate.NewLimiter(rate.Inf, 1),
		UserAgent:  "Showgate/test",
	}
}

func TestApiGet_retry429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(429)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_info":{}}`))
	}))
	defer srv.Close()

	body, err := newTestClient().apiGet(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) == 0 {
		t.Error("expected body")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestApiGet_noRetryOn404(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(404)
	}))
	defer srv.Close()

	if _, err := newTestClient().apiGet(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on 404")
	}
	if attempts != 1 {
		t.Errorf("404 should not be retried, got %d attempts", attempts)
	}
}

func TestApiGet_brotliBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Header().Set("Content-Type", "application/json")
		bw := brotli.NewWriter(w)
		bw.Write([]byte(`[{"category_id":"1","category_name":"Drama"}]`))
		bw.Close()
	}))
	defer srv.Close()

	body, err := newTestClient().apiGet(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `[{"category_id":"1","category_name":"Drama"}]` {
		t.Errorf("decoded body = %q", body)
	}
}

func TestCredentials(t *testing.T) {
	c := Credentials{BaseURL: " http://prov:8080/ ", Username: "u", Password: "p"}.Normalize()
	if c.BaseURL != "http://prov:8080" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if !c.Complete() {
		t.Error("normalized credentials should be complete")
	}
	if (Credentials{BaseURL: "http://prov", Username: "u"}).Complete() {
		t.Error("missing password should be incomplete")
	}
}
