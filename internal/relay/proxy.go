package relay

import (
	"io"
	"net/http"

	"github.com/showgate/showgate/internal/safeurl"
)

// handleProxy re-serves a remote resource (media streams, PDFs) from this
// origin so that insecure-transport or CORS-restricted sources become
// loadable. The body streams straight through; nothing is buffered whole.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}
	if !safeurl.IsHTTPOrHTTPS(target) {
		writeError(w, http.StatusBadRequest, "unsupported url scheme")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid url")
		return
	}
	req.Header.Set("User-Agent", "Showgate/1.0")
	// Forwarding Range is what makes seeking work through the relay.
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := s.streamClient.Do(req)
	if err != nil {
		upstreamFailuresTotal.WithLabelValues("proxy").Inc()
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}
	defer resp.Body.Close()

	for _, h := range []string{"Content-Type", "Content-Length", "Content-Range"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(resp.StatusCode)
	if r.Method == http.MethodHead {
		return
	}
	n, _ := io.Copy(w, resp.Body)
	proxyBytesTotal.Add(float64(n))
}
