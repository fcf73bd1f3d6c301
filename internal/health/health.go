package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/showgate/showgate/internal/xtream"
)

// CheckProvider hits the panel auth endpoint and verifies it answers with an
// Xtream auth response. Returns nil if OK, error with message if not.
func CheckProvider(ctx context.Context, creds xtream.Credentials) error {
	creds = creds.Normalize()
	if !creds.Complete() {
		return xtream.ErrNotConfigured
	}
	authURL := creds.BaseURL + "/player_api.php?username=" + url.QueryEscape(creds.Username) +
		"&password=" + url.QueryEscape(creds.Password)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("provider auth response not JSON: %w", err)
	}
	if raw["user_info"] == nil && raw["auth"] == nil {
		return fmt.Errorf("provider auth response missing user_info")
	}
	return nil
}
