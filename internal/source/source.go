// Package source selects where the client gets its catalog from: straight
// from the provider when running inside the native shell, or through the
// relay when mixed-content/CORS rules block direct fetches. Both paths
// produce the same normalized shapes.
package source

import (
	"context"

	"github.com/showgate/showgate/internal/catalog"
	"github.com/showgate/showgate/internal/xtream"
)

// Environment is the injected runtime-capability flag. Checking an ambient
// global for the native shell would make the direct-vs-relay branch
// untestable, so callers hand in whatever detection they have.
type Environment interface {
	IsNativeHost() bool
}

// Source is the catalog surface both variants implement.
type Source interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
	Items(ctx context.Context, kind catalog.Kind, categoryID string, page, pageSize int) (catalog.Page, error)
	Episodes(ctx context.Context, seriesID string) ([]catalog.Episode, error)
}

// Pick returns direct inside the native shell, relay otherwise.
func Pick(env Environment, direct, relay Source) Source {
	if env.IsNativeHost() {
		return direct
	}
	return relay
}

// Direct talks to the provider with locally held credentials.
type Direct struct {
	Client *xtream.Client
	Creds  xtream.Credentials
}

func (d *Direct) Categories(ctx context.Context) ([]catalog.Category, error) {
	return d.Client.FetchCategories(ctx, d.Creds)
}

func (d *Direct) Items(ctx context.Context, kind catalog.Kind, categoryID string, page, pageSize int) (catalog.Page, error) {
	return d.Client.FetchItems(ctx, d.Creds, kind, categoryID, page, pageSize)
}

func (d *Direct) Episodes(ctx context.Context, seriesID string) ([]catalog.Episode, error) {
	return d.Client.FetchEpisodes(ctx, d.Creds, seriesID)
}

// Combined is the direct-only entry point: categories and both listings in
// one fan-out, with the empty-catalog diagnostic. The relay variant has no
// combined call; web clients use the separate actions.
func (d *Direct) Combined(ctx context.Context, page, pageSize int) (xtream.CombinedResult, error) {
	return d.Client.FetchCombined(ctx, d.Creds, page, pageSize)
}
