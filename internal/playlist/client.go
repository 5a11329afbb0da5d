// Package playlist talks to the external playlist provider. The core treats
// it as an opaque, possibly-failing source of validated track lists.
package playlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fantasylabel/label-server-go/internal/config"
	"github.com/fantasylabel/label-server-go/internal/league"
)

// Provider fetches validated playlists. All failures surface as a single
// league.ErrPlaylistFetchFailed kind.
type Provider interface {
	FetchValidatedPlaylist(ctx context.Context, playlistURL string) (*league.Playlist, error)
}

// HTTPProvider is the HTTP implementation with an outbound rate limit.
type HTTPProvider struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPProvider builds a provider from config.
func NewHTTPProvider(cfg config.PlaylistConfig, logger *zap.Logger) *HTTPProvider {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

type playlistResponse struct {
	PlaylistName string `json:"playlistName"`
	Tracks       []struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		ArtistNames []string `json:"artistNames"`
		AlbumArt    string   `json:"albumArt"`
		DurationMs  int      `json:"durationMs"`
		Position    int      `json:"position"`
	} `json:"tracks"`
}

// FetchValidatedPlaylist resolves a playlist URL into its validated tracks.
func (p *HTTPProvider) FetchValidatedPlaylist(ctx context.Context, playlistURL string) (*league.Playlist, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %v: %w", err, league.ErrPlaylistFetchFailed)
	}

	endpoint := fmt.Sprintf("%s/v1/playlists/resolve?url=%s", p.baseURL, url.QueryEscape(playlistURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %v: %w", err, league.ErrPlaylistFetchFailed)
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("playlist fetch failed", zap.String("url", playlistURL), zap.Error(err))
		return nil, fmt.Errorf("fetch playlist: %v: %w", err, league.ErrPlaylistFetchFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("playlist provider rejected fetch",
			zap.String("url", playlistURL),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("provider returned %d: %w", resp.StatusCode, league.ErrPlaylistFetchFailed)
	}

	var body playlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode playlist: %v: %w", err, league.ErrPlaylistFetchFailed)
	}
	if len(body.Tracks) == 0 {
		return nil, fmt.Errorf("playlist has no tracks: %w", league.ErrPlaylistFetchFailed)
	}

	pl := &league.Playlist{Name: body.PlaylistName}
	for _, t := range body.Tracks {
		pl.Tracks = append(pl.Tracks, league.Track{
			ID:          t.ID,
			Name:        t.Name,
			ArtistNames: t.ArtistNames,
			AlbumArt:    t.AlbumArt,
			DurationMs:  t.DurationMs,
			Position:    t.Position,
		})
	}
	return pl, nil
}
