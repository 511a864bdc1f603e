// Spotify Web API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// SpotifyName is the key Spotify results are cached under.
	SpotifyName = "spotify"

	playlistPageSize         = 100
	defaultRequestsPerSecond = 10
)

var playlistIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyPlaylistItem represents a track within a playlist context. Track is null for removed or unavailable items.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedItems represents one page of a playlist's tracks.
type SpotifyPaginatedItems struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

type spotifySnapshot struct {
	SnapshotID string `json:"snapshot_id"`
}

// toModel converts t, keeping the first credited artist.
func (t *SpotifyTrack) toModel() *models.Track {
	track := &models.Track{
		Title:           t.Name,
		Album:           t.Album.Name,
		DurationSeconds: t.DurationMS / 1000,
		Link:            t.ExternalURLs.Spotify,
		Extras: models.Extras{
			models.ExtraURI:     t.URI,
			models.ExtraURL:     t.ExternalURLs.Spotify,
			models.ExtraTrackID: t.ID,
		},
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

// SpotifyOpts configures [NewSpotifyService]. BaseURL, TokenURL and HTTPClient default to the public API.
type SpotifyOpts struct {
	ClientID          string
	ClientSecret      string
	RequestsPerSecond float64
	BaseURL           string
	TokenURL          string
	HTTPClient        *http.Client
}

// SpotifyService implements the Service interface against the Spotify Web API.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a Spotify service authenticated with the client-credentials grant.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}

	config := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	return &SpotifyService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: config.Client(ctx),
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}, nil
}

func (s *SpotifyService) Name() string {
	return SpotifyName
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// FindTrack searches the catalog. A non-nil album is tried first; when it yields nothing the
// search is repeated without it.
func (s *SpotifyService) FindTrack(ctx context.Context, artist, title string, album *string) (*models.Track, error) {
	if album != nil && strings.TrimSpace(*album) != "" {
		track, err := s.search(ctx, searchQuery(artist, title, *album))
		if err != nil {
			return nil, shared.NewServiceError(SpotifyName, "search", err)
		}
		if track != nil {
			return track, nil
		}
	}

	track, err := s.search(ctx, searchQuery(artist, title, ""))
	if err != nil {
		return nil, shared.NewServiceError(SpotifyName, "search", err)
	}
	return track, nil
}

func searchQuery(artist, title, album string) string {
	q := fmt.Sprintf("track:%s artist:%s", strings.TrimSpace(title), strings.TrimSpace(artist))
	if album != "" {
		q += " album:" + strings.TrimSpace(album)
	}
	return q
}

func (s *SpotifyService) search(ctx context.Context, q string) (*models.Track, error) {
	query := url.Values{}
	query.Set("q", q)
	query.Set("type", "track")
	query.Set("limit", "1")

	var response spotifySearchResponse
	if err := s.doRequest(ctx, "/search", query, &response); err != nil {
		return nil, err
	}
	if len(response.Tracks.Items) == 0 {
		return nil, nil
	}
	return response.Tracks.Items[0].toModel(), nil
}

// SnapshotID returns the playlist's current snapshot_id.
func (s *SpotifyService) SnapshotID(ctx context.Context, remoteURL string) (string, error) {
	id, err := ExtractPlaylistID(remoteURL)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("fields", "snapshot_id")

	var snapshot spotifySnapshot
	if err := s.doRequest(ctx, "/playlists/"+id, query, &snapshot); err != nil {
		return "", shared.NewServiceError(SpotifyName, "snapshot", err)
	}
	if snapshot.SnapshotID == "" {
		return "", shared.NewServiceError(SpotifyName, "snapshot", fmt.Errorf("empty snapshot_id for playlist %s", id))
	}
	return snapshot.SnapshotID, nil
}

// FetchRemotePlaylist pages through the playlist's tracks. Unavailable items become nil slots.
func (s *SpotifyService) FetchRemotePlaylist(ctx context.Context, remoteURL string) (*models.ServiceResult, error) {
	id, err := ExtractPlaylistID(remoteURL)
	if err != nil {
		return nil, err
	}

	var tracks []*models.Track
	offset := 0
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(playlistPageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page SpotifyPaginatedItems
		if err := s.doRequest(ctx, "/playlists/"+id+"/tracks", query, &page); err != nil {
			return nil, shared.NewServiceError(SpotifyName, "fetch playlist", err)
		}

		for _, item := range page.Items {
			if item.Track == nil {
				tracks = append(tracks, nil)
				continue
			}
			tracks = append(tracks, item.Track.toModel())
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return models.NewServiceResult(SpotifyName, tracks), nil
}

// ExtractPlaylistID returns the playlist id from an open.spotify.com link or a spotify:playlist: URI.
func ExtractPlaylistID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	var id string
	if rest, ok := strings.CutPrefix(raw, "spotify:playlist:"); ok {
		id = rest
	} else {
		u, err := url.Parse(raw)
		if err != nil || u.Host != "open.spotify.com" {
			return "", fmt.Errorf("%w: %q", shared.ErrInvalidPlaylistURL, raw)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i < len(segments)-1; i++ {
			if segments[i] == "playlist" {
				id = segments[i+1]
				break
			}
		}
	}

	if !playlistIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidPlaylistURL, raw)
	}
	return id, nil
}
