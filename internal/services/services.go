package services

import (
	"context"

	"github.com/desertthunder/mixdisc/internal/models"
)

// Service defines the catalog operations the batch needs from a music provider.
type Service interface {
	// Name returns the key results are stored under (e.g. "spotify").
	Name() string

	// FindTrack searches for a track. With a non-nil album the album-specific match is preferred.
	// Returns (nil, nil) when nothing matches.
	FindTrack(ctx context.Context, artist, title string, album *string) (*models.Track, error)

	// SnapshotID returns the current version identifier of a hosted playlist.
	SnapshotID(ctx context.Context, remoteURL string) (string, error)

	// FetchRemotePlaylist returns every track of a hosted playlist, following pagination.
	FetchRemotePlaylist(ctx context.Context, remoteURL string) (*models.ServiceResult, error)
}
