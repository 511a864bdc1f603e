package tasks

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/models"
	tu "github.com/desertthunder/mixdisc/internal/testing"
)

const testRemoteURL = "https://open.spotify.com/playlist/abc123"

var fixedNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

// remotePlaylist writes a remote descriptor under dir and returns it parsed.
func remotePlaylist(t *testing.T, dir, user, title string) models.Playlist {
	t.Helper()
	content := fmt.Sprintf("user: %s\ntitle: %s\nremote_playlist: %s\n", user, title, testRemoteURL)
	path := tu.WriteDescriptor(t, dir, user, fileName(title), content)
	return models.Playlist{User: user, Title: title, RemoteURL: testRemoteURL, FilePath: path}
}

// manualPlaylist writes a manual descriptor with entries under dir and returns it parsed.
func manualPlaylist(t *testing.T, dir, user, title string, entries ...models.Entry) models.Playlist {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "user: %s\ntitle: %s\nplaylist:\n", user, title)
	for _, e := range entries {
		fmt.Fprintf(&b, "  - %q\n", e.String())
	}
	path := tu.WriteDescriptor(t, dir, user, fileName(title), b.String())
	return models.Playlist{User: user, Title: title, Entries: entries, FilePath: path}
}

func fileName(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".yaml"
}

// seedRemote caches tracks for p as a valid remote entry at snapshot.
func seedRemote(t *testing.T, store *cache.PlaylistStore, p models.Playlist, snapshot string, tracks []*models.Track) *cache.PlaylistEntry {
	t.Helper()
	key := cache.CacheKey(p.User, p.Title)
	if err := store.Put(key, p, models.NewServiceResult("spotify", tracks), &snapshot); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	entry, ok := store.Entry(key)
	if !ok {
		t.Fatalf("entry %s not created", key)
	}
	return entry
}

func fixedChecker() *RemoteChecker {
	c := NewRemoteChecker(nil)
	c.now = func() time.Time { return fixedNow }
	return c
}
