// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// MockService is a test double for [services.Service] that counts its calls.
//
// Tracks is keyed by the lower-cased "artist - title"; anything missing is reported as not found.
type MockService struct {
	ServiceName string
	Tracks      map[string]*models.Track
	FindErr     error
	Snapshot    string
	SnapshotErr error
	Remote      *models.ServiceResult
	FetchErr    error

	FindCalls     int
	SnapshotCalls int
	FetchCalls    int
	Queries       []string
}

// NewMockService returns a mock named "spotify" with no tracks.
func NewMockService() *MockService {
	return &MockService{ServiceName: "spotify", Tracks: make(map[string]*models.Track)}
}

// AddTrack registers t under its own artist and title.
func (m *MockService) AddTrack(t *models.Track) {
	m.Tracks[shared.Normalize(t.Artist)+" - "+shared.Normalize(t.Title)] = t
}

func (m *MockService) Name() string {
	if m.ServiceName == "" {
		return "mock"
	}
	return m.ServiceName
}

func (m *MockService) FindTrack(ctx context.Context, artist, title string, album *string) (*models.Track, error) {
	m.FindCalls++
	q := artist + " - " + title
	if album != nil {
		q += " | " + *album
	}
	m.Queries = append(m.Queries, q)
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	t, ok := m.Tracks[shared.Normalize(artist)+" - "+shared.Normalize(title)]
	if !ok {
		return nil, nil
	}
	return t.Clone(), nil
}

func (m *MockService) SnapshotID(ctx context.Context, remoteURL string) (string, error) {
	m.SnapshotCalls++
	if m.SnapshotErr != nil {
		return "", m.SnapshotErr
	}
	return m.Snapshot, nil
}

func (m *MockService) FetchRemotePlaylist(ctx context.Context, remoteURL string) (*models.ServiceResult, error) {
	m.FetchCalls++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if m.Remote == nil {
		return nil, fmt.Errorf("no remote playlist configured")
	}
	r := *m.Remote
	r.Tracks = append([]*models.Track(nil), m.Remote.Tracks...)
	return &r, nil
}

// SetRemote configures the hosted playlist returned by FetchRemotePlaylist along with its snapshot.
func (m *MockService) SetRemote(snapshot string, tracks []*models.Track) {
	m.Snapshot = snapshot
	m.Remote = models.NewServiceResult(m.Name(), tracks)
}

// ResetCalls zeroes the call counters.
func (m *MockService) ResetCalls() {
	m.FindCalls, m.SnapshotCalls, m.FetchCalls = 0, 0, 0
	m.Queries = nil
}

// MakeTracks builds n tracks of the given length named "<prefix> N".
func MakeTracks(prefix string, n, seconds int) []*models.Track {
	tracks := make([]*models.Track, n)
	for i := range tracks {
		tracks[i] = &models.Track{
			Artist:          prefix,
			Title:           fmt.Sprintf("%s %d", prefix, i+1),
			DurationSeconds: seconds,
		}
	}
	return tracks
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// WriteDescriptor writes content to dir/user/name and returns the path.
func WriteDescriptor(t *testing.T, dir, user, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, user, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write descriptor %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
