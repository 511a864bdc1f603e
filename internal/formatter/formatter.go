// package formatter renders processed playlists and validation results (CSV, Markdown, HTML)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// ExportToCSV converts one service result of a playlist to CSV with columns: Position, Artist, Title, Album, Duration, Link, Found.
//
// Manual playlists keep a row for every entry; an unmatched entry is written with its requested artist and title.
func ExportToCSV(pp models.ProcessedPlaylist, service string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Artist", "Title", "Album", "Duration", "Link", "Found"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	result := pp.Results[service]
	if result != nil {
		for i, track := range result.Tracks {
			var record []string
			if track == nil {
				artist, title := "", ""
				if i < len(pp.Playlist.Entries) {
					artist, title = pp.Playlist.Entries[i].Artist, pp.Playlist.Entries[i].Title
				}
				record = []string{strconv.Itoa(i + 1), artist, title, "", "", "", "false"}
			} else {
				record = []string{
					strconv.Itoa(i + 1),
					track.Artist,
					track.Title,
					track.Album,
					shared.FormatDuration(track.DurationSeconds),
					track.Link,
					"true",
				}
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts one playlist to Markdown, including the frozen notice when present.
func ExportToMarkdown(pp models.ProcessedPlaylist, service string) ([]byte, error) {
	var buf bytes.Buffer
	p := pp.Playlist

	buf.WriteString(fmt.Sprintf("# %s\n\n", p.Title))
	buf.WriteString(fmt.Sprintf("**Curator**: %s\n", p.User))
	if p.Genre != "" {
		buf.WriteString(fmt.Sprintf("**Genre**: %s\n", p.Genre))
	}
	if p.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n", p.Description))
	}
	if p.IsRemote() {
		buf.WriteString(fmt.Sprintf("**Source**: %s\n", p.RemoteURL))
	}

	result := pp.Results[service]
	if result == nil {
		buf.WriteString("\n_No results for this service._\n")
		return buf.Bytes(), nil
	}
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n\n", shared.FormatDuration(result.TotalDuration)))

	if w := pp.Warning; w != nil {
		buf.WriteString(fmt.Sprintf("> ⚠️ %s\n", w.Message))
		if w.FrozenVersionDate != nil {
			buf.WriteString(fmt.Sprintf("> Showing the version from %s.\n", w.FrozenVersionDate.Format("2006-01-02")))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Tracks\n\n")
	for i, track := range result.Tracks {
		if track == nil {
			label := "Unknown track"
			if i < len(p.Entries) {
				label = p.Entries[i].String()
			}
			buf.WriteString(fmt.Sprintf("%d. ~~%s~~ (not found)\n", i+1, label))
			continue
		}
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		name := fmt.Sprintf("%s - %s", track.Artist, track.Title)
		if track.Link != "" {
			name = fmt.Sprintf("[%s](%s)", name, track.Link)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", i+1, name, albumPart, shared.FormatDuration(track.DurationSeconds)))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(pp models.ProcessedPlaylist, service string) ([]byte, error) {
	meta := struct {
		User        string                    `json:"user"`
		Title       string                    `json:"title"`
		Description string                    `json:"description,omitempty"`
		Genre       string                    `json:"genre,omitempty"`
		RemoteURL   string                    `json:"remote_playlist,omitempty"`
		Service     string                    `json:"service"`
		Duration    int                       `json:"total_duration_seconds"`
		TrackCount  int                       `json:"track_count"`
		Found       int                       `json:"found_count"`
		Warning     *models.ValidationWarning `json:"validation_warning,omitempty"`
	}{
		User:        pp.Playlist.User,
		Title:       pp.Playlist.Title,
		Description: pp.Playlist.Description,
		Genre:       pp.Playlist.Genre,
		RemoteURL:   pp.Playlist.RemoteURL,
		Service:     service,
		Warning:     pp.Warning,
	}
	if r := pp.Results[service]; r != nil {
		meta.Duration = r.TotalDuration
		meta.TrackCount = len(r.Tracks)
		meta.Found = r.Found()
	}
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(pp models.ProcessedPlaylist, service, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = Slug(pp.Playlist.User + "-" + pp.Playlist.Title)
	}

	csvData, err := ExportToCSV(pp, service)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(pp, service)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}
