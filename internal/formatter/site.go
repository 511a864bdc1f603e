package formatter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed templates/*.tmpl
var templates embed.FS

var indexTemplate = template.Must(template.New("index.html.tmpl").
	Funcs(template.FuncMap{"duration": shared.FormatDuration}).
	ParseFS(templates, "templates/index.html.tmpl"))

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases s, strips accents, and joins its alphanumeric runs with dashes.
func Slug(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

type trackRow struct {
	Track *models.Track
	Label string
}

type playlistView struct {
	Playlist models.Playlist
	Result   *models.ServiceResult
	Warning  *models.ValidationWarning
	Rows     []trackRow
	Anchor   string
	CSVPath  string
}

type indexView struct {
	Playlists   []playlistView
	GeneratedAt time.Time
}

func newIndexView(processed []models.ProcessedPlaylist, service string, generatedAt time.Time) indexView {
	view := indexView{GeneratedAt: generatedAt, Playlists: make([]playlistView, 0, len(processed))}
	for _, pp := range processed {
		anchor := Slug(pp.Playlist.User + "-" + pp.Playlist.Title)
		pv := playlistView{
			Playlist: pp.Playlist,
			Result:   pp.Results[service],
			Warning:  pp.Warning,
			Anchor:   anchor,
			CSVPath:  "playlists/" + anchor + "_tracks.csv",
		}
		if pv.Result != nil {
			for i, t := range pv.Result.Tracks {
				row := trackRow{Track: t}
				if t == nil {
					row.Label = "Unknown track"
					if i < len(pp.Playlist.Entries) {
						row.Label = pp.Playlist.Entries[i].String()
					}
				}
				pv.Rows = append(pv.Rows, row)
			}
		}
		view.Playlists = append(view.Playlists, pv)
	}
	return view
}

// RenderIndexHTML writes the site index for processed to w.
func RenderIndexHTML(w io.Writer, processed []models.ProcessedPlaylist, service string, generatedAt time.Time) error {
	if err := indexTemplate.Execute(w, newIndexView(processed, service, generatedAt)); err != nil {
		return fmt.Errorf("failed to render index: %w", err)
	}
	return nil
}

// RenderIndexMarkdown concatenates the Markdown of every processed playlist under a table of contents.
func RenderIndexMarkdown(processed []models.ProcessedPlaylist, service string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Mixdiscs\n\n")
	for _, pp := range processed {
		frozen := ""
		if pp.Warning != nil {
			frozen = " ⚠️"
		}
		buf.WriteString(fmt.Sprintf("- [%s by %s](#%s)%s\n", pp.Playlist.Title, pp.Playlist.User, Slug(pp.Playlist.Title), frozen))
	}
	for _, pp := range processed {
		md, err := ExportToMarkdown(pp, service)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n---\n\n")
		buf.Write(bytes.Replace(md, []byte("# "), []byte("## "), 1))
	}
	return buf.Bytes(), nil
}

// SiteResult lists the files written by [WriteSite].
type SiteResult struct {
	IndexHTML     string
	IndexMarkdown string
	Exports       []CSVExportResult
}

// WriteSite renders the index pages and one CSV export per playlist into outputDir:
//
//	{outputDir}/index.html
//	{outputDir}/index.md
//	{outputDir}/playlists/{user}-{title}_tracks.csv
//	{outputDir}/playlists/{user}-{title}_metadata.json
func WriteSite(outputDir string, processed []models.ProcessedPlaylist, service string, generatedAt time.Time) (*SiteResult, error) {
	playlistDir := filepath.Join(outputDir, "playlists")
	if err := os.MkdirAll(playlistDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var html bytes.Buffer
	if err := RenderIndexHTML(&html, processed, service, generatedAt); err != nil {
		return nil, err
	}
	result := &SiteResult{IndexHTML: filepath.Join(outputDir, "index.html")}
	if err := os.WriteFile(result.IndexHTML, html.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}

	md, err := RenderIndexMarkdown(processed, service)
	if err != nil {
		return nil, err
	}
	result.IndexMarkdown = filepath.Join(outputDir, "index.md")
	if err := os.WriteFile(result.IndexMarkdown, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown index: %w", err)
	}

	for _, pp := range processed {
		base := filepath.Join(playlistDir, Slug(pp.Playlist.User+"-"+pp.Playlist.Title))
		export, err := WriteCSVExport(pp, service, base)
		if err != nil {
			return nil, err
		}
		result.Exports = append(result.Exports, *export)
	}
	return result, nil
}
