package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
	"github.com/desertthunder/mixdisc/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RenderView ViewState = iota
	ResultView
)

// RenderFunc runs one batch, reporting progress on the given channel.
type RenderFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RenderResult, error)

// Model is the interactive render view: a spinner while the batch runs, then a list of the rendered playlists.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	render       RenderFunc
	service      string
	view         ViewState
	width        int
	height       int
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	done         chan struct{}
	result       *tasks.RenderResult
	err          error
	playlistList list.Model
	help         help.Model
	keys         keyMap
}

type progressUpdateMsg tasks.ProgressUpdate

type renderCompleteMsg struct{}

// playlistItem adapts a processed playlist to [list.DefaultItem].
type playlistItem struct {
	pp      models.ProcessedPlaylist
	service string
}

func (i playlistItem) FilterValue() string { return i.pp.Playlist.Title }

func (i playlistItem) Title() string {
	if i.pp.Warning != nil {
		return "⚠ " + i.pp.Playlist.Title
	}
	return i.pp.Playlist.Title
}

func (i playlistItem) Description() string {
	desc := "by " + i.pp.Playlist.User
	if r := i.pp.Results[i.service]; r != nil {
		desc += fmt.Sprintf(" · %d/%d tracks · %s", r.Found(), len(r.Tracks), shared.FormatDuration(r.TotalDuration))
	}
	if i.pp.Warning != nil {
		desc += " · frozen"
	}
	return desc
}

// NewModel creates a TUI model that runs render once started.
func NewModel(ctx context.Context, render RenderFunc, service string) *Model {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		render:  render,
		service: service,
		view:    RenderView,
		spinner: s,
		done:    make(chan struct{}),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the batch and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRender())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ResultView {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.abort) {
			m.cancel()
			return m, tea.Quit
		}
		if m.view == ResultView {
			if key.Matches(msg, m.keys.quit) && m.playlistList.FilterState() != list.Filtering {
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.playlistList, cmd = m.playlistList.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != RenderView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case renderCompleteMsg:
		m.view = ResultView
		m.buildList()
		return m, nil
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RenderView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Wait blocks until the batch has finished and returns its outcome.
func (m *Model) Wait() (*tasks.RenderResult, error) {
	<-m.done
	return m.result, m.err
}

func (m *Model) startRender() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.render(m.ctx, m.progressChan)
		m.result = result
		m.err = err
		close(m.progressChan)
		close(m.done)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return renderCompleteMsg{}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) buildList() {
	var items []list.Item
	if m.result != nil {
		items = make([]list.Item, len(m.result.Processed))
		for i, pp := range m.result.Processed {
			items[i] = playlistItem{pp: pp, service: m.service}
		}
	}
	m.playlistList = list.New(items, list.NewDefaultDelegate(), max(m.width-4, 40), max(m.height-8, 10))
	m.playlistList.Title = "Rendered playlists"
	m.playlistList.SetShowHelp(false)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Rendering playlists")

	var phase string
	switch m.progress.Phase {
	case tasks.LoadCache:
		phase = "Loading caches..."
	case tasks.ProcessPlaylist:
		phase = fmt.Sprintf("Processing playlists (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ResolveTracks:
		phase = fmt.Sprintf("Resolving tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CheckRemote:
		phase = "Checking remote playlist..."
	case tasks.PruneCache, tasks.SaveCache:
		phase = "Saving caches..."
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s\n\n%s", title, m.spinner.View(), phase,
		FormatProgress(m.progress), m.help.ShortHelpView([]key.Binding{m.keys.abort}))
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return styles.err.Render(fmt.Sprintf("Render failed: %v\n\nPress q to quit", m.err))
	}

	s := m.result.Stats
	title := styles.ok.Render(fmt.Sprintf("✓ Rendered %d of %d playlists", s.Rendered, s.Total))
	if s.Failed > 0 {
		title = styles.warn.Render(fmt.Sprintf("Rendered %d of %d playlists, %d failed", s.Rendered, s.Total, s.Failed))
	}
	info := fmt.Sprintf("Cache: %d hits, %d misses · Remote: %d frozen, %d unfrozen",
		s.CacheHits, s.CacheMisses, s.Frozen, s.Unfrozen)

	var failed string
	for _, f := range m.result.Failures {
		failed += fmt.Sprintf("\n  • %s: %v", f.Key, f.Err)
	}
	if failed != "" {
		failed = "\n" + styles.err.Render("Failed:") + failed
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s\n\n%s", title, info, failed, m.playlistList.View(), m.help.ShortHelpView(m.keys.ShortHelp()))
}
