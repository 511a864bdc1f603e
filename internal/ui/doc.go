// Package ui implements the terminal output of the CLI.
//
// # Line output
//
// [FormatProgress] and [WatchProgress] turn the [tasks.ProgressUpdate] stream of a batch into one line per event;
// the channel is drained until the engine's caller closes it. [RenderSummary], [FrozenNotices] and
// [ValidationSummary] print the end-of-run reports. Colors come from a single [Palette]; lipgloss strips them when
// the output is not a terminal.
//
// # Interactive render
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern for `render --interactive`:
//  1. [RenderView] : spinner and current phase while the batch runs
//  2. [ResultView] : batch statistics, failures and a browsable list of rendered playlists, frozen ones marked
//
// Progress updates flow through a channel from the batch engine; [Model.Wait] hands the result back to the
// command once the program exits. Keyboard navigation uses vim-style bindings (j/k, q) with help from
// charmbracelet/bubbles/help.
package ui
