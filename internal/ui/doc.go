// Package ui implements the live callback monitor using bubbletea's Elm architecture.
//
// The monitor has two views:
//  1. [FeedView] : newest-first list of captured redirects, with the active listener ports in the header
//  2. [DetailView] : fields of the selected redirect
//
// The [Model] implements bubbletea's Init/Update/View pattern and receives messages via the Msg union type.
// Callbacks arrive on an [events.Event] channel subscribed from the bus, read one at a time by a tea.Cmd so the
// bus never blocks on rendering. Listener lifecycle goes through the [Listeners] interface, satisfied by
// [server.Registry].
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
