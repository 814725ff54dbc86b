// Package ui implements an interactive terminal gallery using bubbletea's Elm architecture.
//
// Views:
//  1. [BrowseView] : Scroll the photo list; new pages load as the cursor nears the end
//  2. [SearchView] : Type a query with debounced suggestions and recent searches
//  3. [DetailView] : Read a photo's metadata and comments, like or favorite it
//  4. [UploadView] : Watch a sequential upload batch with per-file progress
//
// The [Model] drives the controllers in the tasks package. Window height sets
// the auto-fill viewport, so short result pages are topped up until the list
// fills the screen. Controller calls run as [tea.Cmd]s and report back through
// the Msg union; results superseded by a newer query are dropped.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
