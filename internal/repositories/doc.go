// Package repositories implements SQLite persistence for client-local state.
//
// Nothing here is synced to the gallery API. The database holds what a browser would keep in local storage, plus diagnostics.
//
// Key Implementations:
//   - [SettingRepository] : key/value settings such as the bearer and CSRF tokens
//   - [RecentSearchRepository] : bounded, deduplicated, most-recent-first search history
//   - [FillEventRepository] : auto-fill diagnostics recorded when a viewport stays under-filled
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
