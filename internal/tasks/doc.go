// Package tasks holds the view-state controllers that sit between the gallery API and the CLI/TUI.
//
// # Listing
//
// [ListController] owns one query's photo list. Changing the query cancels the
// in-flight fetch, resets to page 1 and replaces the list; [ListController.LoadMore]
// appends the next page. Each fetch carries a generation number, so a response
// that arrives after a newer fetch started is discarded with [shared.ErrSuperseded].
// [DeriveStatus] maps the controller's state to a [models.ViewStatus].
//
// # Continuation
//
// [AutoFiller] loads further pages while the list covers less than 90% of the
// [Viewport], up to three attempts per cycle, then records a
// [models.FillEvent]. [Sentinel] issues one LoadMore per transition of the list
// end into view.
//
// # Suggestions
//
// [Suggester] debounces keystrokes and resolves only the last one: recent
// searches for blank input, matching photo titles otherwise.
//
// # Uploads and exports
//
// [UploadTracker] sends files one at a time with per-file progress and stops at
// the first failure. [Exporter] pages through a query, writes it through the
// formatter package and can download images with a rate-limited worker pool.
//
// # Progress Reporting
//
// Long-running operations report [ProgressUpdate] values on an optional channel.
// Sends never block; updates are dropped when the receiver is slow.
package tasks
