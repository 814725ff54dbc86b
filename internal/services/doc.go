// Package services implements the HTTP layer for the photo gallery REST API.
//
// # Raw client
//
// [APIService] owns the base URL and the [http.Client]. Every request gets
// "Authorization: Bearer <token>" when the injected [Credentials] hold a token, and
// POST, PUT and DELETE requests additionally get "X-CSRF-Token". There are no retries.
//
// # Typed endpoints
//
// [GalleryService] implements [Gallery] with one method per endpoint. Public carousel
// and home video listings are cached with go-cache and dropped on admin mutations.
//
// # Uploads
//
// [APIService.SendMultipart] buffers the form, sniffs each file's MIME type and reports
// bytes sent through a [ProgressFunc]. Only images and videos are accepted.
//
// # Error Handling
//
// Non-2xx responses return [*APIError], which unwraps to [shared.ErrAPIRequest]:
//   - Detail and Reason carry the server's "detail" and "error" JSON fields
//   - [ServerMessage] extracts whichever is present
//   - 404 on photo routes maps to [shared.ErrPhotoNotFound]
//   - 401 on profile routes maps to [shared.ErrNotAuthenticated]
//
// A cancelled context is returned as-is so callers can tell superseded requests apart from failures.
package services
