package tasks

import "github.com/desertthunder/shutter/internal/models"

// DeriveStatus maps fetch state to a [models.ViewStatus].
//
// Priority is loading, then error, then empty, then success. A nil items slice
// means nothing was fetched yet and yields idle; an empty non-nil slice is empty.
func DeriveStatus(loading, failed bool, items []models.Photo) models.ViewStatus {
	switch {
	case loading:
		return models.StatusLoading
	case failed:
		return models.StatusError
	case items == nil:
		return models.StatusIdle
	case len(items) == 0:
		return models.StatusEmpty
	default:
		return models.StatusSuccess
	}
}
