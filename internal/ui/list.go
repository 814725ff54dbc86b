package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/dustin/go-humanize"
)

var (
	_ list.Item = photoItem{}
)

// photoItem wraps [models.Photo] to implement [list.Item].
type photoItem struct {
	photo models.Photo
}

func (i photoItem) FilterValue() string { return i.photo.Title }
func (i photoItem) Title() string {
	if strings.TrimSpace(i.photo.Title) == "" {
		return fmt.Sprintf("Untitled #%d", i.photo.ID)
	}
	return i.photo.Title
}
func (i photoItem) Description() string {
	parts := []string{}
	if i.photo.Author != "" {
		parts = append(parts, i.photo.Author)
	}
	if i.photo.Category != "" {
		parts = append(parts, i.photo.Category)
	}
	parts = append(parts, fmt.Sprintf("♥ %s", humanize.Comma(int64(i.photo.Likes))))
	return strings.Join(parts, " • ")
}

func photoItems(photos []models.Photo) []list.Item {
	items := make([]list.Item, len(photos))
	for i, p := range photos {
		items[i] = photoItem{photo: p}
	}
	return items
}
