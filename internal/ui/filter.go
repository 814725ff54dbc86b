package ui

import (
	"strings"

	"github.com/desertthunder/shutter/internal/models"
)

// ParseFilter reads search input into q.
//
// Words of the form category:<name>, tag:<name> or #<name> set the category
// and tag filters; the remaining words become the free-text query.
func ParseFilter(input string, q models.Query) models.Query {
	var text []string
	q.Category, q.Tag = "", ""
	for _, word := range strings.Fields(input) {
		switch {
		case strings.HasPrefix(word, "category:") && len(word) > len("category:"):
			q.Category = strings.TrimPrefix(word, "category:")
		case strings.HasPrefix(word, "tag:") && len(word) > len("tag:"):
			q.Tag = strings.TrimPrefix(word, "tag:")
		case strings.HasPrefix(word, "#") && len(word) > 1:
			q.Tag = word[1:]
		default:
			text = append(text, word)
		}
	}
	q.Text = strings.Join(text, " ")
	return q.WithPage(1)
}
