// package formatter provides functions to export photo listings to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/dustin/go-humanize"
)

// PhotoExport is a photo listing together with the query that produced it.
type PhotoExport struct {
	Query      models.Query   `json:"-"`
	Filter     string         `json:"filter,omitempty"`
	ExportedAt time.Time      `json:"exported_at"`
	Photos     []models.Photo `json:"photos"`
}

// NewPhotoExport builds a [PhotoExport] for q.
func NewPhotoExport(q models.Query, photos []models.Photo) *PhotoExport {
	return &PhotoExport{Query: q, Filter: DescribeQuery(q), ExportedAt: time.Now(), Photos: photos}
}

// DescribeQuery renders the filters of q, e.g. `q="sunset" category=landscape`.
func DescribeQuery(q models.Query) string {
	var parts []string
	if t := strings.TrimSpace(q.Text); t != "" {
		parts = append(parts, fmt.Sprintf("q=%q", t))
	}
	if q.Category != "" {
		parts = append(parts, "category="+q.Category)
	}
	if q.Tag != "" {
		parts = append(parts, "tag="+q.Tag)
	}
	return strings.Join(parts, " ")
}

// ExportToCSV converts a PhotoExport to CSV format with columns: ID, Title, Author, Category, Likes, Favorites, Tags, Image URL
func ExportToCSV(export *PhotoExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Author", "Category", "Likes", "Favorites", "Tags", "Image URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range export.Photos {
		record := []string{
			strconv.Itoa(p.ID),
			p.Title,
			p.Author,
			p.Category,
			strconv.Itoa(p.Likes),
			strconv.Itoa(p.Favorites),
			strings.Join(p.Tags, ";"),
			p.ImageURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PhotoExport to Markdown. images maps photo IDs to local image files.
func ExportToMarkdown(export *PhotoExport, images map[int]string) ([]byte, error) {
	var buf bytes.Buffer

	title := "Photos"
	if export.Filter != "" {
		title = fmt.Sprintf("Photos (%s)", export.Filter)
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Photos**: %d\n", len(export.Photos)))
	buf.WriteString(fmt.Sprintf("**Exported**: %s\n\n", export.ExportedAt.Format(time.RFC3339)))

	for i, p := range export.Photos {
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, displayTitle(p)))
		if img, ok := images[p.ID]; ok {
			buf.WriteString(fmt.Sprintf("![%s](%s)\n\n", displayTitle(p), img))
		}
		if p.Author != "" {
			buf.WriteString(fmt.Sprintf("- **Author**: %s\n", p.Author))
		}
		if p.Category != "" {
			buf.WriteString(fmt.Sprintf("- **Category**: %s\n", p.Category))
		}
		if len(p.Tags) > 0 {
			buf.WriteString(fmt.Sprintf("- **Tags**: %s\n", strings.Join(p.Tags, ", ")))
		}
		buf.WriteString(fmt.Sprintf("- **Likes**: %s · **Favorites**: %s\n\n", humanize.Comma(int64(p.Likes)), humanize.Comma(int64(p.Favorites))))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PhotoExport to plain text format
func ExportToText(export *PhotoExport) ([]byte, error) {
	var buf bytes.Buffer

	if export.Filter != "" {
		buf.WriteString(fmt.Sprintf("Filter: %s\n", export.Filter))
	}
	buf.WriteString(fmt.Sprintf("Photos: %d\n\n", len(export.Photos)))

	for i, p := range export.Photos {
		line := fmt.Sprintf("%d. %s", i+1, displayTitle(p))
		if p.Author != "" {
			line += " by " + p.Author
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a PhotoExport to indented JSON.
func ExportToJSON(export *PhotoExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

func displayTitle(p models.Photo) string {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Sprintf("Untitled #%d", p.ID)
	}
	return p.Title
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// FormatExtension maps an export format to its file extension; unknown formats are JSON.
func FormatExtension(format string) string {
	switch format {
	case "csv":
		return "csv"
	case "markdown", "md":
		return "md"
	case "txt":
		return "txt"
	default:
		return "json"
	}
}

// Render encodes export in format. images is only used by Markdown.
func Render(export *PhotoExport, format string, images map[int]string) ([]byte, error) {
	switch FormatExtension(format) {
	case "csv":
		return ExportToCSV(export)
	case "md":
		return ExportToMarkdown(export, images)
	case "txt":
		return ExportToText(export)
	default:
		return ExportToJSON(export)
	}
}

// WriteExport renders export into dir/photos.{ext} and returns the file path.
func WriteExport(export *PhotoExport, format, dir string, images map[int]string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := Render(export, format, images)
	if err != nil {
		return "", fmt.Errorf("failed to render %s export: %w", format, err)
	}

	path := filepath.Join(dir, "photos."+FormatExtension(format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// ImageFilename is the local name of a downloaded photo, keeping the URL's extension.
func ImageFilename(p models.Photo) string {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(p.ImageURL, "?", 2)[0]))
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return fmt.Sprintf("%d%s", p.ID, ext)
}

// DownloadFailure records an image that could not be saved.
type DownloadFailure struct {
	PhotoID int    `json:"photo_id"`
	URL     string `json:"url"`
	Error   string `json:"error"`
}

// ExportManifest summarizes an export run.
type ExportManifest struct {
	Format      string            `json:"format"`
	Filter      string            `json:"filter,omitempty"`
	TotalPhotos int               `json:"total_photos"`
	Pages       int               `json:"pages"`
	Downloaded  int               `json:"downloaded"`
	TotalBytes  string            `json:"total_bytes,omitempty"`
	Files       []string          `json:"files"`
	Failures    []DownloadFailure `json:"failures,omitempty"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *ExportManifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
