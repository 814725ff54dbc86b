// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/shutter/internal/models"
)

// PNGHeader is enough of a PNG file for content sniffing.
var PNGHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

// MockGallery is a test double for services.Gallery.
//
// Each Func field overrides the matching method; unset methods return zero values.
// Calls to ListPhotos are recorded in Queries.
type MockGallery struct {
	mu      sync.Mutex
	Queries []models.Query

	ListFunc     func(ctx context.Context, q models.Query) ([]models.Photo, error)
	GetFunc      func(ctx context.Context, id int) (*models.PhotoDetail, error)
	UploadFunc   func(ctx context.Context, path string, meta models.PhotoMetadata, progress func(sent, total int64)) (*models.UploadResult, error)
	CarouselFunc func(ctx context.Context) ([]models.CarouselItem, error)
	LoginFunc    func(ctx context.Context, username, password string) (string, error)
	CSRFFunc     func(ctx context.Context) (string, error)
	AddImageFunc func(ctx context.Context, path string, progress func(sent, total int64)) (*models.UploadedPhoto, error)
	UpdateFunc   func(ctx context.Context, id int, meta models.PhotoMetadata) error
	DeleteFunc   func(ctx context.Context, id int) error
}

func (m *MockGallery) ListPhotos(ctx context.Context, q models.Query) ([]models.Photo, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	m.mu.Unlock()
	if m.ListFunc != nil {
		return m.ListFunc(ctx, q)
	}
	return []models.Photo{}, nil
}

// Calls returns a copy of the recorded list queries.
func (m *MockGallery) Calls() []models.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Query(nil), m.Queries...)
}

func (m *MockGallery) GetPhoto(ctx context.Context, id int) (*models.PhotoDetail, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.PhotoDetail{Photo: models.Photo{ID: id}}, nil
}

func (m *MockGallery) LikePhoto(ctx context.Context, id int) (*models.LikeResult, error) {
	return &models.LikeResult{Liked: true, Likes: 1}, nil
}

func (m *MockGallery) FavoritePhoto(ctx context.Context, id int) (*models.FavoriteResult, error) {
	return &models.FavoriteResult{Favorited: true, Favorites: 1}, nil
}

func (m *MockGallery) CommentPhoto(ctx context.Context, id int, content string) (*models.Comment, error) {
	return &models.Comment{Content: content}, nil
}

func (m *MockGallery) UpdatePhoto(ctx context.Context, id int, meta models.PhotoMetadata) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, meta)
	}
	return nil
}

func (m *MockGallery) DeletePhoto(ctx context.Context, id int) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockGallery) UploadPhoto(ctx context.Context, path string, meta models.PhotoMetadata, progress func(sent, total int64)) (*models.UploadResult, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, path, meta, progress)
	}
	return &models.UploadResult{}, nil
}

func (m *MockGallery) Carousel(ctx context.Context) ([]models.CarouselItem, error) {
	if m.CarouselFunc != nil {
		return m.CarouselFunc(ctx)
	}
	return nil, nil
}

func (m *MockGallery) AdminCarousel(ctx context.Context) ([]models.CarouselItem, error) {
	return m.Carousel(ctx)
}

func (m *MockGallery) AddCarouselImage(ctx context.Context, path string, progress func(sent, total int64)) (*models.UploadedPhoto, error) {
	if m.AddImageFunc != nil {
		return m.AddImageFunc(ctx, path, progress)
	}
	return &models.UploadedPhoto{}, nil
}

func (m *MockGallery) ReplaceCarouselImage(ctx context.Context, id int, path string, progress func(sent, total int64)) (*models.UploadedPhoto, error) {
	return &models.UploadedPhoto{ID: id}, nil
}
func (m *MockGallery) SortCarousel(ctx context.Context, ids []int) error { return nil }
func (m *MockGallery) DeleteCarouselItem(ctx context.Context, id int) error { return nil }
func (m *MockGallery) HomeVideos(ctx context.Context) ([]models.HomeVideo, error) {
	return nil, nil
}
func (m *MockGallery) AdminHomeVideos(ctx context.Context) ([]models.HomeVideo, error) {
	return nil, nil
}
func (m *MockGallery) AddHomeVideo(ctx context.Context, path string, progress func(sent, total int64)) error {
	return nil
}
func (m *MockGallery) DeleteHomeVideo(ctx context.Context, id int) error { return nil }

func (m *MockGallery) Login(ctx context.Context, username, password string) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return "token", nil
}

func (m *MockGallery) CSRFToken(ctx context.Context) (string, error) {
	if m.CSRFFunc != nil {
		return m.CSRFFunc(ctx)
	}
	return "csrf", nil
}

func (m *MockGallery) Register(ctx context.Context, username, email, password string) error {
	return nil
}
func (m *MockGallery) Me(ctx context.Context) (*models.User, error) {
	return &models.User{ID: 1, Username: "mock"}, nil
}
func (m *MockGallery) MyPhotos(ctx context.Context) ([]models.Photo, error) { return nil, nil }
func (m *MockGallery) MyStats(ctx context.Context) (*models.UserStats, error) {
	return &models.UserStats{}, nil
}
func (m *MockGallery) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return nil
}
func (m *MockGallery) ChangeUsername(ctx context.Context, name string) (string, error) {
	return name, nil
}

// Photos builds n photos with sequential IDs starting at start.
func Photos(start, n int) []models.Photo {
	photos := make([]models.Photo, n)
	for i := range photos {
		photos[i] = models.Photo{ID: start + i, Title: "photo"}
	}
	return photos
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// WriteImage writes a sniffable PNG named name into dir and returns its path.
func WriteImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := append(append([]byte(nil), PNGHeader...), make([]byte, 64)...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write image %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
