package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/patrickmn/go-cache"
)

const (
	carouselKey   = "carousel"
	homeVideosKey = "home-videos"
)

// GalleryService implements [Gallery] on top of an [APIService].
//
// Public carousel and home video listings are cached briefly and invalidated by admin mutations.
type GalleryService struct {
	api   *APIService
	cache *cache.Cache
}

// NewGalleryService wraps api. A non-positive ttl disables listing caching.
func NewGalleryService(api *APIService, ttl time.Duration) *GalleryService {
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	return &GalleryService{api: api, cache: c}
}

// API returns the underlying raw client.
func (g *GalleryService) API() *APIService { return g.api }

func (g *GalleryService) cached(key string) (any, bool) {
	if g.cache == nil {
		return nil, false
	}
	return g.cache.Get(key)
}

func (g *GalleryService) store(key string, v any) {
	if g.cache != nil {
		g.cache.SetDefault(key, v)
	}
}

func (g *GalleryService) invalidate(keys ...string) {
	if g.cache == nil {
		return
	}
	for _, k := range keys {
		g.cache.Delete(k)
	}
}

// ListPhotos fetches one page of photos matching q.
func (g *GalleryService) ListPhotos(ctx context.Context, q models.Query) ([]models.Photo, error) {
	var photos []models.Photo
	if err := g.api.getJSON(ctx, "/photos?"+q.Values().Encode(), &photos); err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

// GetPhoto fetches the detail view of a photo.
func (g *GalleryService) GetPhoto(ctx context.Context, id int) (*models.PhotoDetail, error) {
	var detail models.PhotoDetail
	if err := g.api.getJSON(ctx, fmt.Sprintf("/photos/%d", id), &detail); err != nil {
		return nil, notFound(err, id)
	}
	return &detail, nil
}

// LikePhoto toggles the current user's like.
func (g *GalleryService) LikePhoto(ctx context.Context, id int) (*models.LikeResult, error) {
	var res models.LikeResult
	if err := g.api.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/photos/%d/like", id), nil, &res); err != nil {
		return nil, notFound(err, id)
	}
	return &res, nil
}

// FavoritePhoto toggles the current user's favorite.
func (g *GalleryService) FavoritePhoto(ctx context.Context, id int) (*models.FavoriteResult, error) {
	var res models.FavoriteResult
	if err := g.api.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/photos/%d/favorite", id), nil, &res); err != nil {
		return nil, notFound(err, id)
	}
	return &res, nil
}

// CommentPhoto posts a trimmed, non-empty comment.
func (g *GalleryService) CommentPhoto(ctx context.Context, id int, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", shared.ErrInvalidInput)
	}

	var res struct {
		Comment models.Comment `json:"comment"`
	}
	payload := map[string]string{"content": content}
	if err := g.api.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/photos/%d/comment", id), payload, &res); err != nil {
		return nil, notFound(err, id)
	}
	return &res.Comment, nil
}

// UpdatePhoto replaces the editable metadata of a photo.
func (g *GalleryService) UpdatePhoto(ctx context.Context, id int, meta models.PhotoMetadata) error {
	return notFound(g.api.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/photos/%d", id), meta, nil), id)
}

// DeletePhoto removes a photo.
func (g *GalleryService) DeletePhoto(ctx context.Context, id int) error {
	return notFound(g.api.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/photos/%d", id), nil, nil), id)
}

// UploadPhoto sends a single file with metadata to POST /photos.
func (g *GalleryService) UploadPhoto(ctx context.Context, path string, meta models.PhotoMetadata, progress ProgressFunc) (*models.UploadResult, error) {
	form := MultipartForm{
		Fields: make(map[string]string),
		Files:  []FilePart{{Field: "files", Path: path}},
	}
	for _, kv := range meta.Fields() {
		if kv[1] != "" {
			form.Fields[kv[0]] = kv[1]
		}
	}

	resp, err := g.api.PostMultipart(ctx, "/photos", form, progress)
	if err != nil {
		return nil, err
	}

	var res models.UploadResult
	if err := resp.Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Carousel returns the public carousel, cached.
func (g *GalleryService) Carousel(ctx context.Context) ([]models.CarouselItem, error) {
	if v, ok := g.cached(carouselKey); ok {
		return v.([]models.CarouselItem), nil
	}

	var items []models.CarouselItem
	if err := g.api.getJSON(ctx, "/carousel", &items); err != nil {
		return nil, err
	}
	g.store(carouselKey, items)
	return items, nil
}

// AdminCarousel returns every carousel item in sort order.
func (g *GalleryService) AdminCarousel(ctx context.Context) ([]models.CarouselItem, error) {
	var items []models.CarouselItem
	if err := g.api.getJSON(ctx, "/admin/carousel", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddCarouselImage uploads one image to the carousel.
func (g *GalleryService) AddCarouselImage(ctx context.Context, path string, progress ProgressFunc) (*models.UploadedPhoto, error) {
	form := MultipartForm{Files: []FilePart{{Field: "file", Path: path}}}
	resp, err := g.api.PostMultipart(ctx, "/admin/carousel", form, progress)
	if err != nil {
		return nil, err
	}
	g.invalidate(carouselKey)

	var res models.UploadedPhoto
	if err := resp.Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReplaceCarouselImage swaps the image of an existing carousel item.
func (g *GalleryService) ReplaceCarouselImage(ctx context.Context, id int, path string, progress ProgressFunc) (*models.UploadedPhoto, error) {
	form := MultipartForm{Files: []FilePart{{Field: "file", Path: path}}}
	resp, err := g.api.SendMultipart(ctx, http.MethodPut, fmt.Sprintf("/admin/carousel/%d", id), form, progress)
	if err != nil {
		return nil, err
	}
	g.invalidate(carouselKey)

	var res models.UploadedPhoto
	if err := resp.Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SortCarousel persists a new carousel order.
func (g *GalleryService) SortCarousel(ctx context.Context, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	err := g.api.sendJSON(ctx, http.MethodPut, "/admin/carousel/sort", map[string][]int{"ids": ids}, nil)
	if err == nil {
		g.invalidate(carouselKey)
	}
	return err
}

// DeleteCarouselItem removes a carousel item.
func (g *GalleryService) DeleteCarouselItem(ctx context.Context, id int) error {
	err := g.api.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/admin/carousel/%d", id), nil, nil)
	if err == nil {
		g.invalidate(carouselKey)
	}
	return err
}

// HomeVideos returns the public home videos, cached.
func (g *GalleryService) HomeVideos(ctx context.Context) ([]models.HomeVideo, error) {
	if v, ok := g.cached(homeVideosKey); ok {
		return v.([]models.HomeVideo), nil
	}

	var videos []models.HomeVideo
	if err := g.api.getJSON(ctx, "/home-videos", &videos); err != nil {
		return nil, err
	}
	g.store(homeVideosKey, videos)
	return videos, nil
}

// AdminHomeVideos returns every home video.
func (g *GalleryService) AdminHomeVideos(ctx context.Context) ([]models.HomeVideo, error) {
	var videos []models.HomeVideo
	if err := g.api.getJSON(ctx, "/admin/home-videos", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// AddHomeVideo uploads a video titled after its file name.
func (g *GalleryService) AddHomeVideo(ctx context.Context, path string, progress ProgressFunc) error {
	form := MultipartForm{
		Fields: map[string]string{"title": filepath.Base(path)},
		Files:  []FilePart{{Field: "file", Path: path}},
	}
	if _, err := g.api.PostMultipart(ctx, "/admin/home-videos", form, progress); err != nil {
		return err
	}
	g.invalidate(homeVideosKey)
	return nil
}

// DeleteHomeVideo removes a home video.
func (g *GalleryService) DeleteHomeVideo(ctx context.Context, id int) error {
	err := g.api.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/admin/home-videos/%d", id), nil, nil)
	if err == nil {
		g.invalidate(homeVideosKey)
	}
	return err
}

// Login exchanges credentials for a bearer token.
func (g *GalleryService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	var res struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"username": username, "password": password}
	if err := g.api.sendJSON(ctx, http.MethodPost, "/auth/login", payload, &res); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %s", shared.ErrAuthFailed, apiErr.Message())
		}
		return "", err
	}
	if res.Token == "" {
		return "", fmt.Errorf("%w: no token in response", shared.ErrAuthFailed)
	}
	return res.Token, nil
}

// CSRFToken fetches the CSRF token for the authenticated user.
func (g *GalleryService) CSRFToken(ctx context.Context) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	if err := g.api.getJSON(ctx, "/csrf", &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

// Register creates an account.
func (g *GalleryService) Register(ctx context.Context, username, email, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("email", email)
	form.Set("password", password)
	_, err := g.api.PostForm(ctx, "/auth/register", form)
	return err
}

// Me returns the authenticated user.
func (g *GalleryService) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := g.api.getJSON(ctx, "/users/me", &u); err != nil {
		return nil, authRequired(err)
	}
	return &u, nil
}

// MyPhotos returns the photos uploaded by the authenticated user.
func (g *GalleryService) MyPhotos(ctx context.Context) ([]models.Photo, error) {
	var photos []models.Photo
	if err := g.api.getJSON(ctx, "/users/me/photos", &photos); err != nil {
		return nil, authRequired(err)
	}
	return photos, nil
}

// MyStats returns the authenticated user's totals.
func (g *GalleryService) MyStats(ctx context.Context) (*models.UserStats, error) {
	var stats models.UserStats
	if err := g.api.getJSON(ctx, "/users/me/stats", &stats); err != nil {
		return nil, authRequired(err)
	}
	return &stats, nil
}

// ChangePassword updates the password. New passwords shorter than 6 characters are rejected locally.
func (g *GalleryService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: new password must be at least 6 characters", shared.ErrInvalidInput)
	}
	payload := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return g.api.sendJSON(ctx, http.MethodPost, "/auth/change-password", payload, nil)
}

// ChangeUsername renames the authenticated account and returns the stored name.
func (g *GalleryService) ChangeUsername(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 64 {
		return "", fmt.Errorf("%w: username must be 3-64 characters", shared.ErrInvalidInput)
	}

	var res struct {
		Username string `json:"username"`
	}
	if err := g.api.sendJSON(ctx, http.MethodPost, "/users/change-username", map[string]string{"new_username": name}, &res); err != nil {
		return "", err
	}
	if res.Username == "" {
		res.Username = name
	}
	return res.Username, nil
}

func notFound(err error, id int) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %d", shared.ErrPhotoNotFound, id)
	}
	return err
}

func authRequired(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, apiErr.Message())
	}
	return err
}
