// package services defines interface Gallery for interacting with the photo gallery REST API
package services

import (
	"context"

	"github.com/desertthunder/shutter/internal/models"
)

// PhotoLister fetches one page of photos for a query.
type PhotoLister interface {
	ListPhotos(ctx context.Context, q models.Query) ([]models.Photo, error)
}

// Gallery defines every operation the CLI and TUI perform against the gallery API.
type Gallery interface {
	PhotoLister

	// GetPhoto retrieves the detail view of a photo, including comments.
	GetPhoto(ctx context.Context, id int) (*models.PhotoDetail, error)
	LikePhoto(ctx context.Context, id int) (*models.LikeResult, error)
	FavoritePhoto(ctx context.Context, id int) (*models.FavoriteResult, error)
	CommentPhoto(ctx context.Context, id int, content string) (*models.Comment, error)
	UpdatePhoto(ctx context.Context, id int, meta models.PhotoMetadata) error
	DeletePhoto(ctx context.Context, id int) error

	// UploadPhoto sends a single file; batches are sequenced by the caller.
	UploadPhoto(ctx context.Context, path string, meta models.PhotoMetadata, progress ProgressFunc) (*models.UploadResult, error)

	Carousel(ctx context.Context) ([]models.CarouselItem, error)
	AdminCarousel(ctx context.Context) ([]models.CarouselItem, error)
	AddCarouselImage(ctx context.Context, path string, progress ProgressFunc) (*models.UploadedPhoto, error)
	ReplaceCarouselImage(ctx context.Context, id int, path string, progress ProgressFunc) (*models.UploadedPhoto, error)
	SortCarousel(ctx context.Context, ids []int) error
	DeleteCarouselItem(ctx context.Context, id int) error

	HomeVideos(ctx context.Context) ([]models.HomeVideo, error)
	AdminHomeVideos(ctx context.Context) ([]models.HomeVideo, error)
	AddHomeVideo(ctx context.Context, path string, progress ProgressFunc) error
	DeleteHomeVideo(ctx context.Context, id int) error

	Login(ctx context.Context, username, password string) (string, error)
	CSRFToken(ctx context.Context) (string, error)
	Register(ctx context.Context, username, email, password string) error
	Me(ctx context.Context) (*models.User, error)
	MyPhotos(ctx context.Context) ([]models.Photo, error)
	MyStats(ctx context.Context) (*models.UserStats, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	ChangeUsername(ctx context.Context, name string) (string, error)
}

var _ Gallery = (*GalleryService)(nil)
