// package models defines the data model for the gallery front-end
package models

import "strings"

// Photo is a photo summary. Identity is ID; list order is server order.
type Photo struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Category  string   `json:"category,omitempty"`
	ThumbURL  string   `json:"thumb_url"`
	ImageURL  string   `json:"image_url"`
	Likes     int      `json:"likes,omitempty"`
	Favorites int      `json:"favorites,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Thumb returns the thumbnail URL, falling back to the full image.
func (p Photo) Thumb() string {
	if p.ThumbURL != "" {
		return p.ThumbURL
	}
	return p.ImageURL
}

// Comment is a single comment on a photo.
type Comment struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

// PhotoDetail is the full photo returned by GET /photos/:id.
type PhotoDetail struct {
	Photo
	Description   string    `json:"description"`
	Camera        string    `json:"camera"`
	Settings      string    `json:"settings"`
	Comments      []Comment `json:"comments"`
	LikedByMe     bool      `json:"liked_by_me"`
	FavoritedByMe bool      `json:"favorited_by_me"`
	CreatedAt     string    `json:"created_at"`
}

// Metadata returns the editable fields of the photo.
func (d PhotoDetail) Metadata() PhotoMetadata {
	return PhotoMetadata{
		Title:       d.Title,
		Description: d.Description,
		Camera:      d.Camera,
		Settings:    d.Settings,
		Category:    d.Category,
		Tags:        strings.Join(d.Tags, ","),
	}
}

// LikeResult is the response of POST /photos/:id/like.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// FavoriteResult is the response of POST /photos/:id/favorite.
type FavoriteResult struct {
	Favorited bool `json:"favorited"`
	Favorites int  `json:"favorites"`
}

// CarouselItem is an image in the home page carousel.
type CarouselItem struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	ThumbURL  string `json:"thumb_url"`
	SortOrder int    `json:"sort_order"`
}

// HomeVideo is a home page hero video.
type HomeVideo struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
}

// User is the logged in account.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// UserStats aggregates the account's photos and received reactions.
type UserStats struct {
	Photos    int `json:"photos"`
	Likes     int `json:"likes"`
	Favorites int `json:"favorites"`
}

// PhotoMetadata holds the form fields sent with an upload or an edit.
//
// Tags is a comma separated list, as the API expects.
type PhotoMetadata struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Camera      string `json:"camera" yaml:"camera"`
	Settings    string `json:"settings" yaml:"settings"`
	Category    string `json:"category" yaml:"category"`
	Tags        string `json:"tags" yaml:"tags"`
}

// Fields returns the metadata as multipart form fields in a stable order.
func (m PhotoMetadata) Fields() [][2]string {
	return [][2]string{
		{"title", m.Title},
		{"description", m.Description},
		{"camera", m.Camera},
		{"settings", m.Settings},
		{"category", m.Category},
		{"tags", m.Tags},
	}
}

// UploadedPhoto is one entry of the POST /photos response.
type UploadedPhoto struct {
	ID       int    `json:"id"`
	ImageURL string `json:"image_url"`
	ThumbURL string `json:"thumb_url"`
}

// UploadResult is the response of POST /photos.
type UploadResult struct {
	Items []UploadedPhoto `json:"items"`
}
