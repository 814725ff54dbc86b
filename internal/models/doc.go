// Package models defines the gallery domain types shared by the API client, the fetch controllers and the terminal UI.
//
// The package contains three categories of types:
//
// 1. API payloads: JSON shapes returned by the gallery REST API
//   - [Photo] : Photo summary as listed by GET /photos
//   - [PhotoDetail] : Full photo with comments, counters and per-user flags
//   - [CarouselItem], [HomeVideo] : Home page media
//   - [User], [UserStats] : Profile data for the logged in user
//
// 2. Client-side state: values owned by the front-end
//   - [Query] : Search/filter parameters plus pagination cursor
//   - [ViewStatus] : Derived list state (idle, loading, error, empty, success)
//   - [RecentSearch] : Locally persisted search history entry
//   - [FillEvent] : Auto-fill diagnostic event
//
// 3. Upload bookkeeping
//   - [PhotoMetadata] : Form fields sent alongside uploaded files
//   - [UploadJob] : One file within a sequential upload batch
package models
