package models

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// User represents an account created on first successful sign-in.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary is the owner information embedded in video responses.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Visibility controls who may see a video.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ParseVisibility normalises raw input into a Visibility.
func ParseVisibility(raw string) (Visibility, error) {
	v := Visibility(strings.ToLower(strings.TrimSpace(raw)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown visibility %q", raw)
	}
	return v, nil
}

// Video stores the metadata for a recording hosted by the external media service.
type Video struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	VideoURL     string      `json:"videoUrl"`
	MediaID      string      `json:"videoId"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Visibility   Visibility  `json:"visibility"`
	Duration     *int        `json:"duration"`
	Views        int64       `json:"views"`
	OwnerID      string      `json:"userId"`
	Owner        UserSummary `json:"user"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Principal is the authenticated caller of a request. A nil *Principal is anonymous.
type Principal struct {
	ID    string
	Name  string
	Email string
	Image string
}

// ProfileStats aggregates a user's library.
type ProfileStats struct {
	TotalVideos int64 `json:"totalVideos"`
	TotalViews  int64 `json:"totalViews"`
}

// Profile is a user record together with library statistics.
type Profile struct {
	User
	Stats ProfileStats `json:"stats"`
}

// VideoFilter scopes a library listing. An empty OwnerID or Visibility matches any value.
type VideoFilter struct {
	OwnerID    string
	Visibility Visibility
	Limit      int
	Offset     int
}

// VideoChanges lists the fields of a partial update. Nil fields are left untouched.
type VideoChanges struct {
	Title       *string
	Description *string
	Visibility  *Visibility
}

// Empty reports whether the changes touch no field.
func (c VideoChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Visibility == nil
}

// MediaUpload is a raw recording handed to the media host.
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Duration    *int
}

// MediaAsset holds the references returned by the media host after an upload.
type MediaAsset struct {
	URL          string `json:"videoUrl"`
	MediaID      string `json:"videoId"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     *int   `json:"duration"`
}
