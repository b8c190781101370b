package library

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blazethunderstorm/screen-recorder/internal/logging"
	"github.com/blazethunderstorm/screen-recorder/internal/models"
	"github.com/blazethunderstorm/screen-recorder/internal/repositories"
)

const (
	// DefaultPageSize is used by callers that do not request a page size.
	DefaultPageSize = 10
	// MaxPageSize bounds a single listing page.
	MaxPageSize = 100
	// MaxDuration is the longest recording, in seconds, a record can hold.
	MaxDuration = math.MaxInt32
)

// VideoStore is the persistence contract of the video library.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	Get(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int64, error)
	IncrementViews(ctx context.Context, id string) (int64, error)
	UpdateOwned(ctx context.Context, id, ownerID string, changes models.VideoChanges, updatedAt time.Time) (models.Video, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// MediaHost stores raw recordings outside of the record store.
type MediaHost interface {
	Upload(ctx context.Context, upload models.MediaUpload) (models.MediaAsset, error)
	Delete(ctx context.Context, mediaID string) error
}

// ListQuery describes a listing request.
type ListQuery struct {
	TargetUserID string
	Visibility   string
	Limit        int
	Offset       int
}

// Page is one window of a listing.
type Page struct {
	Items   []models.Video
	Total   int64
	Limit   int
	Offset  int
	HasMore bool
}

// CreateInput carries the caller supplied fields of a new video.
type CreateInput struct {
	Title        string
	Description  string
	VideoURL     string
	MediaID      string
	ThumbnailURL string
	Visibility   string
	Duration     *int
}

// Service implements listing, viewing and mutation of library videos.
type Service struct {
	Videos  VideoStore
	Media   MediaHost
	NowFunc func() time.Time
	NewID   func() string
}

// NewService constructs a Service backed by the provided collaborators.
func NewService(videos VideoStore, media MediaHost) *Service {
	return &Service{Videos: videos, Media: media}
}

// List returns one page of videos visible to the principal.
//
// Callers only see private videos when they list their own library; every
// other request is scoped to public videos whatever filter was asked for.
func (s *Service) List(ctx context.Context, principal *models.Principal, query ListQuery) (_ Page, err error) {
	ctx, span := logging.StartSpan(ctx, "library.list", "target_user_id", query.TargetUserID)
	defer func() { endSpan(span, err) }()

	if query.Limit <= 0 || query.Limit > MaxPageSize {
		return Page{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxPageSize)
	}
	if query.Offset < 0 {
		return Page{}, fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
	}

	filter := models.VideoFilter{
		OwnerID: strings.TrimSpace(query.TargetUserID),
		Limit:   query.Limit,
		Offset:  query.Offset,
	}

	filter.Visibility = models.VisibilityPublic
	if principal != nil && filter.OwnerID != "" && filter.OwnerID == principal.ID {
		filter.Visibility = ""
		if strings.TrimSpace(query.Visibility) != "" {
			v, err := models.ParseVisibility(query.Visibility)
			if err != nil {
				return Page{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			filter.Visibility = v
		}
	}

	items, total, err := s.Videos.List(ctx, filter)
	if err != nil {
		return Page{}, storeError("list videos", err)
	}
	if items == nil {
		items = []models.Video{}
	}

	return Page{
		Items:   items,
		Total:   total,
		Limit:   query.Limit,
		Offset:  query.Offset,
		HasMore: int64(query.Offset)+int64(query.Limit) < total,
	}, nil
}

// Get fetches a single video and records the view.
func (s *Service) Get(ctx context.Context, principal *models.Principal, id string) (_ models.Video, err error) {
	ctx, span := logging.StartSpan(ctx, "library.get", "video_id", id)
	defer func() { endSpan(span, err) }()

	video, err := s.fetch(ctx, id)
	if err != nil {
		return models.Video{}, err
	}

	if !CanView(video, principal) {
		return models.Video{}, fmt.Errorf("%w: video %s is private", ErrForbidden, id)
	}

	return s.RecordView(ctx, video, principal)
}

// RecordView increments the view counter unless the viewer owns the video.
func (s *Service) RecordView(ctx context.Context, video models.Video, principal *models.Principal) (models.Video, error) {
	if isOwner(video, principal) {
		return video, nil
	}

	views, err := s.Videos.IncrementViews(ctx, video.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, fmt.Errorf("%w: video %s", ErrNotFound, video.ID)
		}
		return models.Video{}, storeError("record view", err)
	}

	video.Views = views
	return video, nil
}

// Create stores a new video owned by the principal.
func (s *Service) Create(ctx context.Context, principal *models.Principal, input CreateInput) (_ models.Video, err error) {
	ctx, span := logging.StartSpan(ctx, "library.create")
	defer func() { endSpan(span, err) }()

	if principal == nil || principal.ID == "" {
		return models.Video{}, fmt.Errorf("%w: sign in to create videos", ErrUnauthorized)
	}

	visibility, err := validateMetadata(input)
	if err != nil {
		return models.Video{}, err
	}
	if err := validateMedia(input); err != nil {
		return models.Video{}, err
	}

	now := s.now()
	video := models.Video{
		ID:           s.newID(),
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		VideoURL:     strings.TrimSpace(input.VideoURL),
		MediaID:      strings.TrimSpace(input.MediaID),
		ThumbnailURL: strings.TrimSpace(input.ThumbnailURL),
		Visibility:   visibility,
		Duration:     normalizeDuration(input.Duration),
		OwnerID:      principal.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.Videos.Create(ctx, video)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, fmt.Errorf("%w: owner %s", ErrNotFound, principal.ID)
		}
		return models.Video{}, storeError("create video", err)
	}

	return created, nil
}

// Publish uploads the recording to the media host and then creates the record.
// No record is written unless the upload completed.
func (s *Service) Publish(ctx context.Context, principal *models.Principal, upload models.MediaUpload, input CreateInput) (models.Video, error) {
	if principal == nil || principal.ID == "" {
		return models.Video{}, fmt.Errorf("%w: sign in to upload videos", ErrUnauthorized)
	}
	metadata := input
	if metadata.Duration == nil {
		metadata.Duration = upload.Duration
	}
	if _, err := validateMetadata(metadata); err != nil {
		return models.Video{}, err
	}

	asset, err := s.Upload(ctx, principal, upload)
	if err != nil {
		return models.Video{}, err
	}

	input.VideoURL = asset.URL
	input.MediaID = asset.MediaID
	input.ThumbnailURL = asset.ThumbnailURL
	if input.Duration == nil {
		input.Duration = asset.Duration
	}

	video, err := s.Create(ctx, principal, input)
	if err != nil {
		if rmErr := s.Media.Delete(ctx, asset.MediaID); rmErr != nil {
			logging.FromContext(ctx).Error("remove orphaned media", "mediaId", asset.MediaID, "error", rmErr)
		}
		return models.Video{}, err
	}

	return video, nil
}

// Upload hands a recording to the media host without creating a record.
func (s *Service) Upload(ctx context.Context, principal *models.Principal, upload models.MediaUpload) (_ models.MediaAsset, err error) {
	ctx, span := logging.StartSpan(ctx, "library.upload", "filename", upload.Filename, "size", upload.Size)
	defer func() { endSpan(span, err) }()

	if principal == nil || principal.ID == "" {
		return models.MediaAsset{}, fmt.Errorf("%w: sign in to upload videos", ErrUnauthorized)
	}
	if upload.Body == nil {
		return models.MediaAsset{}, fmt.Errorf("%w: video file is required", ErrInvalidInput)
	}
	if s.Media == nil {
		return models.MediaAsset{}, fmt.Errorf("%w: media host not configured", ErrUpstream)
	}

	asset, err := s.Media.Upload(ctx, upload)
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("%w: upload video: %w", ErrUpstream, err)
	}
	if asset.Duration == nil {
		asset.Duration = normalizeDuration(upload.Duration)
	}

	return asset, nil
}

// Update applies a partial update to a video owned by the principal.
func (s *Service) Update(ctx context.Context, principal *models.Principal, id string, changes models.VideoChanges) (_ models.Video, err error) {
	ctx, span := logging.StartSpan(ctx, "library.update", "video_id", id)
	defer func() { endSpan(span, err) }()

	if principal == nil || principal.ID == "" {
		return models.Video{}, fmt.Errorf("%w: sign in to update videos", ErrUnauthorized)
	}

	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" {
			return models.Video{}, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		changes.Title = &title
	}
	if changes.Visibility != nil && !changes.Visibility.Valid() {
		return models.Video{}, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, *changes.Visibility)
	}

	if changes.Empty() {
		video, err := s.fetch(ctx, id)
		if err != nil {
			return models.Video{}, err
		}
		if !CanMutate(video, principal) {
			return models.Video{}, fmt.Errorf("%w: video %s belongs to another user", ErrForbidden, id)
		}
		return video, nil
	}

	updated, err := s.Videos.UpdateOwned(ctx, id, principal.ID, changes, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, s.ownershipError(ctx, id)
		}
		return models.Video{}, storeError("update video", err)
	}

	return updated, nil
}

// Delete permanently removes a video owned by the principal.
func (s *Service) Delete(ctx context.Context, principal *models.Principal, id string) (err error) {
	ctx, span := logging.StartSpan(ctx, "library.delete", "video_id", id)
	defer func() { endSpan(span, err) }()

	if principal == nil || principal.ID == "" {
		return fmt.Errorf("%w: sign in to delete videos", ErrUnauthorized)
	}

	if err := s.Videos.DeleteOwned(ctx, id, principal.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.ownershipError(ctx, id)
		}
		return storeError("delete video", err)
	}

	return nil
}

// ownershipError explains why a conditional write matched no row.
func (s *Service) ownershipError(ctx context.Context, id string) error {
	if _, err := s.fetch(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: video %s belongs to another user", ErrForbidden, id)
}

func (s *Service) fetch(ctx context.Context, id string) (models.Video, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Video{}, fmt.Errorf("%w: video id is required", ErrInvalidInput)
	}

	video, err := s.Videos.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, fmt.Errorf("%w: video %s", ErrNotFound, id)
		}
		return models.Video{}, storeError("get video", err)
	}
	return video, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func validateMetadata(input CreateInput) (models.Visibility, error) {
	if strings.TrimSpace(input.Title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.Duration != nil && *input.Duration > MaxDuration {
		return "", fmt.Errorf("%w: duration must not exceed %d seconds", ErrInvalidInput, MaxDuration)
	}
	if strings.TrimSpace(input.Visibility) == "" {
		return models.VisibilityPrivate, nil
	}
	v, err := models.ParseVisibility(input.Visibility)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return v, nil
}

func validateMedia(input CreateInput) error {
	var missing []string
	if strings.TrimSpace(input.VideoURL) == "" {
		missing = append(missing, "videoUrl")
	}
	if strings.TrimSpace(input.MediaID) == "" {
		missing = append(missing, "videoId")
	}
	if strings.TrimSpace(input.ThumbnailURL) == "" {
		missing = append(missing, "thumbnailUrl")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// normalizeDuration drops unknown or non-positive durations.
func normalizeDuration(d *int) *int {
	if d == nil || *d <= 0 {
		return nil
	}
	v := *d
	return &v
}

// endSpan closes span, flagging it failed when a collaborator broke.
func endSpan(span *logging.Span, err error) {
	if errors.Is(err, ErrUpstream) {
		span.Fail(err)
	}
	span.End()
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
