package handlers

import (
	"context"

	"github.com/blazethunderstorm/screen-recorder/internal/library"
	"github.com/blazethunderstorm/screen-recorder/internal/models"
)

// VideoLibrary captures the video operations exposed over HTTP.
type VideoLibrary interface {
	List(ctx context.Context, principal *models.Principal, query library.ListQuery) (library.Page, error)
	Get(ctx context.Context, principal *models.Principal, id string) (models.Video, error)
	Create(ctx context.Context, principal *models.Principal, input library.CreateInput) (models.Video, error)
	Publish(ctx context.Context, principal *models.Principal, upload models.MediaUpload, input library.CreateInput) (models.Video, error)
	Upload(ctx context.Context, principal *models.Principal, upload models.MediaUpload) (models.MediaAsset, error)
	Update(ctx context.Context, principal *models.Principal, id string, changes models.VideoChanges) (models.Video, error)
	Delete(ctx context.Context, principal *models.Principal, id string) error
}

// ProfileDirectory captures the user profile operations exposed over HTTP.
type ProfileDirectory interface {
	Profile(ctx context.Context, principal *models.Principal, userID string) (models.Profile, error)
	Rename(ctx context.Context, principal *models.Principal, userID, name string) (models.User, error)
}
