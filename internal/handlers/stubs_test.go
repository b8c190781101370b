package handlers

import (
	"context"
	"io"

	"github.com/blazethunderstorm/screen-recorder/internal/library"
	"github.com/blazethunderstorm/screen-recorder/internal/models"
)

type stubLibrary struct {
	listQuery     library.ListQuery
	listPrincipal *models.Principal
	listPage      library.Page
	listErr       error

	getID    string
	getVideo models.Video
	getErr   error

	createInput library.CreateInput
	createErr   error

	publishUpload models.MediaUpload
	publishBody   string
	publishInput  library.CreateInput
	publishErr    error

	uploadAsset models.MediaAsset
	uploadErr   error

	updateID      string
	updateChanges models.VideoChanges
	updateErr     error

	deleteID  string
	deleteErr error
}

func (s *stubLibrary) List(_ context.Context, principal *models.Principal, query library.ListQuery) (library.Page, error) {
	s.listPrincipal = principal
	s.listQuery = query
	return s.listPage, s.listErr
}

func (s *stubLibrary) Get(_ context.Context, _ *models.Principal, id string) (models.Video, error) {
	s.getID = id
	return s.getVideo, s.getErr
}

func (s *stubLibrary) Create(_ context.Context, principal *models.Principal, input library.CreateInput) (models.Video, error) {
	s.createInput = input
	if s.createErr != nil {
		return models.Video{}, s.createErr
	}
	return models.Video{ID: "video-1", Title: input.Title, OwnerID: principal.ID}, nil
}

func (s *stubLibrary) Publish(_ context.Context, principal *models.Principal, upload models.MediaUpload, input library.CreateInput) (models.Video, error) {
	s.publishUpload = upload
	s.publishInput = input
	if upload.Body != nil {
		body, _ := io.ReadAll(upload.Body)
		s.publishBody = string(body)
	}
	if s.publishErr != nil {
		return models.Video{}, s.publishErr
	}
	return models.Video{ID: "video-2", Title: input.Title, OwnerID: principal.ID}, nil
}

func (s *stubLibrary) Upload(_ context.Context, _ *models.Principal, upload models.MediaUpload) (models.MediaAsset, error) {
	s.publishUpload = upload
	return s.uploadAsset, s.uploadErr
}

func (s *stubLibrary) Update(_ context.Context, _ *models.Principal, id string, changes models.VideoChanges) (models.Video, error) {
	s.updateID = id
	s.updateChanges = changes
	if s.updateErr != nil {
		return models.Video{}, s.updateErr
	}
	return models.Video{ID: id}, nil
}

func (s *stubLibrary) Delete(_ context.Context, _ *models.Principal, id string) error {
	s.deleteID = id
	return s.deleteErr
}

type stubProfiles struct {
	profile   models.Profile
	err       error
	renamedTo string
}

func (s *stubProfiles) Profile(_ context.Context, _ *models.Principal, userID string) (models.Profile, error) {
	if s.err != nil {
		return models.Profile{}, s.err
	}
	profile := s.profile
	profile.ID = userID
	return profile, nil
}

func (s *stubProfiles) Rename(_ context.Context, _ *models.Principal, userID, name string) (models.User, error) {
	s.renamedTo = name
	if s.err != nil {
		return models.User{}, s.err
	}
	return models.User{ID: userID, Name: name}, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }
