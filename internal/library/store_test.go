package library

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blazethunderstorm/screen-recorder/internal/models"
	"github.com/blazethunderstorm/screen-recorder/internal/repositories"
)

// memoryVideos mirrors the ordering and ownership rules of the Postgres store.
type memoryVideos struct {
	mu        sync.Mutex
	videos    map[string]models.Video
	createErr error
	listErr   error
	lastList  models.VideoFilter
}

func newMemoryVideos(videos ...models.Video) *memoryVideos {
	store := &memoryVideos{videos: make(map[string]models.Video)}
	for _, v := range videos {
		store.videos[v.ID] = v
	}
	return store
}

func (m *memoryVideos) Create(_ context.Context, video models.Video) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return models.Video{}, m.createErr
	}
	if _, ok := m.videos[video.ID]; ok {
		return models.Video{}, repositories.ErrConflict
	}
	video.Owner = models.UserSummary{ID: video.OwnerID}
	m.videos[video.ID] = video
	return video, nil
}

func (m *memoryVideos) Get(_ context.Context, id string) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (m *memoryVideos) List(_ context.Context, filter models.VideoFilter) ([]models.Video, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}

	var matched []models.Video
	for _, v := range m.videos {
		if filter.OwnerID != "" && v.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Visibility != "" && v.Visibility != filter.Visibility {
			continue
		}
		matched = append(matched, v)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]models.Video(nil), matched[filter.Offset:end]...), total, nil
}

func (m *memoryVideos) IncrementViews(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.videos[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	video.Views++
	m.videos[id] = video
	return video.Views, nil
}

func (m *memoryVideos) UpdateOwned(_ context.Context, id, ownerID string, changes models.VideoChanges, updatedAt time.Time) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.videos[id]
	if !ok || video.OwnerID != ownerID {
		return models.Video{}, repositories.ErrNotFound
	}
	if changes.Title != nil {
		video.Title = *changes.Title
	}
	if changes.Description != nil {
		video.Description = *changes.Description
	}
	if changes.Visibility != nil {
		video.Visibility = *changes.Visibility
	}
	video.UpdatedAt = updatedAt
	m.videos[id] = video
	return video, nil
}

func (m *memoryVideos) DeleteOwned(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.videos[id]
	if !ok || video.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(m.videos, id)
	return nil
}

func (m *memoryVideos) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.videos)
}

type stubMedia struct {
	uploadErr error
	deleteErr error
	uploaded  []string
	deleted   []string
}

func (s *stubMedia) Upload(_ context.Context, upload models.MediaUpload) (models.MediaAsset, error) {
	if s.uploadErr != nil {
		return models.MediaAsset{}, s.uploadErr
	}
	body, err := io.ReadAll(upload.Body)
	if err != nil {
		return models.MediaAsset{}, err
	}
	key := "videos/" + strings.TrimSuffix(upload.Filename, ".webm") + ".webm"
	s.uploaded = append(s.uploaded, string(body))
	return models.MediaAsset{
		URL:          "https://cdn.example.com/" + key,
		MediaID:      key,
		ThumbnailURL: "https://cdn.example.com/thumbnails/clip.jpg",
	}, nil
}

func (s *stubMedia) Delete(_ context.Context, mediaID string) error {
	s.deleted = append(s.deleted, mediaID)
	return s.deleteErr
}

type memoryUsers struct {
	users    map[string]models.User
	stats    map[string]models.ProfileStats
	statsErr error
	// publicViews records the scope requested by the last Stats call.
	publicViews bool
}

func newMemoryUsers(users ...models.User) *memoryUsers {
	store := &memoryUsers{users: make(map[string]models.User), stats: make(map[string]models.ProfileStats)}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (m *memoryUsers) UpsertByEmail(_ context.Context, user models.User) (models.User, error) {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return existing, nil
		}
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) UpdateName(_ context.Context, id, name string) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.Name = name
	m.users[id] = user
	return user, nil
}

func (m *memoryUsers) Stats(_ context.Context, id string, publicViews bool) (models.ProfileStats, error) {
	m.publicViews = publicViews
	if m.statsErr != nil {
		return models.ProfileStats{}, m.statsErr
	}
	return m.stats[id], nil
}

var errBoom = errors.New("boom")
