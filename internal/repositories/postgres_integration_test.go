package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blazethunderstorm/screen-recorder/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_UpsertFindAndRename(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	created := createTestUser(t, repo, "alice@example.com")

	again, err := repo.UpsertByEmail(ctx, models.User{
		ID:        uuid.NewString(),
		Name:      "Someone Else",
		Email:     "alice@example.com",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("upsert existing user: %v", err)
	}
	if again.ID != created.ID || again.Name != created.Name {
		t.Fatalf("expected existing user to be returned untouched, got %+v", again)
	}

	fetched, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.Email != "alice@example.com" {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	renamed, err := repo.UpdateName(ctx, created.ID, "Alice Liddell")
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if renamed.Name != "Alice Liddell" {
		t.Fatalf("expected renamed user, got %+v", renamed)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
	if _, err := repo.UpdateName(ctx, uuid.NewString(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound renaming missing user, got %v", err)
	}
}

func TestPostgresUserRepository_Stats(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	owner := createTestUser(t, users, "owner@example.com")

	base := time.Now().UTC().Truncate(time.Millisecond)
	public := createTestVideo(t, videos, owner.ID, models.VisibilityPublic, base)
	hidden := createTestVideo(t, videos, owner.ID, models.VisibilityPrivate, base.Add(time.Second))

	for i := 0; i < 3; i++ {
		if _, err := videos.IncrementViews(ctx, public.ID); err != nil {
			t.Fatalf("increment views: %v", err)
		}
	}
	if _, err := videos.IncrementViews(ctx, hidden.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}

	all, err := users.Stats(ctx, owner.ID, false)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if all.TotalVideos != 2 || all.TotalViews != 4 {
		t.Fatalf("unexpected owner stats %+v", all)
	}

	visible, err := users.Stats(ctx, owner.ID, true)
	if err != nil {
		t.Fatalf("public stats: %v", err)
	}
	if visible.TotalVideos != 2 || visible.TotalViews != 3 {
		t.Fatalf("unexpected public stats %+v", visible)
	}

	empty, err := users.Stats(ctx, uuid.NewString(), false)
	if err != nil {
		t.Fatalf("stats for unknown user: %v", err)
	}
	if empty.TotalVideos != 0 || empty.TotalViews != 0 {
		t.Fatalf("expected zero stats, got %+v", empty)
	}
}

func TestPostgresVideoRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	repo := NewPostgresVideoRepository(testPool)
	owner := createTestUser(t, users, "owner@example.com")

	duration := 42
	now := time.Now().UTC().Truncate(time.Millisecond)
	created, err := repo.Create(ctx, models.Video{
		ID:           uuid.NewString(),
		Title:        "Bug repro",
		Description:  "steps",
		VideoURL:     "https://cdn.example.com/videos/a.webm",
		MediaID:      "videos/a.webm",
		ThumbnailURL: "https://cdn.example.com/thumbnails/a.jpg",
		Visibility:   models.VisibilityPrivate,
		Duration:     &duration,
		OwnerID:      owner.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}

	if created.Views != 0 || created.Owner.ID != owner.ID || created.Owner.Name != owner.Name {
		t.Fatalf("unexpected created video %+v", created)
	}
	if created.Duration == nil || *created.Duration != 42 {
		t.Fatalf("expected duration to round trip, got %v", created.Duration)
	}

	fetched, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if fetched.Title != "Bug repro" || fetched.Visibility != models.VisibilityPrivate {
		t.Fatalf("unexpected fetched video %+v", fetched)
	}
	if !timesClose(fetched.CreatedAt, now, time.Millisecond) {
		t.Fatalf("expected created_at %s got %s", now, fetched.CreatedAt)
	}

	if _, err := repo.Get(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}

	orphan := created
	orphan.ID = uuid.NewString()
	orphan.OwnerID = uuid.NewString()
	if _, err := repo.Create(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}

	dup := created
	if _, err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate id, got %v", err)
	}
}

func TestPostgresVideoRepository_ListOrdersAndPaginates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	repo := NewPostgresVideoRepository(testPool)
	alice := createTestUser(t, users, "alice@example.com")
	bob := createTestUser(t, users, "bob@example.com")

	base := time.Now().UTC().Truncate(time.Millisecond)
	var alicePublic []string
	for i := 0; i < 5; i++ {
		v := createTestVideo(t, repo, alice.ID, models.VisibilityPublic, base.Add(time.Duration(i)*time.Minute))
		alicePublic = append(alicePublic, v.ID)
	}
	// Same timestamp: the id breaks the tie.
	tieA := createTestVideo(t, repo, bob.ID, models.VisibilityPublic, base.Add(10*time.Minute))
	tieB := createTestVideo(t, repo, bob.ID, models.VisibilityPublic, base.Add(10*time.Minute))
	createTestVideo(t, repo, alice.ID, models.VisibilityPrivate, base.Add(20*time.Minute))

	all, total, err := repo.List(ctx, models.VideoFilter{Visibility: models.VisibilityPublic, Limit: 10})
	if err != nil {
		t.Fatalf("list public videos: %v", err)
	}
	if total != 7 || len(all) != 7 {
		t.Fatalf("expected 7 public videos, got %d (total %d)", len(all), total)
	}

	ties := []string{tieA.ID, tieB.ID}
	sort.Sort(sort.Reverse(sort.StringSlice(ties)))
	if all[0].ID != ties[0] || all[1].ID != ties[1] {
		t.Fatalf("expected id DESC tie-break, got %s, %s", all[0].ID, all[1].ID)
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("videos not ordered newest first at %d", i)
		}
	}

	owned, total, err := repo.List(ctx, models.VideoFilter{OwnerID: alice.ID, Limit: 10})
	if err != nil {
		t.Fatalf("list owner videos: %v", err)
	}
	if total != 6 || len(owned) != 6 {
		t.Fatalf("expected all 6 of alice's videos, got %d (total %d)", len(owned), total)
	}
	if owned[0].Visibility != models.VisibilityPrivate {
		t.Fatalf("expected newest private video first, got %+v", owned[0])
	}

	seen := map[string]bool{}
	for offset := 0; offset < 5; offset += 2 {
		page, total, err := repo.List(ctx, models.VideoFilter{
			OwnerID:    alice.ID,
			Visibility: models.VisibilityPublic,
			Limit:      2,
			Offset:     offset,
		})
		if err != nil {
			t.Fatalf("list page at %d: %v", offset, err)
		}
		if total != 5 {
			t.Fatalf("expected total 5, got %d", total)
		}
		for _, v := range page {
			if seen[v.ID] {
				t.Fatalf("video %s returned on two pages", v.ID)
			}
			seen[v.ID] = true
		}
	}
	for _, id := range alicePublic {
		if !seen[id] {
			t.Fatalf("video %s missing from pages", id)
		}
	}

	beyond, total, err := repo.List(ctx, models.VideoFilter{OwnerID: bob.ID, Limit: 10, Offset: 50})
	if err != nil {
		t.Fatalf("list beyond end: %v", err)
	}
	if len(beyond) != 0 || total != 2 {
		t.Fatalf("expected empty page with total 2, got %d (total %d)", len(beyond), total)
	}
}

func TestPostgresVideoRepository_IncrementViews(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	repo := NewPostgresVideoRepository(testPool)
	owner := createTestUser(t, users, "owner@example.com")
	video := createTestVideo(t, repo, owner.ID, models.VisibilityPublic, time.Now().UTC())

	for want := int64(1); want <= 3; want++ {
		views, err := repo.IncrementViews(ctx, video.ID)
		if err != nil {
			t.Fatalf("increment views: %v", err)
		}
		if views != want {
			t.Fatalf("expected %d views, got %d", want, views)
		}
	}

	if _, err := repo.IncrementViews(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}
}

func TestPostgresVideoRepository_UpdateAndDeleteOwned(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	repo := NewPostgresVideoRepository(testPool)
	owner := createTestUser(t, users, "owner@example.com")
	other := createTestUser(t, users, "other@example.com")
	video := createTestVideo(t, repo, owner.ID, models.VisibilityPrivate, time.Now().UTC().Add(-time.Hour))

	title := "not yours"
	if _, err := repo.UpdateOwned(ctx, video.ID, other.ID, models.VideoChanges{Title: &title}, time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating as non-owner, got %v", err)
	}

	public := models.VisibilityPublic
	updatedAt := time.Now().UTC().Truncate(time.Millisecond)
	updated, err := repo.UpdateOwned(ctx, video.ID, owner.ID, models.VideoChanges{Visibility: &public}, updatedAt)
	if err != nil {
		t.Fatalf("update owned video: %v", err)
	}
	if updated.Visibility != models.VisibilityPublic || updated.Title != video.Title {
		t.Fatalf("expected only visibility to change, got %+v", updated)
	}
	if !timesClose(updated.UpdatedAt, updatedAt, time.Millisecond) {
		t.Fatalf("expected updated_at %s got %s", updatedAt, updated.UpdatedAt)
	}

	if err := repo.DeleteOwned(ctx, video.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting as non-owner, got %v", err)
	}
	if _, err := repo.Get(ctx, video.ID); err != nil {
		t.Fatalf("expected video to survive non-owner delete: %v", err)
	}

	if err := repo.DeleteOwned(ctx, video.ID, owner.ID); err != nil {
		t.Fatalf("delete owned video: %v", err)
	}
	if _, err := repo.Get(ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted video to be gone, got %v", err)
	}
	if err := repo.DeleteOwned(ctx, video.ID, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email string) models.User {
	t.Helper()
	user, err := repo.UpsertByEmail(context.Background(), models.User{
		ID:        uuid.NewString(),
		Name:      email,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID string, visibility models.Visibility, createdAt time.Time) models.Video {
	t.Helper()
	id := uuid.NewString()
	video, err := repo.Create(context.Background(), models.Video{
		ID:           id,
		Title:        "recording " + id[:8],
		VideoURL:     "https://cdn.example.com/videos/" + id + ".webm",
		MediaID:      "videos/" + id + ".webm",
		ThumbnailURL: "https://cdn.example.com/thumbnails/" + id + ".jpg",
		Visibility:   visibility,
		OwnerID:      ownerID,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	})
	if err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
