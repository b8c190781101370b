package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/blazethunderstorm/screen-recorder/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist, or that a
	// write referenced a row that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	UpsertByEmail(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateName(ctx context.Context, id, name string) (models.User, error)
	Stats(ctx context.Context, id string, publicViews bool) (models.ProfileStats, error)
}

// VideoRepository exposes data access for library videos. The *Owned writes
// only match rows whose owner is ownerID.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	Get(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int64, error)
	IncrementViews(ctx context.Context, id string) (int64, error)
	UpdateOwned(ctx context.Context, id, ownerID string, changes models.VideoChanges, updatedAt time.Time) (models.Video, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify maps driver errors onto the repository sentinels and wraps the rest with op.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
