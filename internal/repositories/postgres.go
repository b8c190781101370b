package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blazethunderstorm/screen-recorder/internal/db"
	"github.com/blazethunderstorm/screen-recorder/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// UpsertByEmail inserts the user unless one already exists with the same email,
// in which case the stored record is returned untouched.
func (r *PostgresUserRepository) UpsertByEmail(ctx context.Context, user models.User) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        INSERT INTO users (id, name, email, image, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (email)
        DO UPDATE SET email = EXCLUDED.email
        RETURNING id, name, email, image, created_at
    `, user.ID, user.Name, user.Email, user.Image, user.CreatedAt)

	var stored models.User
	if err := row.Scan(&stored.ID, &stored.Name, &stored.Email, &stored.Image, &stored.CreatedAt); err != nil {
		return models.User{}, fmt.Errorf("upsert user: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()

	return stored, nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, name, email, image, created_at
        FROM users
        WHERE id = $1
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Image, &user.CreatedAt); err != nil {
		return models.User{}, classify("select user by id", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()

	return user, nil
}

// UpdateName changes the display name of a user.
func (r *PostgresUserRepository) UpdateName(ctx context.Context, id, name string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users
        SET name = $2
        WHERE id = $1
        RETURNING id, name, email, image, created_at
    `, id, name)

	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Image, &user.CreatedAt); err != nil {
		return models.User{}, classify("update user name", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()

	return user, nil
}

// Stats aggregates the number of videos and their views for a user. Every
// video is counted; publicViews restricts the view total to public videos.
func (r *PostgresUserRepository) Stats(ctx context.Context, id string, publicViews bool) (models.ProfileStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ProfileStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT COUNT(*),
               COALESCE(SUM(CASE WHEN NOT $2::BOOL OR visibility = 'public' THEN views ELSE 0 END), 0)::INT8
        FROM videos
        WHERE owner_id = $1
    `, id, publicViews)

	var stats models.ProfileStats
	if err := row.Scan(&stats.TotalVideos, &stats.TotalViews); err != nil {
		return models.ProfileStats{}, fmt.Errorf("aggregate user stats: %w", err)
	}

	return stats, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for library videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `
        v.id, v.title, v.description, v.video_url, v.media_id, v.thumbnail_url,
        v.visibility, v.duration, v.views, v.owner_id, u.name, u.image,
        v.created_at, v.updated_at`

// Create stores a new video record and returns it with the owner summary.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, title, description, video_url, media_id, thumbnail_url, visibility, duration, views, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11)
    `, video.ID, video.Title, video.Description, video.VideoURL, video.MediaID, video.ThumbnailURL,
		string(video.Visibility), video.Duration, video.OwnerID, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return models.Video{}, classify("insert video", err)
	}

	return getVideo(ctx, conn, video.ID)
}

// Get loads a single video by identifier.
func (r *PostgresVideoRepository) Get(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return getVideo(ctx, conn, id)
}

// List returns one page of videos matching the filter, newest first, together
// with the number of matching videos.
func (r *PostgresVideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	owner := filter.OwnerID
	visibility := string(filter.Visibility)

	var total int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM videos v
        WHERE ($1::TEXT = '' OR v.owner_id = $1::TEXT)
          AND ($2::TEXT = '' OR v.visibility = $2::TEXT)
    `, owner, visibility).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE ($1::TEXT = '' OR v.owner_id = $1::TEXT)
          AND ($2::TEXT = '' OR v.visibility = $2::TEXT)
        ORDER BY v.created_at DESC, v.id DESC
        LIMIT $3 OFFSET $4
    `, owner, visibility, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, total, nil
}

// IncrementViews atomically adds one view and returns the new count.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var views int64
	if err := conn.QueryRow(ctx, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1
        RETURNING views
    `, id).Scan(&views); err != nil {
		return 0, classify("increment video views", err)
	}

	return views, nil
}

// UpdateOwned applies the changes only when the video belongs to ownerID.
// ErrNotFound covers both a missing video and a different owner.
func (r *PostgresVideoRepository) UpdateOwned(ctx context.Context, id, ownerID string, changes models.VideoChanges, updatedAt time.Time) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var visibility *string
	if changes.Visibility != nil {
		v := string(*changes.Visibility)
		visibility = &v
	}

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = COALESCE($3::TEXT, title),
            description = COALESCE($4::TEXT, description),
            visibility = COALESCE($5::TEXT, visibility),
            updated_at = $6
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID, changes.Title, changes.Description, visibility, updatedAt)
	if err != nil {
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.Video{}, ErrNotFound
	}

	return getVideo(ctx, conn, id)
}

// DeleteOwned permanently removes the video when it belongs to ownerID.
func (r *PostgresVideoRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM videos
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func getVideo(ctx context.Context, conn *pgxpool.Conn, id string) (models.Video, error) {
	row := conn.QueryRow(ctx, `
        SELECT `+videoColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id)

	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, classify("select video", err)
	}
	return video, nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var (
		video      models.Video
		visibility string
		duration   *int32
	)

	if err := row.Scan(
		&video.ID, &video.Title, &video.Description, &video.VideoURL, &video.MediaID, &video.ThumbnailURL,
		&visibility, &duration, &video.Views, &video.OwnerID, &video.Owner.Name, &video.Owner.Image,
		&video.CreatedAt, &video.UpdatedAt,
	); err != nil {
		return models.Video{}, err
	}

	video.Visibility = models.Visibility(visibility)
	video.Owner.ID = video.OwnerID
	if duration != nil {
		d := int(*duration)
		video.Duration = &d
	}
	video.CreatedAt = video.CreatedAt.UTC()
	video.UpdatedAt = video.UpdatedAt.UTC()

	return video, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
