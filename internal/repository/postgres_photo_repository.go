package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jce-C/megregalo/internal/models"
)

const photoSchema = `
	CREATE TABLE IF NOT EXISTS photos (
		id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		filename    TEXT NOT NULL,
		url         TEXT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS photos_uploaded_at_idx ON photos (uploaded_at DESC);
`

type PostgresPhotoRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPhotoRepository(pool *pgxpool.Pool) *PostgresPhotoRepository {
	return &PostgresPhotoRepository{pool: pool}
}

func (r *PostgresPhotoRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, photoSchema)
	return err
}

func (r *PostgresPhotoRepository) Create(ctx context.Context, photo models.NewPhoto) (models.Photo, error) {
	const query = `
		INSERT INTO photos (filename, url)
		VALUES ($1, $2)
		RETURNING id, filename, url, uploaded_at
	`

	var created models.Photo
	if err := r.pool.QueryRow(ctx, query, photo.Filename, photo.URL).Scan(
		&created.ID,
		&created.Filename,
		&created.URL,
		&created.UploadedAt,
	); err != nil {
		return models.Photo{}, err
	}
	created.UploadedAt = created.UploadedAt.UTC()
	return created, nil
}

func (r *PostgresPhotoRepository) List(ctx context.Context) ([]models.Photo, error) {
	const query = `
		SELECT id, filename, url, uploaded_at
		FROM photos
		ORDER BY uploaded_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := make([]models.Photo, 0)
	for rows.Next() {
		var photo models.Photo
		if err := rows.Scan(
			&photo.ID,
			&photo.Filename,
			&photo.URL,
			&photo.UploadedAt,
		); err != nil {
			return nil, err
		}
		photo.UploadedAt = photo.UploadedAt.UTC()
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

func (r *PostgresPhotoRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
