package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `SELECT temp_id, description, lat, lon, created_at, photo_kind, photo_blob, photo_data_uri FROM pending`

func (r *SQLiteRepository) Put(ctx context.Context, p models.PendingStory) error {
	var (
		blob    []byte
		dataURI sql.NullString
	)
	switch p.Photo.Kind {
	case models.PhotoBlob:
		blob = p.Photo.Blob
	case models.PhotoDataURI:
		dataURI = sql.NullString{String: p.Photo.DataURI, Valid: true}
	}

	query := `INSERT INTO pending (temp_id, description, lat, lon, created_at, photo_kind, photo_blob, photo_data_uri)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(temp_id) DO UPDATE SET description = excluded.description,
				lat = excluded.lat,
				lon = excluded.lon,
				created_at = excluded.created_at,
				photo_kind = excluded.photo_kind,
				photo_blob = excluded.photo_blob,
				photo_data_uri = excluded.photo_data_uri`

	_, err := r.db.ExecContext(ctx, query,
		p.TempID, p.Description, nullFloat(p.Lat), nullFloat(p.Lon),
		p.CreatedAt.UTC().Format(time.RFC3339Nano), string(p.Photo.Kind), blob, dataURI)
	if err != nil {
		return fmt.Errorf("failed to upsert pending %d: %w", p.TempID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.PendingStory, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at, temp_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending: %w", err)
	}
	defer rows.Close()

	result := []models.PendingStory{}
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, tempID int64) (*models.PendingStory, error) {
	p, err := scanPending(r.db.QueryRowContext(ctx, selectColumns+` WHERE temp_id = ?`, tempID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, tempID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending WHERE temp_id = ?`, tempID); err != nil {
		return fmt.Errorf("failed to delete pending %d: %w", tempID, err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPending(row scanner) (models.PendingStory, error) {
	var (
		p         models.PendingStory
		lat, lon  sql.NullFloat64
		createdAt string
		kind      string
		blob      []byte
		dataURI   sql.NullString
	)
	if err := row.Scan(&p.TempID, &p.Description, &lat, &lon, &createdAt, &kind, &blob, &dataURI); err != nil {
		return models.PendingStory{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.PendingStory{}, fmt.Errorf("pending %d: bad created_at %q: %w", p.TempID, createdAt, err)
	}
	p.CreatedAt = t
	if lat.Valid {
		p.Lat = models.Float(lat.Float64)
	}
	if lon.Valid {
		p.Lon = models.Float(lon.Float64)
	}

	switch models.PhotoKind(kind) {
	case models.PhotoBlob:
		p.Photo = models.BlobPhoto(blob)
	case models.PhotoDataURI:
		p.Photo = models.DataURIPhoto(dataURI.String)
	case models.PhotoNone:
	default:
		return models.PendingStory{}, fmt.Errorf("pending %d: unknown photo kind %q", p.TempID, kind)
	}
	return p, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
