package favorites

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put stores f as given; callers normalize defaults before calling.
func (r *SQLiteRepository) Put(ctx context.Context, f models.Favorite) error {
	query := `INSERT INTO favorites (id, name, description, photo_url, lat, lon, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				description = excluded.description,
				photo_url = excluded.photo_url,
				lat = excluded.lat,
				lon = excluded.lon,
				created_at = excluded.created_at`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Name, f.Description, f.PhotoURL, nullFloat(f.Lat), nullFloat(f.Lon),
		f.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert favorite %s: %w", f.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete favorite %s: %w", id, err)
	}
	return nil
}

// GetAll returns favorites newest first.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, photo_url, lat, lon, created_at
			FROM favorites ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select favorites: %w", err)
	}
	defer rows.Close()

	result := []models.Favorite{}
	for rows.Next() {
		var (
			f         models.Favorite
			lat, lon  sql.NullFloat64
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.PhotoURL, &lat, &lon, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		if f.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("favorite %s: bad created_at %q: %w", f.ID, createdAt, err)
		}
		if lat.Valid {
			f.Lat = models.Float(lat.Float64)
		}
		if lon.Valid {
			f.Lon = models.Float(lon.Float64)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorite rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM favorites WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up favorite %s: %w", id, err)
	}
	return true, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
