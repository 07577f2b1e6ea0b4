package stories

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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, s models.Story) error {
	query := `INSERT INTO stories (id, name, description, photo_url, lat, lon, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				description = excluded.description,
				photo_url = excluded.photo_url,
				lat = excluded.lat,
				lon = excluded.lon,
				created_at = excluded.created_at`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Description, s.PhotoURL, nullFloat(s.Lat), nullFloat(s.Lon),
		s.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert story %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stories`); err != nil {
		return fmt.Errorf("failed to clear stories: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Story, error) {
	query := `SELECT id, name, description, photo_url, lat, lon, created_at
			FROM stories ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select stories: %w", err)
	}
	defer rows.Close()

	result := []models.Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	query := `SELECT id, name, description, photo_url, lat, lon, created_at
			FROM stories WHERE id = ?`
	s, err := scanStory(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete story %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (models.Story, error) {
	var (
		s         models.Story
		lat, lon  sql.NullFloat64
		createdAt string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.PhotoURL, &lat, &lon, &createdAt); err != nil {
		return models.Story{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.Story{}, fmt.Errorf("story %s: bad created_at %q: %w", s.ID, createdAt, err)
	}
	s.CreatedAt = t
	s.Lat = fromNull(lat)
	s.Lon = fromNull(lon)
	return s, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
