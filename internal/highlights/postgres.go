package highlights

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"story-playback/internal/db"
	"story-playback/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var highlightColumns = []string{"id", "user_id", "title", "segment_ids", "cover_segment_id", "created_at"}

var _ Repository = (*Postgres)(nil)

type Postgres struct {
	db *db.DB
}

func NewPostgres(database *db.DB) *Postgres {
	return &Postgres{db: database}
}

func (p *Postgres) List(ctx context.Context, userID string) ([]models.Highlight, error) {
	query, args, err := db.SqBuilder.
		Select(highlightColumns...).
		From("highlights").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, db.ErrBadQuery
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	defer rows.Close()

	out := []models.Highlight{}
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, userID, id string) (models.Highlight, error) {
	query, args, err := db.SqBuilder.
		Select(highlightColumns...).
		From("highlights").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return models.Highlight{}, db.ErrBadQuery
	}

	h, err := scanHighlight(p.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Highlight{}, ErrNotFound
	}
	return h, err
}

func (p *Postgres) Save(ctx context.Context, h models.Highlight) error {
	query, args, err := db.SqBuilder.
		Insert("highlights").
		Columns(highlightColumns...).
		Values(h.ID, h.UserID, h.Title, pq.Array(h.SegmentIDs), h.CoverSegmentID, h.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, segment_ids = EXCLUDED.segment_ids, cover_segment_id = EXCLUDED.cover_segment_id " +
			"WHERE highlights.user_id = EXCLUDED.user_id").
		ToSql()
	if err != nil {
		return db.ErrBadQuery
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save highlight %s: %w", h.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// the id exists under another user
	if n == 0 {
		return ErrIDTaken
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, userID, id string) error {
	query, args, err := db.SqBuilder.
		Delete("highlights").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return db.ErrBadQuery
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete highlight %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHighlight(row scanner) (models.Highlight, error) {
	var h models.Highlight
	err := row.Scan(&h.ID, &h.UserID, &h.Title, pq.Array(&h.SegmentIDs), &h.CoverSegmentID, &h.CreatedAt)
	if h.SegmentIDs == nil {
		h.SegmentIDs = []string{}
	}
	return h, err
}
