package comments

import (
	"context"
	"fmt"

	"story-playback/internal/db"
	"story-playback/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var _ Store = (*Postgres)(nil)

type Postgres struct {
	db *db.DB
}

func NewPostgres(database *db.DB) *Postgres {
	return &Postgres{db: database}
}

func (p *Postgres) List(ctx context.Context, contentID string, contentType models.ContentType) ([]models.Comment, error) {
	query, args, err := db.SqBuilder.
		Select("id", "content_id", "content_type", "user_id", "username", "avatar_url", "text", "created_at").
		From("comments").
		Where(sq.Eq{"content_id": contentID, "content_type": string(contentType)}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, db.ErrBadQuery
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ContentID, &c.ContentType, &c.User.ID, &c.User.Username, &c.User.AvatarURL, &c.Text, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) Add(ctx context.Context, c models.Comment) error {
	query, args, err := db.SqBuilder.
		Insert("comments").
		Columns("id", "content_id", "content_type", "user_id", "username", "avatar_url", "text", "created_at").
		Values(c.ID, c.ContentID, string(c.ContentType), c.User.ID, c.User.Username, c.User.AvatarURL, c.Text, c.Timestamp).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return db.ErrBadQuery
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

func (p *Postgres) Count(ctx context.Context, contentID string) (int, error) {
	query, args, err := db.SqBuilder.
		Select("COUNT(*)").
		From("comments").
		Where(sq.Eq{"content_id": contentID}).
		ToSql()
	if err != nil {
		return 0, db.ErrBadQuery
	}

	var n int
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}
