package stories

import (
	"context"
	"fmt"
	"time"

	"story-playback/internal/db"
	"story-playback/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var _ Repository = (*Postgres)(nil)

// Postgres keeps users in story_users and every segment as its JSON wire
// form in story_segments.payload.
type Postgres struct {
	db *db.DB
}

func NewPostgres(database *db.DB) *Postgres {
	return &Postgres{db: database}
}

func (p *Postgres) List(ctx context.Context) ([]models.UserStory, error) {
	return p.load(ctx, nil)
}

func (p *Postgres) Get(ctx context.Context, userID string) (models.UserStory, error) {
	list, err := p.load(ctx, sq.Eq{"u.id": userID})
	if err != nil {
		return models.UserStory{}, err
	}
	if len(list) == 0 {
		return models.UserStory{}, ErrNotFound
	}
	return list[0], nil
}

func (p *Postgres) load(ctx context.Context, where sq.Sqlizer) ([]models.UserStory, error) {
	builder := db.SqBuilder.
		Select("u.id", "u.username", "u.avatar_url", "u.has_new_story", "s.payload").
		From("story_users u").
		Join("story_segments s ON s.user_id = u.id").
		OrderBy("u.updated_at", "u.id", "s.created_at")
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, db.ErrBadQuery
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	type group struct {
		user     models.StoryUser
		hasNew   bool
		segments []models.Segment
	}
	var order []string
	groups := make(map[string]*group)

	for rows.Next() {
		var (
			user    models.StoryUser
			hasNew  bool
			payload []byte
		)
		if err := rows.Scan(&user.ID, &user.Username, &user.AvatarURL, &hasNew, &payload); err != nil {
			return nil, err
		}
		seg, err := models.DecodeSegment(payload)
		if err != nil {
			return nil, fmt.Errorf("decode segment of %s: %w", user.ID, err)
		}
		g, ok := groups[user.ID]
		if !ok {
			g = &group{user: user, hasNew: hasNew}
			groups[user.ID] = g
			order = append(order, user.ID)
		}
		g.segments = append(g.segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.UserStory, 0, len(order))
	for _, id := range order {
		g := groups[id]
		out = append(out, models.NewUserStory(g.user, g.segments, g.hasNew))
	}
	return out, nil
}

func (p *Postgres) Publish(ctx context.Context, owner models.StoryUser, seg models.Segment) error {
	payload, err := models.EncodeSegment(seg)
	if err != nil {
		return err
	}

	userQuery, userArgs, err := db.SqBuilder.
		Insert("story_users").
		Columns("id", "username", "avatar_url", "has_new_story", "updated_at").
		Values(owner.ID, owner.Username, owner.AvatarURL, true, seg.CreatedAt()).
		Suffix("ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, avatar_url = EXCLUDED.avatar_url, has_new_story = TRUE, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return db.ErrBadQuery
	}
	segQuery, segArgs, err := db.SqBuilder.
		Insert("story_segments").
		Columns("id", "user_id", "kind", "payload", "created_at").
		Values(seg.SegmentID(), owner.ID, string(seg.Kind()), string(payload), seg.CreatedAt()).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return db.ErrBadQuery
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, userQuery, userArgs...); err != nil {
		return fmt.Errorf("upsert story user %s: %w", owner.ID, err)
	}
	if _, err := tx.ExecContext(ctx, segQuery, segArgs...); err != nil {
		return fmt.Errorf("insert segment %s: %w", seg.SegmentID(), err)
	}
	return tx.Commit()
}

func (p *Postgres) MarkSeen(ctx context.Context, userID string) error {
	query, args, err := db.SqBuilder.
		Update("story_users").
		Set("has_new_story", false).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return db.ErrBadQuery
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark seen %s: %w", userID, err)
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

func (p *Postgres) Expire(ctx context.Context, cutoff time.Time) ([]Expired, error) {
	segQuery, segArgs, err := db.SqBuilder.
		Delete("story_segments").
		Where(sq.Lt{"created_at": cutoff}).
		Suffix("RETURNING user_id, payload").
		ToSql()
	if err != nil {
		return nil, db.ErrBadQuery
	}
	userQuery, userArgs, err := db.SqBuilder.
		Delete("story_users").
		Where("NOT EXISTS (SELECT 1 FROM story_segments s WHERE s.user_id = story_users.id)").
		ToSql()
	if err != nil {
		return nil, db.ErrBadQuery
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin expire: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, segQuery, segArgs...)
	if err != nil {
		return nil, fmt.Errorf("expire segments: %w", err)
	}
	var expired []Expired
	for rows.Next() {
		var (
			ownerID string
			payload []byte
		)
		if err := rows.Scan(&ownerID, &payload); err != nil {
			rows.Close()
			return nil, err
		}
		seg, err := models.DecodeSegment(payload)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode expired segment: %w", err)
		}
		expired = append(expired, Expired{OwnerID: ownerID, Segment: seg})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, userQuery, userArgs...); err != nil {
		return nil, fmt.Errorf("drop empty collections: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return expired, nil
}
