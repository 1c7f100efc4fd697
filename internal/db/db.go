package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

// SqBuilder renders Postgres ($n) placeholders.
var SqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var ErrBadQuery = errors.New("bad query")

type DB struct {
	*sql.DB
}

func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// Ping checks the connection with a caller-supplied deadline.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS story_users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		has_new_story BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS story_segments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES story_users(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('image', 'video', 'ad_image', 'ad_video', 'ad_carousel')),
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS highlights (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		segment_ids TEXT[] NOT NULL DEFAULT '{}',
		cover_segment_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		content_id TEXT NOT NULL,
		content_type TEXT NOT NULL CHECK (content_type IN ('post', 'reel', 'story', 'article')),
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_story_segments_user_created ON story_segments(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_story_segments_created ON story_segments(created_at);
	CREATE INDEX IF NOT EXISTS idx_highlights_user ON highlights(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_comments_content ON comments(content_id, content_type, created_at);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}
