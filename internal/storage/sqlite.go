package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/loreseek/loreseek/internal/models"
)

// SQLiteStore implements PostStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		url TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT,
		comments TEXT,
		forum TEXT,
		topic TEXT,
		engagement INTEGER NOT NULL DEFAULT 0,
		relevance REAL NOT NULL DEFAULT 0,
		created_utc INTEGER NOT NULL DEFAULT 0,
		inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_posts_topic ON posts(topic);
	CREATE INDEX IF NOT EXISTS idx_posts_inserted_at ON posts(inserted_at);
	`
	_, err := db.Exec(schema)
	return err
}

const upsertSQL = `INSERT INTO posts (url, title, content, comments, forum, topic, engagement, relevance, created_utc, inserted_at)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	 ON CONFLICT(url) DO UPDATE SET
		title = excluded.title,
		content = excluded.content,
		comments = excluded.comments,
		forum = excluded.forum,
		topic = excluded.topic,
		engagement = excluded.engagement,
		relevance = excluded.relevance,
		created_utc = excluded.created_utc`

// Upsert inserts a post or replaces the existing row with the same URL.
func (s *SQLiteStore) Upsert(ctx context.Context, post *models.Post) error {
	_, err := s.db.ExecContext(ctx, upsertSQL,
		post.URL, post.Title, post.Content, models.JoinComments(post.Comments),
		post.Forum, string(post.Topic), post.Engagement, post.Relevance,
		post.CreatedUTC, time.Now(),
	)
	return err
}

// UpsertBatch inserts or replaces multiple posts in one transaction.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, post := range posts {
		_, err := stmt.ExecContext(ctx,
			post.URL, post.Title, post.Content, models.JoinComments(post.Comments),
			post.Forum, string(post.Topic), post.Engagement, post.Relevance,
			post.CreatedUTC, now,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanPost(scan func(dest ...any) error) (*models.Post, error) {
	var post models.Post
	var comments, topic string
	err := scan(&post.URL, &post.Title, &post.Content, &comments,
		&post.Forum, &topic, &post.Engagement, &post.Relevance, &post.CreatedUTC)
	if err != nil {
		return nil, err
	}
	post.Comments = models.SplitComments(comments)
	post.Topic = models.Topic(topic)
	return &post, nil
}

// Get returns the post stored under url, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, url string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, title, content, comments, forum, topic, engagement, relevance, created_utc
		 FROM posts WHERE url = ?`, url)
	post, err := scanPost(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetBatch returns the stored posts for the given URLs. URLs with no row
// are skipped; the result preserves the order of the stored rows matching
// the input order.
func (s *SQLiteStore) GetBatch(ctx context.Context, urls []string) ([]*models.Post, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(urls))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, content, comments, forum, topic, engagement, relevance, created_utc
		 FROM posts WHERE url IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byURL := make(map[string]*models.Post, len(urls))
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		byURL[post.URL] = post
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(byURL))
	for _, u := range urls {
		if post, ok := byURL[u]; ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

// Has reports whether a post exists for url.
func (s *SQLiteStore) Has(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE url = ?`, url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns posts ordered by insertion time, newest first.
func (s *SQLiteStore) List(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, content, comments, forum, topic, engagement, relevance, created_utc
		 FROM posts ORDER BY inserted_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Count returns the total number of stored posts.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	return count, err
}

// DeleteAll removes every stored post.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
