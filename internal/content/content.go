package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sendrec/reportvideo/internal/database"
)

var ErrNotFound = errors.New("post not found")

// Post is a published content item. The posts table is owned by the CMS;
// this service only reads it.
type Post struct {
	ID       int64
	Type     string
	Title    string
	Slug     string
	Body     string
	VideoKey string
}

type Store struct {
	db      database.DBTX
	baseURL string
}

func NewStore(db database.DBTX, baseURL string) *Store {
	return &Store{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) FindPost(ctx context.Context, id int64) (*Post, error) {
	var p Post
	var videoKey *string
	err := s.db.QueryRow(ctx,
		`SELECT id, post_type, title, slug, body, video_key FROM posts WHERE id = $1 AND status = 'publish'`,
		id,
	).Scan(&p.ID, &p.Type, &p.Title, &p.Slug, &p.Body, &videoKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find post %d: %w", id, err)
	}
	if videoKey != nil {
		p.VideoKey = *videoKey
	}
	return &p, nil
}

func (s *Store) Permalink(ctx context.Context, id int64) (string, error) {
	var slug string
	err := s.db.QueryRow(ctx,
		`SELECT slug FROM posts WHERE id = $1 AND status = 'publish'`,
		id,
	).Scan(&slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("permalink %d: %w", id, err)
	}
	return PostURL(s.baseURL, id, slug), nil
}

// Option returns the value stored under name, or "" when it is not set.
func (s *Store) Option(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM site_options WHERE name = $1`,
		name,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("option %q: %w", name, err)
	}
	return value, nil
}

func PostURL(baseURL string, id int64, slug string) string {
	if slug == "" {
		return fmt.Sprintf("%s/posts/%d", baseURL, id)
	}
	return fmt.Sprintf("%s/posts/%d/%s", baseURL, id, slug)
}
