package content

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mock.Close() })
	return NewStore(mock, "https://example.test/"), mock
}

func TestFindPost_ReturnsPublishedPost(t *testing.T) {
	store, mock := newMockStore(t)
	key := "videos/42.mp4"

	mock.ExpectQuery(`SELECT id, post_type, title, slug, body, video_key FROM posts WHERE id = \$1 AND status = 'publish'`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_type", "title", "slug", "body", "video_key"}).
			AddRow(int64(42), "post", "Launch", "launch", "<p>hi</p>", &key))

	post, err := store.FindPost(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.ID != 42 || post.Type != "post" || post.Slug != "launch" {
		t.Errorf("unexpected post: %+v", post)
	}
	if post.VideoKey != key {
		t.Errorf("expected video key %q, got %q", key, post.VideoKey)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindPost_NullVideoKey(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, post_type`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_type", "title", "slug", "body", "video_key"}).
			AddRow(int64(7), "page", "About", "about", "", nil))

	post, err := store.FindPost(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.VideoKey != "" {
		t.Errorf("expected empty video key, got %q", post.VideoKey)
	}
}

func TestFindPost_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, post_type`).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.FindPost(context.Background(), 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPermalink_BuildsURLFromSlug(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT slug FROM posts WHERE id = \$1 AND status = 'publish'`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"slug"}).AddRow("launch"))

	got, err := store.Permalink(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.test/posts/42/launch" {
		t.Errorf("unexpected permalink %q", got)
	}
}

func TestPermalink_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT slug FROM posts`).
		WithArgs(int64(1)).
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.Permalink(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOption_MissingReturnsEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT value FROM site_options WHERE name = \$1`).
		WithArgs("admin_email").
		WillReturnError(pgx.ErrNoRows)

	got, err := store.Option(context.Background(), "admin_email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty option, got %q", got)
	}
}

func TestOption_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT value FROM site_options`).
		WithArgs("blogname").
		WillReturnError(errors.New("connection reset"))

	if _, err := store.Option(context.Background(), "blogname"); err == nil {
		t.Fatal("expected error")
	}
}

func TestPostURL_WithoutSlug(t *testing.T) {
	if got := PostURL("https://example.test", 3, ""); got != "https://example.test/posts/3" {
		t.Errorf("unexpected url %q", got)
	}
}
