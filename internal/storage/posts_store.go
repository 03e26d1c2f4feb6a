package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kleverson/cartas/internal/api"
)

const postColumns = `id, slug, title, subtitle, description, body, cover_image, category, status,
	featured, popular, show_updated_at, scheduled_at, published_at, author_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (api.Post, error) {
	var p api.Post
	var subtitle, description, body, cover, author sql.NullString
	var status string
	var scheduledAt, publishedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &subtitle, &description, &body, &cover, &p.Category, &status,
		&p.Featured, &p.Popular, &p.ShowUpdatedAt, &scheduledAt, &publishedAt, &author, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.Subtitle = subtitle.String
	p.Description = description.String
	p.Body = body.String
	p.CoverImage = cover.String
	p.AuthorID = author.String
	p.Status = api.PostStatus(status)
	if scheduledAt.Valid {
		t := scheduledAt.Time
		p.ScheduledAt = &t
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return p, nil
}

func (s *DuckDBStore) queryPosts(ctx context.Context, query string, args ...any) ([]api.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []api.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

// nullString stores empty strings as NULL
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// CreatePost inserts a new post. Publishing without an explicit date stamps the current time.
func (s *DuckDBStore) CreatePost(ctx context.Context, in *api.PostInput) (*api.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSlugFreeLocked(ctx, in.Slug, ""); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	publishedAt := in.PublishedAt
	if in.Status == api.PostStatusPublished && publishedAt == nil {
		publishedAt = &now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, in.Slug, in.Title, nullString(in.Subtitle), nullString(in.Description),
		nullString(s.sanitizer.Sanitize(in.Body)), nullString(in.CoverImage), in.Category, string(in.Status),
		in.Featured, in.Popular, in.ShowUpdatedAt, nullTime(in.ScheduledAt), nullTime(publishedAt),
		nullString(in.AuthorID), now, now)
	if err != nil {
		return nil, api.NewStorageError("inserting post", err)
	}

	return s.getPostLocked(ctx, "id = ?", id)
}

// UpdatePost replaces the editable fields of the post with the given id
func (s *DuckDBStore) UpdatePost(ctx context.Context, id string, in *api.PostInput) (*api.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getPostLocked(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, api.NewNotFoundError("post", id)
	}
	if err := s.ensureSlugFreeLocked(ctx, in.Slug, id); err != nil {
		return nil, err
	}

	publishedAt := in.PublishedAt
	if publishedAt == nil {
		publishedAt = existing.PublishedAt
	}
	now := time.Now().UTC()
	if in.Status == api.PostStatusPublished && publishedAt == nil {
		publishedAt = &now
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE posts
		SET slug = ?, title = ?, subtitle = ?, description = ?, body = ?, cover_image = ?,
		    category = ?, status = ?, featured = ?, popular = ?, show_updated_at = ?,
		    scheduled_at = ?, published_at = ?, author_id = ?, updated_at = ?
		WHERE id = ?
	`, in.Slug, in.Title, nullString(in.Subtitle), nullString(in.Description),
		nullString(s.sanitizer.Sanitize(in.Body)), nullString(in.CoverImage), in.Category, string(in.Status),
		in.Featured, in.Popular, in.ShowUpdatedAt, nullTime(in.ScheduledAt), nullTime(publishedAt),
		nullString(in.AuthorID), now, id)
	if err != nil {
		return nil, api.NewStorageError("updating post", err)
	}

	return s.getPostLocked(ctx, "id = ?", id)
}

// DeletePost removes a post by id
func (s *DuckDBStore) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getPostLocked(ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if existing == nil {
		return api.NewNotFoundError("post", id)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id); err != nil {
		return api.NewStorageError("deleting post", err)
	}
	return nil
}

// GetPostByID returns any post regardless of status, or nil when absent
func (s *DuckDBStore) GetPostByID(ctx context.Context, id string) (*api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPostLocked(ctx, "id = ?", id)
}

// GetPostBySlug returns a published post, or nil when absent or unpublished
func (s *DuckDBStore) GetPostBySlug(ctx context.Context, slug string) (*api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPostLocked(ctx, "slug = ? AND status = 'published'", slug)
}

func (s *DuckDBStore) getPostLocked(ctx context.Context, where string, args ...any) (*api.Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE "+where, args...)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying post: %w", err)
	}
	return &p, nil
}

func (s *DuckDBStore) ensureSlugFreeLocked(ctx context.Context, slug, exceptID string) error {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE slug = ? AND id <> ?", slug, exceptID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking slug: %w", err)
	}
	if count > 0 {
		return api.NewConflictError("post", "slug", slug)
	}
	return nil
}

// ListPublishedPosts returns published posts, newest publication first
func (s *DuckDBStore) ListPublishedPosts(ctx context.Context, filter api.PostFilter) ([]api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conds := []string{"status = 'published'"}
	var args []any
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Featured {
		conds = append(conds, "featured = TRUE")
	}
	if filter.Popular {
		conds = append(conds, "popular = TRUE")
	}
	if filter.ExcludeID != "" {
		conds = append(conds, "id <> ?")
		args = append(args, filter.ExcludeID)
	}

	query := "SELECT " + postColumns + " FROM posts WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY published_at DESC NULLS LAST, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryPosts(ctx, query, args...)
}

// ListCategories returns the distinct categories of published posts
func (s *DuckDBStore) ListCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT category FROM posts WHERE status = 'published' ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListAdminPosts returns every post, most recently created first
func (s *DuckDBStore) ListAdminPosts(ctx context.Context) ([]api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPosts(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at DESC")
}

// ListAllPosts returns every post in creation order. Used by backups.
func (s *DuckDBStore) ListAllPosts(ctx context.Context) ([]api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts, err := s.queryPosts(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at, id")
	if err != nil {
		return nil, api.NewStorageError("listing posts", err)
	}
	return posts, nil
}

// ListSitemapEntries returns slugs and dates of published posts
func (s *DuckDBStore) ListSitemapEntries(ctx context.Context) ([]api.SitemapEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, updated_at, published_at
		FROM posts
		WHERE status = 'published'
		ORDER BY published_at DESC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sitemap entries: %w", err)
	}
	defer rows.Close()

	var entries []api.SitemapEntry
	for rows.Next() {
		var e api.SitemapEntry
		var updatedAt, publishedAt sql.NullTime
		if err := rows.Scan(&e.Slug, &updatedAt, &publishedAt); err != nil {
			return nil, fmt.Errorf("scanning sitemap entry: %w", err)
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			e.UpdatedAt = &t
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			e.PublishedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
