package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ypg-admin-api/internal/models"
)

const blogColumns = `id, title, slug, content, excerpt, author, is_published, is_featured,
	views, is_deleted, deleted_at, published_at, created_at, updated_at`

// InsertBlogPost stores p and sets its ID. A slug already in use, including
// by a soft-deleted post, yields ErrDuplicate.
func (db *DB) InsertBlogPost(ctx context.Context, p *models.BlogPost) error {
	query := `INSERT INTO blog_posts (
		title, slug, content, excerpt, author, is_published, is_featured, views,
		is_deleted, deleted_at, published_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := db.conn.ExecContext(ctx, query,
		p.Title,
		p.Slug,
		p.Content,
		p.Excerpt,
		p.Author,
		boolInt(p.IsPublished),
		boolInt(p.IsFeatured),
		p.Views,
		boolInt(p.IsDeleted),
		formatNullTime(p.DeletedAt),
		formatNullTime(p.PublishedAt),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %s: %w", p.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert blog post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read blog post id: %w", err)
	}
	p.ID = id
	return nil
}

// SlugExists reports whether any post, deleted or not, uses slug.
func (db *DB) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts WHERE slug = ?`, slug).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

// ListPublishedPosts returns published, non-deleted posts, featured first
// and then newest first.
func (db *DB) ListPublishedPosts(ctx context.Context) ([]models.BlogPost, error) {
	return db.queryPosts(ctx, `SELECT `+blogColumns+` FROM blog_posts
		WHERE is_published = 1 AND is_deleted = 0
		ORDER BY is_featured DESC, COALESCE(published_at, created_at) DESC, id DESC`)
}

// ListAllPosts returns every post including drafts and, when includeDeleted
// is set, soft-deleted posts.
func (db *DB) ListAllPosts(ctx context.Context, includeDeleted bool) ([]models.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return db.queryPosts(ctx, query)
}

func (db *DB) queryPosts(ctx context.Context, query string, args ...any) ([]models.BlogPost, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blog posts: %w", err)
	}
	defer rows.Close()

	posts := []models.BlogPost{}
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blog posts: %w", err)
	}

	return posts, nil
}

// GetPostBySlug returns the post with slug regardless of its published or
// deleted flags.
func (db *DB) GetPostBySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE slug = ?`, slug)
	p, err := scanBlogPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BlogPost{}, ErrNotFound
	}
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("failed to get blog post %s: %w", slug, err)
	}
	return p, nil
}

// IncrementPostViews adds one view to a published, non-deleted post and
// returns it. The increment is a single UPDATE so concurrent readers never
// lose a view. Unpublished or deleted posts yield ErrNotFound.
func (db *DB) IncrementPostViews(ctx context.Context, slug string) (models.BlogPost, error) {
	res, err := db.conn.ExecContext(ctx, `UPDATE blog_posts SET views = views + 1
		WHERE slug = ? AND is_published = 1 AND is_deleted = 0`, slug)
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("failed to increment views for %s: %w", slug, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.BlogPost{}, ErrNotFound
	}
	return db.GetPostBySlug(ctx, slug)
}

// UpdateBlogPost writes the editable fields of p. The slug never changes.
func (db *DB) UpdateBlogPost(ctx context.Context, p models.BlogPost) error {
	query := `UPDATE blog_posts SET
		title = ?, content = ?, excerpt = ?, author = ?, is_published = ?,
		is_featured = ?, published_at = ?, updated_at = ?
		WHERE id = ?`

	res, err := db.conn.ExecContext(ctx, query,
		p.Title,
		p.Content,
		p.Excerpt,
		p.Author,
		boolInt(p.IsPublished),
		boolInt(p.IsFeatured),
		formatNullTime(p.PublishedAt),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update blog post %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteBlogPost hides a live post. Already deleted or unknown slugs
// yield ErrNotFound.
func (db *DB) SoftDeleteBlogPost(ctx context.Context, slug string, now time.Time) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE blog_posts
		SET is_deleted = 1, deleted_at = ?, updated_at = ?
		WHERE slug = ? AND is_deleted = 0`, formatTime(now), formatTime(now), slug)
	if err != nil {
		return fmt.Errorf("failed to delete blog post %s: %w", slug, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreBlogPost brings back a soft-deleted post. Live or unknown slugs
// yield ErrNotFound.
func (db *DB) RestoreBlogPost(ctx context.Context, slug string, now time.Time) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE blog_posts
		SET is_deleted = 0, deleted_at = NULL, updated_at = ?
		WHERE slug = ? AND is_deleted = 1`, formatTime(now), slug)
	if err != nil {
		return fmt.Errorf("failed to restore blog post %s: %w", slug, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBlogPost(s rowScanner) (models.BlogPost, error) {
	var (
		p                      models.BlogPost
		deletedAt, publishedAt sql.NullString
		createdAt, updatedAt   string
	)

	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Content,
		&p.Excerpt,
		&p.Author,
		&p.IsPublished,
		&p.IsFeatured,
		&p.Views,
		&p.IsDeleted,
		&deletedAt,
		&publishedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.BlogPost{}, err
	}

	if p.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return models.BlogPost{}, fmt.Errorf("failed to parse deleted_at: %w", err)
	}
	if p.PublishedAt, err = parseNullTime(publishedAt); err != nil {
		return models.BlogPost{}, fmt.Errorf("failed to parse published_at: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.BlogPost{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.BlogPost{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return p, nil
}
