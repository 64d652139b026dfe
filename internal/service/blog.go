package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"ypg-admin-api/internal/database"
	"ypg-admin-api/internal/ident"
	"ypg-admin-api/internal/models"
	"ypg-admin-api/internal/tracing"
	"ypg-admin-api/internal/validation"
)

// CreateBlogPost stores a new post under a slug derived from its title.
// When the slug is taken the first free "-1", "-2", ... suffix is used.
func (s *Service) CreateBlogPost(ctx context.Context, in models.BlogPostInput) (p models.BlogPost, err error) {
	ctx, span := tracing.Start(ctx, "service.CreateBlogPost")
	defer func() { tracing.End(span, err) }()

	in.Title = validation.SanitizeString(in.Title)
	in.Author = validation.SanitizeString(in.Author)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	if errs := validation.ValidateBlogPost(in, true); !errs.Empty() {
		return models.BlogPost{}, errs
	}

	now := s.clock()
	p = models.BlogPost{CreatedAt: now}
	in.Apply(&p, now)

	base := ident.Slugify(p.Title)
	for n := 0; n < maxSlugAttempts; n++ {
		candidate := ident.SlugCandidate(base, n)

		taken, err := s.db.SlugExists(ctx, candidate)
		if err != nil {
			return models.BlogPost{}, err
		}
		if taken {
			continue
		}

		p.Slug = candidate
		err = s.db.InsertBlogPost(ctx, &p)
		if errors.Is(err, database.ErrDuplicate) {
			// Another writer claimed the candidate after our check.
			continue
		}
		if err != nil {
			return models.BlogPost{}, err
		}

		span.SetAttributes(attribute.String("blog.slug", p.Slug))
		s.logger.Info("blog post created",
			zap.Int64("post_id", p.ID),
			zap.String("slug", p.Slug),
			zap.Bool("published", p.IsPublished),
		)
		return p, nil
	}

	return models.BlogPost{}, fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

// GetPublishedPost returns a published post and counts the view.
// Drafts and deleted posts are reported as not found.
func (s *Service) GetPublishedPost(ctx context.Context, slug string) (models.BlogPost, error) {
	p, err := s.db.IncrementPostViews(ctx, slug)
	if err != nil {
		return models.BlogPost{}, storeErr(err, "blog post")
	}
	return p, nil
}

// ListPublishedPosts returns the public blog, featured posts first.
func (s *Service) ListPublishedPosts(ctx context.Context) ([]models.BlogPost, error) {
	return s.db.ListPublishedPosts(ctx)
}

// ListAllPosts returns drafts as well as published posts for supervisors.
func (s *Service) ListAllPosts(ctx context.Context, includeDeleted bool) ([]models.BlogPost, error) {
	return s.db.ListAllPosts(ctx, includeDeleted)
}

// UpdateBlogPost edits a live post. The slug stays fixed even when the
// title changes so existing links keep working.
func (s *Service) UpdateBlogPost(ctx context.Context, slug string, in models.BlogPostInput) (p models.BlogPost, err error) {
	ctx, span := tracing.Start(ctx, "service.UpdateBlogPost", attribute.String("blog.slug", slug))
	defer func() { tracing.End(span, err) }()

	in.Title = validation.SanitizeString(in.Title)
	in.Author = validation.SanitizeString(in.Author)
	if errs := validation.ValidateBlogPost(in, false); !errs.Empty() {
		return models.BlogPost{}, errs
	}

	p, err = s.db.GetPostBySlug(ctx, slug)
	if err != nil {
		return models.BlogPost{}, storeErr(err, "blog post")
	}
	if p.IsDeleted {
		return models.BlogPost{}, storeErr(database.ErrNotFound, "blog post")
	}

	in.Apply(&p, s.clock())
	if err := s.db.UpdateBlogPost(ctx, p); err != nil {
		return models.BlogPost{}, storeErr(err, "blog post")
	}

	s.logger.Info("blog post updated", zap.Int64("post_id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

// DeleteBlogPost hides a post without removing it.
func (s *Service) DeleteBlogPost(ctx context.Context, slug string) error {
	if err := s.db.SoftDeleteBlogPost(ctx, slug, s.clock()); err != nil {
		return storeErr(err, "blog post")
	}
	s.logger.Info("blog post deleted", zap.String("slug", slug))
	return nil
}

// RestoreBlogPost brings back a deleted post.
func (s *Service) RestoreBlogPost(ctx context.Context, slug string) (models.BlogPost, error) {
	if err := s.db.RestoreBlogPost(ctx, slug, s.clock()); err != nil {
		return models.BlogPost{}, storeErr(err, "blog post")
	}
	s.logger.Info("blog post restored", zap.String("slug", slug))

	p, err := s.db.GetPostBySlug(ctx, slug)
	if err != nil {
		return models.BlogPost{}, storeErr(err, "blog post")
	}
	return p, nil
}
