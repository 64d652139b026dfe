package models

import "time"

// BlogPost is an article published on the website.
type BlogPost struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	Author      string     `json:"author"`
	IsPublished bool       `json:"is_published"`
	IsFeatured  bool       `json:"is_featured"`
	Views       int64      `json:"views"`
	IsDeleted   bool       `json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BlogPostInput is the body of a create or update request.
// Nil flags leave the stored value untouched on update.
type BlogPostInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Excerpt     string `json:"excerpt"`
	Author      string `json:"author"`
	IsPublished *bool  `json:"is_published"`
	IsFeatured  *bool  `json:"is_featured"`
}

// Apply copies the non-empty fields of in onto p.
func (in BlogPostInput) Apply(p *BlogPost, now time.Time) {
	if in.Title != "" {
		p.Title = in.Title
	}
	if in.Content != "" {
		p.Content = in.Content
	}
	if in.Excerpt != "" {
		p.Excerpt = in.Excerpt
	}
	if in.Author != "" {
		p.Author = in.Author
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsPublished != nil {
		if *in.IsPublished && !p.IsPublished && p.PublishedAt == nil {
			p.PublishedAt = &now
		}
		p.IsPublished = *in.IsPublished
	}
	p.UpdatedAt = now
}
