package webstory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const postColumns = `id, title, slug, content, cover_image, tags, status, author, seo_title, seo_description, created_at, updated_at`

func scanPost(row rowScanner) (BlogPost, error) {
	var p BlogPost
	var tags, status, created, updated string
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.CoverImage, &tags, &status,
		&p.Author, &p.SEOTitle, &p.SEODescription, &created, &updated); err != nil {
		return BlogPost{}, err
	}
	p.Tags = ParseTags(tags)
	p.Status = Status(status)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

// ListPosts returns blog posts newest first. When publishedOnly is set,
// drafts are skipped.
func (s *Store) ListPosts(ctx context.Context, publishedOnly bool) ([]BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts`
	var args []any
	if publishedOnly {
		query += ` WHERE status = ?`
		args = append(args, StatusPublished)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		s.logError(nil, err, "listing posts")
		return nil, eris.Wrap(err, "listing posts")
	}
	defer rows.Close()
	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scanning post")
		}
		posts = append(posts, p)
	}
	return posts, eris.Wrap(rows.Err(), "listing posts")
}

// GetPost returns a post by id regardless of status (for admin).
func (s *Store) GetPost(ctx context.Context, id string) (BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id))
	if err != nil {
		s.logError(logrus.Fields{"id": id}, err, "fetching post")
		return BlogPost{}, notFound(err)
	}
	return p, nil
}

// GetPublishedPost returns a published post by slug.
func (s *Store) GetPublishedPost(ctx context.Context, postSlug string) (BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE slug = ? AND status = ?`, postSlug, StatusPublished))
	if err != nil {
		s.logError(logrus.Fields{"slug": postSlug}, err, "fetching post by slug")
		return BlogPost{}, notFound(err)
	}
	return p, nil
}

// SavePost upserts a blog post. An empty slug is generated from the title.
func (s *Store) SavePost(ctx context.Context, p *BlogPost) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return eris.New("post title is required")
	}
	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = slug.Make(p.Title)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO blog_posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    slug = excluded.slug,
    content = excluded.content,
    cover_image = excluded.cover_image,
    tags = excluded.tags,
    status = excluded.status,
    author = excluded.author,
    seo_title = excluded.seo_title,
    seo_description = excluded.seo_description,
    updated_at = excluded.updated_at`,
		p.ID, p.Title, p.Slug, p.Content, p.CoverImage, joinTags(p.Tags), string(p.Status),
		p.Author, p.SEOTitle, p.SEODescription, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		s.logError(logrus.Fields{"id": p.ID, "slug": p.Slug}, err, "saving post")
		return eris.Wrapf(err, "saving post: %s", p.Slug)
	}
	return nil
}

// DeletePost removes a post by id.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id); err != nil {
		s.logError(logrus.Fields{"id": id}, err, "deleting post")
		return eris.Wrapf(err, "deleting post: %s", id)
	}
	return nil
}
