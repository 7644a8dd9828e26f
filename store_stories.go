package webstory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/eringen/webstory/story"
)

const storyColumns = `id, title, slug, content, category, cover_image, status, tags, author,
	created_at, updated_at, views, reading_time, publisher_name, publisher_logo_alt,
	poster_alt, publish_date, update_date, canonical_url`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (Story, error) {
	var st Story
	var status, tags, created, updated string
	err := row.Scan(&st.ID, &st.Title, &st.Slug, &st.Content, &st.Category, &st.CoverImage,
		&status, &tags, &st.Author, &created, &updated, &st.Views, &st.ReadingTime,
		&st.PublisherName, &st.PublisherLogoAlt, &st.PosterAlt, &st.PublishDate,
		&st.UpdateDate, &st.CanonicalURL)
	if err != nil {
		return Story{}, err
	}
	st.Status = Status(status)
	st.Tags = ParseTags(tags)
	st.CreatedAt = parseTime(created)
	st.UpdatedAt = parseTime(updated)
	return st, nil
}

func (s *Store) queryStories(ctx context.Context, query string, args ...any) ([]Story, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stories []Story
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, st)
	}
	return stories, rows.Err()
}

// ListStories returns every story, newest first.
func (s *Store) ListStories(ctx context.Context) ([]Story, error) {
	stories, err := s.queryStories(ctx, `SELECT `+storyColumns+` FROM stories ORDER BY created_at DESC`)
	if err != nil {
		s.logError(nil, err, "listing stories")
		return nil, eris.Wrap(err, "listing stories")
	}
	return stories, nil
}

// ListPublishedStories returns published stories, newest first.
func (s *Store) ListPublishedStories(ctx context.Context) ([]Story, error) {
	stories, err := s.queryStories(ctx, `SELECT `+storyColumns+` FROM stories WHERE status = ? ORDER BY created_at DESC`, StatusPublished)
	if err != nil {
		s.logError(nil, err, "listing published stories")
		return nil, eris.Wrap(err, "listing published stories")
	}
	return stories, nil
}

// RecentStories returns the n most recently created stories.
func (s *Store) RecentStories(ctx context.Context, n int) ([]Story, error) {
	stories, err := s.queryStories(ctx, `SELECT `+storyColumns+` FROM stories ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		s.logError(logrus.Fields{"limit": n}, err, "listing recent stories")
		return nil, eris.Wrap(err, "listing recent stories")
	}
	return stories, nil
}

// GetStory returns a story by id regardless of status.
func (s *Store) GetStory(ctx context.Context, id string) (Story, error) {
	st, err := scanStory(s.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id))
	if err != nil {
		s.logError(logrus.Fields{"id": id}, err, "fetching story")
		return Story{}, notFound(err)
	}
	return st, nil
}

// GetStoryBySlug returns the newest story with the given slug regardless
// of status.
func (s *Store) GetStoryBySlug(ctx context.Context, slug string) (Story, error) {
	st, err := scanStory(s.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE slug = ? ORDER BY created_at DESC LIMIT 1`, slug))
	if err != nil {
		s.logError(logrus.Fields{"slug": slug}, err, "fetching story by slug")
		return Story{}, notFound(err)
	}
	return st, nil
}

// SaveStory upserts a story. A missing id creates a new row. The slug falls
// back to the title and is made unique, and the reading time is derived
// from the content.
func (s *Store) SaveStory(ctx context.Context, st *Story) error {
	now := time.Now()
	if st.ID == "" {
		st.ID = uuid.NewString()
		st.CreatedAt = now
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	if st.Status == "" {
		st.Status = StatusDraft
	}
	base := strings.TrimSpace(st.Slug)
	if base == "" {
		base = SlugFallback(st.Title)
	}
	slug, err := s.uniqueStorySlug(ctx, base, st.ID)
	if err != nil {
		return err
	}
	st.Slug = slug
	st.ReadingTime = StoryReadingTime(st.Content)

	_, err = s.db.ExecContext(ctx, `
INSERT INTO stories (`+storyColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    slug = excluded.slug,
    content = excluded.content,
    category = excluded.category,
    cover_image = excluded.cover_image,
    status = excluded.status,
    tags = excluded.tags,
    author = excluded.author,
    updated_at = excluded.updated_at,
    reading_time = excluded.reading_time,
    publisher_name = excluded.publisher_name,
    publisher_logo_alt = excluded.publisher_logo_alt,
    poster_alt = excluded.poster_alt,
    publish_date = excluded.publish_date,
    update_date = excluded.update_date,
    canonical_url = excluded.canonical_url`,
		st.ID, st.Title, st.Slug, st.Content, st.Category, st.CoverImage, string(st.Status),
		joinTags(st.Tags), st.Author, formatTime(st.CreatedAt), formatTime(st.UpdatedAt),
		st.Views, st.ReadingTime, st.PublisherName, st.PublisherLogoAlt, st.PosterAlt,
		st.PublishDate, st.UpdateDate, st.CanonicalURL)
	if err != nil {
		s.logError(logrus.Fields{"id": st.ID, "slug": st.Slug}, err, "saving story")
		return eris.Wrapf(err, "saving story: %s", st.ID)
	}
	return nil
}

// uniqueStorySlug appends -2, -3, ... until no other story uses the slug.
func (s *Store) uniqueStorySlug(ctx context.Context, base, id string) (string, error) {
	if base == "" {
		base = "story"
	}
	candidate := base
	for n := 2; ; n++ {
		var count int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories WHERE slug = ? AND id <> ?`, candidate, id).Scan(&count)
		if err != nil {
			return "", eris.Wrapf(err, "checking slug %s", candidate)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// DeleteStory removes a story by id.
func (s *Store) DeleteStory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		s.logError(logrus.Fields{"id": id}, err, "deleting story")
		return eris.Wrapf(err, "deleting story: %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews adds one to a story's view count.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE stories SET views = views + 1 WHERE id = ?`, id); err != nil {
		s.logError(logrus.Fields{"id": id}, err, "incrementing views")
		return eris.Wrapf(err, "incrementing views: %s", id)
	}
	return nil
}

// CountStories counts stories, optionally restricted to one status.
func (s *Store) CountStories(ctx context.Context, status Status) (int, error) {
	var n int
	var err error
	if status == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories WHERE status = ?`, status).Scan(&n)
	}
	if err != nil {
		s.logError(logrus.Fields{"status": status}, err, "counting stories")
		return 0, eris.Wrap(err, "counting stories")
	}
	return n, nil
}

// SumViews totals the views of stories created at or after since. A zero
// since counts every story.
func (s *Store) SumViews(ctx context.Context, since time.Time) (int, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT SUM(views) FROM stories WHERE created_at >= ?`, formatTime(since)).Scan(&n)
	if err != nil {
		s.logError(logrus.Fields{"since": since}, err, "summing views")
		return 0, eris.Wrap(err, "summing views")
	}
	return int(n.Int64), nil
}

// StoryReadingTime derives minutes of reading from serialized content.
// Content that does not decode is measured by its raw words.
func StoryReadingTime(content string) int {
	pages, err := story.Decode(content)
	if err != nil {
		return story.ReadingTime(len(strings.Fields(content)))
	}
	return story.ReadingTime(story.WordCount(pages))
}
