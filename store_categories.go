package webstory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// storyCount is derived from the stories table so it can never drift.
const categorySelect = `
SELECT c.id, c.name, c.slug, c.description, c.created_at,
    (SELECT COUNT(*) FROM stories s
     WHERE lower(s.category) = lower(c.slug) OR lower(s.category) = lower(c.name)) AS story_count
FROM categories c`

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	var created string
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &created, &c.StoryCount); err != nil {
		return Category{}, err
	}
	c.CreatedAt = parseTime(created)
	return c, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, categorySelect+` ORDER BY c.name COLLATE NOCASE`)
	if err != nil {
		s.logError(nil, err, "listing categories")
		return nil, eris.Wrap(err, "listing categories")
	}
	defer rows.Close()
	var cats []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scanning category")
		}
		cats = append(cats, c)
	}
	return cats, eris.Wrap(rows.Err(), "listing categories")
}

// GetCategory returns a category by id.
func (s *Store) GetCategory(ctx context.Context, id string) (Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, categorySelect+` WHERE c.id = ?`, id))
	if err != nil {
		s.logError(logrus.Fields{"id": id}, err, "fetching category")
		return Category{}, notFound(err)
	}
	return c, nil
}

// SaveCategory upserts a category. The slug falls back to the name.
func (s *Store) SaveCategory(ctx context.Context, c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return eris.New("category name is required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = SlugFallback(c.Name)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO categories (id, name, slug, description, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, slug = excluded.slug, description = excluded.description`,
		c.ID, c.Name, c.Slug, c.Description, formatTime(c.CreatedAt))
	if err != nil {
		s.logError(logrus.Fields{"id": c.ID, "slug": c.Slug}, err, "saving category")
		return eris.Wrapf(err, "saving category: %s", c.Slug)
	}
	return nil
}

// DeleteCategory removes a category. Stories keep their category string.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		s.logError(logrus.Fields{"id": id}, err, "deleting category")
		return eris.Wrapf(err, "deleting category: %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCategories returns the number of categories.
func (s *Store) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		s.logError(nil, err, "counting categories")
		return 0, eris.Wrap(err, "counting categories")
	}
	return n, nil
}
