package webstory

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		s.logError(nil, err, "listing images")
		return nil, eris.Wrap(err, "listing images")
	}
	defer rows.Close()
	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, eris.Wrap(err, "scanning image")
		}
		images = append(images, img)
	}
	return images, eris.Wrap(rows.Err(), "listing images")
}

// ImageExists reports whether an image row uses filename.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&n); err != nil {
		return false, eris.Wrapf(err, "checking image %s", filename)
	}
	return n > 0, nil
}

// SaveImage records image metadata.
func (s *Store) SaveImage(ctx context.Context, img Image) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	if err != nil {
		s.logError(logrus.Fields{"filename": img.Filename}, err, "saving image")
		return eris.Wrapf(err, "saving image: %s", img.Filename)
	}
	return nil
}

// DeleteImage removes image metadata.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename); err != nil {
		s.logError(logrus.Fields{"filename": filename}, err, "deleting image")
		return eris.Wrapf(err, "deleting image: %s", filename)
	}
	return nil
}

// CreateAccount inserts an admin account. The password must already be
// hashed.
func (s *Store) CreateAccount(ctx context.Context, acc Account) error {
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now()
	}
	if acc.Role == "" {
		acc.Role = "admin"
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO accounts (email, name, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		normalizeEmail(acc.Email), acc.Name, acc.Role, acc.PasswordHash, formatTime(acc.CreatedAt))
	if err != nil {
		s.logError(logrus.Fields{"email": acc.Email}, err, "creating account")
		return eris.Wrapf(err, "creating account: %s", acc.Email)
	}
	return nil
}

// GetAccount returns the account for email.
func (s *Store) GetAccount(ctx context.Context, email string) (Account, error) {
	var acc Account
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT email, name, role, password_hash, created_at FROM accounts WHERE email = ?`, normalizeEmail(email)).
		Scan(&acc.Email, &acc.Name, &acc.Role, &acc.PasswordHash, &created)
	if err != nil {
		s.logError(logrus.Fields{"email": email}, err, "fetching account")
		return Account{}, notFound(err)
	}
	acc.CreatedAt = parseTime(created)
	return acc, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
