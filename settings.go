package webstory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	siteSettingsKey   = "site"
	footerSettingsKey = "footer"
)

// SiteSettings are the global settings edited in the admin panel.
type SiteSettings struct {
	SiteTitle       string `json:"siteTitle"`
	SiteDescription string `json:"siteDescription"`
	LogoURL         string `json:"logoUrl"`
	AdsenseCode     string `json:"adsenseCode"`
	AnalyticsCode   string `json:"analyticsCode"`
	Facebook        string `json:"facebook"`
	Twitter         string `json:"twitter"`
	Instagram       string `json:"instagram"`
}

// DefaultSiteSettings seeds the settings form before anything is saved.
func DefaultSiteSettings(cfg SiteConfig) SiteSettings {
	return SiteSettings{
		SiteTitle:       cfg.Name,
		SiteDescription: cfg.Description,
	}
}

// Validate checks the settings form.
func (s SiteSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.SiteTitle, validation.Required, validation.Length(1, 120)),
		validation.Field(&s.SiteDescription, validation.Length(0, 500)),
		validation.Field(&s.LogoURL, is.RequestURI),
		validation.Field(&s.Facebook, is.URL),
		validation.Field(&s.Twitter, is.URL),
		validation.Field(&s.Instagram, is.URL),
	)
}

// FooterSettings drive the public footer.
type FooterSettings struct {
	Brand       string `json:"brand"`
	Description string `json:"description"`
	Facebook    string `json:"facebook"`
	WhatsApp    string `json:"whatsapp"`
	Instagram   string `json:"instagram"`
	YouTube     string `json:"youtube"`
	Copyright   string `json:"copyright"`
}

// DefaultFooterSettings seeds the footer before anything is saved.
func DefaultFooterSettings(cfg SiteConfig) FooterSettings {
	return FooterSettings{
		Brand:       cfg.Name,
		Description: "Your trusted source for the latest news and stories.",
		Copyright:   "© " + time.Now().Format("2006") + " " + cfg.Name + ". All rights reserved.",
	}
}

// Validate checks the footer form.
func (f FooterSettings) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Brand, validation.Required, validation.Length(1, 80)),
		validation.Field(&f.Facebook, is.URL),
		validation.Field(&f.WhatsApp, is.URL),
		validation.Field(&f.Instagram, is.URL),
		validation.Field(&f.YouTube, is.URL),
	)
}

// loadSetting decodes the JSON document under key into dst. It reports
// false when nothing has been saved yet.
func (s *Store) loadSetting(ctx context.Context, key string, dst any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		s.logError(logrus.Fields{"key": key}, err, "loading setting")
		return false, eris.Wrapf(err, "loading setting: %s", key)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, eris.Wrapf(err, "decoding setting: %s", key)
	}
	return true, nil
}

func (s *Store) saveSetting(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "encoding setting: %s", key)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(b), formatTime(time.Now()))
	if err != nil {
		s.logError(logrus.Fields{"key": key}, err, "saving setting")
		return eris.Wrapf(err, "saving setting: %s", key)
	}
	return nil
}

// SiteSettings returns the saved global settings, or def when none exist.
func (s *Store) SiteSettings(ctx context.Context, def SiteSettings) (SiteSettings, error) {
	out := def
	if _, err := s.loadSetting(ctx, siteSettingsKey, &out); err != nil {
		return def, err
	}
	return out, nil
}

// SaveSiteSettings stores the global settings.
func (s *Store) SaveSiteSettings(ctx context.Context, v SiteSettings) error {
	return s.saveSetting(ctx, siteSettingsKey, v)
}

// FooterSettings returns the saved footer settings, or def when none exist.
func (s *Store) FooterSettings(ctx context.Context, def FooterSettings) (FooterSettings, error) {
	out := def
	if _, err := s.loadSetting(ctx, footerSettingsKey, &out); err != nil {
		return def, err
	}
	return out, nil
}

// SaveFooterSettings stores the footer settings.
func (s *Store) SaveFooterSettings(ctx context.Context, v FooterSettings) error {
	return s.saveSetting(ctx, footerSettingsKey, v)
}
