// Package webstory is a web-story publishing site built with Go, Echo and
// templ. It serves the public story grid and viewer, a blog, static policy
// pages and a password-protected admin panel with a page-by-page story
// editor, all backed by an embedded SQLite store.
package webstory

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const (
	loginMaxAttempts = 5
	loginWindow      = time.Minute
)

// App is the central webstory application. It wires together the store,
// cache, auto-saver, handlers and middleware.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Cache     *QueryCache
	Logger    *logrus.Logger
	Sentry    *sentry.Hub
	Metrics   *Metrics
	AutoSaver *AutoSaver
	Auth      *Authenticator

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	ownsStore    bool
	flushSentry  func()
}

// WithLogger replaces the default JSON logger.
func WithLogger(l *logrus.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// New creates a new App with the given configuration. Call Setup (or
// Start, which calls it) before serving requests.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		l, err := NewLogger(a.Config.LogLevel, os.Stderr)
		if err != nil {
			l = logrus.New()
			l.SetFormatter(&logrus.JSONFormatter{})
		}
		a.Logger = l
	}
	return a
}

// Setup validates the configuration, opens the store and registers
// middleware and routes.
func (a *App) Setup() error {
	if err := a.Config.Validate(); err != nil {
		return eris.Wrap(err, "webstory: invalid configuration")
	}

	hub, flush, err := InitSentry(a.Logger, SentrySettings{
		DSN:         a.Config.SentryDSN,
		Environment: a.Config.Environment,
		Release:     "webstory@" + Version,
	})
	if err != nil {
		return eris.Wrap(err, "webstory: init sentry")
	}
	a.Sentry, a.flushSentry = hub, flush

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath, a.Logger)
		if err != nil {
			return eris.Wrap(err, "webstory: init store")
		}
		a.Store = store
		a.ownsStore = true
	}

	a.Cache = NewQueryCache()
	a.loginLimiter = NewLoginLimiter(loginMaxAttempts, loginWindow)
	a.Auth = NewAuthenticator(a.Store, a.Config)
	a.Metrics = NewMetrics()
	a.AutoSaver = NewAutoSaver(a.Config.AutoSaveDelay, a.autoSaveStory, a.Logger)
	a.AutoSaver.OnResult = func(result string) {
		a.Metrics.AutoSaves.WithLabelValues(result).Inc()
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up and serves until ctx is cancelled, then shuts down
// gracefully within Config.ShutdownGrace.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.WithFields(logrus.Fields{"addr": a.Config.Addr, "version": Version}).Info("server listening")
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownGrace)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "webstory: shutdown")
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "static")
	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", http.FileServer(http.FS(assets)))))
	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/healthz", a.handleHealth)
	if a.Config.MetricsEnabled {
		e.GET("/metrics", a.Metrics.Handler())
	}

	// Public routes
	e.GET("/", a.handleHome)
	e.GET("/story/:slug/", a.handleStory)
	e.GET("/blog/", a.handleBlogList)
	e.GET("/blog/:slug/", a.handleBlogPost)
	for slug := range staticPages {
		e.GET("/"+slug+"/", a.handleStaticPage(slug))
	}

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.GET("/admin/login/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", a.handleAdminLogout)

	admin := e.Group("/admin", a.requireAdmin)
	admin.GET("/dashboard/", a.handleDashboard)
	admin.GET("/stories/", a.handleAdminStories)
	admin.POST("/story/delete/:id/", a.handleStoryDelete)
	admin.GET("/story/new/", a.handleEditorNew)
	admin.POST("/story/new/", a.handleEditorPost)
	admin.GET("/story/edit/:id/", a.handleEditorEdit)
	admin.POST("/story/edit/:id/", a.handleEditorPost)
	admin.POST("/story/:id/close/", a.handleEditorClose)
	admin.GET("/story/preview/:id/", a.handleStoryPreview)
	admin.POST("/api/stories/:id/autosave", a.handleAutoSave)
	admin.GET("/categories/", a.handleCategories)
	admin.POST("/categories/", a.handleCategorySave)
	admin.POST("/categories/delete/:id/", a.handleCategoryDelete)
	admin.GET("/settings/", a.handleSettings)
	admin.POST("/settings/", a.handleSettingsSave)
	admin.GET("/footer/", a.handleFooter)
	admin.POST("/footer/", a.handleFooterSave)
	admin.GET("/blogs/", a.handleAdminBlogs)
	admin.GET("/blog/new/", a.handleBlogEditor)
	admin.POST("/blog/new/", a.handleBlogSave)
	admin.GET("/blog/edit/:id/", a.handleBlogEditor)
	admin.POST("/blog/edit/:id/", a.handleBlogSave)
	admin.POST("/blog/edit/:id/delete/", a.handleBlogDelete)
	admin.GET("/images/", a.handleImageList)
	admin.POST("/images/upload/", a.handleImageUpload)
	admin.POST("/images/delete/:filename/", a.handleImageDelete)

	a.setupAPI()
}

// Close stops background work and releases resources. Pending auto-saves
// are dropped.
func (a *App) Close() error {
	if a.AutoSaver != nil {
		a.AutoSaver.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.flushSentry != nil {
		a.flushSentry()
	}
	if a.Store != nil && a.ownsStore {
		return a.Store.Close()
	}
	return nil
}
