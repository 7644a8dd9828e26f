package webstory

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	recentStoryCount   = 5
	relatedStoryCount  = 3
	monthlyViewsWindow = 30 * 24 * time.Hour
	keySettings        = "settings"
	keyPosts           = "posts"
)

// publishedStories returns published stories, newest first.
func (a *App) publishedStories(ctx context.Context) ([]Story, error) {
	return cached(a.Cache, cacheKey(keyStories, "published"), a.Config.StoryCacheTTL, func() ([]Story, error) {
		return a.Store.ListPublishedStories(ctx)
	})
}

// allStories returns every story for the admin panel.
func (a *App) allStories(ctx context.Context) ([]Story, error) {
	return cached(a.Cache, cacheKey(keyStories, "all"), a.Config.StoryCacheTTL, func() ([]Story, error) {
		return a.Store.ListStories(ctx)
	})
}

// filteredStories applies f to the published or full story list.
func (a *App) filteredStories(ctx context.Context, f StoryFilter) ([]Story, error) {
	return cached(a.Cache, cacheKey(keyStories, "filter", f.Key()), a.Config.StoryCacheTTL, func() ([]Story, error) {
		var stories []Story
		var err error
		if f.Status == StatusPublished {
			stories, err = a.publishedStories(ctx)
		} else {
			stories, err = a.allStories(ctx)
		}
		if err != nil {
			return nil, err
		}
		return FilterStories(stories, f), nil
	})
}

// publishedStory returns a published story by slug.
func (a *App) publishedStory(ctx context.Context, slug string) (Story, error) {
	return cached(a.Cache, cacheKey(keyStory, slug), a.Config.StoryCacheTTL, func() (Story, error) {
		st, err := a.Store.GetStoryBySlug(ctx, slug)
		if err != nil {
			return Story{}, err
		}
		if !st.Published() {
			return Story{}, ErrNotFound
		}
		return st, nil
	})
}

func (a *App) publishedPosts(ctx context.Context) ([]BlogPost, error) {
	return cached(a.Cache, cacheKey(keyPosts, "published"), a.Config.StoryCacheTTL, func() ([]BlogPost, error) {
		return a.Store.ListPosts(ctx, true)
	})
}

func (a *App) publishedPost(ctx context.Context, slug string) (BlogPost, error) {
	return cached(a.Cache, cacheKey(keyPosts, "slug", slug), a.Config.StoryCacheTTL, func() (BlogPost, error) {
		return a.Store.GetPublishedPost(ctx, slug)
	})
}

func (a *App) categories(ctx context.Context) ([]Category, error) {
	return cached(a.Cache, keyCategories, a.Config.CategoryCacheTTL, func() ([]Category, error) {
		return a.Store.ListCategories(ctx)
	})
}

func (a *App) dashboardStats(ctx context.Context) (DashboardStats, error) {
	return cached(a.Cache, cacheKey(keyDashboard, "stats"), a.Config.DashboardCacheTTL, func() (DashboardStats, error) {
		return loadDashboardStats(ctx, a.Store, time.Now())
	})
}

func (a *App) recentStories(ctx context.Context) ([]Story, error) {
	return cached(a.Cache, cacheKey(keyDashboard, "recent"), a.Config.DashboardCacheTTL, func() ([]Story, error) {
		return a.Store.RecentStories(ctx, recentStoryCount)
	})
}

func (a *App) siteSettings(ctx context.Context) SiteSettings {
	def := DefaultSiteSettings(a.Config)
	s, err := cached(a.Cache, cacheKey(keySettings, "site"), a.Config.CategoryCacheTTL, func() (SiteSettings, error) {
		return a.Store.SiteSettings(ctx, def)
	})
	if err != nil {
		a.Logger.WithError(err).Warn("falling back to default site settings")
		return def
	}
	return s
}

func (a *App) footerSettings(ctx context.Context) FooterSettings {
	def := DefaultFooterSettings(a.Config)
	f, err := cached(a.Cache, cacheKey(keySettings, "footer"), a.Config.CategoryCacheTTL, func() (FooterSettings, error) {
		return a.Store.FooterSettings(ctx, def)
	})
	if err != nil {
		a.Logger.WithError(err).Warn("falling back to default footer settings")
		return def
	}
	return f
}

// invalidateStories drops story lists, the dashboard, the category list
// (its story counts are joined from stories) and the given story slugs
// after a story mutation.
func (a *App) invalidateStories(slugs ...string) {
	keys := []string{keyStories, keyCategories, keyDashboard}
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, cacheKey(keyStory, s))
		}
	}
	a.Cache.Invalidate(keys...)
}

func (a *App) invalidatePosts() {
	a.Cache.Invalidate(keyPosts)
}

// invalidateCategories drops the category list and the dashboard.
func (a *App) invalidateCategories() {
	a.Cache.Invalidate(keyCategories, keyDashboard)
}

// loadDashboardStats runs the dashboard count queries concurrently.
func loadDashboardStats(ctx context.Context, s *Store, now time.Time) (DashboardStats, error) {
	var st DashboardStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalStories, err = s.CountStories(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		st.PublishedStories, err = s.CountStories(ctx, StatusPublished)
		return err
	})
	g.Go(func() (err error) {
		st.DraftStories, err = s.CountStories(ctx, StatusDraft)
		return err
	})
	g.Go(func() (err error) {
		st.TotalCategories, err = s.CountCategories(ctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalViews, err = s.SumViews(ctx, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		st.MonthlyViews, err = s.SumViews(ctx, now.Add(-monthlyViewsWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}
	return st, nil
}
