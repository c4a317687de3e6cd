package browser

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"go.uber.org/zap"
)

// Session owns the tabs of one browsing context and the handle of the tab
// the current flow drives. The handle can be reassigned when a flow loses
// its tab (closed, replaced by a redirect into a new target).
type Session struct {
	mu       sync.Mutex
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	log      *zap.Logger
}

// NewSession wraps an already connected browser and its active tab.
func NewSession(b *rod.Browser, page *rod.Page, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{browser: b, page: page, log: log}
}

// Page returns the tab the flow currently drives.
func (s *Session) Page() *rod.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Use makes page the driven tab.
func (s *Session) Use(page *rod.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}

// Browser returns the underlying browser.
func (s *Session) Browser() *rod.Browser {
	return s.browser
}

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger {
	return s.log
}

// Pages lists every open tab of the browsing context.
func (s *Session) Pages() (rod.Pages, error) {
	pages, err := s.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return pages, nil
}

// Alive reports whether the driven tab still answers.
func (s *Session) Alive() bool {
	page := s.Page()
	if page == nil {
		return false
	}
	_, err := page.Info()
	return err == nil
}

// URL returns the URL of the driven tab.
func (s *Session) URL() (string, error) {
	info, err := s.Page().Info()
	if err != nil {
		return "", fmt.Errorf("%w: %v", storefront.ErrContextLost, err)
	}
	return info.URL, nil
}

// FindByURLPattern returns the first open tab whose URL matches pattern.
// The driven tab is preferred when it matches. Returns ErrContextLost when
// no tab matches.
func (s *Session) FindByURLPattern(pattern *regexp.Regexp) (*rod.Page, error) {
	if current := s.Page(); current != nil {
		if info, err := current.Info(); err == nil && pattern.MatchString(info.URL) {
			return current, nil
		}
	}

	pages, err := s.Pages()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storefront.ErrContextLost, err)
	}

	urls := make([]string, len(pages))
	for i, p := range pages {
		if info, err := p.Info(); err == nil {
			urls[i] = info.URL
		}
	}

	i := matchURL(urls, pattern)
	if i < 0 {
		return nil, fmt.Errorf("%w: no tab matches %s", storefront.ErrContextLost, pattern)
	}
	return pages[i], nil
}

// Recover reassigns the driven tab to the first tab matching pattern.
func (s *Session) Recover(pattern *regexp.Regexp) (*rod.Page, error) {
	page, err := s.FindByURLPattern(pattern)
	if err != nil {
		return nil, err
	}
	if current := s.Page(); current == nil || current.TargetID != page.TargetID {
		s.log.Warn("recovered page handle", zap.String("pattern", pattern.String()))
		s.Use(page)
	}
	return page, nil
}

// Goto navigates the driven tab and waits for the load event.
func (s *Session) Goto(ctx context.Context, url string) error {
	page := s.Page().Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	s.log.Debug("navigated", zap.String("url", url))
	return nil
}

// Close releases the browser and its launcher.
func (s *Session) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	return err
}

// matchURL returns the index of the first url matching pattern, or -1.
// Empty entries belong to tabs whose info could not be read.
func matchURL(urls []string, pattern *regexp.Regexp) int {
	for i, u := range urls {
		if u != "" && pattern.MatchString(u) {
			return i
		}
	}
	return -1
}
