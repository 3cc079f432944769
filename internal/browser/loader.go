package browser

import (
	"context"
	"fmt"
	"time"

	"gardena/parser/internal/config"

	log "github.com/sirupsen/logrus"
)

// Page is the part of a live browser tab the loader drives
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitAndClick(ctx context.Context, selector string) error
	Has(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Loader expands the listing page until every product card is in the DOM
type Loader struct {
	site           config.SiteConfig
	consentTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewLoader(site config.SiteConfig, consentTimeout time.Duration) *Loader {
	return &Loader{
		site:           site,
		consentTimeout: consentTimeout,
		sleep:          sleep,
	}
}

// LoadCatalog navigates to url, accepts cookies, keeps pressing "show more"
// and returns a static snapshot of the expanded markup.
func (l *Loader) LoadCatalog(ctx context.Context, page Page, url string) (string, error) {
	log.Infof("🌐 Opening listing %s", url)
	if err := page.Navigate(ctx, url); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := l.acceptCookies(ctx, page); err != nil {
		return "", err
	}

	clicks, err := l.expand(ctx, page)
	if err != nil {
		return "", err
	}
	log.Infof("✅ Listing fully loaded after %d clicks", clicks)

	html, err := page.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}

	return html, nil
}

func (l *Loader) acceptCookies(ctx context.Context, page Page) error {
	consentCtx := ctx
	if l.consentTimeout > 0 {
		var cancel context.CancelFunc
		consentCtx, cancel = context.WithTimeout(ctx, l.consentTimeout)
		defer cancel()
	}

	if err := page.WaitAndClick(consentCtx, l.site.Selectors.CookieButton); err != nil {
		return fmt.Errorf("failed to accept cookie consent %q: %w", l.site.Selectors.CookieButton, err)
	}

	log.Debug("Cookie consent accepted")
	return nil
}

func (l *Loader) expand(ctx context.Context, page Page) (int, error) {
	selector := l.site.Selectors.LoadMore
	clicks := 0

	for {
		visible, err := page.Has(ctx, selector)
		if err != nil {
			return clicks, fmt.Errorf("failed to look up load-more control: %w", err)
		}
		if !visible {
			return clicks, nil
		}

		if l.site.MaxLoadMoreClicks > 0 && clicks >= l.site.MaxLoadMoreClicks {
			log.Warnf("⚠️ Load-more control still present after %d clicks, continuing with what is loaded", clicks)
			return clicks, nil
		}

		if err := page.Click(ctx, selector); err != nil {
			return clicks, fmt.Errorf("failed to click load-more control: %w", err)
		}
		clicks++
		log.Debugf("Clicked load-more (%d)", clicks)

		if err := l.sleep(ctx, l.site.LoadMoreDelay); err != nil {
			return clicks, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
