package browser

import (
	"context"
	"errors"
	"fmt"

	"gardena/parser/internal/config"
	"gardena/parser/internal/proxy"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"
)

// Session owns the single headless browser shared by every stage of a run
type Session struct {
	cfg      config.BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewSession(ctx context.Context, cfg config.BrowserConfig, proxySupplier proxy.ProxySupplier) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			l = l.Proxy(proxyURL)
			log.Infof("🔗 Browser using proxy: %s", proxyURL)
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	log.Info("✅ Browser session started")

	return &Session{
		cfg:      cfg,
		launcher: l,
		browser:  b,
	}, nil
}

// OpenPage opens a tab with the desktop viewport applied.
func (s *Session) OpenPage(ctx context.Context) (Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	err = page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	return &rodPage{page: page}, nil
}

// FetchImage navigates a fresh tab to url and returns the loaded resource.
// A failed navigation or a missing resource yields nil bytes.
func (s *Session) FetchImage(ctx context.Context, url string) ([]byte, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debugf("Failed to close image page: %v", err)
		}
	}()

	p := page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warnf("⚠️ No response for image %s: %v", url, err)
		return nil, nil
	}

	if err := p.WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warnf("⚠️ Image page %s did not finish loading: %v", url, err)
	}

	// Redirects leave the image under the final URL.
	resourceURL := url
	if info, err := p.Info(); err == nil && info.URL != "" {
		resourceURL = info.URL
	}

	data, err := p.GetResource(resourceURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warnf("⚠️ No body for image %s: %v", url, err)
		return nil, nil
	}

	return data, nil
}

func (s *Session) Close() error {
	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	log.Info("Browser session closed")
	return errors.Join(errs...)
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p *rodPage) WaitAndClick(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) Has(ctx context.Context, selector string) (bool, error) {
	has, _, err := p.page.Context(ctx).Has(selector)
	return has, err
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("element %q not found", selector)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
