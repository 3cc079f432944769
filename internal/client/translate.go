package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gardena/parser/internal/config"
	"gardena/parser/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

var ErrEmptyTranslation = errors.New("translation response has no text")

type TranslateClient interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type googleTranslateClient struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client
	sourceLang string
}

// NewGoogleTranslateClient talks to the keyless translate_a endpoint
func NewGoogleTranslateClient(cfg config.TranslatorConfig, proxySupplier proxy.ProxySupplier) TranslateClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Translator using proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &googleTranslateClient{
		rl:         rl,
		httpClient: client,
		sourceLang: cfg.SourceLang,
	}
}

func (c *googleTranslateClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     c.sourceLang,
			"tl":     targetLang,
			"dt":     "t",
			"q":      text,
		}).
		Get("/translate_a/single")
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to call translation API: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	translated, err := parseTranslation(resp.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to translate %q: %w", text, err)
	}

	log.Debugf("Translated %q -> %q", text, translated)
	return translated, nil
}

// parseTranslation joins the translated segments of a reply shaped like
// [[["Грабли","Rake",null,null,10],...],null,"en",...].
func parseTranslation(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}

	if len(payload) == 0 {
		return "", ErrEmptyTranslation
	}

	segments, ok := payload[0].([]any)
	if !ok || len(segments) == 0 {
		return "", ErrEmptyTranslation
	}

	var sb strings.Builder
	for _, s := range segments {
		segment, ok := s.([]any)
		if !ok || len(segment) == 0 {
			continue
		}
		if part, ok := segment[0].(string); ok {
			sb.WriteString(part)
		}
	}

	if sb.Len() == 0 {
		return "", ErrEmptyTranslation
	}
	return sb.String(), nil
}
