package client

import (
	"context"
	"fmt"
	"time"

	"gardena/parser/internal/proxy"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ImageClient downloads product images over plain HTTP
type ImageClient struct {
	httpClient *resty.Client
}

func NewImageClient(timeout time.Duration, proxySupplier proxy.ProxySupplier) *ImageClient {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Image client using proxy: %s", proxyURL)
		}
	}

	return &ImageClient{httpClient: client}
}

// FetchImage returns the raw response body. A response with an error status
// counts as no response and yields nil bytes.
func (c *ImageClient) FetchImage(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image %s: %w", url, err)
	}

	if resp.IsError() {
		log.Warnf("⚠️ Image %s answered %d, skipping", url, resp.StatusCode())
		return nil, nil
	}

	return resp.Bytes(), nil
}

func (c *ImageClient) Close() error {
	return c.httpClient.Close()
}
