package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.gardena.com", cfg.Site.BaseURL)
	assert.Equal(t, "https://www.gardena.com/int/products/soil-ground/combisystem", cfg.Site.ListingURL)
	assert.Equal(t, time.Second, cfg.Site.LoadMoreDelay)
	assert.Equal(t, "#onetrust-accept-btn-handler", cfg.Site.Selectors.CookieButton)
	assert.Equal(t, ".product", cfg.Site.Selectors.Product)
	assert.Equal(t, ".article-number", cfg.Site.Selectors.ArticleNumber)
	assert.Equal(t, 1080, cfg.Browser.ViewportWidth)
	assert.Equal(t, 1024, cfg.Browser.ViewportHeight)
	assert.True(t, cfg.Browser.Headless)
	assert.Zero(t, cfg.Browser.ConsentTimeout)
	assert.Equal(t, "en", cfg.Translator.SourceLang)
	assert.Equal(t, "ru", cfg.Translator.TargetLang)
	assert.Zero(t, cfg.Translator.MaxRetries)
	assert.Equal(t, "build", cfg.Output.Root)
	assert.Equal(t, ImageSourceBrowser, cfg.Output.ImageSource)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.Proxies)
}

func TestLoadFile_OverridesAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
site:
  load_more_delay: 250ms
  max_load_more_clicks: 5
output:
  root: out
  image_source: http
proxies:
  - http://127.0.0.1:3128
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("TRANSLATOR_TARGET_LANG", "de")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Site.LoadMoreDelay)
	assert.Equal(t, 5, cfg.Site.MaxLoadMoreClicks)
	assert.Equal(t, "out", cfg.Output.Root)
	assert.Equal(t, ImageSourceHTTP, cfg.Output.ImageSource)
	assert.Equal(t, []string{"http://127.0.0.1:3128"}, cfg.Proxies)
	assert.Equal(t, "de", cfg.Translator.TargetLang)
	// untouched keys keep their defaults
	assert.Equal(t, "h4", cfg.Site.Selectors.Name)
}

func TestLoadFile_RejectsUnknownImageSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  image_source: ftp\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image_source")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Site:       SiteConfig{ListingURL: "https://example.com", Selectors: SelectorsConfig{Product: ".product"}},
			Translator: TranslatorConfig{TargetLang: "ru"},
			Output:     OutputConfig{Root: "build", ImageSource: ImageSourceBrowser},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Site.ListingURL = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Translator.TargetLang = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Site.MaxLoadMoreClicks = -1
	assert.Error(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "gardena"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=gardena sslmode=disable", d.DSN())
}
