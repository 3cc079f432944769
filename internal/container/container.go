package container

import (
	"context"
	"errors"
	"fmt"

	"gardena/parser/internal/browser"
	"gardena/parser/internal/cache"
	"gardena/parser/internal/client"
	"gardena/parser/internal/config"
	"gardena/parser/internal/proxy"
	"gardena/parser/internal/repository"
	"gardena/parser/internal/service"
	"gardena/parser/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	Service *service.Service

	session     *browser.Session
	imageClient *client.ImageClient
	db          *pgxpool.Pool
	redis       *redis.Client
}

// New creates a new container with all dependencies initialized. On error
// everything acquired so far is released.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	if err := c.init(ctx); err != nil {
		if closeErr := c.Close(); closeErr != nil {
			log.Warnf("Cleanup after failed start: %v", closeErr)
		}
		return nil, err
	}
	return c, nil
}

func (c *Container) init(ctx context.Context) error {
	cfg := c.Config

	proxySupplier, err := proxy.NewProxySupplier(ctx, cfg.Proxies, cfg.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	c.session, err = browser.NewSession(ctx, cfg.Browser, proxySupplier)
	if err != nil {
		return err
	}

	var images storage.ImageFetcher = c.session
	if cfg.Output.ImageSource == config.ImageSourceHTTP {
		c.imageClient = client.NewImageClient(cfg.Output.ImageTimeout, proxySupplier)
		images = c.imageClient
	}

	var translationCache cache.TranslationCache
	if cfg.Redis.Enabled {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		if err := c.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")
		translationCache = cache.NewRedisTranslationCache(c.redis, cfg.Redis.TTL)
	}

	var productRepo repository.ProductRepository
	if cfg.Database.Enabled {
		c.db, err = pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := c.db.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("✅ Connected to PostgreSQL successfully")
		productRepo = repository.NewProductRepository(c.db)
	}

	translateClient := client.NewGoogleTranslateClient(cfg.Translator, proxySupplier)

	c.Service = service.NewService(
		c.session,
		browser.NewLoader(cfg.Site, cfg.Browser.ConsentTimeout),
		client.NewCatalogParser(cfg.Site.BaseURL, cfg.Site.Selectors),
		service.NewTranslator(translateClient, translationCache, cfg.Translator.TargetLang),
		storage.NewMaterializer(afero.NewOsFs(), cfg.Output.Root, images),
		productRepo,
		cfg.Site.ListingURL,
	)

	return nil
}

// Run executes the pipeline once
func (c *Container) Run(ctx context.Context) error {
	results, err := c.Service.Run(ctx)
	if err != nil {
		return err
	}

	log.Infof("✅ Wrote %d product directories to %s", len(results), c.Config.Output.Root)
	return nil
}

// Close releases every resource, whether or not the run succeeded
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	var errs []error
	if c.session != nil {
		errs = append(errs, c.session.Close())
	}
	if c.imageClient != nil {
		errs = append(errs, c.imageClient.Close())
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}

	log.Info("Container shut down successfully")
	return errors.Join(errs...)
}
