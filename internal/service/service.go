package service

import (
	"context"
	"fmt"

	"gardena/parser/internal/browser"
	"gardena/parser/internal/domain"
	"gardena/parser/internal/repository"
	"gardena/parser/internal/storage"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type PageOpener interface {
	OpenPage(ctx context.Context) (browser.Page, error)
}

type CatalogLoader interface {
	LoadCatalog(ctx context.Context, page browser.Page, url string) (string, error)
}

type CatalogParser interface {
	Parse(html string) ([]domain.ProductRecord, error)
}

type Materializer interface {
	Materialize(ctx context.Context, records []domain.ProductRecord) ([]storage.Result, error)
}

// Service runs the extraction pipeline once
type Service struct {
	pages        PageOpener
	loader       CatalogLoader
	parser       CatalogParser
	translator   *Translator
	materializer Materializer
	repository   repository.ProductRepository
	listingURL   string
}

// NewService wires the pipeline stages; repository may be nil.
func NewService(
	pages PageOpener,
	loader CatalogLoader,
	parser CatalogParser,
	translator *Translator,
	materializer Materializer,
	repository repository.ProductRepository,
	listingURL string,
) *Service {
	return &Service{
		pages:        pages,
		loader:       loader,
		parser:       parser,
		translator:   translator,
		materializer: materializer,
		repository:   repository,
		listingURL:   listingURL,
	}
}

// Run executes load, parse, translate, materialize and the optional snapshot.
func (s *Service) Run(ctx context.Context) ([]storage.Result, error) {
	runID := uuid.New()
	logger := log.WithField("run_id", runID.String())

	records, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("📦 Parsed %d products", len(records))

	records, err = s.translator.TranslateAll(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to translate products: %w", err)
	}

	results, err := s.materializer.Materialize(ctx, records)
	if err != nil {
		return results, fmt.Errorf("failed to materialize products: %w", err)
	}

	saved := 0
	for _, r := range results {
		if r.ImageSaved {
			saved++
		}
	}
	logger.Infof("🖼️ Saved %d images for %d products", saved, len(results))

	if s.repository != nil {
		if err := s.repository.SaveSnapshot(ctx, runID, records); err != nil {
			return results, fmt.Errorf("failed to save run snapshot: %w", err)
		}
		logger.Info("🗄️ Run snapshot stored")
	}

	return results, nil
}

func (s *Service) collect(ctx context.Context) ([]domain.ProductRecord, error) {
	page, err := s.pages.OpenPage(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debugf("Failed to close listing page: %v", err)
		}
	}()

	html, err := s.loader.LoadCatalog(ctx, page, s.listingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	records, err := s.parser.Parse(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return records, nil
}
