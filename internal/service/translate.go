package service

import (
	"context"
	"fmt"

	"gardena/parser/internal/cache"
	"gardena/parser/internal/client"
	"gardena/parser/internal/domain"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Translator fills NameRu for every record
type Translator struct {
	client     client.TranslateClient
	cache      cache.TranslationCache
	targetLang string
}

// NewTranslator builds a translator; cache may be nil.
func NewTranslator(client client.TranslateClient, cache cache.TranslationCache, targetLang string) *Translator {
	return &Translator{
		client:     client,
		cache:      cache,
		targetLang: targetLang,
	}
}

// TranslateAll issues one request per record concurrently and keeps the input
// order. Any failure fails the whole batch.
func (t *Translator) TranslateAll(ctx context.Context, records []domain.ProductRecord) ([]domain.ProductRecord, error) {
	translated := make([]domain.ProductRecord, len(records))
	copy(translated, records)

	g, gctx := errgroup.WithContext(ctx)

	for i := range translated {
		g.Go(func() error {
			name, err := t.translate(gctx, translated[i].NameEn)
			if err != nil {
				return fmt.Errorf("failed to translate product %d (%s): %w", i, translated[i].ArticleNumber, err)
			}
			translated[i].NameRu = name
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Infof("🌍 Translated %d product names to %s", len(translated), t.targetLang)
	return translated, nil
}

func (t *Translator) translate(ctx context.Context, text string) (string, error) {
	if t.cache != nil {
		cached, ok, err := t.cache.Get(ctx, text, t.targetLang)
		if err != nil {
			log.Warnf("⚠️ Translation cache lookup failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	name, err := t.client.Translate(ctx, text, t.targetLang)
	if err != nil {
		return "", err
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, text, t.targetLang, name); err != nil {
			log.Warnf("⚠️ Failed to cache translation: %v", err)
		}
	}

	return name, nil
}
