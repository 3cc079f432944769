package client

import (
	"fmt"
	"strings"

	"gardena/parser/internal/config"
	"gardena/parser/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// CatalogParser extracts product records from a fully expanded listing snapshot
type CatalogParser struct {
	baseURL   string
	selectors config.SelectorsConfig
}

func NewCatalogParser(baseURL string, selectors config.SelectorsConfig) *CatalogParser {
	return &CatalogParser{
		baseURL:   baseURL,
		selectors: selectors,
	}
}

// Parse returns one record per product card, in document order.
func (p *CatalogParser) Parse(html string) ([]domain.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	cards := doc.Find(p.selectors.Product)
	records := make([]domain.ProductRecord, 0, cards.Length())

	cards.Each(func(i int, card *goquery.Selection) {
		record := p.extractRecord(card)
		log.Debugf("Parsed card %d: %q (%s)", i, record.NameEn, record.ArticleNumber)
		records = append(records, record)
	})

	log.Debugf("Extracted %d products from snapshot", len(records))
	return records, nil
}

func (p *CatalogParser) extractRecord(card *goquery.Selection) domain.ProductRecord {
	href, _ := card.Find(p.selectors.Link).First().Attr("href")
	src, _ := card.Find(p.selectors.Image).First().Attr("src")

	return domain.ProductRecord{
		Link:          p.baseURL + href,
		Image:         domain.NormalizeImageURL(src),
		NameEn:        card.Find(p.selectors.Name).Text(),
		ArticleNumber: domain.CleanArticleNumber(card.Find(p.selectors.ArticleNumber).Text()),
	}
}
