package domain

import "strings"

const articleNumberLabel = "Article No. "

// ProductRecord is a single product card scraped from the listing page
type ProductRecord struct {
	Link          string `json:"link"`           // Absolute product page URL
	Image         string `json:"image"`          // Absolute image URL, or whatever the card carried
	NameEn        string `json:"name_en"`        // Name as scraped, whitespace untouched
	NameRu        string `json:"name_ru"`        // Filled in by the translation step
	ArticleNumber string `json:"article_number"` // Vendor SKU without its label
}

// HasAbsoluteImage reports whether the image can be downloaded.
func (p ProductRecord) HasAbsoluteImage() bool {
	return strings.HasPrefix(p.Image, "http")
}

// DirName is the output directory name for the record.
func (p ProductRecord) DirName() string {
	return SanitizeName(p.NameRu) + "_" + p.ArticleNumber
}

// NormalizeImageURL rewrites protocol-relative URLs to https.
func NormalizeImageURL(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// CleanArticleNumber strips surrounding whitespace and the first "Article No. "
// occurrence, wherever it appears.
func CleanArticleNumber(text string) string {
	return strings.Replace(strings.TrimSpace(text), articleNumberLabel, "", 1)
}

var nameReplacer = strings.NewReplacer(
	"/", "_",
	`\`, "_",
	"?", "_",
	"%", "_",
	"*", "_",
	":", "_",
	"|", "_",
	`"`, "_",
	"<", "_",
	">", "_",
)

// SanitizeName replaces characters that are not allowed in file paths.
func SanitizeName(name string) string {
	return nameReplacer.Replace(name)
}
