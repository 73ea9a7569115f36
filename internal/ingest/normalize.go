package ingest

import (
	"regexp"
	"strings"

	"github.com/cuongbtq/content-ingest/internal/domain"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	urlPattern        = regexp.MustCompile(`https?://[^\s"'<>)]+`)
	imageExtPattern   = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|svg|webp)$`)
)

const extractedTitleMaxLen = 120

// TextNormalizer is the reference normalization service: tag stripping and
// whitespace collapsing, with minimal metadata extraction. Source-specific
// extraction heuristics live in external adapters.
type TextNormalizer struct{}

// Normalize strips markup and collapses whitespace. The result is the input
// to hashing, so it must be deterministic.
func (TextNormalizer) Normalize(raw, sourceType string) (string, error) {
	text := htmlTagPattern.ReplaceAllString(raw, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text), nil
}

// ExtractMetadata derives fallback metadata from the raw content: the first
// non-empty line becomes the title when the caller supplied none.
func (n TextNormalizer) ExtractMetadata(raw, sourceType string) (domain.ContentMetadata, error) {
	md := domain.ContentMetadata{}
	for _, line := range strings.Split(raw, "\n") {
		normalized, err := n.Normalize(line, sourceType)
		if err != nil {
			return md, err
		}
		if normalized == "" {
			continue
		}
		if len(normalized) > extractedTitleMaxLen {
			normalized = normalized[:extractedTitleMaxLen]
		}
		md.Title = normalized
		break
	}
	return md, nil
}

// DetectAssets finds asset references in normalized content: image URLs are
// tagged as images, other URLs as links.
func (TextNormalizer) DetectAssets(content string) []domain.AssetTag {
	var tags []domain.AssetTag
	seen := make(map[string]bool)
	for _, url := range urlPattern.FindAllString(content, -1) {
		url = strings.TrimRight(url, ".,;:")
		if seen[url] {
			continue
		}
		seen[url] = true

		tagType := "link"
		if imageExtPattern.MatchString(url) {
			tagType = "image"
		}
		tags = append(tags, domain.AssetTag{Type: tagType, Value: url})
	}
	return tags
}
