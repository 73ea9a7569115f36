package ingest

import (
	"fmt"

	"github.com/cuongbtq/content-ingest/internal/domain"
	"github.com/cuongbtq/content-ingest/internal/pipeline"
)

// DefaultMinContentLength is the quality floor for normalized content.
const DefaultMinContentLength = 40

// QualityValidator is the reference quality-validation service: a length
// floor plus a metadata completeness score.
type QualityValidator struct {
	MinContentLength int
}

// NewQualityValidator creates a validator with the default length floor.
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{MinContentLength: DefaultMinContentLength}
}

// ValidateQuality scores content on a 0-100 scale. Content below the length
// floor is invalid; missing metadata only lowers the score.
func (v *QualityValidator) ValidateQuality(content string, metadata domain.ContentMetadata) pipeline.ValidationReport {
	minLen := v.MinContentLength
	if minLen <= 0 {
		minLen = DefaultMinContentLength
	}

	report := pipeline.ValidationReport{IsValid: true, QualityScore: 100}

	if len(content) < minLen {
		report.IsValid = false
		report.Errors = append(report.Errors, fmt.Sprintf("content too short: %d chars, minimum %d", len(content), minLen))
		report.QualityScore = float64(len(content)) / float64(minLen) * 50
	}

	if metadata.Title == "" {
		report.QualityScore -= 10
	}
	if metadata.SourceURL == "" {
		report.QualityScore -= 5
	}
	if report.QualityScore < 0 {
		report.QualityScore = 0
	}

	return report
}
