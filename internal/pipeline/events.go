// Package pipeline chains the content-processing stages: normalize,
// validate, deduplicate, persist. Each stage consumes the prior stage's
// event and emits exactly one follow-up event (or, on the validation failure
// branch, a distinct failure event). Stage failures are isolated per content
// item and never escalate to the job.
package pipeline

import (
	"time"

	"github.com/cuongbtq/content-ingest/internal/domain"
)

// ValidationExcerptLen bounds the raw-content sample kept for diagnostics
// when quality validation fails.
const ValidationExcerptLen = 200

// Envelope carries the full accumulated context between stages so every
// handler is self-sufficient and stateless.
type Envelope struct {
	JobID       string
	SourceID    string
	SourceType  string
	RawContent  string
	Provided    domain.ContentMetadata
	Normalized  string
	Metadata    domain.ContentMetadata
	AssetTags   domain.AssetTagList
	CollectedAt time.Time
}

// ContentCollected starts an item's journey through the pipeline.
type ContentCollected struct {
	Envelope
}

// ContentNormalized is emitted after normalization and metadata merging.
type ContentNormalized struct {
	Envelope
}

// QualityValidated continues an item past the validation stage.
type QualityValidated struct {
	Envelope
	QualityScore float64
}

// ValidationFailed terminates an item's progress. Only a bounded excerpt of
// the raw content is kept, never the full payload.
type ValidationFailed struct {
	JobID        string
	SourceID     string
	RawExcerpt   string
	Errors       []string
	QualityScore float64
}

// DeduplicationChecked reports the content-addressed lookup result. The
// stage producing it performs no writes.
type DeduplicationChecked struct {
	Envelope
	ContentHash       string
	IsDuplicate       bool
	ExistingContentID string
}

// ContentIngested is the terminal success event, emitted for new and
// duplicate content alike; WasDuplicate feeds the job metrics.
type ContentIngested struct {
	JobID        string
	SourceID     string
	ContentID    string
	ContentHash  string
	WasDuplicate bool
}

// Excerpt truncates raw content for diagnostics.
func Excerpt(raw string) string {
	if len(raw) <= ValidationExcerptLen {
		return raw
	}
	return raw[:ValidationExcerptLen]
}
