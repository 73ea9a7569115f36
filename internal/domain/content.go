package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ContentMetadata carries the optional descriptive fields of a content item.
// Any subset may be absent.
type ContentMetadata struct {
	Title       string     `json:"title,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Language    string     `json:"language,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
}

// Merge fills any unset field from the fallback. Fields already set on the
// receiver win.
func (m ContentMetadata) Merge(fallback ContentMetadata) ContentMetadata {
	out := m
	if out.Title == "" {
		out.Title = fallback.Title
	}
	if out.Author == "" {
		out.Author = fallback.Author
	}
	if out.PublishedAt == nil {
		out.PublishedAt = fallback.PublishedAt
	}
	if out.Language == "" {
		out.Language = fallback.Language
	}
	if out.SourceURL == "" {
		out.SourceURL = fallback.SourceURL
	}
	return out
}

// Value implements driver.Valuer.
func (m ContentMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *ContentMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = ContentMetadata{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into ContentMetadata", value)
	}
	return json.Unmarshal(b, m)
}

// AssetTag marks an asset reference detected in normalized content.
type AssetTag struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// AssetTagList is stored as JSONB.
type AssetTagList []AssetTag

// Value implements driver.Valuer.
func (l AssetTagList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]AssetTag{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *AssetTagList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into AssetTagList", value)
	}
	return json.Unmarshal(b, l)
}

// RawContent is one item returned by a source adapter before any processing.
type RawContent struct {
	Body        string
	Metadata    ContentMetadata
	CollectedAt time.Time
}

// ContentRecord is the content aggregate persisted after the pipeline
// succeeds. The content hash is a pure function of the normalized content
// and is the deduplication key; the record is immutable apart from rare
// corrective updates guarded by the version.
type ContentRecord struct {
	ContentID         string          `db:"content_id"`
	SourceID          string          `db:"source_id"`
	ContentHash       string          `db:"content_hash"`
	RawContent        string          `db:"raw_content"`
	NormalizedContent string          `db:"normalized_content"`
	Metadata          ContentMetadata `db:"metadata"`
	AssetTags         AssetTagList    `db:"asset_tags"`
	CollectedAt       time.Time       `db:"collected_at"`
	Version           int             `db:"version"`
	CreatedAt         time.Time       `db:"created_at"`
}

// NewContentRecord creates a content record at version 0.
func NewContentRecord(contentID, sourceID, hash, raw, normalized string, md ContentMetadata, tags AssetTagList, collectedAt time.Time) *ContentRecord {
	now := time.Now().UTC()
	if collectedAt.IsZero() {
		collectedAt = now
	}
	return &ContentRecord{
		ContentID:         contentID,
		SourceID:          sourceID,
		ContentHash:       hash,
		RawContent:        raw,
		NormalizedContent: normalized,
		Metadata:          md,
		AssetTags:         tags,
		CollectedAt:       collectedAt,
		Version:           0,
		CreatedAt:         now,
	}
}
