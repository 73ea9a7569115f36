// Package ingest executes ingestion jobs: it owns the job lifecycle saga
// that wraps content collection in the resilience layer, fans collected
// items out to the processing pipeline, and records the source health
// outcome. Source adapters are external collaborators consumed through the
// SourceAdapter contract.
package ingest

import (
	"context"
	"sync"

	"github.com/cuongbtq/content-ingest/internal/domain"
)

// ConfigValidation is the verdict of an adapter's configuration check. It is
// a plain value; ValidateConfig never returns an error.
type ConfigValidation struct {
	IsValid bool
	Errors  []string
}

// SourceAdapter collects raw content from one family of sources.
type SourceAdapter interface {
	// Collect fetches raw content items for the source. It returns an error
	// on failure; 4xx-classified failures should be wrapped in
	// domain.AdapterError so the retry wrapper can fail fast.
	Collect(ctx context.Context, src *domain.SourceConfig) ([]domain.RawContent, error)
	// Supports reports whether this adapter handles the source type.
	Supports(sourceType string) bool
	// ValidateConfig checks an adapter configuration without side effects.
	ValidateConfig(config domain.ConfigMap) ConfigValidation
}

// AdapterRegistry resolves adapters by source type.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters []SourceAdapter
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{}
}

// Register adds an adapter. Registration order decides resolution priority.
func (r *AdapterRegistry) Register(adapter SourceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, adapter)
}

// Resolve returns the first registered adapter supporting the source type.
func (r *AdapterRegistry) Resolve(sourceType string) (SourceAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adapter := range r.adapters {
		if adapter.Supports(sourceType) {
			return adapter, true
		}
	}
	return nil, false
}
