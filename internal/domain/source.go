package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Health thresholds consumed by the scheduler's admission control.
const (
	// UnhealthyConsecutiveFailures disables scheduling after this many
	// failures in a row.
	UnhealthyConsecutiveFailures = 3
	// UnhealthyMinJobs gates the success-rate check so one early bad run
	// cannot disable a source.
	UnhealthyMinJobs = 5
	// UnhealthySuccessRate is the success-rate floor (percent).
	UnhealthySuccessRate = 50.0
)

// ConfigMap is an arbitrary adapter configuration blob stored as JSONB.
type ConfigMap map[string]interface{}

// Value implements driver.Valuer.
func (c ConfigMap) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *ConfigMap) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into ConfigMap", value)
	}
	return json.Unmarshal(b, c)
}

// SourceConfig is the source configuration aggregate. Health counters are
// updated exactly once per job completion; deactivation is a one-way soft
// delete that never removes the record or its content references.
type SourceConfig struct {
	SourceID            string     `db:"source_id"`
	AdapterType         string     `db:"adapter_type"`
	Name                string     `db:"name"`
	Config              ConfigMap  `db:"config"`
	Credentials         string     `db:"credentials"`
	IsActive            bool       `db:"is_active"`
	ConsecutiveFailures int        `db:"consecutive_failures"`
	SuccessRate         float64    `db:"success_rate"`
	TotalJobs           int        `db:"total_jobs"`
	LastSuccessAt       *time.Time `db:"last_success_at"`
	LastFailureAt       *time.Time `db:"last_failure_at"`
	Version             int        `db:"version"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// NewSourceConfig creates an active source at version 0 with a clean health
// record.
func NewSourceConfig(sourceID, adapterType, name string, config ConfigMap) *SourceConfig {
	now := time.Now().UTC()
	return &SourceConfig{
		SourceID:    sourceID,
		AdapterType: adapterType,
		Name:        name,
		Config:      config,
		IsActive:    true,
		SuccessRate: 100,
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// RecordSuccess resets the failure streak and folds a success into the
// cumulative moving average. The rounded average can drift from the true
// historical ratio over many jobs; that approximation is intentional.
func (s *SourceConfig) RecordSuccess() {
	now := time.Now().UTC()
	s.ConsecutiveFailures = 0
	s.TotalJobs++
	s.SuccessRate = (math.Round(s.SuccessRate/100*float64(s.TotalJobs-1)) + 1) / float64(s.TotalJobs) * 100
	s.LastSuccessAt = &now
	s.UpdatedAt = now
	s.Version++
}

// RecordFailure extends the failure streak and folds a failure into the
// moving average.
func (s *SourceConfig) RecordFailure() {
	now := time.Now().UTC()
	s.ConsecutiveFailures++
	s.TotalJobs++
	s.SuccessRate = math.Round(s.SuccessRate/100*float64(s.TotalJobs-1)) / float64(s.TotalJobs) * 100
	s.LastFailureAt = &now
	s.UpdatedAt = now
	s.Version++
}

// IsUnhealthy is the admission-control predicate: true after three
// consecutive failures, or once five or more jobs have run with a success
// rate below fifty percent. The tracker itself does not enforce it.
func (s *SourceConfig) IsUnhealthy() bool {
	if s.ConsecutiveFailures >= UnhealthyConsecutiveFailures {
		return true
	}
	return s.TotalJobs >= UnhealthyMinJobs && s.SuccessRate < UnhealthySuccessRate
}

// Update replaces the mutable configuration fields.
func (s *SourceConfig) Update(name string, config ConfigMap, credentials string) {
	s.Name = name
	s.Config = config
	s.Credentials = credentials
	s.UpdatedAt = time.Now().UTC()
	s.Version++
}

// Deactivate soft-deletes the source. Content collected from it remains.
func (s *SourceConfig) Deactivate() {
	if !s.IsActive {
		return
	}
	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
	s.Version++
}

// Activate re-enables a deactivated source.
func (s *SourceConfig) Activate() {
	if s.IsActive {
		return
	}
	s.IsActive = true
	s.UpdatedAt = time.Now().UTC()
	s.Version++
}
