package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource() *SourceConfig {
	return NewSourceConfig("source-1", "rss", "Example Feed", ConfigMap{"url": "https://example.com/feed"})
}

func TestNewSourceConfig(t *testing.T) {
	src := newTestSource()

	assert.True(t, src.IsActive)
	assert.Equal(t, 0, src.Version)
	assert.Equal(t, 0, src.TotalJobs)
	assert.Equal(t, 0, src.ConsecutiveFailures)
	assert.False(t, src.IsUnhealthy())
}

func TestSourceConfig_RecordSuccessResetsFailureStreak(t *testing.T) {
	src := newTestSource()

	src.RecordFailure()
	src.RecordFailure()
	require.Equal(t, 2, src.ConsecutiveFailures)

	src.RecordSuccess()

	assert.Equal(t, 0, src.ConsecutiveFailures)
	assert.Equal(t, 3, src.TotalJobs)
	assert.NotNil(t, src.LastSuccessAt)
}

func TestSourceConfig_SuccessRateMovingAverage(t *testing.T) {
	src := newTestSource()

	// failure, failure, success over three jobs: rounded average lands on ~33%.
	src.RecordFailure()
	assert.InDelta(t, 0, src.SuccessRate, 0.01)

	src.RecordFailure()
	assert.InDelta(t, 0, src.SuccessRate, 0.01)

	src.RecordSuccess()
	assert.InDelta(t, 33.33, src.SuccessRate, 0.01)

	src.RecordSuccess()
	// round(33.33/100*3)+1 = 2 successes over 4 jobs.
	assert.InDelta(t, 50, src.SuccessRate, 0.01)
}

func TestSourceConfig_IsUnhealthy(t *testing.T) {
	tests := []struct {
		name                string
		consecutiveFailures int
		totalJobs           int
		successRate         float64
		want                bool
	}{
		{name: "healthy", consecutiveFailures: 0, totalJobs: 10, successRate: 90, want: false},
		{name: "two failures in a row", consecutiveFailures: 2, totalJobs: 2, successRate: 0, want: false},
		{name: "three failures in a row", consecutiveFailures: 3, totalJobs: 3, successRate: 0, want: true},
		{name: "low rate but few jobs", consecutiveFailures: 1, totalJobs: 4, successRate: 25, want: false},
		{name: "low rate with enough jobs", consecutiveFailures: 1, totalJobs: 5, successRate: 40, want: true},
		{name: "rate exactly at the floor", consecutiveFailures: 0, totalJobs: 10, successRate: 50, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource()
			src.ConsecutiveFailures = tt.consecutiveFailures
			src.TotalJobs = tt.totalJobs
			src.SuccessRate = tt.successRate

			assert.Equal(t, tt.want, src.IsUnhealthy())
		})
	}
}

func TestSourceConfig_HealthUpdateBumpsVersion(t *testing.T) {
	src := newTestSource()

	src.RecordSuccess()
	assert.Equal(t, 1, src.Version)

	src.RecordFailure()
	assert.Equal(t, 2, src.Version)
}

func TestSourceConfig_DeactivateIsOneWaySoftDelete(t *testing.T) {
	src := newTestSource()

	src.Deactivate()
	assert.False(t, src.IsActive)
	assert.Equal(t, 1, src.Version)

	// Repeated deactivation is a no-op.
	src.Deactivate()
	assert.Equal(t, 1, src.Version)

	src.Activate()
	assert.True(t, src.IsActive)
	assert.Equal(t, 2, src.Version)
}

func TestSourceConfig_Update(t *testing.T) {
	src := newTestSource()

	src.Update("Renamed Feed", ConfigMap{"url": "https://example.com/v2"}, "encrypted-blob")

	assert.Equal(t, "Renamed Feed", src.Name)
	assert.Equal(t, "encrypted-blob", src.Credentials)
	assert.Equal(t, 1, src.Version)
}
