package pipeline

import (
	"context"
	"log/slog"
	"runtime/debug"
)

// ItemOutcome summarizes one content item's journey for job metrics
// aggregation.
type ItemOutcome struct {
	Ingested     bool
	WasDuplicate bool
	Failed       bool
	ContentID    string
}

// Dispatcher drives one content item through the stage sequence in strict
// order. Stage failures and panics are contained here: logged, reflected in
// the outcome, and never propagated to sibling items or to the job's
// retry/circuit-breaker logic.
type Dispatcher struct {
	stages *Stages
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given stage handlers.
func NewDispatcher(stages *Stages, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{stages: stages, logger: logger}
}

// Run executes normalize -> validate -> dedupe -> persist for one item.
func (d *Dispatcher) Run(ctx context.Context, ev ContentCollected) (outcome ItemOutcome) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Pipeline stage panicked",
				slog.String("job_id", ev.JobID),
				slog.String("source_id", ev.SourceID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			outcome = ItemOutcome{Failed: true}
		}
	}()

	normalized, err := d.stages.HandleCollected(ctx, ev)
	if err != nil {
		d.logStageFailure(ev, "normalize", err)
		return ItemOutcome{Failed: true}
	}

	validated, failed, err := d.stages.HandleNormalized(ctx, normalized)
	if err != nil {
		d.logStageFailure(ev, "validate", err)
		return ItemOutcome{Failed: true}
	}
	if failed != nil {
		d.logger.Warn("Content failed quality validation",
			slog.String("job_id", failed.JobID),
			slog.String("source_id", failed.SourceID),
			slog.Any("validation_errors", failed.Errors),
			slog.Float64("quality_score", failed.QualityScore),
			slog.String("raw_excerpt", failed.RawExcerpt),
		)
		return ItemOutcome{Failed: true}
	}

	checked, err := d.stages.HandleValidated(ctx, validated)
	if err != nil {
		d.logStageFailure(ev, "deduplicate", err)
		return ItemOutcome{Failed: true}
	}

	ingested, err := d.stages.HandleDeduplicationChecked(ctx, checked)
	if err != nil {
		d.logStageFailure(ev, "persist", err)
		return ItemOutcome{Failed: true}
	}

	return ItemOutcome{
		Ingested:     !ingested.WasDuplicate,
		WasDuplicate: ingested.WasDuplicate,
		ContentID:    ingested.ContentID,
	}
}

func (d *Dispatcher) logStageFailure(ev ContentCollected, stage string, err error) {
	d.logger.Error("Pipeline stage failed",
		slog.String("job_id", ev.JobID),
		slog.String("source_id", ev.SourceID),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}
