package usecase

import (
	"context"
	"errors"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/errs"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/queue"
)

const IngestJobType = "ingest.batch"

// SummaryPublisher receives the final summary of a run.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, s *models.BatchSummary) error
}

// ProgressSinkFactory builds the progress callback for a run.
type ProgressSinkFactory func(runID string) ProgressFunc

// IngestJob executes queued ingest requests.
type IngestJob struct {
	orch      *Orchestrator
	registry  *Registry
	progress  ProgressSinkFactory
	publisher SummaryPublisher
	log       *logger.Logger
}

func NewIngestJob(orch *Orchestrator, registry *Registry, progress ProgressSinkFactory, publisher SummaryPublisher, log *logger.Logger) *IngestJob {
	if log == nil {
		log = logger.Nop()
	}
	return &IngestJob{orch: orch, registry: registry, progress: progress, publisher: publisher, log: log}
}

func (j *IngestJob) Name() string { return "ingest" }

func (j *IngestJob) Type() string { return IngestJobType }

// Handle runs one request to completion. Malformed requests are dropped
// instead of returned, so the queue does not retry them.
func (j *IngestJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[models.Request](payload)
	if err != nil {
		j.log.Error("dropping ingest job with unreadable payload", logger.Error(err))
		return nil
	}

	summary, err := j.Execute(ctx, *req)
	if err != nil {
		var de *errs.Error
		if errors.As(err, &de) && de.Kind == errs.KindValidation {
			j.log.Error("dropping invalid ingest request", logger.Error(err))
			return nil
		}
		return err
	}

	if j.publisher != nil {
		if err := j.publisher.PublishSummary(ctx, summary); err != nil {
			j.log.Warn("publish summary failed",
				logger.RunID(summary.RunID),
				logger.Error(err),
			)
		}
	}
	return nil
}

// Execute registers a run for the request, executes it and unregisters it.
func (j *IngestJob) Execute(ctx context.Context, req models.Request) (*models.BatchSummary, error) {
	run, err := j.orch.NewRun(ctx, req)
	if err != nil {
		return nil, err
	}

	j.registry.Add(run)
	defer j.registry.Remove(run.ID)

	var onProgress ProgressFunc
	if j.progress != nil {
		onProgress = j.progress(run.ID)
	}
	return j.orch.Execute(ctx, run, onProgress), nil
}

var _ queue.Job = (*IngestJob)(nil)
