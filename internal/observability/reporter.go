package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/growly/resume-bot/internal/types"
)

// QualitySource provides the current rating summary.
type QualitySource interface {
	GetQualityMetrics(ctx context.Context) (types.QualityMetrics, error)
}

// QualityReporter logs the rating summary on a cron schedule.
type QualityReporter struct {
	cron    *cron.Cron
	source  QualitySource
	logger  *log.Logger
	timeout time.Duration
}

// NewQualityReporter schedules a report using a standard five-field cron
// expression or a descriptor such as "@every 6h". Call Start to begin.
func NewQualityReporter(schedule string, source QualitySource, logger *log.Logger) (*QualityReporter, error) {
	if logger == nil {
		logger = NopLogger()
	}

	r := &QualityReporter{
		cron:    cron.New(),
		source:  source,
		logger:  logger,
		timeout: 30 * time.Second,
	}

	if _, err := r.cron.AddFunc(schedule, func() { r.Report(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid stats schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the schedule in the background.
func (r *QualityReporter) Start() {
	r.cron.Start()
	r.logger.Info().Int("entries", len(r.cron.Entries())).Msg("quality reporter started")
}

// Stop halts the schedule and waits for a running report to finish.
func (r *QualityReporter) Stop() {
	<-r.cron.Stop().Done()
}

// Report logs the current metrics once.
func (r *QualityReporter) Report(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	m, err := r.source.GetQualityMetrics(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load quality metrics")
		return
	}

	entry := r.logger.Info().
		Int("total_ratings", m.TotalRatings).
		Float64("average_rating", m.Average)
	for _, rating := range types.AllRatings {
		entry = entry.Int(fmt.Sprintf("rating_%d", int(rating)), m.Distribution[rating])
	}
	entry.Msg("service quality")
}
