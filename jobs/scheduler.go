package jobs

import (
	"context"
	"fmt"
	"time"

	"retailtasks/logging"
	"retailtasks/metrics"
	repository "retailtasks/repositories"
	service "retailtasks/services"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// OverdueSweepSpec runs every 15 minutes, on the minute.
	OverdueSweepSpec = "0 */15 * * * *"
	jobTimeout       = 5 * time.Minute
)

// CompanyLister is the slice of the company repository the rollover needs.
type CompanyLister interface {
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// Scheduler runs the nightly analytics rollover and the periodic overdue sweep.
type Scheduler struct {
	cron      *cron.Cron
	companies CompanyLister
	analytics service.AnalyticsService
	tasks     repository.TaskRepository
	now       func() time.Time
}

func NewScheduler(loc *time.Location, companies CompanyLister, analytics service.AnalyticsService, tasks repository.TaskRepository) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		companies: companies,
		analytics: analytics,
		tasks:     tasks,
		now:       time.Now,
	}
}

// Register adds both jobs. rolloverSpec is a six-field cron expression.
func (s *Scheduler) Register(rolloverSpec string) error {
	if _, err := s.cron.AddFunc(rolloverSpec, s.runWithTimeout(s.Rollover)); err != nil {
		return fmt.Errorf("invalid rollover schedule %q: %w", rolloverSpec, err)
	}
	if _, err := s.cron.AddFunc(OverdueSweepSpec, s.runWithTimeout(s.SweepOverdue)); err != nil {
		return fmt.Errorf("invalid overdue schedule: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runWithTimeout(job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			logging.Logger.Errorf("Event ID: SCHEDULED_JOB_FAILED, Description: %v", err)
		}
	}
}

// Rollover makes sure every company has an analytics document for the new
// day. A failing company does not stop the others.
func (s *Scheduler) Rollover(ctx context.Context) error {
	ids, err := s.companies.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	failed := 0
	for _, id := range ids {
		if _, err := s.analytics.EnsureToday(ctx, id); err != nil {
			failed++
			metrics.AnalyticsUpdateFailures.WithLabelValues("rollover").Inc()
			logging.Logger.Warnf("Event ID: ANALYTICS_ROLLOVER_FAILED, Description: company %s: %v", id.Hex(), err)
		}
	}

	logging.Logger.Infof("Event ID: ANALYTICS_ROLLOVER, Description: %d companies, %d failed", len(ids), failed)
	if failed > 0 {
		return fmt.Errorf("rollover failed for %d of %d companies", failed, len(ids))
	}
	return nil
}

func (s *Scheduler) SweepOverdue(ctx context.Context) error {
	flagged, err := service.SweepOverdue(ctx, s.tasks, s.now())
	if err != nil {
		return err
	}
	if flagged > 0 {
		logging.Logger.Infof("Event ID: OVERDUE_SWEEP, Description: flagged %d tasks", flagged)
	}
	return nil
}
