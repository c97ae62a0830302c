package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"auditdna/internal/domain"
)

// runTimeout bounds one scheduled report generation.
const runTimeout = 2 * time.Minute

// Scheduler drives recurring executive report generation. A failing run is
// logged and retried at the next tick; it never stops the cron loop.
type Scheduler struct {
	svc    *Service
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler creates a scheduler around the analytics service.
func NewScheduler(svc *Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		svc:    svc,
		cron:   cron.New(),
		logger: logger,
	}
}

// Schedule validates and persists a new report schedule, then registers it
// with the running cron loop. The returned id identifies the cron entry.
func (s *Scheduler) Schedule(ctx context.Context, sched *domain.ReportSchedule) (cron.EntryID, error) {
	if sched == nil || sched.TenantID == "" {
		return 0, domain.ErrValidation("schedule requires a tenant id")
	}
	if _, err := cron.ParseStandard(sched.CronExpr); err != nil {
		return 0, domain.ErrValidation("invalid cron expression %q: %v", sched.CronExpr, err)
	}
	sched.Active = true

	if err := s.svc.schedules.Insert(ctx, sched); err != nil {
		return 0, err
	}
	return s.register(*sched)
}

// Start registers every active schedule and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	scheds, err := s.svc.schedules.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, sched := range scheds {
		if _, err := s.register(sched); err != nil {
			s.logger.Warn("skipping report schedule",
				"schedule", sched.ID, "tenant", sched.TenantID, "error", err)
		}
	}

	s.cron.Start()
	s.logger.Info("report scheduler started", "schedules", len(scheds))
	return nil
}

// Stop halts the cron loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) register(sched domain.ReportSchedule) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(sched.CronExpr, func() { s.run(sched) })
	if err != nil {
		return 0, domain.ErrValidation("invalid cron expression %q: %v", sched.CronExpr, err)
	}
	return id, nil
}

func (s *Scheduler) run(sched domain.ReportSchedule) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	rep, err := s.svc.GenerateExecutiveReport(ctx, sched.TenantID, time.Time{}, time.Time{})
	if err != nil {
		s.logger.Warn("scheduled report failed",
			"schedule", sched.ID, "tenant", sched.TenantID, "error", err)
		return
	}

	tc, err := s.svc.resolver.Resolve(ctx, sched.TenantID)
	if err != nil {
		s.logger.Warn("scheduled report notification skipped",
			"schedule", sched.ID, "tenant", sched.TenantID, "error", err)
		return
	}
	s.svc.notifyReady(ctx, tc.Config, sched, rep)
}
