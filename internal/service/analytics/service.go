// Package analytics computes per-tenant executive reports and runs the
// schedule that generates them periodically.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"auditdna/internal/domain"
	"auditdna/internal/engine"
	"auditdna/internal/notify"
	"auditdna/internal/service/branding"
)

const (
	// defaultPeriod is the lookback used when a report request carries no
	// explicit date range.
	defaultPeriod = 30 * 24 * time.Hour

	topEngineCount = 5

	// complianceAlertThreshold is the score below which the report flags
	// compliance as needing attention.
	complianceAlertThreshold = 70.0

	// pendingAlertShare is the fraction of unvalidated records above which
	// the report recommends running validation.
	pendingAlertShare = 0.25

	// seatAlertShare is the fraction of the tenant's user limit above which
	// the report recommends raising the limit.
	seatAlertShare = 0.8
)

// StoreResolver opens an active tenant's configuration and storage namespace.
type StoreResolver interface {
	Resolve(ctx context.Context, tenantID string) (*domain.TenantContext, error)
}

// ExecutiveReport is the tenant-level analytics summary for one period.
type ExecutiveReport struct {
	ReportID        string                     `json:"reportId"`
	TenantID        string                     `json:"tenantId"`
	PeriodStart     time.Time                  `json:"periodStart"`
	PeriodEnd       time.Time                  `json:"periodEnd"`
	TotalUsers      int64                      `json:"totalUsers"`
	NewUsers        int64                      `json:"newUsers"`
	TotalRecords    int64                      `json:"totalRecords"`
	ComplianceScore float64                    `json:"complianceScore"`
	AuditEvents     int64                      `json:"auditEvents"`
	TopEngines      []domain.EngineRecordStats `json:"topEngines"`
	Insights        []string                   `json:"insights"`
	Recommendations []string                   `json:"recommendations"`
	GeneratedAt     time.Time                  `json:"generatedAt"`
}

// Service generates executive reports from a tenant's storage namespace.
type Service struct {
	schedules domain.ScheduleRepository
	resolver  StoreResolver
	email     notify.EmailSender
	logger    *slog.Logger
}

// NewService creates an analytics service. email may be nil when no sender
// is configured; scheduled report notifications are then skipped.
func NewService(schedules domain.ScheduleRepository, resolver StoreResolver, email notify.EmailSender, logger *slog.Logger) *Service {
	return &Service{
		schedules: schedules,
		resolver:  resolver,
		email:     email,
		logger:    logger,
	}
}

// GenerateExecutiveReport builds the analytics summary for one tenant and
// period, persists it in the tenant's report store, and returns it. Zero
// from/to default to the trailing thirty days.
func (s *Service) GenerateExecutiveReport(ctx context.Context, tenantID string, from, to time.Time) (*ExecutiveReport, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultPeriod)
	}
	if !from.Before(to) {
		return nil, domain.ErrValidation("report period start must precede its end")
	}

	tc, err := s.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats, err := tc.Stores.Records.StatsByEngine(ctx, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("record stats for tenant %s: %w", tenantID, err)
	}
	totalUsers, err := tc.Stores.Users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("user count for tenant %s: %w", tenantID, err)
	}
	newUsers, err := tc.Stores.Users.CountCreatedBetween(ctx, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("user growth for tenant %s: %w", tenantID, err)
	}
	auditEvents, err := tc.Stores.Audit.CountBetween(ctx, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("audit volume for tenant %s: %w", tenantID, err)
	}

	var totalRecords, compliant, nonCompliant, pending int64
	for _, st := range stats {
		totalRecords += st.Total
		compliant += st.Compliant
		nonCompliant += st.NonCompliant
		pending += st.Pending
	}

	now := time.Now().UTC()
	rep := &ExecutiveReport{
		ReportID:        engine.ReportID("analytics", now),
		TenantID:        tenantID,
		PeriodStart:     from,
		PeriodEnd:       to,
		TotalUsers:      totalUsers,
		NewUsers:        newUsers,
		TotalRecords:    totalRecords,
		ComplianceScore: complianceScore(compliant, nonCompliant),
		AuditEvents:     auditEvents,
		TopEngines:      topEngines(stats),
		GeneratedAt:     now,
	}
	rep.Insights, rep.Recommendations = s.assess(rep, tc.Config, pending)

	if err := tc.Stores.Reports.Insert(ctx, &domain.Report{
		ID:          rep.ReportID,
		Engine:      "analytics",
		Type:        "executive_summary",
		Data:        rep.asData(),
		Status:      domain.ReportCompleted,
		GeneratedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("persist executive report for tenant %s: %w", tenantID, err)
	}

	s.logger.Info("executive report generated",
		"tenant", tenantID,
		"report_id", rep.ReportID,
		"records", totalRecords,
		"compliance_score", rep.ComplianceScore,
	)
	return rep, nil
}

// complianceScore is the percentage of assessed records that are compliant.
// Pending records are not assessed; a tenant with nothing assessed scores 100.
func complianceScore(compliant, nonCompliant int64) float64 {
	assessed := compliant + nonCompliant
	if assessed == 0 {
		return 100
	}
	return float64(compliant) / float64(assessed) * 100
}

func topEngines(stats []domain.EngineRecordStats) []domain.EngineRecordStats {
	if len(stats) > topEngineCount {
		stats = stats[:topEngineCount]
	}
	out := make([]domain.EngineRecordStats, len(stats))
	copy(out, stats)
	return out
}

// assess derives threshold-driven insights and recommendations.
func (s *Service) assess(rep *ExecutiveReport, cfg *domain.Tenant, pending int64) (insights, recommendations []string) {
	insights = []string{}
	recommendations = []string{}

	if rep.ComplianceScore < complianceAlertThreshold {
		insights = append(insights,
			fmt.Sprintf("compliance score is %.1f%%, below the %.0f%% target", rep.ComplianceScore, complianceAlertThreshold))
		recommendations = append(recommendations,
			"prioritize remediation of non-compliant records")
	}
	if rep.TotalRecords > 0 {
		if share := float64(pending) / float64(rep.TotalRecords); share > pendingAlertShare {
			insights = append(insights,
				fmt.Sprintf("%.0f%% of records have not been validated yet", share*100))
			recommendations = append(recommendations,
				"run compliance validation over unvalidated records")
		}
	}
	if rep.NewUsers > 0 {
		insights = append(insights,
			fmt.Sprintf("%d new users joined during the period", rep.NewUsers))
	}
	if rep.AuditEvents == 0 {
		insights = append(insights, "no audit activity recorded during the period")
		recommendations = append(recommendations,
			"verify that engine integrations are active")
	}
	if cfg != nil && cfg.Limits.MaxUsers > 0 {
		if float64(rep.TotalUsers) >= float64(cfg.Limits.MaxUsers)*seatAlertShare {
			recommendations = append(recommendations,
				fmt.Sprintf("user count is approaching the plan limit of %d seats", cfg.Limits.MaxUsers))
		}
	}
	return insights, recommendations
}

func (r *ExecutiveReport) asData() map[string]interface{} {
	return map[string]interface{}{
		"tenantId":        r.TenantID,
		"periodStart":     r.PeriodStart.Format(time.RFC3339),
		"periodEnd":       r.PeriodEnd.Format(time.RFC3339),
		"totalUsers":      r.TotalUsers,
		"newUsers":        r.NewUsers,
		"totalRecords":    r.TotalRecords,
		"complianceScore": r.ComplianceScore,
		"auditEvents":     r.AuditEvents,
		"topEngines":      r.TopEngines,
		"insights":        r.Insights,
		"recommendations": r.Recommendations,
	}
}

// period renders the report window for notification subjects.
func (r *ExecutiveReport) period() string {
	const layout = "2006-01-02"
	return r.PeriodStart.Format(layout) + " to " + r.PeriodEnd.Format(layout)
}

// notifyReady emails the schedule's recipients that a report is available.
// Failures are logged per recipient and never propagated.
func (s *Service) notifyReady(ctx context.Context, cfg *domain.Tenant, sched domain.ReportSchedule, rep *ExecutiveReport) {
	if s.email == nil || cfg == nil || len(sched.Recipients) == 0 {
		return
	}
	if !cfg.Settings.Notifications.Email {
		return
	}

	body, err := branding.ReportReadyEmail(cfg, rep.ReportID, rep.period())
	if err != nil {
		s.logger.Warn("render report email failed", "tenant", sched.TenantID, "error", err)
		return
	}
	for _, to := range sched.Recipients {
		msg := notify.Email{
			To:      to,
			Subject: "Your executive report is ready",
			Body:    body,
		}
		if err := s.email.SendEmail(ctx, msg); err != nil {
			s.logger.Warn("report notification failed",
				"tenant", sched.TenantID, "to", to, "error", err)
		}
	}
}
