package domain

import "time"

// ReportStatus tracks the lifecycle of a generated report.
type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportGenerating ReportStatus = "generating"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)

// ReportOptions controls rendering of a generated report.
type ReportOptions struct {
	Format         string `json:"format,omitempty"`
	IncludeCharts  bool   `json:"includeCharts,omitempty"`
	IncludeRawData bool   `json:"includeRawData,omitempty"`
}

// Report is an engine-generated report. The ID is engine-prefixed
// ("{ENGINE_UPPER}-{epoch_ms}"). A report is immutable once completed.
type Report struct {
	ID          string                 `json:"reportId"`
	Engine      string                 `json:"engine"`
	Type        string                 `json:"type"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Options     ReportOptions          `json:"options"`
	Status      ReportStatus           `json:"status"`
	GeneratedAt time.Time              `json:"generatedAt"`
}
