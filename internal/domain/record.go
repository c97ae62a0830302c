package domain

import "time"

// ComplianceStatus classifies an engine record's validation state.
type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceNonCompliant ComplianceStatus = "non-compliant"
	CompliancePending      ComplianceStatus = "pending"
)

// RiskSeverity grades a single risk factor.
type RiskSeverity string

const (
	RiskLow      RiskSeverity = "low"
	RiskMedium   RiskSeverity = "medium"
	RiskHigh     RiskSeverity = "high"
	RiskCritical RiskSeverity = "critical"
)

// RiskFactor is one named risk attached to an engine record.
type RiskFactor struct {
	Factor   string       `json:"factor"`
	Severity RiskSeverity `json:"severity"`
	Impact   float64      `json:"impact"`
}

// EngineRecord is the structurally uniform domain entity every engine stores.
// Value and TestDate are always present; ComplianceStatus stays "pending"
// until the record is explicitly validated.
type EngineRecord struct {
	ID               string           `json:"id"`
	Engine           string           `json:"engine"`
	Name             string           `json:"name"`
	Value            float64          `json:"value"`
	Unit             string           `json:"unit"`
	Location         string           `json:"location"`
	TestDate         time.Time        `json:"testDate"`
	ComplianceStatus ComplianceStatus `json:"complianceStatus"`
	Score            float64          `json:"score"`
	RiskFactors      []RiskFactor     `json:"riskFactors,omitempty"`
	Provenance       string           `json:"provenance,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// NewEngineRecord constructs a record with defaulted fields. Defaults live
// here, not scattered across storage schemas, so they stay testable.
func NewEngineRecord(engine, name string, value float64, unit, location string) *EngineRecord {
	now := time.Now().UTC()
	return &EngineRecord{
		ID:               NewID(),
		Engine:           engine,
		Name:             name,
		Value:            value,
		Unit:             unit,
		Location:         location,
		TestDate:         now,
		ComplianceStatus: CompliancePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// EngineRecordStats summarizes one engine's records by compliance status.
type EngineRecordStats struct {
	Engine       string `json:"engine"`
	Total        int64  `json:"total"`
	Compliant    int64  `json:"compliant"`
	NonCompliant int64  `json:"nonCompliant"`
	Pending      int64  `json:"pending"`
}
