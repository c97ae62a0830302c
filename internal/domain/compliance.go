package domain

import "time"

// Rule statuses produced by a single compliance rule evaluation.
const (
	RulePassed = "passed"
	RuleFailed = "failed"
)

// Overall validation outcomes.
const (
	ValidationCompliant    = "compliant"
	ValidationNonCompliant = "non-compliant"
)

// ComplianceRule is a named predicate over a record. Exactly one check kind is
// active per rule, selected by which fields are set: Required (completeness),
// Min/Max (numeric range), MaxAgeDays (staleness), ValidValues (membership).
type ComplianceRule struct {
	Name        string   `json:"name"`
	Required    []string `json:"required,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	MaxAgeDays  int      `json:"maxAge,omitempty"`
	ValueField  string   `json:"valueField,omitempty"`
	DateField   string   `json:"dateField,omitempty"`
	MemberField string   `json:"memberField,omitempty"`
	ValidValues []string `json:"validValues,omitempty"`
}

// RuleResult is the outcome of evaluating one rule against one data payload.
type RuleResult struct {
	Rule      string    `json:"rule"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Validation is the aggregate outcome of a compliance check.
// OverallStatus is "compliant" iff every rule result passed.
type Validation struct {
	Engine        string                 `json:"engine"`
	Data          map[string]interface{} `json:"data"`
	Results       []RuleResult           `json:"results"`
	OverallStatus string                 `json:"overallStatus"`
	ValidatedAt   time.Time              `json:"validatedAt"`
}
