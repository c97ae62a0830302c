package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"auditdna/internal/domain"
)

// EvaluateRules runs every rule against the data payload and reports each
// outcome. Rules are independent: a failure never short-circuits the rest,
// and the aggregate is order-insensitive.
func EvaluateRules(data map[string]interface{}, rules []domain.ComplianceRule, now time.Time) []domain.RuleResult {
	results := make([]domain.RuleResult, 0, len(rules))
	for _, rule := range rules {
		status, message := evaluateRule(data, rule, now)
		results = append(results, domain.RuleResult{
			Rule:      rule.Name,
			Status:    status,
			Message:   message,
			Timestamp: now,
		})
	}
	return results
}

// OverallStatus is "compliant" iff every result passed.
func OverallStatus(results []domain.RuleResult) string {
	for _, r := range results {
		if r.Status != domain.RulePassed {
			return domain.ValidationNonCompliant
		}
	}
	return domain.ValidationCompliant
}

func evaluateRule(data map[string]interface{}, rule domain.ComplianceRule, now time.Time) (status, message string) {
	switch {
	case len(rule.Required) > 0:
		return evalCompleteness(data, rule)
	case rule.Min != nil || rule.Max != nil:
		return evalRange(data, rule)
	case rule.MaxAgeDays > 0:
		return evalStaleness(data, rule, now)
	case len(rule.ValidValues) > 0:
		return evalMembership(data, rule)
	default:
		return domain.RulePassed, fmt.Sprintf("Rule %s passed", rule.Name)
	}
}

func evalCompleteness(data map[string]interface{}, rule domain.ComplianceRule) (string, string) {
	var missing []string
	for _, field := range rule.Required {
		v, ok := data[field]
		if !ok || v == nil {
			missing = append(missing, field)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return domain.RuleFailed, fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", "))
	}
	return domain.RulePassed, fmt.Sprintf("Rule %s passed", rule.Name)
}

func evalRange(data map[string]interface{}, rule domain.ComplianceRule) (string, string) {
	field := rule.ValueField
	if field == "" {
		field = "value"
	}
	// A non-numeric or absent value is not a range violation; completeness
	// rules own presence checks.
	v, ok := numericValue(data[field])
	if !ok {
		return domain.RulePassed, fmt.Sprintf("Rule %s passed", rule.Name)
	}
	if (rule.Min != nil && v < *rule.Min) || (rule.Max != nil && v > *rule.Max) {
		min, max := math.Inf(-1), math.Inf(1)
		if rule.Min != nil {
			min = *rule.Min
		}
		if rule.Max != nil {
			max = *rule.Max
		}
		return domain.RuleFailed, fmt.Sprintf("Value %v outside valid range %v-%v", v, min, max)
	}
	return domain.RulePassed, fmt.Sprintf("Rule %s passed", rule.Name)
}

func evalStaleness(data map[string]interface{}, rule domain.ComplianceRule, now time.Time) (string, string) {
	field := rule.DateField
	if field == "" {
		field = "testDate"
	}
	t, ok := timeValue(data[field])
	if !ok {
		// Fall back to the generic "date" field, then treat an unparseable
		// date as not stale; completeness rules own presence checks.
		if t, ok = timeValue(data["date"]); !ok {
			return domain.RulePassed, fmt.Sprintf("Rule %s passed", rule.Name)
		}
	}
	ageDays := now.Sub(t).Hours() / 24
	if ageDays > float64(rule.MaxAgeDays) {
		return domain.RuleFailed, fmt.Sprintf("Data is %d days old, exceeds maximum of %d days",
			int(ageDays), rule.MaxAgeDays)
	}
	return domain.RulePassed, fmt.Sprintf("Rule %s passed", rule.Name)
}

func evalMembership(data map[string]interface{}, rule domain.ComplianceRule) (string, string) {
	field := rule.MemberField
	if field == "" {
		field = "name"
	}
	raw, _ := data[field].(string)
	needle := strings.ToLower(raw)
	for _, v := range rule.ValidValues {
		if needle == strings.ToLower(v) {
			return domain.RulePassed, fmt.Sprintf("Rule %s passed", rule.Name)
		}
	}
	return domain.RuleFailed, fmt.Sprintf("%s %q not in valid list: %s",
		field, raw, strings.Join(rule.ValidValues, ", "))
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func timeValue(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
