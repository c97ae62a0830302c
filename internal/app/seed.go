package app

import (
	"context"
	"fmt"
	"time"

	"auditdna/internal/domain"
)

// SeedDemoData populates the default namespace with a small demo dataset:
// a month of corn and wheat prices plus a handful of water quality samples.
// Idempotent: skips when the namespace already has records.
func SeedDemoData(ctx context.Context, stores *domain.Stores) error {
	_, total, err := stores.Records.Search(ctx, "usda_pricing", "", domain.SearchFilters{}, domain.SearchOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("check existing records: %w", err)
	}
	if total > 0 {
		return nil
	}

	now := time.Now().UTC()

	// Daily commodity prices over the trailing thirty days.
	prices := []struct {
		name string
		base float64
		step float64
	}{
		{"Corn", 4.20, 0.015},
		{"Wheat", 6.10, -0.008},
	}
	for _, p := range prices {
		for day := 0; day < 30; day++ {
			rec := domain.NewEngineRecord("usda_pricing", p.name,
				p.base+p.step*float64(day), "USD", "Chicago Board of Trade")
			rec.TestDate = now.AddDate(0, 0, day-30)
			rec.Provenance = "demo"
			if err := stores.Records.Insert(ctx, rec); err != nil {
				return fmt.Errorf("seed price record: %w", err)
			}
		}
	}

	samples := []struct {
		name     string
		value    float64
		location string
		status   domain.ComplianceStatus
	}{
		{"Lead Concentration", 0.012, "Des Moines, IA", domain.ComplianceCompliant},
		{"Nitrate Level", 8.4, "Cedar Rapids, IA", domain.ComplianceCompliant},
		{"Lead Concentration", 0.021, "Flint, MI", domain.ComplianceNonCompliant},
		{"pH Level", 7.1, "Madison, WI", domain.CompliancePending},
	}
	for _, s := range samples {
		rec := domain.NewEngineRecord("water_tech", s.name, s.value, "ppm", s.location)
		rec.ComplianceStatus = s.status
		rec.Provenance = "demo"
		if err := stores.Records.Insert(ctx, rec); err != nil {
			return fmt.Errorf("seed water sample: %w", err)
		}
	}

	return nil
}
