package engine

import (
	"context"
	"log/slog"
	"math"
	"time"

	"auditdna/internal/domain"
)

// Timeframe windows accepted by AnalyzePriceTrends.
var trendWindows = map[string]time.Duration{
	"1month":  30 * 24 * time.Hour,
	"3months": 90 * 24 * time.Hour,
	"6months": 180 * 24 * time.Hour,
	"1year":   365 * 24 * time.Hour,
}

// PriceTrendAnalysis summarizes pricing movement for one commodity over a
// trailing window.
type PriceTrendAnalysis struct {
	Commodity      string    `json:"commodity"`
	Timeframe      string    `json:"timeframe"`
	DataPoints     int       `json:"dataPoints"`
	AveragePrice   float64   `json:"averagePrice"`
	MinPrice       float64   `json:"minPrice"`
	MaxPrice       float64   `json:"maxPrice"`
	Volatility     float64   `json:"volatility"`
	TrendDirection string    `json:"trendDirection"`
	AnalyzedAt     time.Time `json:"analyzedAt"`
}

// PricingEngine is the commodity pricing engine. On top of the uniform
// contract it offers trailing-window trend analysis.
type PricingEngine struct {
	*DomainEngine
}

// NewPricingEngine creates the pricing engine for the given descriptor.
func NewPricingEngine(desc Descriptor, stores StoreFunc, logger *slog.Logger) *PricingEngine {
	return &PricingEngine{DomainEngine: NewDomainEngine(desc, stores, logger)}
}

// AnalyzePriceTrends computes average, min, max, volatility (population
// standard deviation) and trend direction for one commodity's records inside
// the trailing window. Trend direction compares the mean of the older half of
// the series against the newer half.
func (e *PricingEngine) AnalyzePriceTrends(ctx context.Context, commodity, timeframe string) (*PriceTrendAnalysis, error) {
	if commodity == "" {
		return nil, domain.ErrValidation("commodity is required")
	}
	window, ok := trendWindows[timeframe]
	if !ok {
		return nil, domain.ErrValidation("unknown timeframe %q", timeframe)
	}
	started := time.Now()

	from := time.Now().UTC().Add(-window)
	prices, err := e.collectPrices(ctx, commodity, from)
	e.audit(ctx, domain.AuditActionPriceAnalysis, map[string]interface{}{
		"commodity": commodity, "timeframe": timeframe,
	}, err, started)
	if err != nil {
		return nil, err
	}

	analysis := &PriceTrendAnalysis{
		Commodity:      commodity,
		Timeframe:      timeframe,
		DataPoints:     len(prices),
		TrendDirection: "stable",
		AnalyzedAt:     time.Now().UTC(),
	}
	if len(prices) == 0 {
		return analysis, nil
	}

	min, max, sum := prices[0], prices[0], 0.0
	for _, p := range prices {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
		sum += p
	}
	mean := sum / float64(len(prices))

	var variance float64
	for _, p := range prices {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(len(prices))

	analysis.AveragePrice = mean
	analysis.MinPrice = min
	analysis.MaxPrice = max
	analysis.Volatility = math.Sqrt(variance)
	analysis.TrendDirection = trendDirection(prices)
	return analysis, nil
}

// collectPrices pages through every matching record, oldest first, and
// returns the price series in chronological order.
func (e *PricingEngine) collectPrices(ctx context.Context, commodity string, from time.Time) ([]float64, error) {
	filters := domain.SearchFilters{Commodity: commodity, DateFrom: &from}
	opts := domain.SearchOptions{Page: 1, Limit: 100, SortBy: "testDate", SortOrder: domain.SortAsc}

	var prices []float64
	for {
		records, total, err := e.stores(ctx).Records.Search(ctx, e.Name(), "", filters, opts)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			prices = append(prices, rec.Value)
		}
		if len(records) == 0 || int64(len(prices)) >= total {
			return prices, nil
		}
		opts.Page++
	}
}

// trendDirection compares the older half's mean against the newer half's.
// A move beyond 2% of the older mean counts as a trend.
func trendDirection(prices []float64) string {
	if len(prices) < 2 {
		return "stable"
	}
	half := len(prices) / 2
	older := meanOf(prices[:half])
	newer := meanOf(prices[half:])
	if older == 0 {
		return "stable"
	}
	change := (newer - older) / older
	switch {
	case change > 0.02:
		return "rising"
	case change < -0.02:
		return "falling"
	default:
		return "stable"
	}
}

func meanOf(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
