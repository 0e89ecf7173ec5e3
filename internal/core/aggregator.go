package core

import (
	"context"
	"log/slog"
	"risk_service/internal/domain/model"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	aggregateBaseScore   = 50.0
	scenarioAdjustmentID = "escenarios"
	optimisticDelta      = 15.0
	pessimisticDelta     = 20.0
)

// Confidence by number of external sources that answered.
var sourceConfidence = []float64{0.30, 0.50, 0.70, 0.85, 0.95}

// IntegratedRiskAggregator merges independent source reports into a single
// 0-100 score.
type IntegratedRiskAggregator struct {
	lib        *FactorLibrary
	mitigation MitigationModel
	timeout    time.Duration
	logger     *slog.Logger
}

func NewIntegratedRiskAggregator(lib *FactorLibrary, mitigation MitigationModel, timeout time.Duration, logger *slog.Logger) *IntegratedRiskAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntegratedRiskAggregator{
		lib:        lib,
		mitigation: mitigation,
		timeout:    timeout,
		logger:     logger,
	}
}

// Collect queries every fetcher concurrently, each under its own timeout. A
// failing source never aborts the others; its reason lands in the second map.
func (a *IntegratedRiskAggregator) Collect(
	ctx context.Context,
	loc model.Location,
	fetchers []model.SourceFetcher,
) (map[string]model.SourceReport, map[string]string) {
	ctx, span := tracer.Start(ctx, "aggregator.collect")
	defer span.End()

	var (
		mu      sync.Mutex
		reports = make(map[string]model.SourceReport, len(fetchers))
		failed  = make(map[string]string)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fetchers {
		f := f
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, a.timeout)
			defer cancel()

			report, err := f.Fetch(fctx, loc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Warn("Warning: failed to fetch source", "source", f.ID(), "error", err)
				sourceFailures.WithLabelValues(f.ID()).Inc()
				failed[f.ID()] = err.Error()
				return nil
			}
			report.SourceID = f.ID()
			reports[f.ID()] = report
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("sources.ok", len(reports)),
		attribute.Int("sources.failed", len(failed)),
	)
	return reports, failed
}

// Aggregate computes the composite score. local carries contributions that
// are not external sources and do not raise confidence.
func (a *IntegratedRiskAggregator) Aggregate(
	reports map[string]model.SourceReport,
	failed map[string]string,
	local []model.SourceReport,
	profile model.BusinessProfile,
) model.AggregateResult {
	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := model.AggregateResult{
		BaseScore:     aggregateBaseScore,
		Sources:       ids,
		FailedSources: failed,
		Adjustments:   make(map[string]float64, len(ids)+len(local)),
	}

	merged := make([]model.SourceReport, 0, len(ids)+len(local))
	for _, id := range ids {
		merged = append(merged, reports[id])
	}
	merged = append(merged, local...)

	score := aggregateBaseScore
	for _, r := range merged {
		score += r.Adjustment
		result.Adjustments[r.SourceID] = r.Adjustment
		result.Aggravating = append(result.Aggravating, r.Aggravating...)
		result.Mitigating = append(result.Mitigating, r.Mitigating...)
	}

	result.BusinessFactor = a.lib.BusinessFactor(profile.Type)
	result.ValueFactor = a.lib.ValueFactor(profile.InventoryValue)
	result.Mitigation = a.mitigation.Reduction(profile.Measures).Reduction

	final := clamp(score*result.BusinessFactor*result.ValueFactor*(1-result.Mitigation), 0, 100)
	result.FinalScore = round(final, 2)
	result.RiskLevel = ClassifyRisk(result.FinalScore)
	result.Confidence = SourceConfidence(len(ids))

	result.Distribution = make(map[string]float64, len(a.lib.Catalog().Business.Distribution))
	for category, share := range a.lib.Catalog().Business.Distribution {
		result.Distribution[category] = round(result.FinalScore*share, 2)
	}
	result.Projections = []model.RiskProjection{
		{Name: "optimista", Score: round(clamp(result.FinalScore-optimisticDelta, 0, 100), 2)},
		{Name: "realista", Score: result.FinalScore},
		{Name: "pesimista", Score: round(clamp(result.FinalScore+pessimisticDelta, 0, 100), 2)},
	}
	return result
}

// SourceConfidence is non-decreasing in the number of answering sources.
func SourceConfidence(n int) float64 {
	if n < 0 {
		n = 0
	}
	if n >= len(sourceConfidence) {
		return sourceConfidence[len(sourceConfidence)-1]
	}
	return sourceConfidence[n]
}
