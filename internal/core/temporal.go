package core

import (
	"risk_service/internal/domain/model"
	"sort"
	"time"
)

const minTrendMonths = 3

// TemporalAnalyzer derives the seasonal and trend factors of the temporal
// multiplier.
type TemporalAnalyzer struct {
	lib *FactorLibrary
}

func NewTemporalAnalyzer(lib *FactorLibrary) *TemporalAnalyzer {
	return &TemporalAnalyzer{lib: lib}
}

// Analyze returns (seasonal, trend). A zero asOf disables the seasonal factor.
func (a *TemporalAnalyzer) Analyze(history []model.MonthlyTotal, asOf time.Time) (float64, float64) {
	seasonal := 1.0
	if !asOf.IsZero() {
		seasonal = a.lib.SeasonalFactor(int(asOf.Month()))
	}
	return seasonal, TrendFactor(history)
}

// TrendFactor fits a least-squares line over monthly totals and projects the
// relative change over half a year, clamped to [0.85, 1.25].
func TrendFactor(history []model.MonthlyTotal) float64 {
	if len(history) < minTrendMonths {
		return 1.0
	}

	data := make([]model.MonthlyTotal, len(history))
	copy(data, history)
	sort.Slice(data, func(i, j int) bool {
		return monthIndex(data[i]) < monthIndex(data[j])
	})

	// Пропущенные месяцы учитываются через абсолютный индекс месяца
	origin := monthIndex(data[0])
	var sumX, sumY, sumXY, sumXX float64
	for _, d := range data {
		x := float64(monthIndex(d) - origin)
		sumX += x
		sumY += d.Total
		sumXY += x * d.Total
		sumXX += x * x
	}
	n := float64(len(data))
	mean := sumY / n
	denom := n*sumXX - sumX*sumX
	if mean <= 0 || denom == 0 {
		return 1.0
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return clamp(1+6*slope/mean, 0.85, 1.25)
}

func monthIndex(m model.MonthlyTotal) int {
	return m.Year*12 + m.Month - 1
}
