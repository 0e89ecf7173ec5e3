package core

import (
	"math"
	"risk_service/internal/domain/model"
)

const (
	maxCountedPolice = 3
	maxCountedVenues = 6
)

type SpatialAnalyzer struct{}

// Analyze adjusts the region's proximity-to-hotspots score with what a site
// survey found around the warehouse.
func (a *SpatialAnalyzer) Analyze(base float64, survey model.SiteSurvey) float64 {
	police := math.Min(float64(survey.PoliceStations), maxCountedPolice)
	venues := math.Min(float64(survey.NightVenues), maxCountedVenues)

	// Полиция снижает, ночные заведения повышают
	factor := 1 - 0.10*police + 0.05*venues
	return clamp(base*factor, 0, 1)
}
