package core

import (
	"risk_service/internal/domain/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndices_Clamped(t *testing.T) {
	assert.InDelta(t, 0.565, PhysicalVulnerabilityIndex(0.6, 0.7, 0.4, 0.5), 1e-9)
	assert.Equal(t, 0.2, PhysicalVulnerabilityIndex(0, 0, 0, 0))
	assert.Equal(t, 1.0, PhysicalVulnerabilityIndex(1, 1, 1, 1))

	assert.InDelta(t, 0.87, ThreatIndex(0.9, 0.8, 0.9, 0.9), 1e-9)
	assert.Equal(t, 0.15, ThreatIndex(0, 0, 0, 0))
}

func TestFactorLibrary_BaseProbability(t *testing.T) {
	lib := testLibrary(t)

	p, ok := lib.BaseProbability(model.RegionIndustrialMetro, "robo_transito")
	assert.True(t, ok)
	assert.InDelta(t, 0.022, p, 1e-9)

	p, ok = lib.BaseProbability(model.RegionIndustrialMetro, "ataque_extraterrestre")
	assert.False(t, ok)
	assert.InDelta(t, 0.010, p, 1e-9)
}

func TestFactorLibrary_AccessScore(t *testing.T) {
	lib := testLibrary(t)
	_, profile, _ := lib.ResolveRegionType("")

	assert.Equal(t, 0.8, lib.AccessScore(model.Location{Municipio: "Tultepec", Estado: "Edomex"}, profile))
	assert.Equal(t, 0.6, lib.AccessScore(model.Location{Municipio: "Monterrey", Estado: "Nuevo León"}, profile))
	assert.Equal(t, 0.3, lib.AccessScore(model.Location{Municipio: "Mérida", Estado: "Yucatán"}, profile))
	// Municipio outside the table falls back to its state.
	assert.Equal(t, 0.7, lib.AccessScore(model.Location{Municipio: "Toluca", Estado: "México"}, profile))
}

func TestFactorLibrary_RegionalMultiplier_StateEquivalence(t *testing.T) {
	lib := testLibrary(t)

	want, _ := lib.RegionalMultiplier("Estado de México", nil)
	assert.InDelta(t, 1.28, want, 1e-9)
	for _, name := range []string{"México", "Edomex", "ESTADO DE MEXICO", "edo. de méxico"} {
		got, _ := lib.RegionalMultiplier(name, nil)
		assert.Equal(t, want, got, name)
	}

	national, adj := lib.RegionalMultiplier("Atlántida", nil)
	assert.Equal(t, 1.0, national)
	assert.Equal(t, 1.0, adj)
}

func TestFactorLibrary_RegionalMultiplier_Intensity(t *testing.T) {
	lib := testLibrary(t)

	// intensity = (0.6*70 + 0.3*10 + 0.1*10)/100 = 0.46 -> adjustment 1.16
	cc := &model.CrimeContext{Percentages: model.CrimePercentages{Robbery: 70, Homicide: 10, Extortion: 10}}
	m, adj := lib.RegionalMultiplier("Nuevo León", cc)
	assert.InDelta(t, 1.16, adj, 1e-9)
	assert.InDelta(t, 0.91*1.16, m, 1e-9)

	assert.Equal(t, 0.5, CrimeIntensityAdjustment(model.CrimePercentages{}))
	assert.Equal(t, 2.0, CrimeIntensityAdjustment(model.CrimePercentages{Robbery: 300}))
}

func TestFactorLibrary_SeasonalAndBands(t *testing.T) {
	lib := testLibrary(t)

	assert.Equal(t, 1.6, lib.SeasonalFactor(12))
	assert.Equal(t, 1.4, lib.SeasonalFactor(11))
	assert.Equal(t, 1.0, lib.SeasonalFactor(3))

	assert.Equal(t, model.ProbabilityBand{Min: 0.0001, Max: 0.05}, lib.Band("intrusion_armada"))
	assert.Equal(t, model.ProbabilityBand{Min: 0.0005, Max: 0.06}, lib.Band("no_existe"))
}

func TestFactorLibrary_BusinessAndValueFactors(t *testing.T) {
	lib := testLibrary(t)

	assert.Equal(t, 1.2, lib.BusinessFactor("retail"))
	assert.Equal(t, 1.0, lib.BusinessFactor("Almacen"))
	assert.Equal(t, 0.6, lib.BusinessFactor("Tecnología"))
	assert.Equal(t, 1.0, lib.BusinessFactor("Circo"))

	assert.Equal(t, 1.4, lib.ValueFactor(6_000_000))
	assert.Equal(t, 1.2, lib.ValueFactor(5_000_000))
	assert.Equal(t, 1.1, lib.ValueFactor(750_000))
	assert.Equal(t, 1.0, lib.ValueFactor(500_000))
}
