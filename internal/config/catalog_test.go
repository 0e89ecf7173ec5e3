package config

import (
	"os"
	"path/filepath"
	"risk_service/internal/domain/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog_Default(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	assert.Len(t, c.Scenarios, 19)
	assert.Len(t, c.Measures, 32)
	assert.Equal(t, model.RegionIndustrialMetro, c.DefaultRegionType)
	assert.InDelta(t, 0.022, c.Regions[model.RegionIndustrialMetro].Base["robo_transito"], 1e-9)
	assert.InDelta(t, 0.9, c.Regions[model.RegionIndustrialMetro].History["robo_transito"], 1e-9)
	assert.InDelta(t, 1.6, c.Seasonal[12], 1e-9)
	assert.InDelta(t, 0.91, c.RegionalMultipliers["NUEVO LEON"], 1e-9)
	assert.Contains(t, c.StateAliases["ESTADO DE MEXICO"], "EDOMEX")
	assert.InDelta(t, 0.02, c.UnknownMeasure.Effectiveness, 1e-9)
}

func TestLoadCatalog_EveryScenarioHasRegionalBase(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	for region, profile := range c.Regions {
		for _, s := range c.Scenarios {
			_, ok := profile.Base[s.ID]
			assert.True(t, ok, "region %s misses base for %s", region, s.ID)
			_, ok = profile.History[s.ID]
			assert.True(t, ok, "region %s misses history for %s", region, s.ID)
		}
	}
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultCatalog, 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "2024.08", c.Version)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseCatalog_RejectsDuplicatesAndRanges(t *testing.T) {
	const doc = `
default_region_type: industrial_metro
unknown_scenario_base: 0.01
national_multiplier: 1.0
bands:
  general: {min: 0.0005, max: 0.06}
regions:
  industrial_metro: {perimeter: 0.7, lighting: 1.4, surveillance: 0.5, access: 0.8, proximity: 0.8}
scenarios:
  - {id: vandalismo, base_probability: 0.008, band: general, intelligence: 0.4, trend: 0.4}
  - {id: vandalismo, base_probability: 0.008, band: general, intelligence: 0.4, trend: 0.4}
measures:
  - {id: camaras, effectiveness: 0.18, confidence: 0.82, category: detection}
  - {id: drones, effectiveness: 0.10, confidence: 0.5, category: airspace}
unknown_measure: {id: unknown, effectiveness: 0.02, confidence: 0.5}
state_aliases:
  JALISCO: []
`
	_, err := ParseCatalog([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate scenario id "vandalismo"`)
	assert.Contains(t, err.Error(), "lighting out of [0,1]")
	assert.Contains(t, err.Error(), `unknown category "airspace"`)
}

func TestParseCatalog_Malformed(t *testing.T) {
	_, err := ParseCatalog([]byte("scenarios: [unclosed"))
	assert.Error(t, err)
}

func TestParseCatalog_RejectsIncompleteRegionTables(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	delete(c.Regions[model.RegionIndustrialMetro].Base, "robo_transito")
	delete(c.Regions[model.RegionIndustrialMetro].History, "robo_transito")

	err = ValidateCatalog(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region industrial_metro: no base probability for robo_transito")
	assert.Contains(t, err.Error(), "region industrial_metro: no history score for robo_transito")
}

func TestLoadCatalog_BandExposure(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	assert.Equal(t, 30.0, c.Bands[model.BandProperty].SiteExposure())
	assert.Equal(t, 3.0, c.Bands[model.BandInternal].SiteExposure())
	assert.Equal(t, 1.0, c.Bands[model.BandGeneral].SiteExposure())
}
