package core

import (
	"math"
	"risk_service/internal/domain/model"
	"strings"
)

// Веса индексов по методологии ASIS.
const (
	weightAccess       = 0.35
	weightPerimeter    = 0.25
	weightLighting     = 0.20
	weightSurveillance = 0.20

	weightHistory      = 0.40
	weightProximity    = 0.30
	weightIntelligence = 0.20
	weightTrend        = 0.10

	defaultSubScore = 0.5
)

// FactorLibrary answers every static-weight question of the pipeline from an
// immutable catalog. It is safe for concurrent use.
type FactorLibrary struct {
	catalog     *model.Catalog
	states      *model.StateResolver
	scenarios   map[string]model.ScenarioDefinition
	measures    map[string]model.SecurityMeasure
	multipliers map[string]float64
	accessMun   map[string]float64
	accessEst   map[string]float64
	synthetic   map[string]model.SyntheticProfile
	business    map[string]float64
}

func NewFactorLibrary(c *model.Catalog) *FactorLibrary {
	lib := &FactorLibrary{
		catalog:     c,
		states:      model.NewStateResolver(c.StateAliases),
		scenarios:   make(map[string]model.ScenarioDefinition, len(c.Scenarios)),
		measures:    make(map[string]model.SecurityMeasure, len(c.Measures)),
		multipliers: make(map[string]float64, len(c.RegionalMultipliers)),
		accessMun:   make(map[string]float64, len(c.Access.Municipios)),
		accessEst:   make(map[string]float64, len(c.Access.Estados)),
		synthetic:   make(map[string]model.SyntheticProfile, len(c.Synthetic)),
		business:    make(map[string]float64, len(c.Business.Types)),
	}
	for _, s := range c.Scenarios {
		lib.scenarios[s.ID] = s
	}
	for _, m := range c.Measures {
		lib.measures[m.ID] = m
	}
	for state, v := range c.RegionalMultipliers {
		lib.multipliers[lib.canonicalState(state)] = v
	}
	for mun, v := range c.Access.Municipios {
		lib.accessMun[model.NormalizeName(mun)] = v
	}
	for state, v := range c.Access.Estados {
		lib.accessEst[lib.canonicalState(state)] = v
	}
	for state, p := range c.Synthetic {
		lib.synthetic[lib.canonicalState(state)] = p
	}
	for t, v := range c.Business.Types {
		lib.business[model.NormalizeName(t)] = v
	}
	return lib
}

func (f *FactorLibrary) canonicalState(estado string) string {
	if name, ok := f.states.Resolve(estado); ok {
		return name
	}
	return model.NormalizeName(estado)
}

func (f *FactorLibrary) Catalog() *model.Catalog      { return f.catalog }
func (f *FactorLibrary) States() *model.StateResolver { return f.states }

func (f *FactorLibrary) Scenario(id string) (model.ScenarioDefinition, bool) {
	s, ok := f.scenarios[id]
	return s, ok
}

func (f *FactorLibrary) Measure(id string) (model.SecurityMeasure, bool) {
	m, ok := f.measures[id]
	return m, ok
}

// ResolveRegionType applies the catalog default to an empty region type and
// reports whether the result has a profile.
func (f *FactorLibrary) ResolveRegionType(regionType string) (string, model.RegionProfile, bool) {
	if regionType == "" {
		regionType = f.catalog.DefaultRegionType
	}
	profile, ok := f.catalog.Regions[regionType]
	return regionType, profile, ok
}

// BaseProbability returns the annual base rate from the region table. A known
// scenario missing from the table gets its national rate, which callers must
// not publish (see MissingFactors); an unknown scenario gets the catalog
// default and ok=false.
func (f *FactorLibrary) BaseProbability(regionType, scenarioID string) (float64, bool) {
	if profile, ok := f.catalog.Regions[regionType]; ok {
		if p, ok := profile.Base[scenarioID]; ok {
			return p, true
		}
	}
	if s, ok := f.scenarios[scenarioID]; ok {
		return s.BaseProbability, true
	}
	return f.catalog.UnknownScenarioBase, false
}

// PhysicalVulnerabilityIndex (IVF), clamped to [0.2, 1.0].
func PhysicalVulnerabilityIndex(access, perimeter, lighting, surveillance float64) float64 {
	ivf := weightAccess*access + weightPerimeter*perimeter +
		weightLighting*lighting + weightSurveillance*surveillance
	return clamp(ivf, 0.2, 1.0)
}

// ThreatIndex (IAC), clamped to [0.15, 1.0].
func ThreatIndex(history, proximity, intelligence, trend float64) float64 {
	iac := weightHistory*history + weightProximity*proximity +
		weightIntelligence*intelligence + weightTrend*trend
	return clamp(iac, 0.15, 1.0)
}

// AccessScore looks up transport exposure by municipio, then by estado, then
// by region type.
func (f *FactorLibrary) AccessScore(loc model.Location, profile model.RegionProfile) float64 {
	if v, ok := f.accessMun[model.NormalizeName(loc.Municipio)]; ok {
		return v
	}
	if v, ok := f.accessEst[f.canonicalState(loc.Estado)]; ok {
		return v
	}
	if profile.Access > 0 {
		return profile.Access
	}
	if f.catalog.Access.Default > 0 {
		return f.catalog.Access.Default
	}
	return defaultSubScore
}

// MissingFactors names the region tables that have no entry for a known
// scenario. Unknown scenarios and region types report nothing.
func (f *FactorLibrary) MissingFactors(regionType, scenarioID string) []string {
	profile, ok := f.catalog.Regions[regionType]
	if !ok {
		return nil
	}
	if _, ok := f.scenarios[scenarioID]; !ok {
		return nil
	}
	var missing []string
	if _, ok := profile.Base[scenarioID]; !ok {
		missing = append(missing, "base")
	}
	if _, ok := profile.History[scenarioID]; !ok {
		missing = append(missing, "history")
	}
	return missing
}

func (f *FactorLibrary) HistoryScore(regionType, scenarioID string) float64 {
	if profile, ok := f.catalog.Regions[regionType]; ok {
		if v, ok := profile.History[scenarioID]; ok {
			return v
		}
	}
	return defaultSubScore
}

func (f *FactorLibrary) IntelligenceScore(scenarioID string) float64 {
	if s, ok := f.scenarios[scenarioID]; ok {
		return s.Intelligence
	}
	return defaultSubScore
}

func (f *FactorLibrary) TrendScore(scenarioID string) float64 {
	if s, ok := f.scenarios[scenarioID]; ok {
		return s.Trend
	}
	return defaultSubScore
}

// CrimeIntensityAdjustment converts crime shares into a multiplier in
// [0.5, 2.0]; an intensity of 0.30 is neutral.
func CrimeIntensityAdjustment(p model.CrimePercentages) float64 {
	intensity := (p.Robbery*0.6 + p.Homicide*0.3 + p.Extortion*0.1) / 100
	return clamp(1+(intensity-0.3), 0.5, 2.0)
}

// RegionalMultiplier returns the state multiplier, adjusted by crime intensity
// when a context is available, and the adjustment that was applied.
func (f *FactorLibrary) RegionalMultiplier(estado string, cc *model.CrimeContext) (float64, float64) {
	m, ok := f.multipliers[f.canonicalState(estado)]
	if !ok {
		m = f.catalog.NationalMultiplier
	}
	adj := 1.0
	if cc != nil {
		adj = CrimeIntensityAdjustment(cc.Percentages)
	}
	return clamp(m*adj, 0.3, 3.0), adj
}

func (f *FactorLibrary) SeasonalFactor(month int) float64 {
	if v, ok := f.catalog.Seasonal[month]; ok {
		return v
	}
	return 1.0
}

// Band returns the realistic probability band of a scenario. Unknown
// scenarios use the general band.
func (f *FactorLibrary) Band(scenarioID string) model.ProbabilityBand {
	if s, ok := f.scenarios[scenarioID]; ok {
		if b, ok := f.catalog.Bands[s.Band]; ok {
			return b
		}
	}
	return f.catalog.Bands[model.BandGeneral]
}

// SyntheticProfile returns the degraded-mode profile for a state.
func (f *FactorLibrary) SyntheticProfile(estado string) model.SyntheticProfile {
	if p, ok := f.synthetic[f.canonicalState(estado)]; ok {
		return p
	}
	return f.catalog.SyntheticDefault
}

// BusinessFactor is 1.0 for unknown business types.
func (f *FactorLibrary) BusinessFactor(businessType string) float64 {
	if v, ok := f.business[model.NormalizeName(businessType)]; ok {
		return v
	}
	return 1.0
}

// ValueFactor picks the highest tier strictly exceeded by value.
func (f *FactorLibrary) ValueFactor(value float64) float64 {
	factor, best := 1.0, math.Inf(-1)
	for _, t := range f.catalog.Business.ValueTiers {
		if value > t.Above && t.Above > best {
			factor, best = t.Factor, t.Above
		}
	}
	return factor
}

// normalizeID folds catalog identifiers: scenario and measure ids are
// lower-case snake_case.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
