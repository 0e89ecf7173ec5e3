package core

import (
	"fmt"
	"log/slog"
	"math"
	"risk_service/internal/domain/model"
	"strings"
	"time"
)

const (
	confidenceLevel  = 0.95
	zScore95         = 1.96
	modelAccuracy    = 0.92
	noContextQuality = 0.50
)

// Fail-closed result used when the location cannot be classified.
const (
	defaultProbability = 2.5
	defaultLower       = 1.5
	defaultUpper       = 4.5
	defaultReliability = 0.45
)

// ScoreOptions carries the per-request inputs that are not part of the
// location itself.
type ScoreOptions struct {
	AsOf   time.Time
	Survey *model.SiteSurvey
}

// ScenarioRiskCalculator turns one scenario at one location into a bounded
// probability with a confidence interval.
type ScenarioRiskCalculator struct {
	lib        *FactorLibrary
	mitigation MitigationModel
	temporal   *TemporalAnalyzer
	spatial    SpatialAnalyzer
	strict     bool
	logger     *slog.Logger
}

func NewScenarioRiskCalculator(lib *FactorLibrary, mitigation MitigationModel, strict bool, logger *slog.Logger) *ScenarioRiskCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScenarioRiskCalculator{
		lib:        lib,
		mitigation: mitigation,
		temporal:   NewTemporalAnalyzer(lib),
		strict:     strict,
		logger:     logger,
	}
}

func (c *ScenarioRiskCalculator) Score(
	scenarioID string,
	loc model.Location,
	cc *model.CrimeContext,
	measureIDs []string,
	opts ScoreOptions,
) (model.RiskResult, error) {
	start := time.Now()
	defer func() {
		scenarioDuration.WithLabelValues(c.mitigation.Name()).Observe(time.Since(start).Seconds())
	}()

	scenarioID = normalizeID(scenarioID)
	regionType, profile, ok := c.lib.ResolveRegionType(loc.RegionType)
	if !ok {
		c.logger.Warn("unknown region type, using conservative default",
			"scenario", scenarioID, "region_type", regionType)
		return ConservativeDefault(scenarioID,
			fmt.Sprintf("unknown region type %q: conservative default applied", regionType)), nil
	}

	if missing := c.lib.MissingFactors(regionType, scenarioID); len(missing) > 0 {
		c.logger.Warn("scenario missing from region tables, using conservative default",
			"scenario", scenarioID, "region_type", regionType, "tables", missing)
		r := ConservativeDefault(scenarioID, fmt.Sprintf(
			"region %s has no %s entry for %s: conservative default applied",
			regionType, strings.Join(missing, "/"), scenarioID))
		if def, ok := c.lib.Scenario(scenarioID); ok {
			r.Label = def.Label
		}
		return r, nil
	}

	result := model.RiskResult{ScenarioID: scenarioID, Label: scenarioID}
	if def, ok := c.lib.Scenario(scenarioID); ok {
		result.Label = def.Label
	}

	base, ok := c.lib.BaseProbability(regionType, scenarioID)
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%v %q: default base probability %.3f applied", model.ErrUnknownScenario, scenarioID, base))
	}

	proximity := profile.Proximity
	if opts.Survey != nil {
		proximity = c.spatial.Analyze(proximity, *opts.Survey)
		result.Factors.ProximityFromSurvey = true
	}

	subScores := []struct {
		name  string
		value *float64
	}{
		{"base_probability", &base},
		{"perimeter", &profile.Perimeter},
		{"lighting", &profile.Lighting},
		{"surveillance", &profile.Surveillance},
		{"proximity", &proximity},
	}
	for _, s := range subScores {
		v, err := c.checkUnit(scenarioID, s.name, *s.value)
		if err != nil {
			return model.RiskResult{}, err
		}
		*s.value = v
	}

	access, err := c.checkUnit(scenarioID, "access", c.lib.AccessScore(loc, profile))
	if err != nil {
		return model.RiskResult{}, err
	}
	history, err := c.checkUnit(scenarioID, "history", c.lib.HistoryScore(regionType, scenarioID))
	if err != nil {
		return model.RiskResult{}, err
	}
	intelligence, err := c.checkUnit(scenarioID, "intelligence", c.lib.IntelligenceScore(scenarioID))
	if err != nil {
		return model.RiskResult{}, err
	}
	trendScore, err := c.checkUnit(scenarioID, "trend", c.lib.TrendScore(scenarioID))
	if err != nil {
		return model.RiskResult{}, err
	}

	vuln := PhysicalVulnerabilityIndex(access, profile.Perimeter, profile.Lighting, profile.Surveillance)
	threat := ThreatIndex(history, proximity, intelligence, trendScore)

	mitigation := c.mitigation.Reduction(measureIDs)
	for _, id := range mitigation.UnknownMeasures {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%v %q: minimal effectiveness assumed", model.ErrUnknownSecurityMeasure, id))
	}

	regional, intensity := c.lib.RegionalMultiplier(loc.Estado, cc)

	var months []model.MonthlyTotal
	if cc != nil {
		months = cc.History
	}
	seasonal, trend := c.temporal.Analyze(months, opts.AsOf)

	band := c.lib.Band(scenarioID)
	exposure := band.SiteExposure()

	raw := base * exposure * vuln * threat * (1 - mitigation.Reduction) * regional * seasonal * trend
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		if c.strict {
			return model.RiskResult{}, fmt.Errorf("scenario %s: raw probability %v: %w",
				scenarioID, raw, model.ErrComputationOverflow)
		}
		c.logger.Error("non-finite raw probability, clamping to band minimum",
			"scenario", scenarioID, "raw", raw)
		raw = 0
	}

	pct := round(band.Clamp(raw)*100, 2)

	n := len(mitigation.Measures)
	uncertainty := 0.20 - math.Min(0.15, float64(n)/25*0.15)
	margin := pct * uncertainty * zScore95

	quality := noContextQuality
	result.DataReliability = model.ReliabilityLow
	if cc != nil {
		quality = cc.Reliability.QualityScore()
		result.DataReliability = cc.Reliability
		result.DataSource = cc.Source
		if cc.Synthetic {
			result.Degraded = true
			result.Warnings = append(result.Warnings, "synthetic crime data: "+cc.Source)
		}
	} else {
		result.Warnings = append(result.Warnings, "no crime statistics for location: static tables only")
	}

	result.Probability = pct
	result.ConfidenceInterval = model.ConfidenceInterval{
		Lower:           round(math.Max(0, pct-margin), 2),
		Upper:           round(math.Min(100, pct+margin), 2),
		ConfidenceLevel: confidenceLevel,
		Uncertainty:     round(uncertainty, 4),
	}
	result.RiskLevel = ClassifyRisk(pct)
	result.ReliabilityScore = round(0.3*math.Min(1, float64(n)/15)+0.4*quality+0.3*modelAccuracy, 3)
	result.Factors = model.ContributingFactors{
		RegionType:          regionType,
		BaseProbability:     base,
		SiteExposure:        exposure,
		VulnerabilityIndex:  round(vuln, 4),
		ThreatIndex:         round(threat, 4),
		Mitigation:          mitigation,
		RegionalMultiplier:  round(regional, 4),
		IntensityAdjustment: round(intensity, 4),
		SeasonalFactor:      seasonal,
		TrendFactor:         round(trend, 4),
		RawProbability:      raw,
		Band:                band,
		ProximityFromSurvey: result.Factors.ProximityFromSurvey,
	}
	return result, nil
}

// checkUnit enforces that a sub-score lies in [0, 1].
func (c *ScenarioRiskCalculator) checkUnit(scenarioID, name string, v float64) (float64, error) {
	if !math.IsNaN(v) && v >= 0 && v <= 1 {
		return v, nil
	}
	if c.strict {
		return 0, fmt.Errorf("scenario %s: %s=%v outside [0,1]: %w",
			scenarioID, name, v, model.ErrComputationOverflow)
	}
	c.logger.Error("sub-score out of range, clamping", "scenario", scenarioID, "factor", name, "value", v)
	if math.IsNaN(v) {
		return 0, nil
	}
	return clamp(v, 0, 1), nil
}

// ConservativeDefault is the fail-closed result for inputs the engine cannot
// classify.
func ConservativeDefault(scenarioID, warning string) model.RiskResult {
	degradedResults.WithLabelValues("conservative_default").Inc()
	return model.RiskResult{
		ScenarioID:  scenarioID,
		Label:       scenarioID,
		Probability: defaultProbability,
		ConfidenceInterval: model.ConfidenceInterval{
			Lower:           defaultLower,
			Upper:           defaultUpper,
			ConfidenceLevel: confidenceLevel,
		},
		RiskLevel:        ClassifyRisk(defaultProbability),
		ReliabilityScore: defaultReliability,
		DataReliability:  model.ReliabilityLow,
		Degraded:         true,
		Warnings:         []string{warning},
	}
}
