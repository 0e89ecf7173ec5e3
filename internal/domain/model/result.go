package model

import "time"

type RiskLevel string

const (
	RiskBajo      RiskLevel = "BAJO"
	RiskMedioBajo RiskLevel = "MEDIO-BAJO"
	RiskMedio     RiskLevel = "MEDIO"
	RiskAlto      RiskLevel = "ALTO"
	RiskCritico   RiskLevel = "CRÍTICO"
)

// ConfidenceInterval is expressed in percentage points.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Uncertainty     float64 `json:"uncertainty"`
}

type ContributingFactors struct {
	RegionType          string              `json:"region_type"`
	BaseProbability     float64             `json:"base_probability"`
	SiteExposure        float64             `json:"site_exposure"`
	VulnerabilityIndex  float64             `json:"vulnerability_index"`
	ThreatIndex         float64             `json:"threat_index"`
	Mitigation          MitigationBreakdown `json:"mitigation"`
	RegionalMultiplier  float64             `json:"regional_multiplier"`
	IntensityAdjustment float64             `json:"intensity_adjustment"`
	SeasonalFactor      float64             `json:"seasonal_factor"`
	TrendFactor         float64             `json:"trend_factor"`
	RawProbability      float64             `json:"raw_probability"`
	Band                ProbabilityBand     `json:"band"`
	ProximityFromSurvey bool                `json:"proximity_from_survey,omitempty"`
}

// RiskResult is the outcome of scoring one scenario. Probability is a
// percentage rounded to two decimals.
type RiskResult struct {
	ScenarioID         string              `json:"scenario_id"`
	Label              string              `json:"label"`
	Probability        float64             `json:"probability"`
	ConfidenceInterval ConfidenceInterval  `json:"confidence_interval"`
	RiskLevel          RiskLevel           `json:"risk_level"`
	ReliabilityScore   float64             `json:"reliability_score"`
	DataReliability    Reliability         `json:"data_reliability"`
	DataSource         string              `json:"data_source,omitempty"`
	Degraded           bool                `json:"degraded"`
	Warnings           []string            `json:"warnings,omitempty"`
	Factors            ContributingFactors `json:"contributing_factors"`
}

type ScenarioOutcome struct {
	ScenarioID string      `json:"scenario_id"`
	Result     *RiskResult `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type RiskProjection struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// AggregateResult is the composite 0-100 score built from independent sources.
type AggregateResult struct {
	FinalScore     float64            `json:"final_score"`
	RiskLevel      RiskLevel          `json:"risk_level"`
	Confidence     float64            `json:"confidence"`
	Sources        []string           `json:"sources"`
	FailedSources  map[string]string  `json:"failed_sources,omitempty"`
	Aggravating    []string           `json:"aggravating,omitempty"`
	Mitigating     []string           `json:"mitigating,omitempty"`
	BaseScore      float64            `json:"base_score"`
	Adjustments    map[string]float64 `json:"adjustments"`
	BusinessFactor float64            `json:"business_factor"`
	ValueFactor    float64            `json:"value_factor"`
	Mitigation     float64            `json:"mitigation"`
	Distribution   map[string]float64 `json:"distribution"`
	Projections    []RiskProjection   `json:"projections"`
}

type Assessment struct {
	ID           string            `json:"id"`
	Location     Location          `json:"location"`
	PerScenario  []ScenarioOutcome `json:"per_scenario"`
	Aggregate    *AggregateResult  `json:"aggregate,omitempty"`
	CrimeContext *CrimeContext     `json:"crime_context,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
}
