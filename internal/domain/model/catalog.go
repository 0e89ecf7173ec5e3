package model

// Catalog holds every calibrated constant used by the scoring pipeline. It is
// loaded once at startup and never mutated afterwards.
type Catalog struct {
	Version             string                      `yaml:"version"`
	DefaultRegionType   string                      `yaml:"default_region_type"`
	UnknownScenarioBase float64                     `yaml:"unknown_scenario_base"`
	Scenarios           []ScenarioDefinition        `yaml:"scenarios"`
	Measures            []SecurityMeasure           `yaml:"measures"`
	UnknownMeasure      SecurityMeasure             `yaml:"unknown_measure"`
	Bands               map[string]ProbabilityBand  `yaml:"bands"`
	Regions             map[string]RegionProfile    `yaml:"regions"`
	Access              AccessTable                 `yaml:"access"`
	RegionalMultipliers map[string]float64          `yaml:"regional_multipliers"`
	NationalMultiplier  float64                     `yaml:"national_multiplier"`
	Seasonal            map[int]float64             `yaml:"seasonal"`
	StateAliases        map[string][]string         `yaml:"state_aliases"`
	Synthetic           map[string]SyntheticProfile `yaml:"synthetic_profiles"`
	SyntheticDefault    SyntheticProfile            `yaml:"synthetic_default"`
	Business            BusinessFactors             `yaml:"business"`
}

// RegionProfile carries the per-region-type sub-scores and tables.
type RegionProfile struct {
	Label        string             `yaml:"label"`
	Perimeter    float64            `yaml:"perimeter"`
	Lighting     float64            `yaml:"lighting"`
	Surveillance float64            `yaml:"surveillance"`
	Access       float64            `yaml:"access"`
	Proximity    float64            `yaml:"proximity"`
	Base         map[string]float64 `yaml:"base"`
	History      map[string]float64 `yaml:"history"`
}

// AccessTable resolves transport-connectivity exposure by municipio, then by
// estado. Keys are normalized names.
type AccessTable struct {
	Municipios map[string]float64 `yaml:"municipios"`
	Estados    map[string]float64 `yaml:"estados"`
	Default    float64            `yaml:"default"`
}

type SyntheticProfile struct {
	BaseRisk  float64 `yaml:"base_risk"`
	Robbery   float64 `yaml:"robbery"`
	Homicide  float64 `yaml:"homicide"`
	Extortion float64 `yaml:"extortion"`
}

type ValueTier struct {
	Above  float64 `yaml:"above"`
	Factor float64 `yaml:"factor"`
}

type BusinessFactors struct {
	Types        map[string]float64 `yaml:"types"`
	ValueTiers   []ValueTier        `yaml:"value_tiers"`
	Distribution map[string]float64 `yaml:"distribution"`
}
