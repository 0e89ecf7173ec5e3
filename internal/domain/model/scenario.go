package model

// Band categories bound the annual probability of a scenario.
const (
	BandViolent  = "violent"
	BandInternal = "internal"
	BandProperty = "property"
	BandGeneral  = "general"
)

type ScenarioDefinition struct {
	ID               string  `yaml:"id" json:"id"`
	Label            string  `yaml:"label" json:"label"`
	BaseProbability  float64 `yaml:"base_probability" json:"base_probability"`
	ViolenceFactor   float64 `yaml:"violence_factor" json:"violence_factor"`
	TargetAttraction float64 `yaml:"target_attraction" json:"target_attraction"`
	Band             string  `yaml:"band" json:"band"`
	Intelligence     float64 `yaml:"intelligence" json:"intelligence"`
	Trend            float64 `yaml:"trend" json:"trend"`
}

// ProbabilityBand is a closed interval on the [0,1] probability scale.
// Exposure scales the region table rate of the category to a site-level rate;
// zero means 1.
type ProbabilityBand struct {
	Min      float64 `yaml:"min" json:"min"`
	Max      float64 `yaml:"max" json:"max"`
	Exposure float64 `yaml:"exposure,omitempty" json:"exposure,omitempty"`
}

func (b ProbabilityBand) SiteExposure() float64 {
	if b.Exposure <= 0 {
		return 1
	}
	return b.Exposure
}

func (b ProbabilityBand) Clamp(p float64) float64 {
	if p < b.Min {
		return b.Min
	}
	if p > b.Max {
		return b.Max
	}
	return p
}

func (b ProbabilityBand) Contains(p float64) bool {
	return p >= b.Min && p <= b.Max
}
