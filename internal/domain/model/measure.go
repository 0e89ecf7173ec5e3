package model

// Defense layers used by the synergy bonus.
const (
	LayerPerimeter  = "perimeter"
	LayerAccess     = "access"
	LayerDetection  = "detection"
	LayerResponse   = "response"
	LayerDeterrence = "deterrence"
)

var DefenseLayers = []string{LayerPerimeter, LayerAccess, LayerDetection, LayerResponse, LayerDeterrence}

// SecurityMeasure is a catalog entry. Category is empty for measures that do not
// belong to any defense layer.
type SecurityMeasure struct {
	ID            string  `yaml:"id" json:"id"`
	Label         string  `yaml:"label" json:"label"`
	Effectiveness float64 `yaml:"effectiveness" json:"effectiveness"`
	Confidence    float64 `yaml:"confidence" json:"confidence"`
	Category      string  `yaml:"category,omitempty" json:"category,omitempty"`
}

// MitigationBreakdown explains how a reduction was reached.
type MitigationBreakdown struct {
	Model           string   `json:"model"`
	Reduction       float64  `json:"reduction"`
	Uncapped        float64  `json:"uncapped"`
	Cap             float64  `json:"cap"`
	Synergy         float64  `json:"synergy,omitempty"`
	Layers          []string `json:"layers,omitempty"`
	Measures        []string `json:"measures"`
	UnknownMeasures []string `json:"unknown_measures,omitempty"`
}
