package model

import "context"

// Identifiers of the independent sources merged by the aggregator.
const (
	SourceFederal       = "sesnsp_federal"
	SourceProsecutor    = "fiscalia_estatal"
	SourceSocioeconomic = "inegi_socioeconomico"
	SourceCivilSociety  = "ong_seguridad"
)

// SourceReport is the analysed contribution of one source, on the 0-100 scale.
type SourceReport struct {
	SourceID    string   `json:"source_id"`
	Adjustment  float64  `json:"adjustment"`
	Aggravating []string `json:"aggravating,omitempty"`
	Mitigating  []string `json:"mitigating,omitempty"`
}

// SourceFetcher queries one external source and analyses its payload.
type SourceFetcher interface {
	ID() string
	Fetch(ctx context.Context, loc Location) (SourceReport, error)
}

// CrimeDataSource is the read-only accessor over monthly crime statistics.
type CrimeDataSource interface {
	Lookup(ctx context.Context, municipio, estado string) (CrimeContext, error)
}

// DegradedGenerator produces clearly tagged synthetic contexts when real data
// is missing and the deployment allows it.
type DegradedGenerator interface {
	Generate(loc Location, cause error) CrimeContext
}

type BusinessProfile struct {
	Type           string   `json:"type"`
	InventoryValue float64  `json:"inventory_value"`
	Measures       []string `json:"measures"`
}

type ProsecutorStats struct {
	Estado         string  `json:"estado"`
	Municipio      string  `json:"municipio"`
	ResolutionRate float64 `json:"tasa_resolucion"`
	OpenCases      int     `json:"carpetas_abiertas"`
}

type SocioeconomicContext struct {
	Municipio             string  `json:"municipio"`
	EconomicVulnerability string  `json:"vulnerabilidad_economica"`
	DevelopmentLevel      string  `json:"nivel_desarrollo"`
	UnemploymentRate      float64 `json:"tasa_desempleo"`
}

type CivilSocietySummary struct {
	SecurityPerception string   `json:"percepcion_seguridad"`
	RiskAreas          []string `json:"areas_riesgo_identificadas"`
}

// RiskRequest is the input of a full assessment.
type RiskRequest struct {
	Location  Location         `json:"location"`
	Scenarios []string         `json:"scenarios"`
	Measures  []string         `json:"measures"`
	Aggregate bool             `json:"aggregate"`
	Business  *BusinessProfile `json:"business,omitempty"`
}
