package core

import (
	"context"
	"fmt"
	"risk_service/internal/domain/model"
	"strings"
)

// Rule thresholds, on the 0-100 aggregate scale.
const (
	federalHighIncidents   = 1000
	federalMediumIncidents = 500
	lowResolutionRate      = 30
	mediumResolutionRate   = 50
	maxListedRiskAreas     = 2
)

type ProsecutorClient interface {
	ProsecutorStats(ctx context.Context, loc model.Location) (model.ProsecutorStats, error)
}

type SocioeconomicClient interface {
	SocioeconomicContext(ctx context.Context, loc model.Location) (model.SocioeconomicContext, error)
}

type CivilSocietyClient interface {
	CivilSocietySummary(ctx context.Context, loc model.Location) (model.CivilSocietySummary, error)
}

// FederalSource reports on the 12-month incident volume from the crime table.
type FederalSource struct {
	crime model.CrimeDataSource
}

func NewFederalSource(crime model.CrimeDataSource) *FederalSource {
	return &FederalSource{crime: crime}
}

func (s *FederalSource) ID() string { return model.SourceFederal }

func (s *FederalSource) Fetch(ctx context.Context, loc model.Location) (model.SourceReport, error) {
	cc, err := s.crime.Lookup(ctx, loc.Municipio, loc.Estado)
	if err != nil {
		return model.SourceReport{}, fmt.Errorf("failed to get federal statistics: %w", err)
	}
	return AnalyzeFederal(cc), nil
}

// AnalyzeFederal sums the available history; a context without history
// counts its latest month only.
func AnalyzeFederal(cc model.CrimeContext) model.SourceReport {
	total := cc.TotalIncidents
	if len(cc.History) > 0 {
		total = 0
		for _, m := range cc.History {
			total += m.Total
		}
	}

	report := model.SourceReport{SourceID: model.SourceFederal}
	switch {
	case total > federalHighIncidents:
		report.Adjustment = 15
		report.Aggravating = append(report.Aggravating, fmt.Sprintf("Alta incidencia delictiva: %.0f delitos en 12 meses", total))
	case total > federalMediumIncidents:
		report.Adjustment = 8
		report.Aggravating = append(report.Aggravating, fmt.Sprintf("Incidencia delictiva moderada: %.0f delitos en 12 meses", total))
	default:
		report.Adjustment = -3
		report.Mitigating = append(report.Mitigating, fmt.Sprintf("Baja incidencia delictiva: %.0f delitos en 12 meses", total))
	}
	return report
}

type ProsecutorSource struct {
	client ProsecutorClient
}

func NewProsecutorSource(client ProsecutorClient) *ProsecutorSource {
	return &ProsecutorSource{client: client}
}

func (s *ProsecutorSource) ID() string { return model.SourceProsecutor }

func (s *ProsecutorSource) Fetch(ctx context.Context, loc model.Location) (model.SourceReport, error) {
	stats, err := s.client.ProsecutorStats(ctx, loc)
	if err != nil {
		return model.SourceReport{}, fmt.Errorf("failed to get prosecutor statistics: %w", err)
	}
	return AnalyzeProsecutor(stats), nil
}

func AnalyzeProsecutor(stats model.ProsecutorStats) model.SourceReport {
	report := model.SourceReport{SourceID: model.SourceProsecutor}
	switch {
	case stats.ResolutionRate < lowResolutionRate:
		report.Adjustment = 10
		report.Aggravating = append(report.Aggravating, fmt.Sprintf("Baja tasa de resolución de casos: %.1f%%", stats.ResolutionRate))
	case stats.ResolutionRate < mediumResolutionRate:
		report.Adjustment = 5
		report.Aggravating = append(report.Aggravating, fmt.Sprintf("Tasa de resolución moderada: %.1f%%", stats.ResolutionRate))
	}
	return report
}

type SocioeconomicSource struct {
	client SocioeconomicClient
}

func NewSocioeconomicSource(client SocioeconomicClient) *SocioeconomicSource {
	return &SocioeconomicSource{client: client}
}

func (s *SocioeconomicSource) ID() string { return model.SourceSocioeconomic }

func (s *SocioeconomicSource) Fetch(ctx context.Context, loc model.Location) (model.SourceReport, error) {
	sc, err := s.client.SocioeconomicContext(ctx, loc)
	if err != nil {
		return model.SourceReport{}, fmt.Errorf("failed to get socioeconomic context: %w", err)
	}
	return AnalyzeSocioeconomic(sc), nil
}

func AnalyzeSocioeconomic(sc model.SocioeconomicContext) model.SourceReport {
	report := model.SourceReport{SourceID: model.SourceSocioeconomic}

	switch model.NormalizeName(sc.EconomicVulnerability) {
	case "ALTA":
		report.Adjustment += 8
		report.Aggravating = append(report.Aggravating, "Alta vulnerabilidad económica en la zona")
	case "BAJA":
		report.Adjustment -= 4
		report.Mitigating = append(report.Mitigating, "Baja vulnerabilidad económica")
	}

	switch model.NormalizeName(sc.DevelopmentLevel) {
	case "ALTO":
		report.Adjustment -= 6
		report.Mitigating = append(report.Mitigating, "Alto nivel de desarrollo socioeconómico")
	case "BAJO":
		report.Adjustment += 6
		report.Aggravating = append(report.Aggravating, "Bajo nivel de desarrollo socioeconómico")
	}
	return report
}

type CivilSocietySource struct {
	client CivilSocietyClient
}

func NewCivilSocietySource(client CivilSocietyClient) *CivilSocietySource {
	return &CivilSocietySource{client: client}
}

func (s *CivilSocietySource) ID() string { return model.SourceCivilSociety }

func (s *CivilSocietySource) Fetch(ctx context.Context, loc model.Location) (model.SourceReport, error) {
	summary, err := s.client.CivilSocietySummary(ctx, loc)
	if err != nil {
		return model.SourceReport{}, fmt.Errorf("failed to get civil society summary: %w", err)
	}
	return AnalyzeCivilSociety(summary), nil
}

func AnalyzeCivilSociety(summary model.CivilSocietySummary) model.SourceReport {
	report := model.SourceReport{SourceID: model.SourceCivilSociety}
	if model.NormalizeName(summary.SecurityPerception) == "BAJA" {
		report.Adjustment += 5
		report.Aggravating = append(report.Aggravating, "Percepción de seguridad baja según ONGs")
	}
	if n := len(summary.RiskAreas); n > maxListedRiskAreas {
		report.Adjustment += 3 * float64(n)
		report.Aggravating = append(report.Aggravating,
			fmt.Sprintf("Zonas de riesgo identificadas: %s", strings.Join(summary.RiskAreas, ", ")))
	}
	return report
}

// ScenarioAdjustment is the local contribution of the requested scenarios. It
// is merged like a source but never counts towards confidence.
func ScenarioAdjustment(defs []model.ScenarioDefinition) model.SourceReport {
	report := model.SourceReport{SourceID: scenarioAdjustmentID}
	if len(defs) == 0 {
		return report
	}
	var violence, attraction float64
	for _, d := range defs {
		violence += d.ViolenceFactor
		attraction += d.TargetAttraction
	}
	n := float64(len(defs))
	report.Adjustment = violence/n*10 + (attraction/n-1)*10
	if report.Adjustment > 0 {
		report.Aggravating = append(report.Aggravating, "Escenarios seleccionados con alto nivel de violencia o atractivo")
	}
	return report
}
