package model

import (
	"strings"
	"time"
)

type Reliability string

const (
	ReliabilityHigh   Reliability = "HIGH"
	ReliabilityMedium Reliability = "MEDIUM"
	ReliabilityLow    Reliability = "LOW"
)

// CrimeRecord is one monthly row of the crime_data table.
type CrimeRecord struct {
	Estado             string    `db:"estado"`
	Municipio          string    `db:"municipio"`
	Year               int       `db:"year"`
	Month              int       `db:"month"`
	RoboComun          float64   `db:"robo_comun"`
	RoboNegocio        float64   `db:"robo_negocio"`
	RoboVehiculo       float64   `db:"robo_vehiculo"`
	RoboCasaHabitacion float64   `db:"robo_casa_habitacion"`
	Lesiones           float64   `db:"lesiones"`
	HomicidioDoloso    float64   `db:"homicidio_doloso"`
	HomicidioCulposo   float64   `db:"homicidio_culposo"`
	Extorsion          float64   `db:"extorsion"`
	Secuestro          float64   `db:"secuestro"`
	TotalDelitos       float64   `db:"total_delitos"`
	Fuente             string    `db:"fuente"`
	Confiabilidad      string    `db:"confiabilidad"`
	FechaActualizacion time.Time `db:"fecha_actualizacion"`
}

type CrimeCounts struct {
	RoboComun          float64 `json:"robo_comun"`
	RoboNegocio        float64 `json:"robo_negocio"`
	RoboVehiculo       float64 `json:"robo_vehiculo"`
	RoboCasaHabitacion float64 `json:"robo_casa_habitacion"`
	Lesiones           float64 `json:"lesiones"`
	HomicidioDoloso    float64 `json:"homicidio_doloso"`
	HomicidioCulposo   float64 `json:"homicidio_culposo"`
	Extorsion          float64 `json:"extorsion"`
	Secuestro          float64 `json:"secuestro"`
}

// CrimePercentages are shares of the total, on a 0-100 scale.
type CrimePercentages struct {
	Robbery   float64 `json:"robo"`
	Homicide  float64 `json:"homicidio"`
	Extortion float64 `json:"extorsion"`
}

type MonthlyTotal struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
}

// CrimeContext is a read-only snapshot of the crime situation at a location.
// History holds up to a year of monthly totals, oldest first.
type CrimeContext struct {
	Municipio      string           `json:"municipio"`
	Estado         string           `json:"estado"`
	Year           int              `json:"year"`
	Month          int              `json:"month"`
	Counts         CrimeCounts      `json:"counts"`
	TotalIncidents float64          `json:"total_incidents"`
	Percentages    CrimePercentages `json:"percentages"`
	Source         string           `json:"source"`
	Reliability    Reliability      `json:"reliability"`
	AsOf           time.Time        `json:"as_of"`
	History        []MonthlyTotal   `json:"history,omitempty"`
	Synthetic      bool             `json:"synthetic"`
}

// ContextFromRecords builds a context from rows ordered most recent first.
func ContextFromRecords(records []CrimeRecord) CrimeContext {
	latest := records[0]
	counts := CrimeCounts{
		RoboComun:          latest.RoboComun,
		RoboNegocio:        latest.RoboNegocio,
		RoboVehiculo:       latest.RoboVehiculo,
		RoboCasaHabitacion: latest.RoboCasaHabitacion,
		Lesiones:           latest.Lesiones,
		HomicidioDoloso:    latest.HomicidioDoloso,
		HomicidioCulposo:   latest.HomicidioCulposo,
		Extorsion:          latest.Extorsion,
		Secuestro:          latest.Secuestro,
	}

	cc := CrimeContext{
		Municipio:      latest.Municipio,
		Estado:         latest.Estado,
		Year:           latest.Year,
		Month:          latest.Month,
		Counts:         counts,
		TotalIncidents: latest.TotalDelitos,
		Percentages:    counts.Percentages(latest.TotalDelitos),
		Source:         latest.Fuente,
		Reliability:    ParseReliability(latest.Confiabilidad),
		AsOf:           latest.FechaActualizacion,
	}

	for i := len(records) - 1; i >= 0; i-- {
		cc.History = append(cc.History, MonthlyTotal{
			Year:  records[i].Year,
			Month: records[i].Month,
			Total: records[i].TotalDelitos,
		})
	}
	return cc
}

func (c CrimeCounts) Percentages(total float64) CrimePercentages {
	if total <= 0 {
		return CrimePercentages{}
	}
	robbery := c.RoboComun + c.RoboNegocio + c.RoboVehiculo
	homicide := c.HomicidioDoloso + c.HomicidioCulposo
	return CrimePercentages{
		Robbery:   robbery / total * 100,
		Homicide:  homicide / total * 100,
		Extortion: c.Extorsion / total * 100,
	}
}

// ParseReliability maps the free-text confiabilidad column. Unrecognised values
// are treated as MEDIUM.
func ParseReliability(s string) Reliability {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH", "ALTA":
		return ReliabilityHigh
	case "LOW", "BAJA":
		return ReliabilityLow
	default:
		return ReliabilityMedium
	}
}

// QualityScore is the data-quality term of the reliability score.
func (r Reliability) QualityScore() float64 {
	switch r {
	case ReliabilityHigh:
		return 0.85
	case ReliabilityMedium:
		return 0.60
	case ReliabilityLow:
		return 0.40
	default:
		return 0.50
	}
}
