package core

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"math/rand"
	"risk_service/internal/domain/model"
	"time"
)

const syntheticSource = "Sintético - perfil regional"

// ProfileGenerator builds deterministic synthetic crime contexts from the
// catalog's regional profiles. Only used when the fallback policy allows it.
type ProfileGenerator struct {
	lib *FactorLibrary
	now func() time.Time
}

func NewProfileGenerator(lib *FactorLibrary) *ProfileGenerator {
	return &ProfileGenerator{lib: lib, now: time.Now}
}

// Generate returns the same figures for the same location on every call. A
// cause of ErrDataSourceUnavailable yields LOW reliability, anything else MEDIUM.
func (g *ProfileGenerator) Generate(loc model.Location, cause error) model.CrimeContext {
	municipio := model.NormalizeName(loc.Municipio)
	estado, ok := g.lib.States().Resolve(loc.Estado)
	if !ok {
		estado = model.NormalizeName(loc.Estado)
	}

	sum := md5.Sum([]byte(municipio + "-" + estado))
	seed := binary.BigEndian.Uint32(sum[:4])
	r := rand.New(rand.NewSource(int64(seed)))
	variation := 0.8 + r.Float64()*0.4

	p := g.lib.SyntheticProfile(estado)
	robbery := p.Robbery * variation
	homicide := p.Homicide * variation
	extortion := p.Extortion * variation

	reliability := model.ReliabilityMedium
	if errors.Is(cause, model.ErrDataSourceUnavailable) {
		reliability = model.ReliabilityLow
	}

	now := g.now()
	degradedResults.WithLabelValues("synthetic_context").Inc()
	return model.CrimeContext{
		Municipio: loc.Municipio,
		Estado:    loc.Estado,
		Year:      now.Year(),
		Month:     int(now.Month()),
		Counts: model.CrimeCounts{
			RoboComun:        robbery * 0.60,
			RoboNegocio:      robbery * 0.25,
			RoboVehiculo:     robbery * 0.15,
			HomicidioDoloso:  homicide * 0.70,
			HomicidioCulposo: homicide * 0.30,
			Extorsion:        extortion,
		},
		TotalIncidents: p.BaseRisk * 10 * variation,
		Percentages: model.CrimePercentages{
			Robbery:   robbery,
			Homicide:  homicide,
			Extortion: extortion,
		},
		Source:      syntheticSource,
		Reliability: reliability,
		AsOf:        now,
		Synthetic:   true,
	}
}
