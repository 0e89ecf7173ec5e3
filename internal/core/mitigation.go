package core

import (
	"fmt"
	"math"
	"risk_service/internal/domain/model"
	"sort"
)

const (
	ModelHeuristic  = "heuristic"
	ModelScientific = "scientific"
)

// MitigationModel turns a set of measure ids into a capped reduction in
// [0, cap]. Implementations are monotone: a superset never reduces less.
type MitigationModel interface {
	Name() string
	Reduction(measureIDs []string) model.MitigationBreakdown
}

// NewMitigationModel returns the model configured by variant.
func NewMitigationModel(variant string, lib *FactorLibrary, limit float64) (MitigationModel, error) {
	if limit < 0 || limit > 1 {
		return nil, fmt.Errorf("mitigation cap %.2f out of range [0, 1]", limit)
	}
	switch variant {
	case "", ModelHeuristic:
		return &HeuristicMitigation{lib: lib, limit: limit}, nil
	case ModelScientific:
		return &ScientificMitigation{lib: lib, limit: limit}, nil
	default:
		return nil, fmt.Errorf("unknown mitigation model %q", variant)
	}
}

// resolveMeasures deduplicates ids and maps them to catalog entries. Unknown
// ids get the catalog's minimal-effectiveness placeholder.
func resolveMeasures(lib *FactorLibrary, ids []string) ([]model.SecurityMeasure, []string, []string) {
	seen := make(map[string]struct{}, len(ids))
	var (
		measures []model.SecurityMeasure
		known    []string
		unknown  []string
	)
	for _, raw := range ids {
		id := normalizeID(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		m, ok := lib.Measure(id)
		if !ok {
			m = lib.Catalog().UnknownMeasure
			m.ID = id
			m.Category = ""
			unknown = append(unknown, id)
		}
		known = append(known, id)
		measures = append(measures, m)
	}
	sort.Strings(known)
	sort.Strings(unknown)
	return measures, known, unknown
}

// HeuristicMitigation sums effectiveness and applies a synergy bonus for
// layered defenses.
type HeuristicMitigation struct {
	lib   *FactorLibrary
	limit float64
}

func (h *HeuristicMitigation) Name() string { return ModelHeuristic }

func (h *HeuristicMitigation) Reduction(measureIDs []string) model.MitigationBreakdown {
	measures, ids, unknown := resolveMeasures(h.lib, measureIDs)
	out := model.MitigationBreakdown{
		Model:           ModelHeuristic,
		Cap:             h.limit,
		Synergy:         1.0,
		Measures:        ids,
		UnknownMeasures: unknown,
	}
	if len(measures) == 0 {
		out.Measures = []string{}
		return out
	}

	var total float64
	layers := make(map[string]struct{})
	for _, m := range measures {
		total += m.Effectiveness
		if m.Category != "" {
			layers[m.Category] = struct{}{}
		}
	}
	for _, l := range model.DefenseLayers {
		if _, ok := layers[l]; ok {
			out.Layers = append(out.Layers, l)
		}
	}

	switch {
	case len(out.Layers) >= 4:
		out.Synergy = 1.25
	case len(out.Layers) >= 3:
		out.Synergy = 1.15
	case len(measures) >= 5:
		out.Synergy = 1.08
	}

	out.Uncapped = total * out.Synergy
	out.Reduction = math.Min(h.limit, out.Uncapped)
	return out
}

// ScientificMitigation ranks measures by effectiveness times confidence and
// weights the k-th best by the logarithmic increment ln(1+k)-ln(k), so each
// additional measure adds less than the previous one.
type ScientificMitigation struct {
	lib   *FactorLibrary
	limit float64
}

func (s *ScientificMitigation) Name() string { return ModelScientific }

func (s *ScientificMitigation) Reduction(measureIDs []string) model.MitigationBreakdown {
	measures, ids, unknown := resolveMeasures(s.lib, measureIDs)
	out := model.MitigationBreakdown{
		Model:           ModelScientific,
		Cap:             s.limit,
		Measures:        ids,
		UnknownMeasures: unknown,
	}
	if len(measures) == 0 {
		out.Measures = []string{}
		return out
	}

	scores := make([]float64, len(measures))
	for i, m := range measures {
		scores[i] = m.Effectiveness * m.Confidence
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	norm := math.Log(11)
	for i, e := range scores {
		k := float64(i + 1)
		out.Uncapped += e * (math.Log(1+k) - math.Log(k)) / norm
	}
	out.Reduction = math.Min(s.limit, out.Uncapped)
	return out
}
