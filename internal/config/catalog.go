package config

import (
	_ "embed"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"risk_service/internal/domain/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// LoadCatalog reads the catalog at path, or the embedded default when path is
// empty. The result is validated and must be treated as read-only.
func LoadCatalog(path string) (*model.Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
		data = raw
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*model.Catalog, error) {
	var c model.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := ValidateCatalog(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

// ValidateCatalog checks identifiers and calibrated ranges. All problems are
// reported together.
func ValidateCatalog(c *model.Catalog) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, ok := c.Regions[c.DefaultRegionType]; !ok {
		add("default_region_type %q has no region profile", c.DefaultRegionType)
	}
	if !inUnit(c.UnknownScenarioBase) || c.UnknownScenarioBase == 0 {
		add("unknown_scenario_base must be in (0,1]")
	}

	for name, b := range c.Bands {
		if !inUnit(b.Min) || !inUnit(b.Max) || b.Min > b.Max {
			add("band %s: invalid interval [%v, %v]", name, b.Min, b.Max)
		}
		if b.Exposure < 0 {
			add("band %s: exposure must not be negative", name)
		}
	}
	if _, ok := c.Bands[model.BandGeneral]; !ok {
		add("band %s is required", model.BandGeneral)
	}

	seen := make(map[string]bool)
	for _, s := range c.Scenarios {
		switch {
		case s.ID == "":
			add("scenario without id")
		case seen[s.ID]:
			add("duplicate scenario id %q", s.ID)
		}
		seen[s.ID] = true
		if !inUnit(s.BaseProbability) {
			add("scenario %s: base_probability out of [0,1]", s.ID)
		}
		if !inUnit(s.ViolenceFactor) || s.TargetAttraction < 0 {
			add("scenario %s: invalid violence/attraction factors", s.ID)
		}
		if !inUnit(s.Intelligence) || !inUnit(s.Trend) {
			add("scenario %s: intelligence and trend must be in [0,1]", s.ID)
		}
		if _, ok := c.Bands[s.Band]; !ok {
			add("scenario %s: unknown band %q", s.ID, s.Band)
		}
	}

	layers := make(map[string]bool)
	for _, l := range model.DefenseLayers {
		layers[l] = true
	}
	seenMeasures := make(map[string]bool)
	measures := make([]model.SecurityMeasure, 0, len(c.Measures)+1)
	measures = append(measures, c.Measures...)
	measures = append(measures, c.UnknownMeasure)
	for _, m := range measures {
		if m.ID == "" {
			add("measure without id")
		} else if seenMeasures[m.ID] {
			add("duplicate measure id %q", m.ID)
		}
		seenMeasures[m.ID] = true
		if !inUnit(m.Effectiveness) || !inUnit(m.Confidence) {
			add("measure %s: effectiveness and confidence must be in [0,1]", m.ID)
		}
		if m.Category != "" && !layers[m.Category] {
			add("measure %s: unknown category %q", m.ID, m.Category)
		}
	}

	for name, r := range c.Regions {
		for label, v := range map[string]float64{
			"perimeter":    r.Perimeter,
			"lighting":     r.Lighting,
			"surveillance": r.Surveillance,
			"access":       r.Access,
			"proximity":    r.Proximity,
		} {
			if !inUnit(v) {
				add("region %s: %s out of [0,1]", name, label)
			}
		}
		for id, v := range r.Base {
			if !inUnit(v) {
				add("region %s: base probability for %s out of [0,1]", name, id)
			}
		}
		for id, v := range r.History {
			if !inUnit(v) {
				add("region %s: history score for %s out of [0,1]", name, id)
			}
		}
		for _, sc := range c.Scenarios {
			if _, ok := r.Base[sc.ID]; !ok {
				add("region %s: no base probability for %s", name, sc.ID)
			}
			if _, ok := r.History[sc.ID]; !ok {
				add("region %s: no history score for %s", name, sc.ID)
			}
		}
	}

	if c.NationalMultiplier <= 0 {
		add("national_multiplier must be positive")
	}
	for state, v := range c.RegionalMultipliers {
		if v <= 0 {
			add("regional multiplier for %s must be positive", state)
		}
	}
	for month, v := range c.Seasonal {
		if month < 1 || month > 12 || v <= 0 {
			add("seasonal factor for month %d is invalid", month)
		}
	}
	if len(c.StateAliases) == 0 {
		add("state_aliases must list at least one state")
	}
	for _, t := range c.Business.ValueTiers {
		if t.Factor <= 0 {
			add("value tier above %v has non-positive factor", t.Above)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}
