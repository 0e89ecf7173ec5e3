package core

import (
	"context"
	"errors"
	"fmt"
	"risk_service/internal/domain/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSurveyor struct {
	survey model.SiteSurvey
	err    error
}

func (s stubSurveyor) Survey(ctx context.Context, c model.Coordinates) (model.SiteSurvey, error) {
	return s.survey, s.err
}

func newTestService(t *testing.T, crime model.CrimeDataSource, opts ...ServiceOption) *RiskService {
	t.Helper()
	lib := testLibrary(t)
	scenarioModel, err := NewMitigationModel(ModelHeuristic, lib, 0.75)
	require.NoError(t, err)
	aggregateModel, err := NewMitigationModel(ModelHeuristic, lib, 0.50)
	require.NoError(t, err)

	calc := NewScenarioRiskCalculator(lib, scenarioModel, true, discardLogger())
	agg := NewIntegratedRiskAggregator(lib, aggregateModel, time.Second, discardLogger())
	opts = append([]ServiceOption{
		WithLogger(discardLogger()),
		WithClock(func() time.Time { return march }),
	}, opts...)
	return NewRiskService(lib, crime, calc, agg, opts...)
}

func realContext() model.CrimeContext {
	return model.CrimeContext{
		Municipio:      "Monterrey",
		Estado:         "Nuevo León",
		Source:         "SESNSP",
		Reliability:    model.ReliabilityHigh,
		TotalIncidents: 120,
		Percentages:    model.CrimePercentages{Robbery: 55, Homicide: 8, Extortion: 6},
		History:        months(110, 115, 120),
	}
}

func TestCalculateRisk_PerScenario(t *testing.T) {
	svc := newTestService(t, &stubCrimeSource{cc: realContext()})

	a, err := svc.CalculateRisk(context.Background(), model.RiskRequest{
		Location:  monterrey,
		Scenarios: []string{"robo_transito", "intrusion_armada", "robo_transito", "robo_de_identidad"},
		Measures:  []string{"camaras", "guardias"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, march, a.GeneratedAt)
	require.Len(t, a.PerScenario, 3)
	for _, o := range a.PerScenario {
		require.NotNil(t, o.Result, o.ScenarioID)
		assert.Empty(t, o.Error)
		assert.Equal(t, model.ReliabilityHigh, o.Result.DataReliability)
	}
	assert.Equal(t, "robo_de_identidad", a.PerScenario[2].ScenarioID)
	assert.NotEmpty(t, a.PerScenario[2].Result.Warnings)
	assert.Nil(t, a.Aggregate)
	require.NotNil(t, a.CrimeContext)
	assert.False(t, a.CrimeContext.Synthetic)
}

func TestCalculateRisk_ScenarioIDsFoldLikeMeasures(t *testing.T) {
	svc := newTestService(t, &stubCrimeSource{cc: realContext()})

	a, err := svc.CalculateRisk(context.Background(), model.RiskRequest{
		Location:  monterrey,
		Scenarios: []string{" Robo_Transito", "robo_transito", "VANDALISMO"},
		Measures:  []string{"Camaras"},
	})
	require.NoError(t, err)

	require.Len(t, a.PerScenario, 2)
	assert.Equal(t, "robo_transito", a.PerScenario[0].ScenarioID)
	assert.Equal(t, "vandalismo", a.PerScenario[1].ScenarioID)
	for _, o := range a.PerScenario {
		require.NotNil(t, o.Result)
		assert.Empty(t, o.Result.Warnings, o.ScenarioID)
		assert.Equal(t, []string{"camaras"}, o.Result.Factors.Mitigation.Measures)
	}
}

func TestCalculateRisk_InvalidRequest(t *testing.T) {
	svc := newTestService(t, &stubCrimeSource{cc: realContext()})

	_, err := svc.CalculateRisk(context.Background(), model.RiskRequest{Location: monterrey})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = svc.CalculateRisk(context.Background(), model.RiskRequest{
		Location:  model.Location{Estado: "Jalisco"},
		Scenarios: []string{"vandalismo"},
	})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestCalculateRisk_LocationNotResolved(t *testing.T) {
	src := &stubCrimeSource{err: fmt.Errorf("%w: unknown estado", model.ErrLocationNotResolved)}
	svc := newTestService(t, src, WithDegradedMode(NewProfileGenerator(testLibrary(t)), FallbackPolicy{OnNotFound: true, OnUnavailable: true}))

	_, err := svc.CalculateRisk(context.Background(), model.RiskRequest{
		Location:  model.Location{Municipio: "Springfield", Estado: "Ohio"},
		Scenarios: []string{"vandalismo"},
	})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestCalculateRisk_FallbackPolicy(t *testing.T) {
	req := model.RiskRequest{Location: monterrey, Scenarios: []string{"robo_transito"}}
	gen := NewProfileGenerator(testLibrary(t))

	t.Run("unavailable without fallback propagates", func(t *testing.T) {
		svc := newTestService(t, &stubCrimeSource{err: model.ErrDataSourceUnavailable})
		_, err := svc.CalculateRisk(context.Background(), req)
		assert.True(t, model.IsRetryable(err))
	})

	t.Run("unavailable with fallback is synthetic and low", func(t *testing.T) {
		svc := newTestService(t, &stubCrimeSource{err: model.ErrDataSourceUnavailable},
			WithDegradedMode(gen, FallbackPolicy{OnUnavailable: true}))
		a, err := svc.CalculateRisk(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, a.CrimeContext)
		assert.True(t, a.CrimeContext.Synthetic)
		r := a.PerScenario[0].Result
		assert.True(t, r.Degraded)
		assert.Equal(t, model.ReliabilityLow, r.DataReliability)
		assert.NotEmpty(t, a.Warnings)
	})

	t.Run("not found without fallback scores on static tables", func(t *testing.T) {
		svc := newTestService(t, &stubCrimeSource{err: model.ErrNotFound})
		a, err := svc.CalculateRisk(context.Background(), req)
		require.NoError(t, err)
		assert.Nil(t, a.CrimeContext)
		r := a.PerScenario[0].Result
		assert.Equal(t, model.ReliabilityLow, r.DataReliability)
		assert.False(t, r.Degraded)
	})

	t.Run("not found with fallback is synthetic and medium", func(t *testing.T) {
		svc := newTestService(t, &stubCrimeSource{err: model.ErrNotFound},
			WithDegradedMode(gen, FallbackPolicy{OnNotFound: true}))
		a, err := svc.CalculateRisk(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, model.ReliabilityMedium, a.PerScenario[0].Result.DataReliability)
	})
}

func TestCalculateRisk_ScenarioErrorsDoNotAbortBatch(t *testing.T) {
	lib := testLibrary(t)
	profile := lib.Catalog().Regions[model.RegionIndustrialMetro]
	profile.History["vandalismo"] = 3.0
	lib.Catalog().Regions[model.RegionIndustrialMetro] = profile

	scenarioModel, err := NewMitigationModel(ModelHeuristic, lib, 0.75)
	require.NoError(t, err)
	calc := NewScenarioRiskCalculator(lib, scenarioModel, true, discardLogger())
	svc := NewRiskService(lib, &stubCrimeSource{cc: realContext()}, calc, nil, WithLogger(discardLogger()))

	a, err := svc.CalculateRisk(context.Background(), model.RiskRequest{
		Location:  monterrey,
		Scenarios: []string{"vandalismo", "robo_interno"},
	})
	require.NoError(t, err)
	require.Len(t, a.PerScenario, 2)
	assert.Nil(t, a.PerScenario[0].Result)
	assert.Contains(t, a.PerScenario[0].Error, "computation out of range")
	assert.NotNil(t, a.PerScenario[1].Result)
}

func TestCalculateRisk_Aggregate(t *testing.T) {
	crime := &stubCrimeSource{cc: realContext()}
	svc := newTestService(t, crime, WithSourceFetchers(
		NewFederalSource(crime),
		stubFetcher{id: model.SourceProsecutor, report: model.SourceReport{Adjustment: 10}},
		stubFetcher{id: model.SourceCivilSociety, err: errors.New("503")},
	))

	a, err := svc.CalculateRisk(context.Background(), model.RiskRequest{
		Location:  monterrey,
		Scenarios: []string{"robo_transito"},
		Aggregate: true,
		Business:  &model.BusinessProfile{Type: "Almacén", InventoryValue: 800_000},
	})
	require.NoError(t, err)
	require.NotNil(t, a.Aggregate)

	agg := a.Aggregate
	assert.Equal(t, []string{model.SourceProsecutor, model.SourceFederal}, agg.Sources)
	assert.Contains(t, agg.FailedSources, model.SourceCivilSociety)
	assert.Equal(t, 0.70, agg.Confidence)
	// history 345 -> -3; prosecutor +10; scenario 0.4*10 + 0.5*10 = +9
	assert.InDelta(t, 9.0, agg.Adjustments[scenarioAdjustmentID], 1e-9)
	assert.InDelta(t, (50-3+10+9)*1.0*1.1, agg.FinalScore, 0.01)
}

func TestCalculateRisk_SiteSurvey(t *testing.T) {
	loc := monterrey
	loc.Coordinates = &model.Coordinates{Lat: 25.67, Lon: -100.31}
	req := model.RiskRequest{Location: loc, Scenarios: []string{"robo_transito"}}

	svc := newTestService(t, &stubCrimeSource{cc: realContext()},
		WithSiteSurveyor(stubSurveyor{survey: model.SiteSurvey{PoliceStations: 2}}))
	a, err := svc.CalculateRisk(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, a.PerScenario[0].Result.Factors.ProximityFromSurvey)

	svc = newTestService(t, &stubCrimeSource{cc: realContext()},
		WithSiteSurveyor(stubSurveyor{err: errors.New("overpass: 429")}))
	a, err = svc.CalculateRisk(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, a.PerScenario[0].Result.Factors.ProximityFromSurvey)
	assert.NotEmpty(t, a.Warnings)
}
