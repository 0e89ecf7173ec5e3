package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"risk_service/internal/domain/model"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("risk_service/core")

var ErrInvalidRequest = errors.New("invalid risk request")

const defaultBusinessType = "Almacén"

// SiteSurveyor counts mapped features around coordinates.
type SiteSurveyor interface {
	Survey(ctx context.Context, c model.Coordinates) (model.SiteSurvey, error)
}

// FallbackPolicy decides when synthetic data may replace missing statistics.
type FallbackPolicy struct {
	OnNotFound    bool
	OnUnavailable bool
}

type RiskService struct {
	lib        *FactorLibrary
	crime      model.CrimeDataSource
	scenarios  *ScenarioRiskCalculator
	aggregator *IntegratedRiskAggregator
	fetchers   []model.SourceFetcher
	surveyor   SiteSurveyor
	degraded   model.DegradedGenerator
	fallback   FallbackPolicy
	now        func() time.Time
	logger     *slog.Logger
}

type ServiceOption func(*RiskService)

func WithSourceFetchers(fetchers ...model.SourceFetcher) ServiceOption {
	return func(s *RiskService) { s.fetchers = append(s.fetchers, fetchers...) }
}

func WithSiteSurveyor(surveyor SiteSurveyor) ServiceOption {
	return func(s *RiskService) { s.surveyor = surveyor }
}

func WithDegradedMode(gen model.DegradedGenerator, policy FallbackPolicy) ServiceOption {
	return func(s *RiskService) {
		s.degraded = gen
		s.fallback = policy
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *RiskService) { s.now = now }
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *RiskService) { s.logger = logger }
}

func NewRiskService(
	lib *FactorLibrary,
	crime model.CrimeDataSource,
	scenarios *ScenarioRiskCalculator,
	aggregator *IntegratedRiskAggregator,
	opts ...ServiceOption,
) *RiskService {
	s := &RiskService{
		lib:        lib,
		crime:      crime,
		scenarios:  scenarios,
		aggregator: aggregator,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateRisk scores every requested scenario and, when asked, the
// integrated aggregate. Per-scenario failures are reported in the outcome and
// do not abort the batch.
func (s *RiskService) CalculateRisk(ctx context.Context, req model.RiskRequest) (*model.Assessment, error) {
	ctx, span := tracer.Start(ctx, "risk.calculate")
	defer span.End()
	span.SetAttributes(
		attribute.String("location.municipio", req.Location.Municipio),
		attribute.String("location.estado", req.Location.Estado),
		attribute.Int("scenarios", len(req.Scenarios)),
	)

	assessment, err := s.calculate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		assessmentsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, err
	}
	assessmentsTotal.WithLabelValues("ok").Inc()
	return assessment, nil
}

func (s *RiskService) calculate(ctx context.Context, req model.RiskRequest) (*model.Assessment, error) {
	scenarioIDs := uniqueIDs(req.Scenarios)
	if len(scenarioIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one scenario is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Location.Municipio) == "" || strings.TrimSpace(req.Location.Estado) == "" {
		return nil, fmt.Errorf("%w: municipio and estado are required", ErrInvalidRequest)
	}

	now := s.now()
	assessment := &model.Assessment{
		ID:          uuid.NewString(),
		Location:    req.Location,
		GeneratedAt: now,
	}

	cc, err := s.crimeContext(ctx, req.Location)
	if err != nil {
		return nil, err
	}
	if cc != nil {
		assessment.CrimeContext = cc
		if cc.Synthetic {
			assessment.Warnings = append(assessment.Warnings, "crime statistics replaced by synthetic regional profile")
		}
	}

	opts := ScoreOptions{AsOf: now}
	if req.Location.Coordinates != nil && s.surveyor != nil {
		survey, err := s.surveyor.Survey(ctx, *req.Location.Coordinates)
		if err != nil {
			s.logger.Warn("Warning: failed to survey site", "error", err)
			assessment.Warnings = append(assessment.Warnings, "site survey unavailable: "+err.Error())
		} else {
			opts.Survey = &survey
		}
	}

	for _, id := range scenarioIDs {
		outcome := model.ScenarioOutcome{ScenarioID: id}
		result, err := s.scenarios.Score(id, req.Location, cc, req.Measures, opts)
		if err != nil {
			s.logger.Error("failed to score scenario", "scenario", id, "error", err)
			outcome.Error = err.Error()
		} else {
			outcome.Result = &result
		}
		assessment.PerScenario = append(assessment.PerScenario, outcome)
	}

	if req.Aggregate {
		assessment.Aggregate = s.aggregate(ctx, req, scenarioIDs)
	}
	return assessment, nil
}

// crimeContext applies the fallback policy. A nil context with a nil error
// means scoring continues on static tables only.
func (s *RiskService) crimeContext(ctx context.Context, loc model.Location) (*model.CrimeContext, error) {
	cc, err := s.crime.Lookup(ctx, loc.Municipio, loc.Estado)
	switch {
	case err == nil:
		return &cc, nil
	case errors.Is(err, model.ErrLocationNotResolved):
		return nil, fmt.Errorf("failed to resolve location %s, %s: %w", loc.Municipio, loc.Estado, err)
	case errors.Is(err, model.ErrNotFound):
		if s.fallback.OnNotFound && s.degraded != nil {
			synthetic := s.degraded.Generate(loc, err)
			return &synthetic, nil
		}
		s.logger.Warn("no crime statistics for location", "municipio", loc.Municipio, "estado", loc.Estado)
		return nil, nil
	case errors.Is(err, model.ErrDataSourceUnavailable):
		if s.fallback.OnUnavailable && s.degraded != nil {
			s.logger.Warn("Warning: crime data source unavailable, using synthetic profile", "error", err)
			synthetic := s.degraded.Generate(loc, err)
			return &synthetic, nil
		}
		return nil, fmt.Errorf("failed to get crime context: %w", err)
	default:
		return nil, fmt.Errorf("failed to get crime context: %w", err)
	}
}

func (s *RiskService) aggregate(ctx context.Context, req model.RiskRequest, scenarioIDs []string) *model.AggregateResult {
	profile := model.BusinessProfile{Type: defaultBusinessType, Measures: req.Measures}
	if req.Business != nil {
		profile = *req.Business
		if profile.Type == "" {
			profile.Type = defaultBusinessType
		}
		if len(profile.Measures) == 0 {
			profile.Measures = req.Measures
		}
	}

	var defs []model.ScenarioDefinition
	for _, id := range scenarioIDs {
		if def, ok := s.lib.Scenario(id); ok {
			defs = append(defs, def)
		}
	}

	reports, failed := s.aggregator.Collect(ctx, req.Location, s.fetchers)
	result := s.aggregator.Aggregate(reports, failed, []model.SourceReport{ScenarioAdjustment(defs)}, profile)
	return &result
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = normalizeID(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrDataSourceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
