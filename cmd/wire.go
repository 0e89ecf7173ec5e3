package main

import (
	"context"
	"fmt"
	"log/slog"
	"risk_service/internal/config"
	"risk_service/internal/core"
	"risk_service/internal/domain/model"
	"risk_service/internal/domain/repository"
	"risk_service/internal/infrastructure/sourceclient"
)

// offlineSource stands in for the crime table when no database is configured.
type offlineSource struct{}

func (offlineSource) Lookup(ctx context.Context, municipio, estado string) (model.CrimeContext, error) {
	return model.CrimeContext{}, fmt.Errorf("%w: no database configured", model.ErrDataSourceUnavailable)
}

type application struct {
	service *core.RiskService
	catalog *model.Catalog
	close   func()
}

func buildApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	catalog, err := config.LoadCatalog(cfg.Engine.CatalogPath)
	if err != nil {
		return nil, err
	}
	lib := core.NewFactorLibrary(catalog)

	app := &application{catalog: catalog, close: func() {}}

	var crime model.CrimeDataSource = offlineSource{}
	if cfg.Database.URL != "" {
		repo, err := repository.NewPostgresRepository(cfg.Database.URL, lib.States())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to crime database: %w", err)
		}
		repo.DB().SetMaxOpenConns(cfg.Database.MaxOpenConns)
		app.close = func() { _ = repo.DB().Close() }
		crime = repo
	} else {
		logger.Warn("Warning: database.url is empty, crime statistics unavailable")
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL > 0 {
		crime = repository.NewCachedCrimeSource(crime, lib.States(), cfg.Cache.TTL)
	}

	scenarioModel, err := core.NewMitigationModel(cfg.Engine.Variant, lib, cfg.Engine.ScenarioCap)
	if err != nil {
		return nil, err
	}
	aggregateModel, err := core.NewMitigationModel(cfg.Engine.Variant, lib, cfg.Engine.AggregateCap)
	if err != nil {
		return nil, err
	}

	calc := core.NewScenarioRiskCalculator(lib, scenarioModel, cfg.Engine.StrictInvariants, logger)
	agg := core.NewIntegratedRiskAggregator(lib, aggregateModel, cfg.Sources.Timeout, logger)

	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithSourceFetchers(core.NewFederalSource(crime)),
		core.WithDegradedMode(core.NewProfileGenerator(lib), core.FallbackPolicy{
			OnNotFound:    cfg.Fallback.OnNotFound,
			OnUnavailable: cfg.Fallback.OnUnavailable,
		}),
	}
	newClient := func(url string) *sourceclient.HTTPClient {
		return sourceclient.NewHTTPClient(url, cfg.Sources.Timeout, cfg.Sources.RatePerSecond, cfg.Sources.Burst)
	}
	if cfg.Sources.ProsecutorURL != "" {
		opts = append(opts, core.WithSourceFetchers(core.NewProsecutorSource(newClient(cfg.Sources.ProsecutorURL))))
	}
	if cfg.Sources.SocioeconomicURL != "" {
		opts = append(opts, core.WithSourceFetchers(core.NewSocioeconomicSource(newClient(cfg.Sources.SocioeconomicURL))))
	}
	if cfg.Sources.CivilSocietyURL != "" {
		opts = append(opts, core.WithSourceFetchers(core.NewCivilSocietySource(newClient(cfg.Sources.CivilSocietyURL))))
	}
	if cfg.Overpass.Enabled {
		opts = append(opts, core.WithSiteSurveyor(
			repository.NewOverpassRepository(cfg.Overpass.URL, cfg.Overpass.Timeout, cfg.Overpass.RadiusMeters)))
	}

	app.service = core.NewRiskService(lib, crime, calc, agg, opts...)
	logger.Info("risk engine ready",
		"catalog_version", catalog.Version,
		"variant", scenarioModel.Name(),
		"strict_invariants", cfg.Engine.StrictInvariants)
	return app, nil
}
