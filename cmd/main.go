package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"risk_service/internal/api"
	"risk_service/internal/config"
	"risk_service/internal/domain/model"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:          "risk-service",
		Short:        "Criminal-risk scoring for warehouse locations in Mexico",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config (RISK_* env vars override)")
	root.AddCommand(newServeCmd(&cfgFile), newScoreCmd(&cfgFile))
	return root
}

func setup(cfgFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			app, err := buildApplication(cfg, logger)
			if err != nil {
				return err
			}
			defer app.close()

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.NewRouter(api.NewHandler(app.service, app.catalog)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server", "addr", cfg.Server.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			logger.Info("Shutting down server")
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// scoreFlags mirrors the HTTP request body of POST /api/v1/risk.
type scoreFlags struct {
	municipio      string
	estado         string
	region         string
	scenarios      []string
	measures       []string
	aggregate      bool
	lat            float64
	lon            float64
	businessType   string
	inventoryValue float64
}

func (f *scoreFlags) request(cmd *cobra.Command) (model.RiskRequest, error) {
	req := model.RiskRequest{
		Location: model.Location{
			Municipio:  f.municipio,
			Estado:     f.estado,
			RegionType: f.region,
		},
		Scenarios: f.scenarios,
		Measures:  f.measures,
		Aggregate: f.aggregate,
	}

	latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
	switch {
	case latSet != lonSet:
		return model.RiskRequest{}, errors.New("--lat and --lon must be given together")
	case latSet:
		if f.lat < -90 || f.lat > 90 || f.lon < -180 || f.lon > 180 {
			return model.RiskRequest{}, fmt.Errorf("coordinates out of range: %v, %v", f.lat, f.lon)
		}
		req.Location.Coordinates = &model.Coordinates{Lat: f.lat, Lon: f.lon}
	}

	if f.inventoryValue < 0 {
		return model.RiskRequest{}, errors.New("--inventory-value must not be negative")
	}
	if f.businessType != "" || f.inventoryValue > 0 {
		req.Business = &model.BusinessProfile{
			Type:           f.businessType,
			InventoryValue: f.inventoryValue,
			Measures:       f.measures,
		}
	}
	return req, nil
}

func newScoreCmd(cfgFile *string) *cobra.Command {
	var flags scoreFlags
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one location and print the assessment as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd)
			if err != nil {
				return err
			}

			cfg, logger, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			app, err := buildApplication(cfg, logger)
			if err != nil {
				return err
			}
			defer app.close()

			assessment, err := app.service.CalculateRisk(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("risk calculation failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(assessment)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.municipio, "municipio", "", "municipality name")
	f.StringVar(&flags.estado, "estado", "", "state name")
	f.StringVar(&flags.region, "region", "", "region type (default from catalog)")
	f.StringSliceVar(&flags.scenarios, "scenario", nil, "scenario id, repeatable")
	f.StringSliceVar(&flags.measures, "measure", nil, "security measure id, repeatable")
	f.BoolVar(&flags.aggregate, "aggregate", false, "also compute the integrated 0-100 score")
	f.Float64Var(&flags.lat, "lat", 0, "site latitude, enables the site survey")
	f.Float64Var(&flags.lon, "lon", 0, "site longitude")
	f.StringVar(&flags.businessType, "business-type", "", "business type for the aggregate (default Almacén)")
	f.Float64Var(&flags.inventoryValue, "inventory-value", 0, "inventory value in MXN")
	_ = cmd.MarkFlagRequired("municipio")
	_ = cmd.MarkFlagRequired("estado")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
