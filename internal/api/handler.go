package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"risk_service/internal/core"
	"risk_service/internal/domain/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RiskCalculator interface {
	CalculateRisk(ctx context.Context, req model.RiskRequest) (*model.Assessment, error)
}

type Handler struct {
	service RiskCalculator
	catalog *model.Catalog
}

func NewHandler(service RiskCalculator, catalog *model.Catalog) *Handler {
	return &Handler{service: service, catalog: catalog}
}

type RiskRequest struct {
	Municipio      string   `json:"municipio" binding:"required"`
	Estado         string   `json:"estado" binding:"required"`
	RegionType     string   `json:"region_type"`
	Lat            *float64 `json:"lat" binding:"required_with=Lon,omitempty,gte=-90,lte=90"`
	Lon            *float64 `json:"lon" binding:"required_with=Lat,omitempty,gte=-180,lte=180"`
	Scenarios      []string `json:"scenarios" binding:"required,min=1,dive,required"`
	Measures       []string `json:"measures"`
	Aggregate      bool     `json:"aggregate"`
	BusinessType   string   `json:"business_type"`
	InventoryValue float64  `json:"inventory_value" binding:"gte=0"`
}

func (r RiskRequest) toModel() model.RiskRequest {
	req := model.RiskRequest{
		Location: model.Location{
			Municipio:  r.Municipio,
			Estado:     r.Estado,
			RegionType: r.RegionType,
		},
		Scenarios: r.Scenarios,
		Measures:  r.Measures,
		Aggregate: r.Aggregate,
	}
	if r.Lat != nil && r.Lon != nil {
		req.Location.Coordinates = &model.Coordinates{Lat: *r.Lat, Lon: *r.Lon}
	}
	if r.BusinessType != "" || r.InventoryValue > 0 {
		req.Business = &model.BusinessProfile{
			Type:           r.BusinessType,
			InventoryValue: r.InventoryValue,
			Measures:       r.Measures,
		}
	}
	return req
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// NewRouter wires the handler, health and metrics endpoints.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware("risk-service"))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/risk", h.CalculateRisk)
	v1.GET("/catalog/scenarios", h.ListScenarios)
	v1.GET("/catalog/measures", h.ListMeasures)
	return r
}

func (h *Handler) CalculateRisk(c *gin.Context) {
	var req RiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	assessment, err := h.service.CalculateRisk(c.Request.Context(), req.toModel())
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("risk calculation failed", "error", err)
		}
		c.JSON(status, errorResponse{Error: err.Error(), Retryable: model.IsRetryable(err)})
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (h *Handler) ListScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":   h.catalog.Version,
		"scenarios": h.catalog.Scenarios,
	})
}

func (h *Handler) ListMeasures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":  h.catalog.Version,
		"measures": h.catalog.Measures,
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "catalog_version": h.catalog.Version})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDataSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
