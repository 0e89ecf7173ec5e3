package sourceclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"risk_service/internal/domain/model"
	"time"

	"golang.org/x/time/rate"
)

// HTTPClient talks to one JSON source (state prosecutor, INEGI or the NGO
// observatory). Outbound calls are rate limited per client.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPClient(baseURL string, timeout time.Duration, perSecond float64, burst int) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// ProsecutorStats получает статистику прокуратуры штата
func (c *HTTPClient) ProsecutorStats(ctx context.Context, loc model.Location) (model.ProsecutorStats, error) {
	var stats model.ProsecutorStats
	err := c.get(ctx, "/estadisticas", url.Values{
		"estado":    {loc.Estado},
		"municipio": {loc.Municipio},
	}, &stats)
	return stats, err
}

// SocioeconomicContext получает социально-экономический профиль муниципалитета
func (c *HTTPClient) SocioeconomicContext(ctx context.Context, loc model.Location) (model.SocioeconomicContext, error) {
	var sc model.SocioeconomicContext
	err := c.get(ctx, "/municipios/"+url.PathEscape(loc.Municipio), url.Values{
		"estado": {loc.Estado},
	}, &sc)
	return sc, err
}

func (c *HTTPClient) CivilSocietySummary(ctx context.Context, loc model.Location) (model.CivilSocietySummary, error) {
	var summary model.CivilSocietySummary
	err := c.get(ctx, "/reportes", url.Values{
		"estado":    {loc.Estado},
		"municipio": {loc.Municipio},
	}, &summary)
	return summary, err
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDataSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, model.ErrNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: source returned status %d", model.ErrDataSourceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("source returned status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
