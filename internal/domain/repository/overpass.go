package repository

import (
	"context"
	"fmt"
	"github.com/serjvanilla/go-overpass"
	"net/http"
	"risk_service/internal/domain/model"
	"time"
)

// OverpassRepository queries OpenStreetMap around a site for features that
// shift the proximity sub-score: police stations and late-night venues.
type OverpassRepository struct {
	client  *overpass.Client
	timeout time.Duration
	radius  int
}

func NewOverpassRepository(endpoint string, timeout time.Duration, radiusMeters int) *OverpassRepository {
	return NewOverpassRepositoryWithClient(endpoint, &http.Client{Timeout: timeout}, timeout, radiusMeters)
}

func NewOverpassRepositoryWithClient(endpoint string, httpClient *http.Client, timeout time.Duration, radiusMeters int) *OverpassRepository {
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &OverpassRepository{
		client:  &client,
		timeout: timeout,
		radius:  radiusMeters,
	}
}

// Survey counts relevant features within the configured radius of c.
func (r *OverpassRepository) Survey(ctx context.Context, c model.Coordinates) (model.SiteSurvey, error) {
	query := fmt.Sprintf(`
		[out:json];
		(
			node["amenity"="police"](around:%[1]d,%[2]f,%[3]f);
			way["amenity"="police"](around:%[1]d,%[2]f,%[3]f);
			node["amenity"~"^(bar|pub|nightclub)$"](around:%[1]d,%[2]f,%[3]f);
		);
		out body;
		>;
		out skel qt;
	`, r.radius, c.Lat, c.Lon)

	result, err := r.executeQuery(ctx, query)
	if err != nil {
		return model.SiteSurvey{}, fmt.Errorf("failed to execute site survey query: %w", err)
	}

	survey := model.SiteSurvey{RadiusMeters: r.radius, NearestPoliceKm: -1}
	for _, el := range convertToElements(result) {
		switch el.Tags["amenity"] {
		case "police":
			survey.PoliceStations++
			d := c.DistanceKm(model.Coordinates{Lat: el.Lat, Lon: el.Lon})
			if survey.NearestPoliceKm < 0 || d < survey.NearestPoliceKm {
				survey.NearestPoliceKm = d
			}
		case "bar", "pub", "nightclub":
			survey.NightVenues++
		}
	}
	return survey, nil
}

// executeQuery runs the blocking client call under the repository timeout.
// The client has no context support, so an abandoned call finishes in the
// background and its result is dropped.
func (r *OverpassRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		result overpass.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.client.Query(query)
		done <- outcome{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("overpass query aborted: %w", ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", out.err)
		}
		return &out.result, nil
	}
}

type osmElement struct {
	ID   int64
	Lat  float64
	Lon  float64
	Tags map[string]string
}

// convertToElements flattens tagged nodes and ways; ways are placed at the
// centroid of their nodes. Untagged skeleton nodes are skipped.
func convertToElements(result *overpass.Result) []osmElement {
	var elements []osmElement

	for _, node := range result.Nodes {
		if len(node.Tags) == 0 {
			continue
		}
		elements = append(elements, osmElement{
			ID:   node.ID,
			Lat:  node.Lat,
			Lon:  node.Lon,
			Tags: node.Tags,
		})
	}

	for _, way := range result.Ways {
		if len(way.Tags) == 0 || len(way.Nodes) == 0 {
			continue
		}
		var lat, lon float64
		for _, node := range way.Nodes {
			lat += node.Lat
			lon += node.Lon
		}
		lat /= float64(len(way.Nodes))
		lon /= float64(len(way.Nodes))

		elements = append(elements, osmElement{
			ID:   way.ID,
			Lat:  lat,
			Lon:  lon,
			Tags: way.Tags,
		})
	}

	return elements
}
