package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"risk_service/internal/domain/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const surveyResponse = `{
  "version": 0.6,
  "elements": [
    {"type": "node", "id": 1, "lat": 25.6700, "lon": -100.3100, "tags": {"amenity": "police"}},
    {"type": "node", "id": 2, "lat": 25.6900, "lon": -100.3100, "tags": {"amenity": "police"}},
    {"type": "node", "id": 3, "lat": 25.6710, "lon": -100.3090, "tags": {"amenity": "bar"}},
    {"type": "node", "id": 4, "lat": 25.6720, "lon": -100.3080, "tags": {"amenity": "nightclub"}},
    {"type": "node", "id": 5, "lat": 25.6730, "lon": -100.3070, "tags": {"amenity": "school"}}
  ]
}`

func TestOverpassRepository_Survey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(surveyResponse))
	}))
	defer srv.Close()

	repo := NewOverpassRepositoryWithClient(srv.URL, srv.Client(), 5*time.Second, 1500)
	survey, err := repo.Survey(context.Background(), model.Coordinates{Lat: 25.6700, Lon: -100.3100})
	require.NoError(t, err)

	assert.Equal(t, 2, survey.PoliceStations)
	assert.Equal(t, 2, survey.NightVenues)
	assert.Equal(t, 1500, survey.RadiusMeters)
	assert.InDelta(t, 0, survey.NearestPoliceKm, 0.01)
}

func TestOverpassRepository_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	repo := NewOverpassRepositoryWithClient(srv.URL, srv.Client(), 5*time.Second, 1500)
	_, err := repo.Survey(context.Background(), model.Coordinates{Lat: 19.43, Lon: -99.13})
	assert.Error(t, err)
}

func TestOverpassRepository_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	repo := NewOverpassRepositoryWithClient(srv.URL, srv.Client(), 50*time.Millisecond, 1500)
	_, err := repo.Survey(context.Background(), model.Coordinates{Lat: 19.43, Lon: -99.13})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
