package core

import (
	"context"
	"io"
	"log/slog"
	"risk_service/internal/config"
	"risk_service/internal/domain/model"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLibrary(t *testing.T) *FactorLibrary {
	t.Helper()
	c, err := config.LoadCatalog("")
	require.NoError(t, err)
	return NewFactorLibrary(c)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCalculator(t *testing.T, variant string, strict bool) (*ScenarioRiskCalculator, *FactorLibrary) {
	t.Helper()
	lib := testLibrary(t)
	m, err := NewMitigationModel(variant, lib, 0.75)
	require.NoError(t, err)
	return NewScenarioRiskCalculator(lib, m, strict, discardLogger()), lib
}

type stubCrimeSource struct {
	cc    model.CrimeContext
	err   error
	calls int
}

func (s *stubCrimeSource) Lookup(ctx context.Context, municipio, estado string) (model.CrimeContext, error) {
	s.calls++
	if s.err != nil {
		return model.CrimeContext{}, s.err
	}
	return s.cc, nil
}
