package repository

import (
	"context"
	"errors"
	"fmt"
	"risk_service/internal/domain/model"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (s *countingSource) Lookup(ctx context.Context, municipio, estado string) (model.CrimeContext, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return model.CrimeContext{}, s.err
	}
	return model.CrimeContext{Municipio: municipio, Estado: estado, TotalIncidents: 42}, nil
}

func TestCachedCrimeSource_HitsWithinTTL(t *testing.T) {
	src := &countingSource{}
	cache := NewCachedCrimeSource(src, testStates(), 30*time.Minute)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.Lookup(context.Background(), "Tultepec", "Edomex")
	require.NoError(t, err)
	cc, err := cache.Lookup(context.Background(), "TULTEPEC", "Estado de México")
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.calls.Load())
	assert.InDelta(t, 42, cc.TotalIncidents, 1e-9)
	assert.Equal(t, 1, cache.Len())

	now = now.Add(31 * time.Minute)
	_, err = cache.Lookup(context.Background(), "Tultepec", "México")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCachedCrimeSource_DoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: model.ErrDataSourceUnavailable}
	cache := NewCachedCrimeSource(src, testStates(), time.Hour)

	for i := 0; i < 2; i++ {
		_, err := cache.Lookup(context.Background(), "Monterrey", "NL")
		assert.True(t, errors.Is(err, model.ErrDataSourceUnavailable))
	}
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestCachedCrimeSource_CollapsesConcurrentMisses(t *testing.T) {
	src := &countingSource{delay: 50 * time.Millisecond}
	cache := NewCachedCrimeSource(src, testStates(), time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Lookup(context.Background(), "Guadalajara", "Jalisco")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, src.calls.Load(), int32(2))
}

type gatedSource struct {
	calls   atomic.Int32
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) Lookup(ctx context.Context, municipio, estado string) (model.CrimeContext, error) {
	s.calls.Add(1)
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
		return model.CrimeContext{Municipio: municipio, Estado: estado, TotalIncidents: 7}, nil
	case <-ctx.Done():
		return model.CrimeContext{}, fmt.Errorf("%w: %v", model.ErrDataSourceUnavailable, ctx.Err())
	}
}

func TestCachedCrimeSource_CancelledCallerDoesNotFailOthers(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	cache := NewCachedCrimeSource(src, testStates(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Lookup(ctx, "Apodaca", "NL")
		firstErr <- err
	}()
	<-src.started

	type result struct {
		cc  model.CrimeContext
		err error
	}
	second := make(chan result, 1)
	go func() {
		cc, err := cache.Lookup(context.Background(), "Apodaca", "Nuevo León")
		second <- result{cc, err}
	}()

	cancel()
	assert.True(t, errors.Is(<-firstErr, model.ErrDataSourceUnavailable))

	time.Sleep(50 * time.Millisecond)
	close(src.release)

	got := <-second
	require.NoError(t, got.err)
	assert.InDelta(t, 7, got.cc.TotalIncidents, 1e-9)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, cache.Len())
}
