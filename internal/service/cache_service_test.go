package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-portal/internal/models"
)

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) Delete(context.Context, ...string) error {
	return errors.New("connection refused")
}

func TestRememberLoadsOnceThenHits(t *testing.T) {
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, nil, true)
	loads := 0
	load := func() ([]models.Department, error) {
		loads++
		return []models.Department{{ID: "d1", Name: "Computer Science"}}, nil
	}

	first, err := Remember(context.Background(), cache, "lms:catalog:departments", load)
	require.NoError(t, err)
	second, err := Remember(context.Background(), cache, "lms:catalog:departments", load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestRememberDoesNotCacheLoadErrors(t *testing.T) {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	boom := errors.New("upstream down")

	_, err := Remember(context.Background(), cache, "k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Remember(context.Background(), cache, "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestRememberFallsThroughBrokenCache(t *testing.T) {
	cache := NewCacheService(brokenCacheRepo{}, nil, time.Minute, nil, true)

	v, err := Remember(context.Background(), cache, "k", func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Error(t, cache.Forget(context.Background(), "k"))
}

func TestDisabledCacheAlwaysLoads(t *testing.T) {
	repo := newMemoryCacheRepo()
	for _, cache := range []*CacheService{nil, NewCacheService(repo, nil, 0, nil, false)} {
		loads := 0
		for i := 0; i < 2; i++ {
			_, err := Remember(context.Background(), cache, "k", func() (int, error) { loads++; return loads, nil })
			require.NoError(t, err)
		}
		assert.Equal(t, 2, loads)
		assert.NoError(t, cache.Forget(context.Background(), "k"))
	}
	assert.Empty(t, repo.items)
}
