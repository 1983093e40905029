package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"studentperf/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct{ hits, misses int }

func (o *countingObserver) CacheHit()  { o.hits++ }
func (o *countingObserver) CacheMiss() { o.misses++ }

func TestModelCache_GetAndInvalidate(t *testing.T) {
	obs := &countingObserver{}
	c := New(4, time.Hour, obs)
	loads := 0
	load := func(_ context.Context, name string) (*model.Artifact, error) {
		loads++
		return &model.Artifact{Name: name}, nil
	}

	ctx := context.Background()
	a, err := c.Get(ctx, "m1", load)
	require.NoError(t, err)
	assert.Equal(t, "m1", a.Name)

	_, err = c.Get(ctx, "m1", load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)

	c.Invalidate("m1")
	assert.Equal(t, 0, c.Len())
	_, err = c.Get(ctx, "m1", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestModelCache_LoadErrorNotCached(t *testing.T) {
	c := New(4, time.Hour, nil)
	boom := errors.New("boom")
	_, err := c.Get(context.Background(), "m", func(context.Context, string) (*model.Artifact, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestModelCache_Disabled(t *testing.T) {
	c := New(0, time.Hour, nil)
	loads := 0
	load := func(_ context.Context, name string) (*model.Artifact, error) {
		loads++
		return &model.Artifact{Name: name}, nil
	}
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), "m", load)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, loads)
	assert.Equal(t, 0, c.Len())
}
