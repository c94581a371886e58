package frame

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapBatchesKeepsOrder(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3, 4, 5, 6)
	defer df.Release()
	require.Len(t, df.Batches(), 3)

	out, err := env.mapBatches(df.Batches(), func(rec arrow.Record) (arrow.Record, error) {
		rec.Retain()
		return rec, nil
	})
	require.NoError(t, err)
	defer releaseRecords(out)
	for i, rec := range out {
		assert.Same(t, df.Batches()[i], rec)
	}
}

func TestMapBatchesStopsAfterFailure(t *testing.T) {
	env := newTestEnv(t)
	env.Workers = 1
	df := numbers(t, env, 1, 2, 3, 4, 5, 6)
	defer df.Release()

	var calls atomic.Int32
	boom := errors.New("boom")
	_, err := env.mapBatches(df.Batches(), func(arrow.Record) (arrow.Record, error) {
		calls.Add(1)
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMapBatchesRecoversPanics(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3, 4)
	defer df.Release()

	_, err := env.mapBatches(df.Batches(), func(arrow.Record) (arrow.Record, error) {
		panic("worker exploded")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker exploded")
}
