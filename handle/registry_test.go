package handle

import (
	"errors"
	"testing"

	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/metrics"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counted struct {
	releases int
}

func (c *counted) Release() { c.releases++ }

func setupRegistry(t *testing.T) (*Registry, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return NewRegistry(m), m
}

func TestBorrowKeepsHandleValid(t *testing.T) {
	reg, _ := setupRegistry(t)
	v := &counted{}
	h := reg.New(core.ExprKind, v)
	require.NotZero(t, h)

	for i := 0; i < 2; i++ {
		got, err := Borrow[*counted](reg, h, core.ExprKind)
		require.NoError(t, err)
		assert.Same(t, v, got)
	}
	assert.Equal(t, 0, v.releases)
}

func TestConsumeInvalidatesHandle(t *testing.T) {
	reg, m := setupRegistry(t)
	v := &counted{}
	h := reg.New(core.LazyFrameKind, v)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.LiveHandles.WithLabelValues("lazyframe")))

	got, err := Consume[*counted](reg, h, core.LazyFrameKind)
	require.NoError(t, err)
	assert.Same(t, v, got)
	assert.Equal(t, 0, v.releases, "consume transfers ownership without releasing")

	_, err = Borrow[*counted](reg, h, core.LazyFrameKind)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.ErrorIs(t, err, fault.ErrContract)
	assert.Equal(t, 0.0, promtest.ToFloat64(m.LiveHandles.WithLabelValues("lazyframe")))
}

func TestNullAndWrongKind(t *testing.T) {
	reg, _ := setupRegistry(t)
	_, err := Borrow[*counted](reg, 0, core.DataFrameKind)
	assert.ErrorIs(t, err, ErrNullHandle)

	h := reg.New(core.SeriesKind, &counted{})
	_, err = Consume[*counted](reg, h, core.DataFrameKind)
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Contains(t, err.Error(), "expected dataframe, got series")

	_, ok := reg.Kind(h)
	assert.True(t, ok, "wrong-kind consume must leave the handle alone")
}

func TestFree(t *testing.T) {
	reg, _ := setupRegistry(t)
	require.NoError(t, reg.Free(0, core.ExprKind), "null free is a no-op")

	v := &counted{}
	h := reg.New(core.ExprKind, v)
	require.NoError(t, reg.Free(h, core.ExprKind))
	assert.Equal(t, 1, v.releases)

	err := reg.Free(h, core.ExprKind)
	assert.ErrorIs(t, err, ErrInvalidHandle, "double free is reported, not fatal")
	assert.Equal(t, 1, v.releases)
}

func TestConsumeAllIsAtomic(t *testing.T) {
	reg, _ := setupRegistry(t)
	a := reg.New(core.ExprKind, &counted{})
	b := reg.New(core.ExprKind, &counted{})
	lf := reg.New(core.LazyFrameKind, &counted{})

	_, err := reg.ConsumeAll(Claim{lf, core.LazyFrameKind}, Claim{a, core.ExprKind}, Claim{999, core.ExprKind})
	require.Error(t, err)
	assert.Equal(t, 3, reg.Len(), "nothing consumed on contract violation")

	_, err = reg.ConsumeAll(Claim{a, core.ExprKind}, Claim{a, core.ExprKind})
	assert.ErrorIs(t, err, ErrDuplicate)

	vals, err := reg.ConsumeAll(Claim{lf, core.LazyFrameKind}, Claim{a, core.ExprKind}, Claim{b, core.ExprKind})
	require.NoError(t, err)
	assert.Len(t, vals, 3)
	assert.Equal(t, 0, reg.Len())
}

func TestHandlesNeverReused(t *testing.T) {
	reg, _ := setupRegistry(t)
	h1 := reg.New(core.ExprKind, &counted{})
	require.NoError(t, reg.Free(h1, core.ExprKind))
	h2 := reg.New(core.ExprKind, &counted{})
	assert.NotEqual(t, h1, h2)
}

func TestClose(t *testing.T) {
	reg, _ := setupRegistry(t)
	vs := []*counted{{}, {}}
	for _, v := range vs {
		reg.New(core.DataFrameKind, v)
	}
	reg.Close()
	assert.Equal(t, 0, reg.Len())
	for _, v := range vs {
		assert.Equal(t, 1, v.releases)
	}
	assert.False(t, errors.Is(reg.Free(0, core.DataFrameKind), ErrNullHandle))
}
