package main

import (
	"math"
	"runtime"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupArgs(t *testing.T) *cArgs {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)
	takeLastError()

	a := &cArgs{}
	t.Cleanup(a.free)
	return a
}

func requireFailure(t *testing.T, contains string) {
	t.Helper()
	msg, ok := takeLastError()
	require.True(t, ok, "expected a pending error")
	assert.Contains(t, msg, contains)
}

func TestSeriesRoundTrip(t *testing.T) {
	a := setupArgs(t)

	s := fb_series_new_i64(a.str("n"), a.int64s(1, 2, 3), nil, 3)
	require.NotZero(t, s)
	defer fb_series_free(s)

	assert.EqualValues(t, 3, fb_series_len(s))
	name := fb_series_name(s)
	require.NotNil(t, name)
	defer fb_free_string(name)
	_, pending := takeLastError()
	assert.False(t, pending)
}

func TestNullStringArgument(t *testing.T) {
	a := setupArgs(t)

	assert.Zero(t, fb_expr_col(nil))
	requireFailure(t, "null string")

	assert.Zero(t, fb_series_new_i64(nil, a.int64s(1), nil, 1))
	requireFailure(t, "null string")

	assert.False(t, bool(fb_write_csv(0, nil)))
	requireFailure(t, "null string")
}

func TestNullArrayArgument(t *testing.T) {
	a := setupArgs(t)

	assert.Zero(t, fb_dataframe_new(nil, 2))
	requireFailure(t, "null array with non-zero length")

	assert.Zero(t, fb_series_new_i64(a.str("n"), nil, nil, 4))
	requireFailure(t, "null array with non-zero length")

	// zero length needs no pointer
	s := fb_series_new_i64(a.str("empty"), nil, nil, 0)
	require.NotZero(t, s)
	fb_series_free(s)
}

func TestOversizedLengthIsReported(t *testing.T) {
	a := setupArgs(t)
	values := a.int64s(1)

	for _, n := range []uint64{math.MaxUint64, math.MaxInt64 + 1, 1 << 41} {
		assert.NotPanics(t, func() {
			assert.Zero(t, fb_series_new_i64(a.str("n"), values, nil, sizeT(n)))
		})
		requireFailure(t, "out of range")
	}

	assert.Zero(t, fb_dataframe_new(a.handles(1), math.MaxUint64))
	requireFailure(t, "out of range")
}

func TestStringColumnNulls(t *testing.T) {
	a := setupArgs(t)

	s := fb_series_new_str(a.str("s"), a.strs(a.str("a"), nil, a.str("c")), 3)
	require.NotZero(t, s)
	defer fb_series_free(s)
	assert.EqualValues(t, 1, fb_series_null_count(s))
}

func TestNamesRejectNullEntry(t *testing.T) {
	a := setupArgs(t)

	assert.Zero(t, fb_selector_cols(a.strs(a.str("a"), nil), 2))
	requireFailure(t, "null string in name list")

	sel := fb_selector_cols(a.strs(a.str("a"), a.str("b")), 2)
	require.NotZero(t, sel)
	fb_selector_free(sel)
}

func TestGetCellNullOutput(t *testing.T) {
	a := setupArgs(t)

	assert.False(t, bool(fb_dataframe_get_i64(0, a.str("n"), 0, nil)))
	requireFailure(t, "null output pointer")
}

func TestExprMapNullFunctionRunsCleanupOnce(t *testing.T) {
	a := setupArgs(t)

	e := fb_expr_col(a.str("x"))
	require.NotZero(t, e)
	live := fb_live_handles()
	before := cleanupCount()

	assert.Zero(t, fb_expr_map(e, nil, countingCleanup(), nil, 0))
	requireFailure(t, "null function pointer")
	assert.Equal(t, before+1, cleanupCount())
	assert.Equal(t, live-1, fb_live_handles(), "the input expression is consumed")

	// a NULL cleanup is allowed
	assert.Zero(t, fb_expr_map(0, nil, nil, nil, 0))
	requireFailure(t, "null function pointer")
	assert.Equal(t, before+1, cleanupCount())
}

func TestHostCallTruncatesMessage(t *testing.T) {
	setupArgs(t)

	msg := make([]byte, 8)
	host := &cHost{fn: fillingUDF(len(msg))}
	status := host.Call(&cdata.CArrowArray{}, &cdata.CArrowSchema{}, &cdata.CArrowArray{}, &cdata.CArrowSchema{}, msg)

	assert.Equal(t, int32(3), status)
	assert.Equal(t, "xxxxxxx", string(msg[:7]))
	assert.Zero(t, msg[7], "last byte stays a terminator")
}

func TestHostCallStopsAtNul(t *testing.T) {
	setupArgs(t)

	msg := make([]byte, 16)
	host := &cHost{fn: embeddedNulUDF()}
	status := host.Call(&cdata.CArrowArray{}, &cdata.CArrowSchema{}, &cdata.CArrowArray{}, &cdata.CArrowSchema{}, msg)

	assert.Equal(t, int32(1), status)
	assert.Equal(t, "bad", string(msg[:3]))
	assert.Equal(t, make([]byte, 13), msg[3:])
}

func TestHostCleanupCallsHost(t *testing.T) {
	setupArgs(t)

	before := cleanupCount()
	host := &cHost{cleanup: countingCleanup()}
	host.Cleanup()
	assert.Equal(t, before+1, cleanupCount())
}
