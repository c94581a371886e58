//go:build !duckdb_arrow

package sqlctx

import (
	"context"
	"testing"

	"github.com/nickyhof/FrameBridge/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHugeIntNarrowsToInt64(t *testing.T) {
	ctx := context.Background()
	env := frame.NewEnv()
	sc, err := NewContext(ctx, nil)
	require.NoError(t, err)
	defer sc.Release()

	out, err := sc.Execute(ctx, env, `SELECT CAST(1 AS HUGEINT) AS big`)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{int64(1)}, values(t, env, out, "big"))

	_, err = sc.Execute(ctx, env, `SELECT CAST(170141183460469231731687303715884105727 AS HUGEINT) AS huge`)
	assert.Error(t, err, "values beyond int64 have no exact representation")
}
