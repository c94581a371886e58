package sqlctx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/frame"
)

// Engine runs grouping and joins for the frame package by loading frames
// into scratch tables of an embedded DuckDB database.
type Engine struct {
	store *store
}

var _ frame.Relational = (*Engine)(nil)

func NewEngine(ctx context.Context, dsn string, logger *slog.Logger) (*Engine, error) {
	s, err := openStore(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{store: s}, nil
}

func (e *Engine) Close() error {
	return e.store.close()
}

// withTables loads frames into scratch tables, calls fn with their names and
// drops the tables afterwards.
func (e *Engine) withTables(ctx context.Context, frames []*frame.DataFrame, fn func(names []string) (*frame.DataFrame, error)) (*frame.DataFrame, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if e.store.conn == nil {
		return nil, fmt.Errorf("relational engine is closed")
	}

	names := make([]string, 0, len(frames))
	defer func() {
		for _, n := range names {
			e.store.drop(ctx, n)
		}
	}()
	for _, df := range frames {
		name := tempName()
		names = append(names, name)
		if err := e.store.load(ctx, name, df); err != nil {
			return nil, err
		}
	}
	return fn(names)
}

func renderExprs(exprs []*frame.Expr) ([]string, error) {
	out := make([]string, len(exprs))
	for i, x := range exprs {
		s, err := x.SQL()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// GroupBy groups df by keys and computes aggs per group. Groups come back
// ordered by their keys with nulls last.
func (e *Engine) GroupBy(env *frame.Env, df *frame.DataFrame, keys, aggs []*frame.Expr) (*frame.DataFrame, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: group_by needs at least one key", frame.ErrShapeMismatch)
	}
	keySQL, err := renderExprs(keys)
	if err != nil {
		return nil, err
	}
	aggSQL, err := renderExprs(aggs)
	if err != nil {
		return nil, err
	}

	var (
		selects []string
		order   []string
	)
	for i, k := range keys {
		selects = append(selects, keySQL[i]+" AS "+frame.QuoteIdent(k.OutputName()))
		order = append(order, fmt.Sprintf("%d NULLS LAST", i+1))
	}
	for i, a := range aggs {
		selects = append(selects, aggSQL[i]+" AS "+frame.QuoteIdent(a.OutputName()))
	}

	ctx := context.Background()
	return e.withTables(ctx, []*frame.DataFrame{df}, func(names []string) (*frame.DataFrame, error) {
		q := fmt.Sprintf("SELECT %s FROM %s GROUP BY %s ORDER BY %s",
			strings.Join(selects, ", "), frame.QuoteIdent(names[0]),
			strings.Join(keySQL, ", "), strings.Join(order, ", "))
		return e.store.query(ctx, env, q)
	})
}

var joinKeywords = map[core.JoinType]string{
	core.InnerJoin: "JOIN",
	core.LeftJoin:  "LEFT JOIN",
	core.OuterJoin: "FULL OUTER JOIN",
	core.CrossJoin: "CROSS JOIN",
	core.SemiJoin:  "SEMI JOIN",
	core.AntiJoin:  "ANTI JOIN",
}

const (
	leftRow  = "__fb_lrow"
	rightRow = "__fb_rrow"
)

// Join combines left and right. Rows keep the order of left, then of right.
// Right key columns equal by name to a left key are dropped for inner and
// left joins; other right columns whose names clash get a "_right" suffix.
func (e *Engine) Join(env *frame.Env, left, right *frame.DataFrame, leftOn, rightOn []*frame.Expr, how core.JoinType) (*frame.DataFrame, error) {
	keyword, ok := joinKeywords[how]
	if !ok {
		return nil, fmt.Errorf("%w: join type %s", frame.ErrUnsupported, how)
	}
	lk, err := renderExprs(leftOn)
	if err != nil {
		return nil, err
	}
	rk, err := renderExprs(rightOn)
	if err != nil {
		return nil, err
	}

	var cols []string
	taken := make(map[string]struct{})
	for _, n := range left.ColumnNames() {
		cols = append(cols, "l."+frame.QuoteIdent(n))
		taken[n] = struct{}{}
	}
	if how != core.SemiJoin && how != core.AntiJoin {
		dropped := make(map[string]struct{})
		if how == core.InnerJoin || how == core.LeftJoin {
			for i, r := range rightOn {
				if r.IsColumn() && leftOn[i].IsColumn() && r.OutputName() == leftOn[i].OutputName() {
					dropped[r.OutputName()] = struct{}{}
				}
			}
		}
		for _, n := range right.ColumnNames() {
			if _, skip := dropped[n]; skip {
				continue
			}
			alias := n
			if _, clash := taken[alias]; clash {
				alias = n + "_right"
			}
			taken[alias] = struct{}{}
			cols = append(cols, "r."+frame.QuoteIdent(n)+" AS "+frame.QuoteIdent(alias))
		}
	}

	ctx := context.Background()
	return e.withTables(ctx, []*frame.DataFrame{left, right}, func(names []string) (*frame.DataFrame, error) {
		var lsel, rsel []string
		for i := range lk {
			lsel = append(lsel, fmt.Sprintf("%s AS __fb_lk%d", lk[i], i))
			rsel = append(rsel, fmt.Sprintf("%s AS __fb_rk%d", rk[i], i))
		}
		lsub := fmt.Sprintf("(SELECT *, %s row_number() OVER () AS %s FROM %s)", prefixList(lsel), leftRow, frame.QuoteIdent(names[0]))
		rsub := fmt.Sprintf("(SELECT *, %s row_number() OVER () AS %s FROM %s)", prefixList(rsel), rightRow, frame.QuoteIdent(names[1]))

		q := fmt.Sprintf("SELECT %s FROM %s l %s %s r", strings.Join(cols, ", "), lsub, keyword, rsub)
		if how != core.CrossJoin {
			conds := make([]string, len(lk))
			for i := range lk {
				conds[i] = fmt.Sprintf("l.__fb_lk%d = r.__fb_rk%d", i, i)
			}
			q += " ON " + strings.Join(conds, " AND ")
		}
		if how == core.SemiJoin || how == core.AntiJoin {
			q += " ORDER BY l." + leftRow
		} else {
			q += fmt.Sprintf(" ORDER BY l.%s NULLS LAST, r.%s NULLS LAST", leftRow, rightRow)
		}
		return e.store.query(ctx, env, q)
	})
}

func prefixList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return strings.Join(items, ", ") + ","
}
