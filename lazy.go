package FrameBridge

import (
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/handle"
)

func (inst *Instance) SelectorAll() handle.Handle {
	return inst.put(core.SelectorKind, frame.All())
}

func (inst *Instance) SelectorCols(names []string) handle.Handle {
	return inst.put(core.SelectorKind, frame.Cols(names...))
}

// SelectorExclude consumes h.
func (inst *Instance) SelectorExclude(h handle.Handle, names []string) handle.Handle {
	return fault.Guard(inst.barrier, "selector_exclude", 0, func() (handle.Handle, error) {
		s, err := consume[*frame.Selector](inst, h, core.SelectorKind)
		if err != nil {
			return 0, err
		}
		return inst.put(core.SelectorKind, s.Exclude(names...)), nil
	})
}

// SelectorIntoExpr consumes h and returns an expression that expands to the
// selected columns when the plan runs.
func (inst *Instance) SelectorIntoExpr(h handle.Handle) handle.Handle {
	return inst.newExpr("selector_into_expr", func() (*frame.Expr, error) {
		s, err := consume[*frame.Selector](inst, h, core.SelectorKind)
		if err != nil {
			return nil, err
		}
		return s.IntoExpr(), nil
	})
}

func (inst *Instance) CloneSelector(h handle.Handle) handle.Handle {
	return cloneHandle[*frame.Selector](inst, "selector_clone", h, core.SelectorKind)
}

func (inst *Instance) FreeSelector(h handle.Handle) {
	inst.free("selector_free", h, core.SelectorKind)
}

// extend consumes the plan and the expression handles together and
// registers the extended plan.
func (inst *Instance) extend(op string, lf handle.Handle, exprs []handle.Handle, fn func(*frame.LazyFrame, []*frame.Expr) *frame.LazyFrame) handle.Handle {
	return fault.Guard(inst.barrier, op, 0, func() (handle.Handle, error) {
		claims := make([]handle.Claim, 0, len(exprs)+1)
		claims = append(claims, handle.Claim{Handle: lf, Kind: core.LazyFrameKind})
		for _, h := range exprs {
			claims = append(claims, handle.Claim{Handle: h, Kind: core.ExprKind})
		}
		vals, err := inst.handles.ConsumeAll(claims...)
		if err != nil {
			return 0, err
		}
		es := make([]*frame.Expr, len(exprs))
		for i, v := range vals[1:] {
			es[i] = v.(*frame.Expr)
		}
		return inst.put(core.LazyFrameKind, fn(vals[0].(*frame.LazyFrame), es)), nil
	})
}

func (inst *Instance) LazyFilter(lf, predicate handle.Handle) handle.Handle {
	return inst.extend("lazy_filter", lf, []handle.Handle{predicate}, func(p *frame.LazyFrame, es []*frame.Expr) *frame.LazyFrame {
		return p.Filter(es[0])
	})
}

func (inst *Instance) LazySelect(lf handle.Handle, exprs []handle.Handle) handle.Handle {
	return inst.extend("lazy_select", lf, exprs, func(p *frame.LazyFrame, es []*frame.Expr) *frame.LazyFrame {
		return p.Select(es...)
	})
}

func (inst *Instance) LazyWithColumns(lf handle.Handle, exprs []handle.Handle) handle.Handle {
	return inst.extend("lazy_with_columns", lf, exprs, func(p *frame.LazyFrame, es []*frame.Expr) *frame.LazyFrame {
		return p.WithColumns(es...)
	})
}

func (inst *Instance) LazySort(lf handle.Handle, by []handle.Handle, descending []bool) handle.Handle {
	return inst.extend("lazy_sort", lf, by, func(p *frame.LazyFrame, es []*frame.Expr) *frame.LazyFrame {
		return p.Sort(es, descending)
	})
}

func (inst *Instance) LazyLimit(lf handle.Handle, n int) handle.Handle {
	return inst.extend("lazy_limit", lf, nil, func(p *frame.LazyFrame, _ []*frame.Expr) *frame.LazyFrame {
		return p.Limit(n)
	})
}

func (inst *Instance) LazyGroupByAgg(lf handle.Handle, keys, aggs []handle.Handle) handle.Handle {
	all := append(append([]handle.Handle(nil), keys...), aggs...)
	return inst.extend("lazy_groupby_agg", lf, all, func(p *frame.LazyFrame, es []*frame.Expr) *frame.LazyFrame {
		return p.GroupByAgg(es[:len(keys)], es[len(keys):])
	})
}

// Collect consumes the plan and runs it. The plan and its expressions are
// released whether or not execution succeeds.
func (inst *Instance) Collect(lf handle.Handle) handle.Handle {
	return inst.frameOp("lazy_collect", func() (*frame.DataFrame, error) {
		plan, err := consume[*frame.LazyFrame](inst, lf, core.LazyFrameKind)
		if err != nil {
			return nil, err
		}
		return plan.Collect(inst.env)
	})
}

func (inst *Instance) CloneLazy(h handle.Handle) handle.Handle {
	return cloneHandle[*frame.LazyFrame](inst, "lazy_clone", h, core.LazyFrameKind)
}

func (inst *Instance) FreeLazy(h handle.Handle) {
	inst.free("lazy_free", h, core.LazyFrameKind)
}

// Explain describes a borrowed plan, last step first.
func (inst *Instance) Explain(h handle.Handle) string {
	return fault.Guard(inst.barrier, "lazy_explain", "", func() (string, error) {
		plan, err := borrow[*frame.LazyFrame](inst, h, core.LazyFrameKind)
		if err != nil {
			return "", err
		}
		return plan.Explain(), nil
	})
}
