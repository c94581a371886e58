package FrameBridge

import (
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/handle"
	"github.com/nickyhof/FrameBridge/sqlctx"
)

// NewSQLContext opens a SQL session with its own in-memory database.
func (inst *Instance) NewSQLContext() handle.Handle {
	return fault.Guard(inst.barrier, "sql_context_new", 0, func() (handle.Handle, error) {
		c, err := sqlctx.NewContext(inst.ctx(), inst.logger)
		if err != nil {
			return 0, err
		}
		return inst.put(core.SQLContextKind, c), nil
	})
}

// SQLRegister runs the plan lf and registers its result as table name. The
// plan is consumed; the context is borrowed.
func (inst *Instance) SQLRegister(ctx handle.Handle, name string, lf handle.Handle) bool {
	return fault.Guard(inst.barrier, "sql_register", false, func() (bool, error) {
		c, err := borrow[*sqlctx.Context](inst, ctx, core.SQLContextKind)
		if err != nil {
			return false, err
		}
		plan, err := consume[*frame.LazyFrame](inst, lf, core.LazyFrameKind)
		if err != nil {
			return false, err
		}
		df, err := plan.Collect(inst.env)
		if err != nil {
			return false, err
		}
		defer df.Release()
		if err := c.Register(inst.ctx(), name, df); err != nil {
			return false, err
		}
		return true, nil
	})
}

// SQLExecute runs query against the context's tables.
func (inst *Instance) SQLExecute(ctx handle.Handle, query string) handle.Handle {
	return inst.frameOp("sql_execute", func() (*frame.DataFrame, error) {
		c, err := borrow[*sqlctx.Context](inst, ctx, core.SQLContextKind)
		if err != nil {
			return nil, err
		}
		return c.Execute(inst.ctx(), inst.env, query)
	})
}

func (inst *Instance) FreeSQLContext(h handle.Handle) {
	inst.free("sql_context_free", h, core.SQLContextKind)
}

// SQLTables lists the tables registered in the context in registration order.
func (inst *Instance) SQLTables(ctx handle.Handle) []string {
	return fault.Guard[[]string](inst.barrier, "sql_tables", nil, func() ([]string, error) {
		c, err := borrow[*sqlctx.Context](inst, ctx, core.SQLContextKind)
		if err != nil {
			return nil, err
		}
		return c.Tables(), nil
	})
}
