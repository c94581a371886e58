package frame

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/scalar"
)

// evaluator computes expressions against one record.
type evaluator struct {
	ctx context.Context
	env *Env
	rec arrow.Record
}

func newEvaluator(env *Env, rec arrow.Record) *evaluator {
	return &evaluator{ctx: env.context(), env: env, rec: rec}
}

func (ev *evaluator) rows() int { return int(ev.rec.NumRows()) }

// releaseDatum drops array references. Scalars are left to the GC since
// literal scalars are shared with the expression tree.
func releaseDatum(d compute.Datum) {
	if d == nil {
		return
	}
	if _, ok := d.(*compute.ScalarDatum); ok {
		return
	}
	d.Release()
}

func datumType(d compute.Datum) arrow.DataType {
	if a, ok := d.(compute.ArrayLikeDatum); ok {
		return a.Type()
	}
	return nil
}

// materialize turns d into an array of n rows owned by the caller.
func (ev *evaluator) materialize(d compute.Datum, n int) (arrow.Array, error) {
	switch v := d.(type) {
	case *compute.ArrayDatum:
		return v.MakeArray(), nil
	case *compute.ChunkedDatum:
		return contiguous(ev.env.Mem, v.Value)
	case *compute.ScalarDatum:
		return scalar.MakeArrayFromScalar(v.Value, n, ev.env.Mem)
	}
	return nil, fmt.Errorf("%w: cannot materialize %s", ErrUnsupported, d.Kind())
}

// array evaluates e to an array with one value per row.
func (ev *evaluator) array(e *Expr) (arrow.Array, error) {
	d, err := ev.eval(e)
	if err != nil {
		return nil, err
	}
	defer releaseDatum(d)
	return ev.materialize(d, ev.rows())
}

func (ev *evaluator) eval(e *Expr) (compute.Datum, error) {
	switch e.op {
	case opColumn:
		idx := ev.rec.Schema().FieldIndices(e.name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, e.name)
		}
		return compute.NewDatum(ev.rec.Column(idx[0])), nil

	case opSelect:
		return nil, fmt.Errorf("%w: selector %s is only valid at the top of select or with_columns", ErrUnsupported, e.selector)

	case opLiteral:
		return &compute.ScalarDatum{Value: e.value}, nil

	case opAlias:
		return ev.eval(e.args[0])

	case opCast:
		d, err := ev.eval(e.args[0])
		if err != nil {
			return nil, err
		}
		defer releaseDatum(d)
		out, err := compute.CastDatum(ev.ctx, d, compute.SafeCastOptions(e.dtype))
		if err != nil {
			return nil, fmt.Errorf("cannot cast %s to %s: %w", e.args[0], e.dtype, err)
		}
		return out, nil

	case opBinary:
		return ev.binary(e)

	case opNot, opIsNull, opIsNotNull:
		return ev.unaryBool(e)

	case opFillNull:
		return ev.fillNull(e)

	case opIsBetween:
		lower := Binary(OpGtEq, e.args[0], e.args[1])
		upper := Binary(OpLtEq, e.args[0], e.args[2])
		return ev.binary(Binary(OpAnd, lower, upper))

	case opAgg:
		arr, err := ev.array(e.args[0])
		if err != nil {
			return nil, err
		}
		defer arr.Release()
		sc, err := aggregate(e.agg, arr)
		if err != nil {
			return nil, err
		}
		return &compute.ScalarDatum{Value: sc}, nil

	case opString, opTemporal:
		arr, err := ev.array(e.args[0])
		if err != nil {
			return nil, err
		}
		defer arr.Release()
		var out arrow.Array
		if e.op == opString {
			out, err = stringKernel(ev.env.Mem, e.strOp, e.pattern, arr)
		} else {
			out, err = temporalKernel(ev.env.Mem, e.temporal, arr)
		}
		if err != nil {
			return nil, err
		}
		defer out.Release()
		return compute.NewDatum(out), nil

	case opMap:
		arr, err := ev.array(e.args[0])
		if err != nil {
			return nil, err
		}
		defer arr.Release()
		out, err := e.binding.Apply(ev.ctx, arr, e.dtype)
		if err != nil {
			return nil, err
		}
		defer out.Release()
		return compute.NewDatum(out), nil
	}
	return nil, fmt.Errorf("%w: expression %s", ErrUnsupported, e)
}

var compareFuncs = map[BinaryOp]string{
	OpEq:    "equal",
	OpNotEq: "not_equal",
	OpGt:    "greater",
	OpGtEq:  "greater_equal",
	OpLt:    "less",
	OpLtEq:  "less_equal",
	OpAnd:   "and_kleene",
	OpOr:    "or_kleene",
	OpXor:   "xor",
}

func (ev *evaluator) binary(e *Expr) (compute.Datum, error) {
	l, err := ev.eval(e.args[0])
	if err != nil {
		return nil, err
	}
	defer releaseDatum(l)
	r, err := ev.eval(e.args[1])
	if err != nil {
		return nil, err
	}
	defer releaseDatum(r)

	if l, r, err = ev.alignNulls(l, r); err != nil {
		return nil, err
	}

	var out compute.Datum
	switch e.binop {
	case OpAdd:
		out, err = compute.Add(ev.ctx, compute.ArithmeticOptions{}, l, r)
	case OpSub:
		out, err = compute.Subtract(ev.ctx, compute.ArithmeticOptions{}, l, r)
	case OpMul:
		out, err = compute.Multiply(ev.ctx, compute.ArithmeticOptions{}, l, r)
	case OpDiv:
		// true division, as for floats
		var lf, rf compute.Datum
		if lf, err = ev.toFloat(l); err != nil {
			return nil, err
		}
		defer releaseDatum(lf)
		if rf, err = ev.toFloat(r); err != nil {
			return nil, err
		}
		defer releaseDatum(rf)
		out, err = compute.Divide(ev.ctx, compute.ArithmeticOptions{}, lf, rf)
	default:
		name, ok := compareFuncs[e.binop]
		if !ok {
			return nil, fmt.Errorf("%w: operator %s", ErrUnsupported, e.binop)
		}
		out, err = compute.CallFunction(ev.ctx, name, nil, l, r)
	}
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", e, err)
	}
	return out, nil
}

// alignNulls casts an untyped null operand to the other operand's type.
func (ev *evaluator) alignNulls(l, r compute.Datum) (compute.Datum, compute.Datum, error) {
	lt, rt := datumType(l), datumType(r)
	if lt == nil || rt == nil {
		return l, r, nil
	}
	switch {
	case lt.ID() == arrow.NULL && rt.ID() != arrow.NULL:
		c, err := compute.CastDatum(ev.ctx, l, compute.SafeCastOptions(rt))
		return c, r, err
	case rt.ID() == arrow.NULL && lt.ID() != arrow.NULL:
		c, err := compute.CastDatum(ev.ctx, r, compute.SafeCastOptions(lt))
		return l, c, err
	}
	return l, r, nil
}

func (ev *evaluator) toFloat(d compute.Datum) (compute.Datum, error) {
	dt := datumType(d)
	if dt == nil || arrow.IsFloating(dt.ID()) {
		if a, ok := d.(*compute.ArrayDatum); ok {
			a.Value.Retain()
		}
		return d, nil
	}
	return compute.CastDatum(ev.ctx, d, compute.SafeCastOptions(arrow.PrimitiveTypes.Float64))
}

func (ev *evaluator) unaryBool(e *Expr) (compute.Datum, error) {
	d, err := ev.eval(e.args[0])
	if err != nil {
		return nil, err
	}
	defer releaseDatum(d)

	if sd, ok := d.(*compute.ScalarDatum); ok {
		valid := sd.Value.IsValid()
		switch e.op {
		case opIsNull:
			return compute.NewDatum(scalar.NewBooleanScalar(!valid)), nil
		case opIsNotNull:
			return compute.NewDatum(scalar.NewBooleanScalar(valid)), nil
		}
		b, ok := sd.Value.(*scalar.Boolean)
		if !ok {
			return nil, fmt.Errorf("%w: not() on %s", ErrUnsupported, sd.Type())
		}
		if !valid {
			return compute.NewDatum(scalar.MakeNullScalar(arrow.FixedWidthTypes.Boolean)), nil
		}
		return compute.NewDatum(scalar.NewBooleanScalar(!b.Value)), nil
	}

	arr, err := ev.materialize(d, ev.rows())
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	out, err := boolKernel(ev.env.Mem, e.op, arr)
	if err != nil {
		return nil, err
	}
	defer out.Release()
	return compute.NewDatum(out), nil
}

// fillNull picks, per row, the value of x or, where x is null, of fill.
func (ev *evaluator) fillNull(e *Expr) (compute.Datum, error) {
	x, err := ev.array(e.args[0])
	if err != nil {
		return nil, err
	}
	defer x.Release()
	if x.NullN() == 0 {
		return compute.NewDatum(x), nil
	}

	fd, err := ev.eval(e.args[1])
	if err != nil {
		return nil, err
	}
	defer releaseDatum(fd)
	if !arrow.TypeEqual(datumType(fd), x.DataType()) {
		cast, err := compute.CastDatum(ev.ctx, fd, compute.SafeCastOptions(x.DataType()))
		if err != nil {
			return nil, fmt.Errorf("fill value does not match %s: %w", x.DataType(), err)
		}
		defer releaseDatum(cast)
		fd = cast
	}
	fill, err := ev.materialize(fd, x.Len())
	if err != nil {
		return nil, err
	}
	defer fill.Release()

	combined, err := array.Concatenate([]arrow.Array{x, fill}, ev.env.Mem)
	if err != nil {
		return nil, err
	}
	defer combined.Release()

	ib := array.NewInt64Builder(ev.env.Mem)
	defer ib.Release()
	n := int64(x.Len())
	for i := int64(0); i < n; i++ {
		if x.IsValid(int(i)) {
			ib.Append(i)
		} else {
			ib.Append(n + i)
		}
	}
	idx := ib.NewArray()
	defer idx.Release()

	out, err := compute.TakeArray(ev.ctx, combined, idx)
	if err != nil {
		return nil, err
	}
	defer out.Release()
	return compute.NewDatum(out), nil
}
