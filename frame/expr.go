package frame

import (
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/scalar"
	"github.com/nickyhof/FrameBridge/udf"
)

type exprOp int

const (
	opColumn exprOp = iota
	opSelect
	opLiteral
	opAlias
	opCast
	opBinary
	opNot
	opIsNull
	opIsNotNull
	opFillNull
	opIsBetween
	opAgg
	opString
	opTemporal
	opMap
)

// BinaryOp is an infix operator between two expressions.
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNotEq
	OpGt
	OpGtEq
	OpLt
	OpLtEq
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpXor
)

var binaryNames = map[BinaryOp]string{
	OpEq: "eq", OpNotEq: "neq", OpGt: "gt", OpGtEq: "gt_eq", OpLt: "lt", OpLtEq: "lt_eq",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div",
	OpAnd: "and", OpOr: "or", OpXor: "xor",
}

func (op BinaryOp) String() string {
	if s, ok := binaryNames[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// AggKind is a reduction over a whole column.
type AggKind int

const (
	AggSum AggKind = iota
	AggMean
	AggMin
	AggMax
	AggCount
	AggLen
	AggFirst
	AggLast
)

var aggNames = [...]string{"sum", "mean", "min", "max", "count", "len", "first", "last"}

func (k AggKind) String() string {
	if k >= 0 && int(k) < len(aggNames) {
		return aggNames[k]
	}
	return fmt.Sprintf("AggKind(%d)", int(k))
}

type stringOp int

const (
	strContains stringOp = iota
	strToUpper
	strToLower
	strLenBytes
)

type temporalOp int

const (
	dtYear temporalOp = iota
	dtMonth
)

// Expr is an immutable expression tree. Constructors take ownership of the
// expressions passed to them; Clone and Release manage the host callbacks the
// tree references.
type Expr struct {
	op       exprOp
	name     string
	value    scalar.Scalar
	binop    BinaryOp
	agg      AggKind
	strOp    stringOp
	temporal temporalOp
	pattern  string
	dtype    arrow.DataType
	selector *Selector
	binding  *udf.Binding
	args     []*Expr
}

func Col(name string) *Expr {
	return &Expr{op: opColumn, name: name}
}

// Lit wraps a Go value (int32, int64, float64, bool, string, ...) as a literal.
func Lit(v any) *Expr {
	return &Expr{op: opLiteral, value: scalar.MakeScalar(v)}
}

// LitNull is an untyped null literal.
func LitNull() *Expr {
	return &Expr{op: opLiteral, value: scalar.MakeNullScalar(arrow.Null)}
}

// LitDatetime is a timestamp literal in microseconds since the Unix epoch.
func LitDatetime(micros int64) *Expr {
	return &Expr{op: opLiteral, value: scalar.NewTimestampScalar(arrow.Timestamp(micros), arrow.FixedWidthTypes.Timestamp_us)}
}

// LitTime is LitDatetime for a time.Time.
func LitTime(t time.Time) *Expr {
	return LitDatetime(t.UnixMicro())
}

func Binary(op BinaryOp, left, right *Expr) *Expr {
	return &Expr{op: opBinary, binop: op, args: []*Expr{left, right}}
}

func (e *Expr) Eq(o *Expr) *Expr    { return Binary(OpEq, e, o) }
func (e *Expr) NotEq(o *Expr) *Expr { return Binary(OpNotEq, e, o) }
func (e *Expr) Gt(o *Expr) *Expr    { return Binary(OpGt, e, o) }
func (e *Expr) GtEq(o *Expr) *Expr  { return Binary(OpGtEq, e, o) }
func (e *Expr) Lt(o *Expr) *Expr    { return Binary(OpLt, e, o) }
func (e *Expr) LtEq(o *Expr) *Expr  { return Binary(OpLtEq, e, o) }
func (e *Expr) Add(o *Expr) *Expr   { return Binary(OpAdd, e, o) }
func (e *Expr) Sub(o *Expr) *Expr   { return Binary(OpSub, e, o) }
func (e *Expr) Mul(o *Expr) *Expr   { return Binary(OpMul, e, o) }
func (e *Expr) Div(o *Expr) *Expr   { return Binary(OpDiv, e, o) }
func (e *Expr) And(o *Expr) *Expr   { return Binary(OpAnd, e, o) }
func (e *Expr) Or(o *Expr) *Expr    { return Binary(OpOr, e, o) }
func (e *Expr) Xor(o *Expr) *Expr   { return Binary(OpXor, e, o) }

func (e *Expr) Not() *Expr       { return &Expr{op: opNot, args: []*Expr{e}} }
func (e *Expr) IsNull() *Expr    { return &Expr{op: opIsNull, args: []*Expr{e}} }
func (e *Expr) IsNotNull() *Expr { return &Expr{op: opIsNotNull, args: []*Expr{e}} }

// FillNull replaces nulls in e with the values of fill.
func (e *Expr) FillNull(fill *Expr) *Expr {
	return &Expr{op: opFillNull, args: []*Expr{e, fill}}
}

// IsBetween tests lower <= e <= upper.
func (e *Expr) IsBetween(lower, upper *Expr) *Expr {
	return &Expr{op: opIsBetween, args: []*Expr{e, lower, upper}}
}

func (e *Expr) Alias(name string) *Expr {
	return &Expr{op: opAlias, name: name, args: []*Expr{e}}
}

func (e *Expr) Cast(dt arrow.DataType) *Expr {
	return &Expr{op: opCast, dtype: dt, args: []*Expr{e}}
}

func (e *Expr) Agg(kind AggKind) *Expr {
	return &Expr{op: opAgg, agg: kind, args: []*Expr{e}}
}

func (e *Expr) Sum() *Expr   { return e.Agg(AggSum) }
func (e *Expr) Mean() *Expr  { return e.Agg(AggMean) }
func (e *Expr) Min() *Expr   { return e.Agg(AggMin) }
func (e *Expr) Max() *Expr   { return e.Agg(AggMax) }
func (e *Expr) Count() *Expr { return e.Agg(AggCount) }
func (e *Expr) Len() *Expr   { return e.Agg(AggLen) }
func (e *Expr) First() *Expr { return e.Agg(AggFirst) }
func (e *Expr) Last() *Expr  { return e.Agg(AggLast) }

// StrContains matches each value against a regular expression.
func (e *Expr) StrContains(pattern string) *Expr {
	return &Expr{op: opString, strOp: strContains, pattern: pattern, args: []*Expr{e}}
}

func (e *Expr) StrToUpper() *Expr  { return &Expr{op: opString, strOp: strToUpper, args: []*Expr{e}} }
func (e *Expr) StrToLower() *Expr  { return &Expr{op: opString, strOp: strToLower, args: []*Expr{e}} }
func (e *Expr) StrLenBytes() *Expr { return &Expr{op: opString, strOp: strLenBytes, args: []*Expr{e}} }

func (e *Expr) DtYear() *Expr  { return &Expr{op: opTemporal, temporal: dtYear, args: []*Expr{e}} }
func (e *Expr) DtMonth() *Expr { return &Expr{op: opTemporal, temporal: dtMonth, args: []*Expr{e}} }

// Map passes e's values through a host callback. The expression takes over
// the caller's reference to b. A nil outType keeps the input type.
func (e *Expr) Map(b *udf.Binding, outType arrow.DataType) *Expr {
	return &Expr{op: opMap, binding: b, dtype: outType, args: []*Expr{e}}
}

// IsColumn reports whether e is a bare column reference.
func (e *Expr) IsColumn() bool { return e.op == opColumn }

// OutputName is the column name the expression produces.
func (e *Expr) OutputName() string {
	switch e.op {
	case opColumn, opAlias:
		return e.name
	case opLiteral:
		return "literal"
	case opSelect:
		return ""
	}
	if len(e.args) > 0 {
		return e.args[0].OutputName()
	}
	return ""
}

// HasAgg reports whether evaluating e needs the whole column at once.
func (e *Expr) HasAgg() bool {
	if e.op == opAgg {
		return true
	}
	for _, a := range e.args {
		if a.HasAgg() {
			return true
		}
	}
	return false
}

func (e *Expr) walk(fn func(*Expr)) {
	fn(e)
	for _, a := range e.args {
		a.walk(fn)
	}
}

// Bindings lists every host callback in the tree, once per occurrence.
func (e *Expr) Bindings() []*udf.Binding {
	var out []*udf.Binding
	e.walk(func(x *Expr) {
		if x.binding != nil {
			out = append(out, x.binding)
		}
	})
	return out
}

// Clone returns an expression that shares the tree and owns its own
// references to the host callbacks in it.
func (e *Expr) Clone() *Expr {
	for _, b := range e.Bindings() {
		b.Retain()
	}
	c := *e
	return &c
}

// Release drops this expression's references to its host callbacks.
func (e *Expr) Release() {
	for _, b := range e.Bindings() {
		b.Release()
	}
}

func (e *Expr) String() string {
	switch e.op {
	case opColumn:
		return fmt.Sprintf("col(%q)", e.name)
	case opSelect:
		return e.selector.String()
	case opLiteral:
		return fmt.Sprintf("lit(%s)", e.value)
	case opAlias:
		return fmt.Sprintf("%s.alias(%q)", e.args[0], e.name)
	case opCast:
		return fmt.Sprintf("%s.cast(%s)", e.args[0], e.dtype)
	case opBinary:
		return fmt.Sprintf("[(%s) %s (%s)]", e.args[0], e.binop, e.args[1])
	case opAgg:
		return fmt.Sprintf("%s.%s()", e.args[0], e.agg)
	case opMap:
		return fmt.Sprintf("%s.map(host)", e.args[0])
	}
	args := make([]string, len(e.args))
	for i, a := range e.args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.opName(), strings.Join(args, ", "))
}

func (e *Expr) opName() string {
	switch e.op {
	case opNot:
		return "not"
	case opIsNull:
		return "is_null"
	case opIsNotNull:
		return "is_not_null"
	case opFillNull:
		return "fill_null"
	case opIsBetween:
		return "is_between"
	case opString:
		return [...]string{"str.contains", "str.to_uppercase", "str.to_lowercase", "str.len_bytes"}[e.strOp]
	case opTemporal:
		return [...]string{"dt.year", "dt.month"}[e.temporal]
	}
	return "expr"
}
