package core

import "fmt"

// Kind tags what an opaque handle refers to.
type Kind int

const (
	InvalidKind Kind = iota
	DataFrameKind
	SeriesKind
	ExprKind
	LazyFrameKind
	ArrowArrayKind
	DataTypeKind
	SelectorKind
	SQLContextKind
)

var kindNames = [...]string{
	InvalidKind:    "invalid",
	DataFrameKind:  "dataframe",
	SeriesKind:     "series",
	ExprKind:       "expr",
	LazyFrameKind:  "lazyframe",
	ArrowArrayKind: "arrow_array",
	DataTypeKind:   "datatype",
	SelectorKind:   "selector",
	SQLContextKind: "sql_context",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds lists every valid handle kind.
func Kinds() []Kind {
	return []Kind{DataFrameKind, SeriesKind, ExprKind, LazyFrameKind, ArrowArrayKind, DataTypeKind, SelectorKind, SQLContextKind}
}

// JoinType selects the join strategy.
type JoinType int32

const (
	InnerJoin JoinType = iota
	LeftJoin
	OuterJoin
	CrossJoin
	SemiJoin
	AntiJoin
)

func (j JoinType) String() string {
	switch j {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case OuterJoin:
		return "outer"
	case CrossJoin:
		return "cross"
	case SemiJoin:
		return "semi"
	case AntiJoin:
		return "anti"
	}
	return fmt.Sprintf("JoinType(%d)", int32(j))
}

// Valid reports whether j is a known join strategy.
func (j JoinType) Valid() bool { return j >= InnerJoin && j <= AntiJoin }

// ConcatHow selects how frames are concatenated.
type ConcatHow int32

const (
	ConcatVertical ConcatHow = iota
	ConcatHorizontal
	ConcatDiagonal
)

func (c ConcatHow) String() string {
	switch c {
	case ConcatVertical:
		return "vertical"
	case ConcatHorizontal:
		return "horizontal"
	case ConcatDiagonal:
		return "diagonal"
	}
	return fmt.Sprintf("ConcatHow(%d)", int32(c))
}
