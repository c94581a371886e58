package frame

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/scalar"
)

// QuoteIdent quotes a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var sqlOperators = map[BinaryOp]string{
	OpEq: "=", OpNotEq: "<>", OpGt: ">", OpGtEq: ">=", OpLt: "<", OpLtEq: "<=",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpAnd: "AND", OpOr: "OR", OpXor: "XOR",
}

var sqlAggregates = map[AggKind]string{
	AggSum: "SUM", AggMean: "AVG", AggMin: "MIN", AggMax: "MAX",
	AggCount: "COUNT", AggFirst: "FIRST", AggLast: "LAST",
}

// SQL renders e as a DuckDB expression. Host callbacks and selectors have no
// SQL form.
func (e *Expr) SQL() (string, error) {
	switch e.op {
	case opColumn:
		return QuoteIdent(e.name), nil
	case opLiteral:
		return sqlLiteral(e.value)
	case opAlias:
		return e.args[0].SQL()
	}

	args := make([]string, len(e.args))
	for i, a := range e.args {
		s, err := a.SQL()
		if err != nil {
			return "", err
		}
		args[i] = s
	}

	switch e.op {
	case opCast:
		t, err := SQLType(e.dtype)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CAST(%s AS %s)", args[0], t), nil
	case opBinary:
		if e.binop == OpDiv {
			return fmt.Sprintf("(CAST(%s AS DOUBLE) / %s)", args[0], args[1]), nil
		}
		if e.binop == OpXor {
			return fmt.Sprintf("((%s) <> (%s))", args[0], args[1]), nil
		}
		return fmt.Sprintf("(%s %s %s)", args[0], sqlOperators[e.binop], args[1]), nil
	case opNot:
		return fmt.Sprintf("(NOT %s)", args[0]), nil
	case opIsNull:
		return fmt.Sprintf("(%s IS NULL)", args[0]), nil
	case opIsNotNull:
		return fmt.Sprintf("(%s IS NOT NULL)", args[0]), nil
	case opFillNull:
		return fmt.Sprintf("COALESCE(%s, %s)", args[0], args[1]), nil
	case opIsBetween:
		return fmt.Sprintf("(%s BETWEEN %s AND %s)", args[0], args[1], args[2]), nil
	case opAgg:
		if e.agg == AggLen {
			return "COUNT(*)", nil
		}
		return fmt.Sprintf("%s(%s)", sqlAggregates[e.agg], args[0]), nil
	case opString:
		switch e.strOp {
		case strContains:
			return fmt.Sprintf("regexp_matches(%s, %s)", args[0], quoteString(e.pattern)), nil
		case strToUpper:
			return fmt.Sprintf("UPPER(%s)", args[0]), nil
		case strToLower:
			return fmt.Sprintf("LOWER(%s)", args[0]), nil
		case strLenBytes:
			return fmt.Sprintf("CAST(strlen(%s) AS UINTEGER)", args[0]), nil
		}
	case opTemporal:
		if e.temporal == dtYear {
			return fmt.Sprintf("CAST(year(%s) AS INTEGER)", args[0]), nil
		}
		return fmt.Sprintf("CAST(month(%s) AS TINYINT)", args[0]), nil
	}
	return "", fmt.Errorf("%w: %s has no SQL form", ErrUnsupported, e)
}

func sqlLiteral(s scalar.Scalar) (string, error) {
	if !s.IsValid() {
		if s.DataType().ID() == arrow.NULL {
			return "NULL", nil
		}
		t, err := SQLType(s.DataType())
		if err != nil {
			return "", err
		}
		return "CAST(NULL AS " + t + ")", nil
	}
	switch v := s.(type) {
	case *scalar.Boolean:
		return strconv.FormatBool(v.Value), nil
	case *scalar.Int32:
		return strconv.FormatInt(int64(v.Value), 10), nil
	case *scalar.Int64:
		return strconv.FormatInt(v.Value, 10), nil
	case *scalar.Float64:
		return "CAST(" + strconv.FormatFloat(v.Value, 'g', -1, 64) + " AS DOUBLE)", nil
	case *scalar.String:
		return quoteString(v.String()), nil
	case *scalar.Timestamp:
		return fmt.Sprintf("make_timestamp(%d)", int64(v.Value)), nil
	}
	t, err := SQLType(s.DataType())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CAST(%s AS %s)", quoteString(s.String()), t), nil
}

// SQLType maps an Arrow type to the DuckDB column type that holds it.
func SQLType(dt arrow.DataType) (string, error) {
	switch dt.ID() {
	case arrow.BOOL:
		return "BOOLEAN", nil
	case arrow.INT8:
		return "TINYINT", nil
	case arrow.INT16:
		return "SMALLINT", nil
	case arrow.INT32:
		return "INTEGER", nil
	case arrow.INT64:
		return "BIGINT", nil
	case arrow.UINT8:
		return "UTINYINT", nil
	case arrow.UINT16:
		return "USMALLINT", nil
	case arrow.UINT32:
		return "UINTEGER", nil
	case arrow.UINT64:
		return "UBIGINT", nil
	case arrow.FLOAT32:
		return "FLOAT", nil
	case arrow.FLOAT64:
		return "DOUBLE", nil
	case arrow.STRING, arrow.LARGE_STRING:
		return "VARCHAR", nil
	case arrow.BINARY, arrow.LARGE_BINARY:
		return "BLOB", nil
	case arrow.DATE32, arrow.DATE64:
		return "DATE", nil
	case arrow.TIMESTAMP:
		return "TIMESTAMP", nil
	case arrow.TIME64, arrow.TIME32:
		return "TIME", nil
	case arrow.DURATION:
		return "INTERVAL", nil
	case arrow.DECIMAL128:
		d := dt.(*arrow.Decimal128Type)
		return fmt.Sprintf("DECIMAL(%d, %d)", d.Precision, d.Scale), nil
	}
	return "", fmt.Errorf("%w: no SQL type for %s", ErrUnsupported, dt)
}
