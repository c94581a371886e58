package frame

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jedib0t/go-pretty/v6/table"
)

// DisplayRows is the number of rows String shows from each end of a frame.
const DisplayRows = 5

// String renders the frame as a table with its shape, column types and up
// to DisplayRows rows from each end.
func (df *DataFrame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "shape: (%d, %d)\n", df.Height(), df.Width())

	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, df.Width())
	for i, f := range df.schema.Fields() {
		header[i] = f.Name + "\n" + f.Type.String()
	}
	t.AppendHeader(header)

	h := df.Height()
	rows := make([]int, 0, min(h, 2*DisplayRows))
	if h <= 2*DisplayRows {
		for i := 0; i < h; i++ {
			rows = append(rows, i)
		}
	} else {
		for i := 0; i < DisplayRows; i++ {
			rows = append(rows, i)
		}
		for i := h - DisplayRows; i < h; i++ {
			rows = append(rows, i)
		}
	}

	for n, r := range rows {
		if n == DisplayRows && h > 2*DisplayRows {
			gap := make(table.Row, df.Width())
			for i := range gap {
				gap[i] = "…"
			}
			t.AppendRow(gap)
		}
		row := make(table.Row, df.Width())
		for i, name := range df.ColumnNames() {
			arr, idx, err := df.Cell(name, r)
			if err != nil {
				row[i] = "?"
				continue
			}
			row[i] = formatCell(arr, idx)
		}
		t.AppendRow(row)
	}
	t.Render()
	return b.String()
}

func formatCell(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return "null"
	}
	return arr.ValueStr(i)
}
