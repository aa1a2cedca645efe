// Package preview renders TablePreview result sets for display. The
// renderer is a pure function of its input: no sorting, filtering, or
// pagination happens client-side.
package preview

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"spot-monitor/internal/gateway"
)

// hiddenColumns are internal columns never displayed, regardless of
// position in the preview.
var hiddenColumns = map[string]bool{
	"Date_dt": true,
}

// twoDecimalColumns are rate-related monetary columns whose numeric
// values render with exactly two decimal digits.
var twoDecimalColumns = map[string]bool{
	"Rate Card Rate":  true,
	"Negotiated Rate": true,
}

// Table is a fully formatted preview ready for display. Rows include the
// leading 1-based index column.
type Table struct {
	Caption string
	Columns []string
	Rows    [][]string
}

// Render formats a preview for display. A nil preview produces no output
// (nil Table), which is not an error.
func Render(p *gateway.TablePreview) *Table {
	if p == nil {
		return nil
	}

	visible := make([]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		if !hiddenColumns[c] {
			visible = append(visible, c)
		}
	}

	header := make([]string, 0, len(visible)+1)
	header = append(header, "#")
	header = append(header, visible...)

	rows := make([][]string, 0, len(p.Rows))
	for i, record := range p.Rows {
		row := make([]string, 0, len(visible)+1)
		row = append(row, strconv.Itoa(i+1))
		for _, c := range visible {
			row = append(row, formatCell(c, record[c]))
		}
		rows = append(rows, row)
	}

	// The shown count comes from the sample, not TotalRows, so
	// truncation is always visible.
	return &Table{
		Caption: fmt.Sprintf("Showing %d rows (Total: %d)", len(p.Rows), p.TotalRows),
		Columns: header,
		Rows:    rows,
	}
}

func formatCell(column string, value interface{}) string {
	if value == nil {
		return ""
	}
	if twoDecimalColumns[column] {
		return formatTwoDecimal(value)
	}
	return asString(value)
}

// formatTwoDecimal renders numeric values with exactly two decimals.
// Empty values stay empty and non-numeric values pass through unchanged,
// never "NaN".
func formatTwoDecimal(value interface{}) string {
	s := asString(value)
	if s == "" {
		return ""
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(n, 'f', 2, 64)
}

func asString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; keep integral values clean.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// WriteTo writes the table to w in aligned text form.
func (t *Table) WriteTo(w io.Writer) error {
	if t == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w, t.Caption); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	writeRow(tw, t.Columns)
	for _, row := range t.Rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
