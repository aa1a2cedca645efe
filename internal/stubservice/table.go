package stubservice

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"spot-monitor/internal/gateway"
)

// Table is an in-memory row set with a stable column order, the stub's
// stand-in for the real engine's dataframes.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Preview truncates the table to limit rows for display while reporting
// the full row count.
func (t *Table) Preview(limit int) *gateway.TablePreview {
	n := len(t.Rows)
	if limit > 0 && n > limit {
		n = limit
	}

	rows := make([]map[string]interface{}, 0, n)
	for _, r := range t.Rows[:n] {
		row := make(map[string]interface{}, len(t.Columns))
		for _, c := range t.Columns {
			row[c] = r[c]
		}
		rows = append(rows, row)
	}

	return &gateway.TablePreview{
		Columns:   t.Columns,
		Rows:      rows,
		TotalRows: len(t.Rows),
	}
}

// CSV encodes the table with a header row.
func (t *Table) CSV() ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, r := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			record[i] = r[c]
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Excel encodes the table as a single-sheet workbook named like the
// original service's export.
func (t *Table) Excel(sheetName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for col, name := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return nil, err
		}
	}
	for rowIdx, r := range t.Rows {
		for col, name := range t.Columns {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, r[name]); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// tableFromSheet reads one worksheet into a Table, treating the first row
// as the header.
func tableFromSheet(f *excelize.File, sheet string) (*Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	header := rows[0]
	t := &Table{Columns: header}
	for _, raw := range rows[1:] {
		row := make(map[string]string, len(header))
		for i, c := range header {
			if i < len(raw) {
				row[c] = raw[i]
			} else {
				row[c] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
