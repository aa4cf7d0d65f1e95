package catalog

// export.go renders the scoped catalog back out in the same two formats
// the upload accepts: fixed column order per entity kind, no internal
// identifiers, no derived-only fields. CSV cells that a spreadsheet
// would evaluate as formulas are prefixed with an apostrophe.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Bytes       []byte
}

// RenderExport renders the records as a downloadable file named
// baseName plus the format's extension.
func RenderExport(baseName string, format UploadFormat, kind EntityKind, records []ExistingRecord) (*ExportFile, error) {
	header := Columns(kind)
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = exportRow(kind, rec)
	}

	if format == FormatXlsx {
		data, err := renderXlsx(header, rows)
		if err != nil {
			return nil, fmt.Errorf("render xlsx: %w", err)
		}
		return &ExportFile{
			FileName:    baseName + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Bytes:       data,
		}, nil
	}

	data, err := renderCsv(header, rows)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return &ExportFile{
		FileName:    baseName + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Bytes:       data,
	}, nil
}

// exportRow flattens a record into the entity's column order.
func exportRow(kind EntityKind, rec ExistingRecord) []string {
	cols := Columns(kind)
	row := make([]string, len(cols))
	for i, col := range cols {
		switch col {
		case "sku":
			row[i] = rec.Key
		case "name":
			row[i] = rec.Name
		case "category":
			row[i] = derefString(rec.Category)
		case "units":
			row[i] = derefString(rec.Units)
		case "price":
			row[i] = formatNumber(rec.Price)
		case "amount":
			if rec.Amount != nil {
				row[i] = formatNumber(*rec.Amount)
			}
		case "description":
			row[i] = derefString(rec.Description)
		case "url":
			row[i] = derefString(rec.URL)
		}
	}
	return row
}

func renderCsv(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		escaped := make([]string, len(row))
		for i, cell := range row {
			escaped[i] = escapeCsvCell(cell)
		}
		if err := w.Write(escaped); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXlsx(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
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

// escapeCsvCell neutralizes formula-injection payloads: a leading
// = + - @ would be evaluated by spreadsheet software opening the export.
func escapeCsvCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@':
		return "'" + value
	}
	return value
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
