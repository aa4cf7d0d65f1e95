package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecodeCsv(t *testing.T) {
	payload := []byte("sku,name,price\nA1,Widget,10.5\nA2,Gadget,3\n")

	header, rows, err := decodeUpload(payload, FormatCsv, DefaultMaxUploadSize)
	if err != nil {
		t.Fatalf("decodeUpload: %v", err)
	}
	if len(header) != 3 || header[0] != "sku" {
		t.Errorf("header = %v", header)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[1][1] != "Gadget" {
		t.Errorf("rows[1][1] = %q, want Gadget", rows[1][1])
	}
}

func TestDecodeCsvRaggedRows(t *testing.T) {
	payload := []byte("sku,name,price\nA1,Widget\nA2,Gadget,3,extra\n")

	header, rows, err := decodeUpload(payload, FormatCsv, DefaultMaxUploadSize)
	if err != nil {
		t.Fatalf("decodeUpload: %v", err)
	}
	for i, row := range rows {
		if len(row) != len(header) {
			t.Errorf("row %d width = %d, want %d", i, len(row), len(header))
		}
	}
	if rows[0][2] != "" {
		t.Errorf("short row should be padded with empty cells, got %q", rows[0][2])
	}
}

func TestDecodeCsvRejectsSpreadsheetContent(t *testing.T) {
	payload := append([]byte{0x50, 0x4b, 0x03, 0x04}, []byte("not really csv")...)

	_, _, err := decodeUpload(payload, FormatCsv, DefaultMaxUploadSize)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if !strings.Contains(derr.Reason, "spreadsheet") {
		t.Errorf("reason = %q", derr.Reason)
	}
}

func TestDecodeXlsxRejectsCsvContent(t *testing.T) {
	_, _, err := decodeUpload([]byte("sku,name\nA1,Widget\n"), FormatXlsx, DefaultMaxUploadSize)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	for _, format := range []UploadFormat{FormatCsv, FormatXlsx} {
		_, _, err := decodeUpload(nil, format, DefaultMaxUploadSize)
		var derr *DecodeError
		if !errors.As(err, &derr) {
			t.Fatalf("%s: err = %v, want DecodeError", format, err)
		}
		if derr.Reason != "empty file" {
			t.Errorf("%s: reason = %q", format, derr.Reason)
		}
	}
}

func TestDecodeSizeCeiling(t *testing.T) {
	payload := []byte("sku\n" + strings.Repeat("A,\n", 100))

	_, _, err := decodeUpload(payload, FormatCsv, 16)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if !strings.Contains(derr.Reason, "limit") {
		t.Errorf("reason = %q", derr.Reason)
	}
}

func TestDecodeXlsx(t *testing.T) {
	payload := buildXlsx(t, [][]string{
		{"sku", "name", "price"},
		{"B1", "Bench", "42"},
	})

	header, rows, err := decodeUpload(payload, FormatXlsx, DefaultMaxUploadSize)
	if err != nil {
		t.Fatalf("decodeUpload: %v", err)
	}
	if len(header) != 3 || header[2] != "price" {
		t.Errorf("header = %v", header)
	}
	if len(rows) != 1 || rows[0][0] != "B1" {
		t.Errorf("rows = %v", rows)
	}
}

func TestDecodeCsvInvalidUTF8(t *testing.T) {
	payload := []byte("sku,name\nA1,Wid\xffget\n")

	_, rows, err := decodeUpload(payload, FormatCsv, DefaultMaxUploadSize)
	if err != nil {
		t.Fatalf("decodeUpload: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !strings.Contains(rows[0][1], "�") {
		t.Errorf("invalid byte should become replacement rune, got %q", rows[0][1])
	}
}

// buildXlsx writes the given rows onto the first sheet of a fresh
// workbook and returns the serialized bytes.
func buildXlsx(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
