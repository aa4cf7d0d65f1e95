package catalog

// decode.go turns the raw upload payload into a header row plus data rows.
// The two physical encodings are hidden behind RowDecoder; everything
// downstream is format-agnostic. Decoding is a pure transform: the
// declared format must match the content, and a mismatch fails fast
// instead of attempting recovery.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// DefaultMaxUploadSize is the payload ceiling applied when the engine is
// built without an explicit limit (10MB, matching the upload form cap).
const DefaultMaxUploadSize int64 = 10 * 1024 * 1024

// xlsxMagic is the ZIP local-file signature every xlsx payload starts with.
var xlsxMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// RowDecoder decodes one physical encoding into the shared row shape:
// a header row and the data rows, every data row padded to the header
// width so a blank trailing cell and an omitted trailing cell are both
// "present-empty".
type RowDecoder interface {
	Decode(payload []byte) (header []string, rows [][]string, err error)
}

// decoderFor selects the decoder for a declared format.
func decoderFor(format UploadFormat) RowDecoder {
	if format == FormatXlsx {
		return xlsxDecoder{}
	}
	return csvDecoder{}
}

type csvDecoder struct{}

func (csvDecoder) Decode(payload []byte) ([]string, [][]string, error) {
	if bytes.HasPrefix(payload, xlsxMagic) {
		return nil, nil, &DecodeError{Format: FormatCsv, Reason: "content is a spreadsheet, not CSV"}
	}

	r := csv.NewReader(bytes.NewReader(sanitizeUTF8(payload)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, &DecodeError{Format: FormatCsv, Reason: "empty file"}
	}
	if err != nil {
		return nil, nil, &DecodeError{Format: FormatCsv, Reason: "malformed CSV", Err: err}
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &DecodeError{Format: FormatCsv, Reason: "malformed CSV", Err: err}
		}
		rows = append(rows, padRow(rec, len(header)))
	}
	return header, rows, nil
}

type xlsxDecoder struct{}

func (xlsxDecoder) Decode(payload []byte) ([]string, [][]string, error) {
	if !bytes.HasPrefix(payload, xlsxMagic) {
		return nil, nil, &DecodeError{Format: FormatXlsx, Reason: "content is not a spreadsheet"}
	}

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, &DecodeError{Format: FormatXlsx, Reason: "unreadable workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, &DecodeError{Format: FormatXlsx, Reason: "workbook has no worksheet"}
	}

	// Only the first sheet is read. Cell values arrive already coerced to
	// their formatted string form; an empty cell and a blank cell are
	// indistinguishable here, which is exactly the contract.
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, &DecodeError{Format: FormatXlsx, Reason: "unreadable worksheet", Err: err}
	}
	if len(all) == 0 {
		return nil, nil, &DecodeError{Format: FormatXlsx, Reason: "empty file"}
	}

	header := all[0]
	rows := make([][]string, 0, len(all)-1)
	for _, rec := range all[1:] {
		rows = append(rows, padRow(rec, len(header)))
	}
	return header, rows, nil
}

// decodeUpload runs the size check and the format-selected decoder.
func decodeUpload(payload []byte, format UploadFormat, maxSize int64) ([]string, [][]string, error) {
	if len(payload) == 0 {
		return nil, nil, &DecodeError{Format: format, Reason: "empty file"}
	}
	if maxSize > 0 && int64(len(payload)) > maxSize {
		return nil, nil, &DecodeError{
			Format: format,
			Reason: fmt.Sprintf("file exceeds %dMB limit", maxSize/(1024*1024)),
		}
	}
	return decoderFor(format).Decode(payload)
}

// padRow extends a short record with empty cells so every row spans the
// full header width. Extra cells beyond the header are dropped.
func padRow(rec []string, width int) []string {
	if len(rec) == width {
		return rec
	}
	out := make([]string, width)
	copy(out, rec)
	return out
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune
// so user exports from legacy tooling do not abort the whole decode.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}
