package catalog

// normalize.go converts one decoded row into a typed CandidateRecord,
// applying the mode's emptiness semantics per field:
//
//	column absent            -> FieldUnset (partial mode only; no-op on update)
//	present, blank, nullable -> FieldClear (store NULL)
//	present, blank, required -> row error
//	present, value           -> FieldSet (typed)
//
// The presence state must survive into the candidate; collapsing it into
// a plain optional would merge "leave alone" and "clear".

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// typeRow types one data row. rowNum is 1-based over data rows.
// Returns the candidate or the row error, never both.
func typeRow(header []string, row []string, rowNum int, kind EntityKind, mode UploadMode) (*CandidateRecord, *RowError) {
	cells := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(row) {
			cells[col] = row[i]
		} else {
			cells[col] = ""
		}
	}

	key := strings.TrimSpace(cells[KeyColumn])
	if key == "" {
		return nil, &RowError{RowNumber: rowNum, Message: reasonMissingKey}
	}

	rec := &CandidateRecord{Key: key}
	for _, spec := range Specs(kind) {
		if spec.Name == KeyColumn {
			continue
		}

		raw, present := cells[spec.Name]
		if !present {
			continue // column absent from this upload: field stays FieldUnset
		}

		value := cleanCell(raw)
		if value == "" {
			if spec.Required {
				return nil, &RowError{
					RowNumber: rowNum,
					Key:       key,
					Message:   fmt.Sprintf("%s must not be empty", spec.Name),
				}
			}
			setField(rec, spec.Name, TextField{State: FieldClear}, NumberField{State: FieldClear})
			continue
		}

		switch spec.Kind {
		case FieldNumber:
			n, err := parseNumber(value)
			if err != nil {
				return nil, &RowError{
					RowNumber: rowNum,
					Key:       key,
					Message:   fmt.Sprintf("invalid numeric value for %s: %q", spec.Name, value),
				}
			}
			setField(rec, spec.Name, TextField{}, SetNumber(n))
		default:
			setField(rec, spec.Name, SetText(value), NumberField{})
		}
	}

	return rec, nil
}

// setField routes a typed value into the candidate by column name.
func setField(rec *CandidateRecord, name string, t TextField, n NumberField) {
	switch name {
	case "name":
		rec.Name = t
	case "category":
		rec.Category = t
	case "units":
		rec.Units = t
	case "description":
		rec.Description = t
	case "url":
		rec.URL = t
	case "price":
		rec.Price = n
	case "amount":
		rec.Amount = n
	}
}

// parseNumber parses a decimal cell. Values must be positive and finite;
// a price or amount of zero is as much an upload mistake as "abc".
func parseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0, fmt.Errorf("value must be positive")
	}
	return n, nil
}

// cleanCell strips the artifacts spreadsheet exports leave behind:
// surrounding whitespace and the Excel formula-literal wrapper (="...").
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) > 3 {
		s = s[2 : len(s)-1]
		s = strings.TrimSpace(s)
	}
	return s
}

// fieldPresent reports whether the candidate carries an explicit value
// for a required column, which gates partial-mode creates.
func fieldPresent(rec *CandidateRecord, name string) bool {
	switch name {
	case KeyColumn:
		return rec.Key != ""
	case "name":
		return rec.Name.State == FieldSet
	case "category":
		return rec.Category.State == FieldSet
	case "units":
		return rec.Units.State == FieldSet
	case "description":
		return rec.Description.State == FieldSet
	case "url":
		return rec.URL.State == FieldSet
	case "price":
		return rec.Price.State == FieldSet
	case "amount":
		return rec.Amount.State == FieldSet
	default:
		return false
	}
}
