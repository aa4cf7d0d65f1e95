package catalog

// header.go validates the decoded header row against the mode's column
// contract. This runs once per upload, before any row is typed, so a
// structurally wrong file fails with zero partial writes.

import "strings"

// normalizeHeader trims and lowercases the header cells and rejects
// headers that could not index rows unambiguously.
func normalizeHeader(header []string) ([]string, error) {
	if len(header) == 0 {
		return nil, &HeaderContractError{Missing: []string{KeyColumn}}
	}

	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			return nil, &HeaderContractError{Unknown: []string{"(empty column name)"}}
		}
		if seen[h] {
			return nil, &HeaderContractError{Unknown: []string{h + " (duplicated)"}}
		}
		seen[h] = true
		out[i] = h
	}
	return out, nil
}

// validateHeader checks the normalized header set against the entity's
// contract. Full mode requires exactly the entity's column set,
// order-independent. Partial mode requires the key column and allows any
// subset of the entity's columns. Unknown columns are rejected in both.
func validateHeader(header []string, kind EntityKind, mode UploadMode) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	herr := &HeaderContractError{Mode: mode}
	for _, h := range header {
		if _, ok := specByName(kind, h); !ok {
			herr.Unknown = append(herr.Unknown, h)
		}
	}

	switch mode {
	case ModeFull:
		for _, spec := range Specs(kind) {
			if !present[spec.Name] {
				herr.Missing = append(herr.Missing, spec.Name)
			}
		}
	case ModePartial:
		if !present[KeyColumn] {
			herr.Missing = append(herr.Missing, KeyColumn)
		}
	}

	if len(herr.Missing) > 0 || len(herr.Unknown) > 0 {
		return herr
	}
	return nil
}
