// Package catalog implements the bulk catalog reconciliation engine.
// It ingests a tabular upload (CSV or XLSX), validates it against the
// mode- and entity-specific contract, reconciles each row against the
// scoped catalog by business key (sku), and applies a partial-apply
// write policy with per-row reporting.
package catalog

import (
	"context"
	"fmt"
	"strings"
)

// EntityKind distinguishes the two reconcilable catalogs.
type EntityKind int

const (
	// SourceProduct rows belong to one crawler's product catalog.
	SourceProduct EntityKind = iota
	// BenchmarkRow rows belong to a hub's benchmark catalog.
	BenchmarkRow
)

func (k EntityKind) String() string {
	switch k {
	case SourceProduct:
		return "products"
	case BenchmarkRow:
		return "benchmarks"
	default:
		return "unknown"
	}
}

// UploadMode selects the upload contract.
type UploadMode int

const (
	// ModeFull requires every business column and is a complete-replacement upsert.
	ModeFull UploadMode = iota
	// ModePartial requires only the sku column; other columns are optional
	// per file, with distinct no-op / clear / set semantics.
	ModePartial
)

func (m UploadMode) String() string {
	if m == ModePartial {
		return "partial"
	}
	return "full"
}

// ParseUploadMode parses the form value for the upload mode.
func ParseUploadMode(s string) (UploadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return ModeFull, nil
	case "partial":
		return ModePartial, nil
	default:
		return ModeFull, fmt.Errorf("invalid upload mode: %q", s)
	}
}

// UploadFormat selects the physical encoding of the payload.
type UploadFormat int

const (
	FormatCsv UploadFormat = iota
	FormatXlsx
)

func (f UploadFormat) String() string {
	if f == FormatXlsx {
		return "xlsx"
	}
	return "csv"
}

// ParseUploadFormat parses the form value for the upload format.
func ParseUploadFormat(s string) (UploadFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCsv, nil
	case "xlsx":
		return FormatXlsx, nil
	default:
		return FormatCsv, fmt.Errorf("invalid upload format: %q", s)
	}
}

// Scope is the tenancy boundary within which business keys are unique:
// the crawler id for products, the hub id for benchmarks.
type Scope struct {
	Kind EntityKind
	ID   int64
}

// FieldState is the three-state presence signal carried by every
// candidate field. A plain optional would collapse "leave the stored
// value alone" and "clear the stored value" into one representation.
type FieldState int

const (
	// FieldUnset means the column was absent from the upload: no-op on update.
	FieldUnset FieldState = iota
	// FieldClear means the cell was present but blank: store NULL.
	FieldClear
	// FieldSet means the cell carried a value.
	FieldSet
)

// TextField is a three-state string-valued field.
type TextField struct {
	State FieldState
	Value string
}

// NumberField is a three-state numeric field. Value is meaningful only
// when State is FieldSet, and is then positive and finite.
type NumberField struct {
	State FieldState
	Value float64
}

// SetText returns a TextField carrying v.
func SetText(v string) TextField { return TextField{State: FieldSet, Value: v} }

// SetNumber returns a NumberField carrying v.
func SetNumber(v float64) NumberField { return NumberField{State: FieldSet, Value: v} }

// CandidateRecord is the typed form of one upload row. Key is always
// present and non-empty; the remaining fields carry their presence
// state so the reconciler can distinguish no-op from clear from set.
type CandidateRecord struct {
	Key         string
	Name        TextField
	Category    TextField
	Units       TextField
	Price       NumberField
	Amount      NumberField
	Description TextField
	URL         TextField // SourceProduct only
}

// ExistingRecord is the persisted counterpart of a candidate, fetched by
// scoped key lookup. The engine writes only business columns (plus the
// forced embedding invalidation for products); everything else is owned
// by the store.
type ExistingRecord struct {
	ID          int64
	Key         string
	Name        string
	Category    *string
	Units       *string
	Price       float64
	Amount      *float64
	Description *string
	URL         *string // nil for benchmarks
}

// Match is the result of a scoped key lookup. Ambiguous is set when more
// than one persisted record shares the key, a pre-existing data-quality
// issue the engine reports but never auto-resolves.
type Match struct {
	Record    *ExistingRecord
	Ambiguous bool
}

// Store is the persistence collaborator consumed by the engine.
// Implementations map storage-level failures to ErrDuplicateKey and
// ErrStoreUnavailable so the engine can tell row conflicts from fatal
// conditions.
type Store interface {
	// FindByKeys resolves the given business keys within the scope.
	// Keys with no persisted record are absent from the result.
	FindByKeys(ctx context.Context, scope Scope, keys []string) (map[string]Match, error)

	// Create inserts a new record with the candidate's set fields; unset
	// and cleared fields become their storage defaults.
	Create(ctx context.Context, scope Scope, rec *CandidateRecord) (int64, error)

	// Update applies the candidate's fields per their state (unset
	// untouched, clear to NULL, set to value). clearEmbedding forces the
	// derived embedding column to NULL in the same write.
	Update(ctx context.Context, scope Scope, id int64, rec *CandidateRecord, clearEmbedding bool) error
}

// RowOutcomeKind classifies what happened to one data row.
type RowOutcomeKind int

const (
	RowCreated RowOutcomeKind = iota
	RowUpdated
	RowSkipped
)

// RowOutcome is the per-row result. Row numbers are 1-based over data
// rows, header excluded. Key is empty when the row never produced one.
type RowOutcome struct {
	Kind      RowOutcomeKind
	RowNumber int
	Key       string
	Reason    string // set only for RowSkipped
}

// UploadReport aggregates the run: counts plus the ordered skip reasons.
// It is the only value that outlives a Reconcile call.
type UploadReport struct {
	Total   int        `json:"total"`
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}
