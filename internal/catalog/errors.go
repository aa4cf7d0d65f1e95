package catalog

// errors.go defines the upload error taxonomy.
//
// Fatal errors (DecodeError, HeaderContractError, a store outage) fail the
// whole Reconcile call before or mid-pass. Row-level conditions never fail
// the call; they surface as skipped rows inside the UploadReport.

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors bridged from the persistence collaborator.
var (
	// ErrDuplicateKey reports a uniqueness violation on create, e.g. a
	// concurrent upload winning the race for the same new key. Row-level.
	ErrDuplicateKey = errors.New("record with this sku already exists")

	// ErrStoreUnavailable reports a non-recoverable store condition such
	// as connection loss. Fatal: aborts the remaining rows.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DecodeError reports a payload that could not be decoded at all:
// malformed encoding, unreadable workbook, empty file, size over the
// ceiling, or content that does not match the declared format.
type DecodeError struct {
	Format UploadFormat
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Format, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HeaderContractError reports a structural mismatch between the decoded
// header set and the mode's required/allowed column set. The whole call
// fails before any row is typed.
type HeaderContractError struct {
	Mode    UploadMode
	Missing []string
	Unknown []string
}

func (e *HeaderContractError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown columns: "+strings.Join(e.Unknown, ", "))
	}
	if len(parts) == 0 {
		parts = append(parts, "invalid header")
	}
	return fmt.Sprintf("%s mode header: %s", e.Mode, strings.Join(parts, "; "))
}

// RowError is a single skipped row in the report. RowNumber is 1-based
// over data rows; Key is empty when the row never yielded one.
type RowError struct {
	RowNumber int    `json:"row_number"`
	Key       string `json:"sku,omitempty"`
	Message   string `json:"message"`
}

func (e RowError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("row %d (%s): %s", e.RowNumber, e.Key, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.RowNumber, e.Message)
}

// Canonical row-level skip reasons. Field-specific messages are built in
// normalize.go; these cover the key and conflict conditions.
const (
	reasonMissingKey      = "missing sku"
	reasonDuplicateInFile = "duplicate sku in uploaded file"
	reasonAmbiguousMatch  = "multiple existing records share this sku"
)
