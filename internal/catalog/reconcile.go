package catalog

// reconcile.go is the engine's single entry point. One synchronous pass:
// decode -> header contract -> row typing -> conflict detection ->
// per-row create/update. Each row's write commits independently; a later
// row's failure never rolls back an earlier row's success. That is a
// deliberate best-effort-with-reporting policy, not an atomicity bug.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ctxCheckInterval is how many rows pass between context checks.
const ctxCheckInterval = 100

// Engine reconciles uploads against a scoped catalog.
type Engine struct {
	store         Store
	maxUploadSize int64
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxUploadSize overrides the payload size ceiling.
func WithMaxUploadSize(n int64) Option {
	return func(e *Engine) { e.maxUploadSize = n }
}

// WithLogger attaches a logger for row-level write failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine builds an engine over the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		maxUploadSize: DefaultMaxUploadSize,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// typedRow pairs a candidate with its 1-based data row number.
type typedRow struct {
	rowNum int
	rec    *CandidateRecord
}

// Reconcile ingests one upload payload and applies it to the scoped
// catalog. Decode and header-contract failures are fatal and return a
// nil report with no writes performed. A non-recoverable store failure
// mid-pass returns the partial report alongside the error, so the caller
// can still render what was applied before the abort. Row-level failures
// never fail the call; they are reported as skipped rows.
func (e *Engine) Reconcile(ctx context.Context, payload []byte, format UploadFormat, mode UploadMode, kind EntityKind, scope Scope) (*UploadReport, error) {
	header, rows, err := decodeUpload(payload, format, e.maxUploadSize)
	if err != nil {
		return nil, err
	}

	header, err = normalizeHeader(header)
	if err != nil {
		return nil, err
	}
	if err := validateHeader(header, kind, mode); err != nil {
		return nil, err
	}

	// One outcome slot per data row, filled as each row is decided, so
	// the report keeps input order no matter which stage rejects a row.
	outcomes := make([]*RowOutcome, len(rows))

	typed := make([]typedRow, 0, len(rows))
	for i, row := range rows {
		rowNum := i + 1
		rec, rerr := typeRow(header, row, rowNum, kind, mode)
		if rerr != nil {
			outcomes[i] = &RowOutcome{Kind: RowSkipped, RowNumber: rowNum, Key: rerr.Key, Reason: rerr.Message}
			continue
		}
		typed = append(typed, typedRow{rowNum: rowNum, rec: rec})
	}

	// File-level conflicts: every row bearing a duplicated key is
	// rejected; none is arbitrarily kept.
	dups := duplicateKeys(typed)
	pending := make([]typedRow, 0, len(typed))
	for _, tr := range typed {
		if dups[tr.rec.Key] {
			outcomes[tr.rowNum-1] = &RowOutcome{Kind: RowSkipped, RowNumber: tr.rowNum, Key: tr.rec.Key, Reason: reasonDuplicateInFile}
			continue
		}
		pending = append(pending, tr)
	}

	keys := make([]string, len(pending))
	for i, tr := range pending {
		keys[i] = tr.rec.Key
	}
	matches, err := e.lookupExisting(ctx, scope, keys)
	if err != nil {
		return buildPartialReport(len(rows), outcomes), fmt.Errorf("lookup existing records: %w", err)
	}

	for i, tr := range pending {
		if i%ctxCheckInterval == 0 && ctx.Err() != nil {
			return buildPartialReport(len(rows), outcomes), ctx.Err()
		}

		out, err := e.reconcileRow(ctx, tr, matches[tr.rec.Key], mode, kind, scope)
		if err != nil {
			return buildPartialReport(len(rows), outcomes), err
		}
		outcomes[tr.rowNum-1] = out
	}

	return buildPartialReport(len(rows), outcomes), nil
}

// reconcileRow decides and executes exactly one of create, update, or
// skip for a non-conflicting row. The returned error is fatal and aborts
// the remaining rows; everything row-level lands in the outcome.
func (e *Engine) reconcileRow(ctx context.Context, tr typedRow, match Match, mode UploadMode, kind EntityKind, scope Scope) (*RowOutcome, error) {
	skip := func(reason string) *RowOutcome {
		return &RowOutcome{Kind: RowSkipped, RowNumber: tr.rowNum, Key: tr.rec.Key, Reason: reason}
	}

	if match.Ambiguous {
		return skip(reasonAmbiguousMatch), nil
	}

	if match.Record != nil {
		// Any successful product update invalidates the derived embedding:
		// the content changed, so a previously computed vector is stale.
		// Recomputing it is the downstream worker's job, not ours.
		err := e.store.Update(ctx, scope, match.Record.ID, tr.rec, kind == SourceProduct)
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, fmt.Errorf("update %s: %w", tr.rec.Key, err)
		}
		if err != nil {
			e.logger.Error("row update failed", "sku", tr.rec.Key, "row", tr.rowNum, "error", err)
			return skip("failed to update record"), nil
		}
		return &RowOutcome{Kind: RowUpdated, RowNumber: tr.rowNum, Key: tr.rec.Key}, nil
	}

	// Create of an unknown key: every non-nullable column must be
	// explicitly present on this row. Full mode satisfies this by
	// construction; partial mode may not.
	if mode == ModePartial {
		for _, spec := range Specs(kind) {
			if spec.Required && !fieldPresent(tr.rec, spec.Name) {
				return skip(fmt.Sprintf("cannot create: %s is required", spec.Name)), nil
			}
		}
	}

	_, err := e.store.Create(ctx, scope, tr.rec)
	if errors.Is(err, ErrStoreUnavailable) {
		return nil, fmt.Errorf("create %s: %w", tr.rec.Key, err)
	}
	if errors.Is(err, ErrDuplicateKey) {
		// Lost the race against a concurrent upload of the same new key;
		// the store's uniqueness constraint is the last line of defense.
		return skip(ErrDuplicateKey.Error()), nil
	}
	if err != nil {
		e.logger.Error("row create failed", "sku", tr.rec.Key, "row", tr.rowNum, "error", err)
		return skip("failed to create record"), nil
	}
	return &RowOutcome{Kind: RowCreated, RowNumber: tr.rowNum, Key: tr.rec.Key}, nil
}

// buildPartialReport folds the decided outcomes, in input order, into a
// report. Undecided rows (an aborted run's suffix) are not counted.
func buildPartialReport(total int, outcomes []*RowOutcome) *UploadReport {
	b := newReportBuilder(total)
	for _, out := range outcomes {
		if out != nil {
			b.add(*out)
		}
	}
	return b.build()
}
