package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type updateCall struct {
	id             int64
	rec            *CandidateRecord
	clearEmbedding bool
}

// fakeStore is an in-memory Store. Error injection is per business key.
type fakeStore struct {
	records   map[string][]*ExistingRecord
	nextID    int64
	findErr   error
	createErr map[string]error
	updateErr map[string]error

	creates []string
	updates []updateCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:   make(map[string][]*ExistingRecord),
		createErr: make(map[string]error),
		updateErr: make(map[string]error),
	}
}

func (f *fakeStore) seed(rec *ExistingRecord) {
	f.nextID++
	rec.ID = f.nextID
	f.records[rec.Key] = append(f.records[rec.Key], rec)
}

func (f *fakeStore) FindByKeys(ctx context.Context, scope Scope, keys []string) (map[string]Match, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make(map[string]Match)
	for _, key := range keys {
		recs := f.records[key]
		switch len(recs) {
		case 0:
		case 1:
			out[key] = Match{Record: recs[0]}
		default:
			out[key] = Match{Ambiguous: true}
		}
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, scope Scope, rec *CandidateRecord) (int64, error) {
	if err := f.createErr[rec.Key]; err != nil {
		return 0, err
	}
	f.creates = append(f.creates, rec.Key)
	existing := &ExistingRecord{Key: rec.Key, Name: rec.Name.Value, Price: rec.Price.Value}
	f.seed(existing)
	return existing.ID, nil
}

func (f *fakeStore) Update(ctx context.Context, scope Scope, id int64, rec *CandidateRecord, clearEmbedding bool) error {
	if err := f.updateErr[rec.Key]; err != nil {
		return err
	}
	f.updates = append(f.updates, updateCall{id: id, rec: rec, clearEmbedding: clearEmbedding})
	return nil
}

func reconcileCsv(t *testing.T, store Store, csv string, mode UploadMode, kind EntityKind) (*UploadReport, error) {
	t.Helper()
	engine := NewEngine(store)
	return engine.Reconcile(context.Background(), []byte(csv), FormatCsv, mode, kind, Scope{Kind: kind, ID: 1})
}

func TestReconcilePartialCreatesAndUpdates(t *testing.T) {
	store := newFakeStore()
	store.seed(&ExistingRecord{Key: "A1", Name: "Old"})

	report, err := reconcileCsv(t, store,
		"sku,price\nA1,10\nA2,20\n",
		ModePartial, SourceProduct)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if report.Total != 2 || report.Updated != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}
	// A2 is unknown and the file carries no name, so it cannot be created.
	if len(report.Errors) != 1 || report.Errors[0].Key != "A2" {
		t.Fatalf("errors = %+v", report.Errors)
	}
	if report.Errors[0].Message != "cannot create: name is required" {
		t.Errorf("message = %q", report.Errors[0].Message)
	}
	if len(store.updates) != 1 || store.updates[0].rec.Key != "A1" {
		t.Errorf("updates = %+v", store.updates)
	}
}

func TestReconcileFullCreate(t *testing.T) {
	store := newFakeStore()

	report, err := reconcileCsv(t, store,
		"sku,name,category,units,price,amount,description\nB9,Steel,metals,kg,100,5,raw steel\n",
		ModeFull, BenchmarkRow)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if report.Total != 1 || report.Created != 1 || report.Updated != 0 || report.Skipped != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(store.creates) != 1 || store.creates[0] != "B9" {
		t.Errorf("creates = %v", store.creates)
	}
}

func TestReconcileDuplicateKeysInFile(t *testing.T) {
	store := newFakeStore()
	store.seed(&ExistingRecord{Key: "A1", Name: "Old"})

	report, err := reconcileCsv(t, store,
		"sku,price\nA1,10\nA2,20\nA1,30\n",
		ModePartial, SourceProduct)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	// Both A1 rows are rejected; neither is arbitrarily kept, and the
	// existing A1 record is never written.
	if report.Total != 3 || report.Updated != 0 || report.Skipped != 3 {
		t.Errorf("report = %+v", report)
	}
	if len(store.updates) != 0 {
		t.Errorf("updates = %+v, want none", store.updates)
	}

	wantRows := []int{1, 2, 3}
	for i, re := range report.Errors {
		if re.RowNumber != wantRows[i] {
			t.Errorf("errors[%d].RowNumber = %d, want %d", i, re.RowNumber, wantRows[i])
		}
	}
	if report.Errors[0].Message != "duplicate sku in uploaded file" {
		t.Errorf("message = %q", report.Errors[0].Message)
	}
}

func TestReconcileAmbiguousMatch(t *testing.T) {
	store := newFakeStore()
	store.seed(&ExistingRecord{Key: "A1", Name: "First"})
	store.seed(&ExistingRecord{Key: "A1", Name: "Second"})

	report, err := reconcileCsv(t, store,
		"sku,price\nA1,10\n",
		ModePartial, SourceProduct)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if report.Skipped != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Errors[0].Message != "multiple existing records share this sku" {
		t.Errorf("message = %q", report.Errors[0].Message)
	}
	if len(store.updates) != 0 {
		t.Errorf("updates = %+v, want none", store.updates)
	}
}

func TestReconcileProductUpdateClearsEmbedding(t *testing.T) {
	store := newFakeStore()
	store.seed(&ExistingRecord{Key: "A1", Name: "Old"})

	if _, err := reconcileCsv(t, store, "sku,url\nA1,\n", ModePartial, SourceProduct); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(store.updates) != 1 {
		t.Fatalf("updates = %+v", store.updates)
	}
	up := store.updates[0]
	if !up.clearEmbedding {
		t.Error("product update must clear the stored embedding")
	}
	if up.rec.URL.State != FieldClear {
		t.Errorf("URL.State = %v, want FieldClear", up.rec.URL.State)
	}
}

func TestReconcileBenchmarkUpdateKeepsEmbedding(t *testing.T) {
	store := newFakeStore()
	store.seed(&ExistingRecord{Key: "B1", Name: "Old"})

	_, err := reconcileCsv(t, store,
		"sku,name,category,units,price,amount,description\nB1,Steel,metals,kg,100,5,raw steel\n",
		ModeFull, BenchmarkRow)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(store.updates) != 1 {
		t.Fatalf("updates = %+v", store.updates)
	}
	if store.updates[0].clearEmbedding {
		t.Error("benchmark updates must not touch the stored embedding")
	}
}

func TestReconcileHeaderContractFatal(t *testing.T) {
	store := newFakeStore()

	report, err := reconcileCsv(t, store, "sku,vendor\nA1,x\n", ModePartial, SourceProduct)
	var herr *HeaderContractError
	if !errors.As(err, &herr) {
		t.Fatalf("err = %v, want HeaderContractError", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
	if len(store.creates) != 0 || len(store.updates) != 0 {
		t.Error("no writes may happen on a header contract failure")
	}
}

func TestReconcileDecodeFatal(t *testing.T) {
	store := newFakeStore()

	report, err := reconcileCsv(t, store, "", ModePartial, SourceProduct)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
}

func TestReconcileLookupFailureReturnsPartialReport(t *testing.T) {
	store := newFakeStore()
	store.findErr = fmt.Errorf("lookup: %w", ErrStoreUnavailable)

	report, err := reconcileCsv(t, store,
		"sku,price\nA1,10\n,20\n",
		ModePartial, SourceProduct)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if report == nil {
		t.Fatal("partial report must accompany the fatal error")
	}
	// Row 2 was already rejected at typing; the lookup never decided row 1.
	if report.Total != 2 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestReconcileStoreOutageMidPassAborts(t *testing.T) {
	store := newFakeStore()
	store.createErr["A2"] = fmt.Errorf("insert: %w", ErrStoreUnavailable)

	report, err := reconcileCsv(t, store,
		"sku,name,price\nA1,First,1\nA2,Second,2\nA3,Third,3\n",
		ModePartial, SourceProduct)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if report == nil {
		t.Fatal("partial report must accompany the fatal error")
	}

	// A1 committed before the outage and stays committed; A3 was never
	// attempted and is not counted.
	if report.Created != 1 || report.Skipped != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(store.creates) != 1 || store.creates[0] != "A1" {
		t.Errorf("creates = %v", store.creates)
	}
}

func TestReconcileCreateRaceLoser(t *testing.T) {
	store := newFakeStore()
	store.createErr["A1"] = fmt.Errorf("insert: %w", ErrDuplicateKey)

	report, err := reconcileCsv(t, store,
		"sku,name,price\nA1,First,1\nA2,Second,2\n",
		ModePartial, SourceProduct)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	// Losing a uniqueness race is a row problem, not a fatal one: the
	// rest of the file still applies.
	if report.Created != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Errors[0].Message != ErrDuplicateKey.Error() {
		t.Errorf("message = %q", report.Errors[0].Message)
	}
}

func TestReconcileRowWriteFailureSkipsRow(t *testing.T) {
	store := newFakeStore()
	store.seed(&ExistingRecord{Key: "A1", Name: "Old"})
	store.updateErr["A1"] = errors.New("check constraint violated")

	report, err := reconcileCsv(t, store,
		"sku,price\nA1,10\n",
		ModePartial, SourceProduct)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Skipped != 1 || report.Errors[0].Message != "failed to update record" {
		t.Errorf("report = %+v", report)
	}
}

func TestReconcileIdempotentRerun(t *testing.T) {
	store := newFakeStore()
	csv := "sku,name,price\nA1,Widget,10\nA2,Gadget,20\n"

	first, err := reconcileCsv(t, store, csv, ModePartial, SourceProduct)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created != 2 {
		t.Fatalf("first = %+v", first)
	}

	second, err := reconcileCsv(t, store, csv, ModePartial, SourceProduct)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 0 || second.Updated != 2 || second.Skipped != 0 {
		t.Errorf("second = %+v", second)
	}
}

func TestReconcileReportOrderSpansStages(t *testing.T) {
	store := newFakeStore()

	// Row 1 fails typing, row 2 creates, rows 3 and 5 collide in-file,
	// row 4 fails typing. Errors must come back in input order.
	report, err := reconcileCsv(t, store,
		"sku,name,price\n,X,1\nA2,Widget,2\nA3,Y,3\nA4,Z,zero\nA3,Y,5\n",
		ModePartial, SourceProduct)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if report.Created != 1 || report.Skipped != 4 {
		t.Fatalf("report = %+v", report)
	}
	wantRows := []int{1, 3, 4, 5}
	if len(report.Errors) != len(wantRows) {
		t.Fatalf("errors = %+v", report.Errors)
	}
	for i, re := range report.Errors {
		if re.RowNumber != wantRows[i] {
			t.Errorf("errors[%d].RowNumber = %d, want %d", i, re.RowNumber, wantRows[i])
		}
	}
}
