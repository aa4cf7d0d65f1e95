package catalog

import (
	"errors"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	got, err := normalizeHeader([]string{"  SKU ", "Name", "PRICE"})
	if err != nil {
		t.Fatalf("normalizeHeader: %v", err)
	}
	want := []string{"sku", "name", "price"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNormalizeHeaderRejects(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"empty header", nil},
		{"blank column name", []string{"sku", " ", "price"}},
		{"duplicate column", []string{"sku", "name", "Name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizeHeader(tt.header)
			var herr *HeaderContractError
			if !errors.As(err, &herr) {
				t.Fatalf("err = %v, want HeaderContractError", err)
			}
		})
	}
}

func TestValidateHeader(t *testing.T) {
	productFull := []string{"sku", "name", "category", "units", "price", "amount", "description", "url"}
	benchmarkFull := []string{"sku", "name", "category", "units", "price", "amount", "description"}

	tests := []struct {
		name        string
		header      []string
		kind        EntityKind
		mode        UploadMode
		wantMissing int
		wantUnknown int
	}{
		{"product full exact", productFull, SourceProduct, ModeFull, 0, 0},
		{"product full reordered", []string{"url", "description", "amount", "price", "units", "category", "name", "sku"}, SourceProduct, ModeFull, 0, 0},
		{"product full missing url", benchmarkFull, SourceProduct, ModeFull, 1, 0},
		{"benchmark full exact", benchmarkFull, BenchmarkRow, ModeFull, 0, 0},
		{"benchmark rejects url", productFull, BenchmarkRow, ModeFull, 0, 1},
		{"partial key only", []string{"sku"}, SourceProduct, ModePartial, 0, 0},
		{"partial subset", []string{"sku", "price"}, SourceProduct, ModePartial, 0, 0},
		{"partial without key", []string{"name", "price"}, SourceProduct, ModePartial, 1, 0},
		{"partial unknown column", []string{"sku", "vendor"}, SourceProduct, ModePartial, 0, 1},
		{"full unknown and missing", []string{"sku", "vendor"}, SourceProduct, ModeFull, 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHeader(tt.header, tt.kind, tt.mode)
			if tt.wantMissing == 0 && tt.wantUnknown == 0 {
				if err != nil {
					t.Fatalf("validateHeader: %v", err)
				}
				return
			}

			var herr *HeaderContractError
			if !errors.As(err, &herr) {
				t.Fatalf("err = %v, want HeaderContractError", err)
			}
			if len(herr.Missing) != tt.wantMissing {
				t.Errorf("missing = %v, want %d entries", herr.Missing, tt.wantMissing)
			}
			if len(herr.Unknown) != tt.wantUnknown {
				t.Errorf("unknown = %v, want %d entries", herr.Unknown, tt.wantUnknown)
			}
		})
	}
}
