package repository

import (
	"context"
	"fmt"

	"github.com/pushkind/dantes/internal/catalog"
)

// FindByKeys resolves business keys against the scoped table. A key that
// matches more than one row comes back flagged ambiguous with no record
// attached.
func (s *Store) FindByKeys(ctx context.Context, scope catalog.Scope, keys []string) (map[string]catalog.Match, error) {
	if len(keys) == 0 {
		return map[string]catalog.Match{}, nil
	}
	switch scope.Kind {
	case catalog.SourceProduct:
		return s.findProductsByKeys(ctx, scope.ID, keys)
	case catalog.BenchmarkRow:
		return s.findBenchmarksByKeys(ctx, scope.ID, keys)
	}
	return nil, fmt.Errorf("unknown entity kind %q", scope.Kind)
}

// Create inserts the candidate into the scoped table and returns the new
// row's id. Duplicate keys surface as catalog.ErrDuplicateKey.
func (s *Store) Create(ctx context.Context, scope catalog.Scope, rec *catalog.CandidateRecord) (int64, error) {
	switch scope.Kind {
	case catalog.SourceProduct:
		return s.createProduct(ctx, scope.ID, rec)
	case catalog.BenchmarkRow:
		return s.createBenchmark(ctx, scope.ID, rec)
	}
	return 0, fmt.Errorf("unknown entity kind %q", scope.Kind)
}

// Update applies the candidate's set and cleared fields to the row with
// the given id; unset fields are left untouched. When clearEmbedding is
// true the stored embedding vector is nulled in the same statement.
func (s *Store) Update(ctx context.Context, scope catalog.Scope, id int64, rec *catalog.CandidateRecord, clearEmbedding bool) error {
	switch scope.Kind {
	case catalog.SourceProduct:
		return s.updateProduct(ctx, scope.ID, id, rec, clearEmbedding)
	case catalog.BenchmarkRow:
		return s.updateBenchmark(ctx, scope.ID, id, rec, clearEmbedding)
	}
	return fmt.Errorf("unknown entity kind %q", scope.Kind)
}
