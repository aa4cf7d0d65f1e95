package catalog

// conflict.go detects the two conflict domains before any write:
// intra-file duplicate keys, and keys that already resolve ambiguously
// in the store. Existing-record lookups are batched per chunk and the
// chunks run concurrently; they are read-only and independent.

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// lookupChunkSize bounds how many keys one FindByKeys round-trip carries.
const lookupChunkSize = 500

// duplicateKeys returns every business key that appears on more than one
// typed row. All rows bearing such a key are rejected; none is kept.
func duplicateKeys(rows []typedRow) map[string]bool {
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.rec.Key]++
	}

	dups := make(map[string]bool)
	for key, n := range counts {
		if n > 1 {
			dups[key] = true
		}
	}
	return dups
}

// lookupExisting resolves the given keys against the scoped catalog,
// chunked to bound round-trips and issued concurrently.
func (e *Engine) lookupExisting(ctx context.Context, scope Scope, keys []string) (map[string]Match, error) {
	matches := make(map[string]Match, len(keys))
	if len(keys) == 0 {
		return matches, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for start := 0; start < len(keys); start += lookupChunkSize {
		end := start + lookupChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		g.Go(func() error {
			found, err := e.store.FindByKeys(gctx, scope, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			for k, m := range found {
				matches[k] = m
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}
