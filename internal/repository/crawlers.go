package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/pushkind/dantes/internal/catalog"
)

// ErrNotFound is returned when a lookup by id matches no row in the
// caller's hub.
var ErrNotFound = errors.New("not found")

// Crawler is one scraping source owned by a hub.
type Crawler struct {
	ID          int64
	HubID       int64
	Name        string
	URL         string
	Selector    string
	Processing  bool
	NumProducts int
}

const selectCrawler = `
SELECT id, hub_id, name, url, selector, processing, num_products
FROM crawlers
WHERE id = $1 AND hub_id = $2
`

// GetCrawler fetches a crawler by id, scoped to the hub. A crawler
// belonging to another hub is indistinguishable from a missing one.
func (s *Store) GetCrawler(ctx context.Context, id, hubID int64) (*Crawler, error) {
	var c Crawler
	err := s.db.QueryRow(ctx, selectCrawler, id, hubID).Scan(
		&c.ID,
		&c.HubID,
		&c.Name,
		&c.URL,
		&c.Selector,
		&c.Processing,
		&c.NumProducts,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &c, nil
}

const selectProducts = `
SELECT id, sku, name, category, units, price, amount, description, url
FROM products
WHERE crawler_id = $1
ORDER BY id
`

// ListProducts returns every product of the crawler in insertion order.
func (s *Store) ListProducts(ctx context.Context, crawlerID int64) ([]catalog.ExistingRecord, error) {
	rows, err := s.db.Query(ctx, selectProducts, crawlerID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	defer rows.Close()

	var out []catalog.ExistingRecord
	for rows.Next() {
		var rec catalog.ExistingRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Key,
			&rec.Name,
			&rec.Category,
			&rec.Units,
			&rec.Price,
			&rec.Amount,
			&rec.Description,
			&rec.URL,
		); err != nil {
			return nil, mapWriteError(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapWriteError(err)
	}
	return out, nil
}

const selectBenchmarks = `
SELECT id, sku, name, category, units, price, amount, description
FROM benchmarks
WHERE hub_id = $1
ORDER BY id
`

// ListBenchmarks returns every benchmark row of the hub in insertion order.
func (s *Store) ListBenchmarks(ctx context.Context, hubID int64) ([]catalog.ExistingRecord, error) {
	rows, err := s.db.Query(ctx, selectBenchmarks, hubID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	defer rows.Close()

	var out []catalog.ExistingRecord
	for rows.Next() {
		var rec catalog.ExistingRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Key,
			&rec.Name,
			&rec.Category,
			&rec.Units,
			&rec.Price,
			&rec.Amount,
			&rec.Description,
		); err != nil {
			return nil, mapWriteError(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapWriteError(err)
	}
	return out, nil
}

const selectProductURLs = `
SELECT url
FROM products
WHERE crawler_id = $1 AND url IS NOT NULL AND url <> ''
ORDER BY id
`

// ListProductURLs returns the non-empty product page URLs of the
// crawler, for targeted price refresh jobs.
func (s *Store) ListProductURLs(ctx context.Context, crawlerID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, selectProductURLs, crawlerID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, mapWriteError(err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapWriteError(err)
	}
	return urls, nil
}
