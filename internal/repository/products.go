package repository

import (
	"context"
	"fmt"

	"github.com/pushkind/dantes/internal/catalog"
)

const selectProductsByKeys = `
SELECT id, sku, name, category, units, price, amount, description, url
FROM products
WHERE crawler_id = $1 AND sku = ANY($2)
ORDER BY id
`

func (s *Store) findProductsByKeys(ctx context.Context, crawlerID int64, keys []string) (map[string]catalog.Match, error) {
	rows, err := s.db.Query(ctx, selectProductsByKeys, crawlerID, keys)
	if err != nil {
		return nil, mapWriteError(err)
	}
	defer rows.Close()

	matches := make(map[string]catalog.Match, len(keys))
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
		if prev, ok := matches[rec.Key]; ok {
			prev.Record = nil
			prev.Ambiguous = true
			matches[rec.Key] = prev
			continue
		}
		r := rec
		matches[rec.Key] = catalog.Match{Record: &r}
	}
	if err := rows.Err(); err != nil {
		return nil, mapWriteError(err)
	}
	return matches, nil
}

const insertProduct = `
INSERT INTO products (crawler_id, sku, name, category, units, price, amount, description, url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
RETURNING id
`

func (s *Store) createProduct(ctx context.Context, crawlerID int64, rec *catalog.CandidateRecord) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, insertProduct,
		crawlerID,
		rec.Key,
		rec.Name.Value,
		textValue(rec.Category),
		textValue(rec.Units),
		rec.Price.Value,
		numberValue(rec.Amount),
		textValue(rec.Description),
		textValue(rec.URL),
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return id, nil
}

func (s *Store) updateProduct(ctx context.Context, crawlerID, id int64, rec *catalog.CandidateRecord, clearEmbedding bool) error {
	var set setClause
	set.text("name", rec.Name)
	set.text("category", rec.Category)
	set.text("units", rec.Units)
	set.number("price", rec.Price)
	set.number("amount", rec.Amount)
	set.text("description", rec.Description)
	set.text("url", rec.URL)
	if clearEmbedding {
		set.setNull("embedding")
	}
	set.cols = append(set.cols, "updated_at = now()")

	args := append(set.args, id, crawlerID)
	sql := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d AND crawler_id = $%d",
		set.sql(), len(set.args)+1, len(set.args)+2)
	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return mapWriteError(err)
	}
	return nil
}
