package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dukerupert/embla/internal/domain"
)

const productColumns = `
	id, sku, name, slug, origin, roast_type, tasting_notes,
	cost_price, markup_percent, price, weight_grams, stock, is_active,
	available_grinds, image_url, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Slug, &p.Origin, &p.RoastType, &p.TastingNotes,
		&p.CostPrice, &p.MarkupPercent, &p.Price, &p.WeightGrams, &p.Stock, &p.IsActive,
		&p.AvailableGrinds, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductBySlug retrieves a product by its URL slug.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	row := s.db.QueryRow(ctx, `SELECT`+productColumns+` FROM products WHERE slug = $1`, slug)
	p, err := scanProduct(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "postgres.get_product_by_slug", "failed to get product")
	}
	return p, nil
}

// GetProductForUpdate retrieves a product and locks its row for the rest of
// the transaction.
func (s *Store) GetProductForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := s.db.QueryRow(ctx, `SELECT`+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	p, err := scanProduct(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "postgres.get_product_for_update", "failed to lock product")
	}
	return p, nil
}

// ListActiveProducts returns purchasable catalog entries in display order.
func (s *Store) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.Query(ctx,
		`SELECT`+productColumns+` FROM products WHERE is_active = true ORDER BY name ASC`)
	if err != nil {
		return nil, domain.Internal(err, "postgres.list_active_products", "failed to list products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, "postgres.list_active_products", "failed to scan product")
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.list_active_products", "failed to read products")
	}
	return products, nil
}

// SaveProduct upserts a product by ID.
func (s *Store) SaveProduct(ctx context.Context, p *domain.Product) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO products (
			id, sku, name, slug, origin, roast_type, tasting_notes,
			cost_price, markup_percent, price, weight_grams, stock, is_active,
			available_grinds, image_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku,
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			origin = EXCLUDED.origin,
			roast_type = EXCLUDED.roast_type,
			tasting_notes = EXCLUDED.tasting_notes,
			cost_price = EXCLUDED.cost_price,
			markup_percent = EXCLUDED.markup_percent,
			price = EXCLUDED.price,
			weight_grams = EXCLUDED.weight_grams,
			stock = EXCLUDED.stock,
			is_active = EXCLUDED.is_active,
			available_grinds = EXCLUDED.available_grinds,
			image_url = EXCLUDED.image_url,
			updated_at = now()`,
		p.ID, p.SKU, p.Name, p.Slug, p.Origin, p.RoastType, p.TastingNotes,
		p.CostPrice, p.MarkupPercent, p.Price, p.WeightGrams, p.Stock, p.IsActive,
		p.AvailableGrinds, p.ImageURL,
	)
	if err != nil {
		return domain.Internal(err, "postgres.save_product", "failed to save product")
	}
	return nil
}

// UpdateProductStock sets the flat stock counter.
func (s *Store) UpdateProductStock(ctx context.Context, id uuid.UUID, stock int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`, id, stock)
	if err != nil {
		return domain.Internal(err, "postgres.update_product_stock", "failed to update stock")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ListBatchesForUpdate returns a product's batches oldest-first and locks
// them for the rest of the transaction. The ordering is the FIFO contract:
// received_at ascending, id ascending to break ties.
func (s *Store) ListBatchesForUpdate(ctx context.Context, productID uuid.UUID) ([]domain.ProductBatch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, received_at, quantity_grams, remaining_grams, unit_cost_per_kg, note
		FROM product_batches
		WHERE product_id = $1
		ORDER BY received_at ASC, id ASC
		FOR UPDATE`, productID)
	if err != nil {
		return nil, domain.Internal(err, "postgres.list_batches_for_update", "failed to lock batches")
	}
	defer rows.Close()

	var batches []domain.ProductBatch
	for rows.Next() {
		var b domain.ProductBatch
		if err := rows.Scan(&b.ID, &b.ProductID, &b.ReceivedAt, &b.QuantityGrams,
			&b.RemainingGrams, &b.UnitCostPerKg, &b.Note); err != nil {
			return nil, domain.Internal(err, "postgres.list_batches_for_update", "failed to scan batch")
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.list_batches_for_update", "failed to read batches")
	}
	return batches, nil
}

// UpdateBatchRemaining sets a batch's remaining grams.
func (s *Store) UpdateBatchRemaining(ctx context.Context, batchID uuid.UUID, remainingGrams int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE product_batches SET remaining_grams = $2 WHERE id = $1`, batchID, remainingGrams)
	if err != nil {
		return domain.Internal(err, "postgres.update_batch_remaining", "failed to update batch")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}
