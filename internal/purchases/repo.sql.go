package purchases

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePurchase inserts a new purchase.
func (r *Repository) CreatePurchase(ctx context.Context, p *Purchase) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO purchases
(id, supplier, yarn_brand, yarn_count, yarn_type, rate_per_kg, quantity_kg, amount, purchase_date, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.Supplier, p.YarnBrand, p.YarnCount, p.YarnType,
		p.RatePerKg, p.QuantityKg, p.Amount, p.PurchaseDate, p.Notes, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("purchases: insert: %w", err)
	}
	return nil
}

// ListPurchases returns purchases, newest first.
func (r *Repository) ListPurchases(ctx context.Context, supplier string) ([]Purchase, error) {
	query := `SELECT id, supplier, yarn_brand, yarn_count, yarn_type, rate_per_kg, quantity_kg, amount, purchase_date, notes, created_at
FROM purchases`
	var args []any
	if supplier != "" {
		query += ` WHERE supplier = $1`
		args = append(args, supplier)
	}
	query += ` ORDER BY purchase_date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.Supplier, &p.YarnBrand, &p.YarnCount, &p.YarnType,
			&p.RatePerKg, &p.QuantityKg, &p.Amount, &p.PurchaseDate, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}
