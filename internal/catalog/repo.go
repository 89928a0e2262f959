package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("product not found")
	// ErrStockConflict: the conditional decrement matched no row because stock
	// changed under us. Distinct from ErrNotFound so callers can tell the user
	// to retry instead of reporting a missing product.
	ErrStockConflict = errors.New("stock changed concurrently")
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx, so the ledger primitives
// can run standalone or inside a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, seller_id, name, category, price_cents, stock, order_count, image_url, review_status, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.SellerID, &p.Name, &p.Category, &p.PriceCents, &p.Stock, &p.OrderCount, &p.ImageURL, &p.ReviewStatus, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListApproved(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, seller_id, name, category, price_cents, stock, order_count, image_url, review_status, created_at, updated_at
		FROM products WHERE review_status='approved' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Category, &p.PriceCents, &p.Stock, &p.OrderCount, &p.ImageURL, &p.ReviewStatus, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.ReviewStatus = ReviewPending // every new listing waits for moderation
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, seller_id, name, category, price_cents, stock, image_url, review_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.SellerID, p.Name, p.Category, p.PriceCents, p.Stock, p.ImageURL, p.ReviewStatus)
	return err
}

// UpdateProduct applies a seller/admin edit. Edits always drop the product
// back to pending review, so it disappears from the storefront until the
// moderation verdict lands again.
func (r *Repo) UpdateProduct(ctx context.Context, p *Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name=$2, category=$3, price_cents=$4, stock=$5, image_url=$6, review_status='pending', updated_at=now()
		WHERE id=$1`,
		p.ID, p.Name, p.Category, p.PriceCents, p.Stock, p.ImageURL)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetReviewStatus records the moderation classifier verdict.
func (r *Repo) SetReviewStatus(ctx context.Context, id string, status ReviewStatus) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET review_status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReserveIn atomically decrements stock and bumps order_count, but only while
// stock covers qty. Never read-then-write: the WHERE clause is the guard.
func ReserveIn(ctx context.Context, db Querier, productID string, qty int) error {
	ct, err := db.Exec(ctx, `
		UPDATE products SET stock = stock - $2, order_count = order_count + 1, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	// distinguish a lost race from a missing product
	var one int
	err = db.QueryRow(ctx, `SELECT 1 FROM products WHERE id=$1`, productID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrStockConflict
}

// RestoreIn reverses a prior reservation. It applies every time it is called;
// calling it exactly once per line per cancellation is on the caller.
func RestoreIn(ctx context.Context, db Querier, productID string, qty int) error {
	ct, err := db.Exec(ctx, `
		UPDATE products SET stock = stock + $2, order_count = order_count - 1, updated_at = now()
		WHERE id = $1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
