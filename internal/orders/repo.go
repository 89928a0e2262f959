package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-orders.git/internal/cart"
	"github.com/ariefcatur/go-shop-orders.git/internal/catalog"
)

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const orderCols = `id, user_id, user_email, total_cents, status, payment_method,
	ship_name, ship_phone, ship_pincode, ship_city, ship_landmark,
	order_date, cancellation_allowed_until, otp_code, otp_expires, cancellation_reason, received_at`

func (r *Repo) PlaceOrder(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Reserve every line first. Any shortage rolls back the lot, so no
	// partial decrement ever survives a failed checkout.
	for _, it := range o.Items {
		if err := catalog.ReserveIn(ctx, tx, it.ProductID, it.Qty); err != nil {
			if errors.Is(err, catalog.ErrStockConflict) || errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrConcurrentStockChange, it.Name)
			}
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, user_email, total_cents, status, payment_method,
			ship_name, ship_phone, ship_pincode, ship_city, ship_landmark,
			order_date, cancellation_allowed_until)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		o.ID, o.UserID, o.UserEmail, o.TotalCents, o.Status, o.PaymentMethod,
		o.ShippingAddress.Name, o.ShippingAddress.Phone, o.ShippingAddress.Pincode,
		o.ShippingAddress.CityVillage, o.ShippingAddress.Landmark,
		o.OrderDate, o.CancellationAllowedUntil)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, seller_id, name, price_at_order_cents, qty, image_url)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, it.ProductID, it.SellerID, it.Name, it.PriceAtOrderCents, it.Qty, it.ImageURL)
		if err != nil {
			return err
		}
	}

	if err := cart.ClearIn(ctx, tx, o.UserID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, orderID))
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, []string{orderID})
	if err != nil {
		return nil, err
	}
	o.Items = items[orderID]
	return o, nil
}

func (r *Repo) ListUserOrders(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY order_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *Repo) Cancel(ctx context.Context, req CancelRequest) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Conditional claim: only one attempt can move Pending -> Cancelled.
	q := `UPDATE orders
		SET status='Cancelled', cancellation_reason=$2,
			otp_code=NULL, otp_expires=NULL, cancellation_allowed_until=NULL, received_at=NULL
		WHERE id=$1 AND status='Pending'`
	args := []any{req.OrderID, req.Reason}
	if req.UserID != "" {
		args = append(args, req.UserID)
		q += fmt.Sprintf(" AND user_id=$%d", len(args))
	}
	if req.EnforceWindow {
		args = append(args, req.Now)
		q += fmt.Sprintf(" AND cancellation_allowed_until > $%d", len(args))
	}
	ct, err := tx.Exec(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return nil, r.classifyCancelFailure(ctx, req)
	}

	for _, it := range req.Restore {
		if err := catalog.RestoreIn(ctx, tx, it.ProductID, it.Qty); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				// product deleted since placement; nothing left to credit
				log.Printf("cancel %s: product %s gone, skipping stock restore", req.OrderID, it.ProductID)
				continue
			}
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, req.OrderID)
}

func (r *Repo) classifyCancelFailure(ctx context.Context, req CancelRequest) error {
	o, err := r.GetOrder(ctx, req.OrderID)
	if err != nil {
		return err
	}
	if req.UserID != "" && o.UserID != req.UserID {
		return ErrPermissionDenied
	}
	if o.Status != StatusPending {
		return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
	}
	return fmt.Errorf("%w: cancellation window expired", ErrInvalidState)
}

func (r *Repo) SetDeliveryOTP(ctx context.Context, orderID string, otp DeliveryOTP) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET otp_code=$2, otp_expires=$3
		WHERE id=$1 AND status='Pending'`, orderID, otp.Code, otp.ExpiresAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	o, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
}

func (r *Repo) ConfirmDelivery(ctx context.Context, orderID, code string, now time.Time) (*Order, error) {
	// Single conditional update: two simultaneous confirmations cannot both
	// match status='Pending', so the code is consumed exactly once.
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status='Delivered', received_at=$3,
			otp_code=NULL, otp_expires=NULL, cancellation_allowed_until=NULL
		WHERE id=$1 AND status='Pending' AND otp_code=$2 AND otp_expires > $3`,
		orderID, code, now)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 1 {
		return r.GetOrder(ctx, orderID)
	}

	o, err := r.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		// don't reveal whether the order exists
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
	}
	return nil, ErrInvalidOTP
}

func (r *Repo) loadItems(ctx context.Context, orderIDs []string) (map[string][]LineItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, seller_id, name, price_at_order_cents, qty, image_url
		FROM order_items WHERE order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]LineItem{}
	for rows.Next() {
		var orderID string
		var it LineItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.SellerID, &it.Name, &it.PriceAtOrderCents, &it.Qty, &it.ImageURL); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var landmark, otpCode, reason *string
	var otpExp *time.Time
	err := row.Scan(&o.ID, &o.UserID, &o.UserEmail, &o.TotalCents, &o.Status, &o.PaymentMethod,
		&o.ShippingAddress.Name, &o.ShippingAddress.Phone, &o.ShippingAddress.Pincode,
		&o.ShippingAddress.CityVillage, &landmark,
		&o.OrderDate, &o.CancellationAllowedUntil, &otpCode, &otpExp, &reason, &o.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if landmark != nil {
		o.ShippingAddress.Landmark = *landmark
	}
	if reason != nil {
		o.CancellationReason = *reason
	}
	if otpCode != nil && otpExp != nil {
		o.OTP = &DeliveryOTP{Code: *otpCode, ExpiresAt: *otpExp}
	}
	return &o, nil
}
