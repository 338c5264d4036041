package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
)

const orderColumns = `order_id, customer_id, status, payment_status, cancellation_reason, total_price, created_at, updated_at`

const itemColumns = `item_id, order_id, variant_id, product_name, quantity, unit_price, original_price, applied_role, note`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o      models.Order
		reason sql.NullString
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.PaymentStatus, &reason, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if reason.Valid {
		r := models.CancellationReason(reason.String)
		o.CancellationReason = &r
	}
	return &o, nil
}

func scanItem(row rowScanner) (models.OrderItem, error) {
	var it models.OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.OriginalPrice, &it.AppliedRole, &it.Note)
	return it, err
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, notFound("get order", "order", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY product_name`, id)
	if err != nil {
		return nil, wrap("get order items", err)
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, wrap("scan order item", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("get order items", err)
	}
	return order, nil
}

// CreateOrder inserts the order and its items and takes the quantities out
// of stock, all in one transaction.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.withTx(ctx, "create order", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			order.ID, order.CustomerID, order.Status, order.PaymentStatus, nullableReason(order.CancellationReason),
			order.TotalPrice, order.CreatedAt, order.UpdatedAt)
		if err != nil {
			return wrap("insert order", err)
		}

		for i, it := range order.Items {
			res, err := tx.ExecContext(ctx,
				`UPDATE product_variants SET stock = stock - $1, updated_at = $2
				 WHERE variant_id = $3 AND stock >= $1 AND is_deleted = FALSE`,
				it.Quantity, order.CreatedAt, it.VariantID)
			if err != nil {
				return wrap("reserve stock", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return apperr.Field(fmt.Sprintf("items[%d].quantity", i), "not enough stock")
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				it.ID, order.ID, it.VariantID, it.ProductName, it.Quantity, it.UnitPrice, it.OriginalPrice, it.AppliedRole, it.Note)
			if err != nil {
				return wrap("insert order item", err)
			}
		}
		return nil
	})
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, reason *models.CancellationReason, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, cancellation_reason = $2, updated_at = $3 WHERE order_id = $4`,
		status, nullableReason(reason), at, id)
	if err != nil {
		return wrap("update order status", err)
	}
	return requireRow(res, "update order status", "order")
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $1, updated_at = $2 WHERE order_id = $3`,
		status, at, id)
	if err != nil {
		return wrap("update payment status", err)
	}
	return requireRow(res, "update payment status", "order")
}

func (s *Store) UpdateItemNote(ctx context.Context, orderID, itemID uuid.UUID, note string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE order_items SET note = $1 WHERE order_id = $2 AND item_id = $3`,
		note, orderID, itemID)
	if err != nil {
		return wrap("update item note", err)
	}
	return requireRow(res, "update item note", "order item")
}

// ListOrders returns matching orders, newest first, with their items.
func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		where = append(where, fmt.Sprintf("payment_status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list orders", err)
	}
	defer rows.Close()

	var (
		orders []models.Order
		ids    []string
		index  = map[uuid.UUID]int{}
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrap("scan order", err)
		}
		index[o.ID] = len(orders)
		ids = append(ids, o.ID.String())
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list orders", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY product_name`,
		pq.Array(ids))
	if err != nil {
		return nil, wrap("list order items", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		it, err := scanItem(itemRows)
		if err != nil {
			return nil, wrap("scan order item", err)
		}
		if at, ok := index[it.OrderID]; ok {
			orders[at].Items = append(orders[at].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, wrap("list order items", err)
	}
	return orders, nil
}

// OrderStats counts orders per status and sums revenue of paid orders.
func (s *Store) OrderStats(ctx context.Context) (*models.OrderStats, error) {
	stats := &models.OrderStats{ByStatus: map[models.OrderStatus]int{}}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, wrap("order stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status models.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, wrap("scan order stats", err)
		}
		stats.ByStatus[status] = n
		stats.TotalOrders += n
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("order stats", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE payment_status = $1`,
		models.PaymentPaid).Scan(&stats.Revenue)
	if err != nil {
		return nil, wrap("order revenue", err)
	}
	return stats, nil
}

func nullableReason(r *models.CancellationReason) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}
