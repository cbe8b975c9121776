package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("order not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// Insert persists the order header and its items in one transaction.
func (c *Conf) Insert(ctx context.Context, o Order) (Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryOrder := `
			INSERT INTO orders (id, user_id, order_number, customer_name, customer_email, phone,
				address, city, country, postal_code, status, subtotal, shipping, total, currency,
				stripe_transaction_id, created_at, updated_at)
			VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`
		_, err := tx.ExecContext(ctx, queryOrder, o.ID, o.UserID, o.OrderNumber, o.CustomerName,
			o.CustomerEmail, o.Phone, o.Address, o.City, o.Country, o.PostalCode, o.Status,
			o.Subtotal, o.Shipping, o.Total, o.Currency, o.StripeTransactionID, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		queryItem := `
			INSERT INTO order_items (id, order_id, product_id, title, price, quantity, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for i := range o.Items {
			if o.Items[i].ID == "" {
				o.Items[i].ID = uuid.NewString()
			}
			o.Items[i].OrderID = o.ID
			it := o.Items[i]
			if _, err := tx.ExecContext(ctx, queryItem, it.ID, it.OrderID, it.ProductID, it.Title, it.Price, it.Quantity, it.Image); err != nil {
				return fmt.Errorf("inserting order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (Order, error) {
	query := `
		SELECT id, COALESCE(user_id::text, ''), order_number, customer_name, customer_email, phone,
			address, city, country, postal_code, status, subtotal, shipping, total, currency,
			stripe_transaction_id, created_at, updated_at
		FROM orders WHERE id = $1
	`
	var o Order
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail, &o.Phone,
		&o.Address, &o.City, &o.Country, &o.PostalCode, &o.Status, &o.Subtotal, &o.Shipping,
		&o.Total, &o.Currency, &o.StripeTransactionID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("querying order: %w", err)
	}

	items, err := c.itemsFor(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

// List returns a page of orders plus the total count for the filter.
// Items are loaded per order; list pages are small enough that the extra
// queries stay cheap.
func (c *Conf) List(ctx context.Context, f Filter) ([]Order, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(customer_name) LIKE $%d OR LOWER(customer_email) LIKE $%d OR LOWER(order_number) LIKE $%d)", len(args), len(args), len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, COALESCE(user_id::text, ''), order_number, customer_name, customer_email, phone,
			address, city, country, postal_code, status, subtotal, shipping, total, currency,
			stripe_transaction_id, created_at, updated_at
		FROM orders WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail,
			&o.Phone, &o.Address, &o.City, &o.Country, &o.PostalCode, &o.Status, &o.Subtotal,
			&o.Shipping, &o.Total, &o.Currency, &o.StripeTransactionID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating orders: %w", err)
	}

	for i := range list {
		items, err := c.itemsFor(ctx, list[i].ID)
		if err != nil {
			return nil, 0, err
		}
		list[i].Items = items
	}
	return list, total, nil
}

func (c *Conf) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT id, COALESCE(user_id::text, ''), order_number, customer_name, customer_email, phone,
			address, city, country, postal_code, status, subtotal, shipping, total, currency,
			stripe_transaction_id, created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing user orders: %w", err)
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail,
			&o.Phone, &o.Address, &o.City, &o.Country, &o.PostalCode, &o.Status, &o.Subtotal,
			&o.Shipping, &o.Total, &o.Currency, &o.StripeTransactionID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	for i := range list {
		items, err := c.itemsFor(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Items = items
	}
	return list, nil
}

func (c *Conf) UpdateStatus(ctx context.Context, id, status, stripeTransactionID string) error {
	query := `
		UPDATE orders
		SET status = $1,
			stripe_transaction_id = CASE WHEN $2 <> '' THEN $2 ELSE stripe_transaction_id END,
			updated_at = NOW()
		WHERE id = $3
	`
	res, err := c.db.ExecContext(ctx, query, status, stripeTransactionID, id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Conf) itemsFor(ctx context.Context, orderID string) ([]OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, title, price, quantity, image
		FROM order_items WHERE order_id = $1
	`
	rows, err := c.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.Price, &it.Quantity, &it.Image); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}
	return items, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return fmt.Errorf("failed to execute withTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
