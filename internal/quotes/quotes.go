package quotes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("quote not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) Insert(ctx context.Context, nq NewQuote, userID, receiptPath string) (Quote, error) {
	q := Quote{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductName: nq.ProductName,
		Quantity:    nq.Quantity,
		Discount:    nq.Discount,
		Name:        nq.Name,
		Email:       nq.Email,
		Phone:       nq.Phone,
		Company:     nq.Company,
		Message:     nq.Message,
		ReceiptPath: receiptPath,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO quotes (id, user_id, product_name, quantity, discount, name, email, phone,
			company, message, receipt_path, status, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := c.db.ExecContext(ctx, query, q.ID, q.UserID, q.ProductName, q.Quantity, q.Discount,
		q.Name, q.Email, q.Phone, q.Company, q.Message, q.ReceiptPath, q.Status, q.CreatedAt)
	if err != nil {
		return Quote{}, fmt.Errorf("inserting quote: %w", err)
	}
	return q, nil
}

func (c *Conf) InsertBulk(ctx context.Context, nq NewBulkQuote) (BulkQuote, error) {
	q := BulkQuote{
		ID:        uuid.NewString(),
		Name:      nq.Name,
		Email:     nq.Email,
		Phone:     nq.Phone,
		Company:   nq.Company,
		Products:  nq.Products,
		Quantity:  nq.Quantity,
		Message:   nq.Message,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO bulk_quotes (id, name, email, phone, company, products, quantity, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := c.db.ExecContext(ctx, query, q.ID, q.Name, q.Email, q.Phone, q.Company, q.Products,
		q.Quantity, q.Message, q.Status, q.CreatedAt)
	if err != nil {
		return BulkQuote{}, fmt.Errorf("inserting bulk quote: %w", err)
	}
	return q, nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (Quote, error) {
	query := `
		SELECT id, COALESCE(user_id::text, ''), product_name, quantity, discount, name, email,
			phone, company, message, receipt_path, status, created_at
		FROM quotes WHERE id = $1
	`
	var q Quote
	err := c.db.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.UserID, &q.ProductName, &q.Quantity,
		&q.Discount, &q.Name, &q.Email, &q.Phone, &q.Company, &q.Message, &q.ReceiptPath, &q.Status, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, fmt.Errorf("querying quote: %w", err)
	}
	return q, nil
}

func (c *Conf) List(ctx context.Context, f Filter) ([]Quote, int, error) {
	cond := "1=1"
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, f.Status)
		cond = "status = $1"
	}

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quotes WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting quotes: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, COALESCE(user_id::text, ''), product_name, quantity, discount, name, email,
			phone, company, message, receipt_path, status, created_at
		FROM quotes WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	var list []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.UserID, &q.ProductName, &q.Quantity, &q.Discount, &q.Name,
			&q.Email, &q.Phone, &q.Company, &q.Message, &q.ReceiptPath, &q.Status, &q.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning quote: %w", err)
		}
		list = append(list, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating quotes: %w", err)
	}
	return list, total, nil
}

func (c *Conf) ListBulk(ctx context.Context, f Filter) ([]BulkQuote, int, error) {
	cond := "1=1"
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, f.Status)
		cond = "status = $1"
	}

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bulk_quotes WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting bulk quotes: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, name, email, phone, company, products, quantity, message, status, created_at
		FROM bulk_quotes WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing bulk quotes: %w", err)
	}
	defer rows.Close()

	var list []BulkQuote
	for rows.Next() {
		var q BulkQuote
		if err := rows.Scan(&q.ID, &q.Name, &q.Email, &q.Phone, &q.Company, &q.Products,
			&q.Quantity, &q.Message, &q.Status, &q.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning bulk quote: %w", err)
		}
		list = append(list, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating bulk quotes: %w", err)
	}
	return list, total, nil
}

func (c *Conf) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE quotes SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("updating quote status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating quote status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
