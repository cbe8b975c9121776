package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("invoice not found")
	ErrNumberTaken = errors.New("invoice number already exists")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// Insert creates the invoice with its items and optional printing record.
// Invoice number uniqueness is pre-checked; the unique index is the backstop.
func (c *Conf) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	taken, err := c.numberInUse(ctx, inv.InvoiceNumber, "")
	if err != nil {
		return Invoice{}, err
	}
	if taken {
		return Invoice{}, ErrNumberTaken
	}

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	inv.CreatedAt = time.Now().UTC()
	inv.UpdatedAt = inv.CreatedAt

	err = c.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO invoices (id, invoice_number, company_name, contact_name, email, phone,
				address, invoice_date, due_date, status, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		_, err := tx.ExecContext(ctx, query, inv.ID, inv.InvoiceNumber, inv.CompanyName,
			inv.ContactName, inv.Email, inv.Phone, inv.Address, inv.Date, inv.DueDate,
			string(inv.Status), inv.Notes, inv.CreatedAt, inv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting invoice: %w", err)
		}
		return c.writeChildren(ctx, tx, &inv)
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Update rewrites the invoice header and replaces the child rows
// delete-then-recreate inside one transaction.
func (c *Conf) Update(ctx context.Context, id string, inv Invoice) (Invoice, error) {
	current, err := c.GetByID(ctx, id)
	if err != nil {
		return Invoice{}, err
	}

	if inv.InvoiceNumber != current.InvoiceNumber {
		taken, err := c.numberInUse(ctx, inv.InvoiceNumber, id)
		if err != nil {
			return Invoice{}, err
		}
		if taken {
			return Invoice{}, ErrNumberTaken
		}
	}

	inv.ID = id
	inv.CreatedAt = current.CreatedAt
	inv.UpdatedAt = time.Now().UTC()

	err = c.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE invoices SET invoice_number = $1, company_name = $2, contact_name = $3,
				email = $4, phone = $5, address = $6, invoice_date = $7, due_date = $8,
				status = $9, notes = $10, updated_at = $11
			WHERE id = $12
		`
		_, err := tx.ExecContext(ctx, query, inv.InvoiceNumber, inv.CompanyName, inv.ContactName,
			inv.Email, inv.Phone, inv.Address, inv.Date, inv.DueDate, string(inv.Status),
			inv.Notes, inv.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("updating invoice: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
			return fmt.Errorf("clearing invoice items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_printings WHERE invoice_id = $1`, id); err != nil {
			return fmt.Errorf("clearing invoice printing: %w", err)
		}
		return c.writeChildren(ctx, tx, &inv)
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (c *Conf) writeChildren(ctx context.Context, tx *sql.Tx, inv *Invoice) error {
	queryItem := `
		INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range inv.Items {
		if inv.Items[i].ID == "" {
			inv.Items[i].ID = uuid.NewString()
		}
		inv.Items[i].InvoiceID = inv.ID
		it := inv.Items[i]
		if _, err := tx.ExecContext(ctx, queryItem, it.ID, it.InvoiceID, it.Description, it.Quantity, it.UnitPrice); err != nil {
			return fmt.Errorf("inserting invoice item: %w", err)
		}
	}

	if inv.Printing != nil {
		queryPrinting := `
			INSERT INTO invoice_printings (invoice_id, material, dimensions, colors, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`
		p := inv.Printing
		if _, err := tx.ExecContext(ctx, queryPrinting, inv.ID, p.Material, p.Dimensions, p.Colors, p.Quantity); err != nil {
			return fmt.Errorf("inserting invoice printing: %w", err)
		}
	}
	return nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (Invoice, error) {
	query := `
		SELECT id, invoice_number, company_name, contact_name, email, phone, address,
			invoice_date, due_date, status, notes, created_at, updated_at
		FROM invoices WHERE id = $1
	`
	var inv Invoice
	var status string
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CompanyName, &inv.ContactName, &inv.Email, &inv.Phone,
		&inv.Address, &inv.Date, &inv.DueDate, &status, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("querying invoice: %w", err)
	}
	inv.Status = Status(status)

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price
		FROM invoice_items WHERE invoice_id = $1
	`, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("querying invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice); err != nil {
			return Invoice{}, fmt.Errorf("scanning invoice item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Invoice{}, fmt.Errorf("iterating invoice items: %w", err)
	}

	var p PrintingInfo
	err = c.db.QueryRowContext(ctx, `
		SELECT material, dimensions, colors, quantity
		FROM invoice_printings WHERE invoice_id = $1
	`, id).Scan(&p.Material, &p.Dimensions, &p.Colors, &p.Quantity)
	if err == nil {
		inv.Printing = &p
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, fmt.Errorf("querying invoice printing: %w", err)
	}

	return inv, nil
}

func (c *Conf) List(ctx context.Context, f Filter) ([]Invoice, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(invoice_number) LIKE $%d OR LOWER(company_name) LIKE $%d)", len(args), len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting invoices: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, invoice_number, company_name, contact_name, email, phone, address,
			invoice_date, due_date, status, notes, created_at, updated_at
		FROM invoices WHERE %s
		ORDER BY invoice_date DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var list []Invoice
	for rows.Next() {
		var inv Invoice
		var status string
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.CompanyName, &inv.ContactName,
			&inv.Email, &inv.Phone, &inv.Address, &inv.Date, &inv.DueDate, &status, &inv.Notes,
			&inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning invoice: %w", err)
		}
		inv.Status = Status(status)
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating invoices: %w", err)
	}
	return list, total, nil
}

func (c *Conf) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Conf) numberInUse(ctx context.Context, number, excludeID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM invoices WHERE invoice_number = $1 AND id::text <> $2`
	if err := c.db.QueryRowContext(ctx, query, number, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("checking invoice number: %w", err)
	}
	return count > 0, nil
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
