package printservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("print request not found")
	ErrInvalidTransition = errors.New("invalid status transition")
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

func (c *Conf) Insert(ctx context.Context, nr NewPrintRequest) (PrintRequest, error) {
	r := PrintRequest{
		ID:        uuid.NewString(),
		Name:      nr.Name,
		Email:     nr.Email,
		Phone:     nr.Phone,
		Company:   nr.Company,
		Material:  nr.Material,
		WidthCm:   nr.WidthCm,
		HeightCm:  nr.HeightCm,
		Quantity:  nr.Quantity,
		Notes:     nr.Notes,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if nr.DeliveryDate != "" {
		d, err := time.Parse("2006-01-02", nr.DeliveryDate)
		if err != nil {
			return PrintRequest{}, fmt.Errorf("invalid delivery date: %w", err)
		}
		r.DeliveryDate = &d
	}

	query := `
		INSERT INTO print_requests (id, name, email, phone, company, material, width_cm, height_cm,
			quantity, delivery_date, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := c.db.ExecContext(ctx, query, r.ID, r.Name, r.Email, r.Phone, r.Company, r.Material,
		r.WidthCm, r.HeightCm, r.Quantity, r.DeliveryDate, r.Notes, string(r.Status), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return PrintRequest{}, fmt.Errorf("inserting print request: %w", err)
	}
	return r, nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (PrintRequest, error) {
	query := `
		SELECT id, name, email, phone, company, material, width_cm, height_cm, quantity,
			delivery_date, notes, status, created_at, updated_at
		FROM print_requests WHERE id = $1
	`
	var r PrintRequest
	var status string
	err := c.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.Company,
		&r.Material, &r.WidthCm, &r.HeightCm, &r.Quantity, &r.DeliveryDate, &r.Notes, &status,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PrintRequest{}, ErrNotFound
	}
	if err != nil {
		return PrintRequest{}, fmt.Errorf("querying print request: %w", err)
	}
	r.Status = Status(status)
	return r, nil
}

func (c *Conf) List(ctx context.Context, f Filter) ([]PrintRequest, int, error) {
	cond := "1=1"
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, string(f.Status))
		cond = "status = $1"
	}

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM print_requests WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting print requests: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, name, email, phone, company, material, width_cm, height_cm, quantity,
			delivery_date, notes, status, created_at, updated_at
		FROM print_requests WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing print requests: %w", err)
	}
	defer rows.Close()

	var list []PrintRequest
	for rows.Next() {
		var r PrintRequest
		var status string
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.Company, &r.Material,
			&r.WidthCm, &r.HeightCm, &r.Quantity, &r.DeliveryDate, &r.Notes, &status,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning print request: %w", err)
		}
		r.Status = Status(status)
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating print requests: %w", err)
	}
	return list, total, nil
}

// UpdateStatus moves the request along the lifecycle after validating the
// transition against the current state. Returns the updated request.
func (c *Conf) UpdateStatus(ctx context.Context, id string, to Status) (PrintRequest, error) {
	r, err := c.GetByID(ctx, id)
	if err != nil {
		return PrintRequest{}, err
	}
	if !CanTransition(r.Status, to) {
		return PrintRequest{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}

	query := `UPDATE print_requests SET status = $1, updated_at = NOW() WHERE id = $2`
	if _, err := c.db.ExecContext(ctx, query, string(to), id); err != nil {
		return PrintRequest{}, fmt.Errorf("updating print request status: %w", err)
	}
	r.Status = to
	return r, nil
}
