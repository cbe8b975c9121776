package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("message not found")

type Conf struct {
	db   *sql.DB
	spam *SpamDetector
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db, spam: NewSpamDetector()}, nil
}

func (c *Conf) Insert(ctx context.Context, nm NewMessage) (Message, error) {
	m := Message{
		ID:        uuid.NewString(),
		Name:      nm.Name,
		Email:     nm.Email,
		Subject:   nm.Subject,
		Message:   nm.Message,
		Status:    StatusUnread,
		Spam:      c.spam.IsSpam(nm.Subject + " " + nm.Message),
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO contact_messages (id, name, email, subject, message, status, spam, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := c.db.ExecContext(ctx, query, m.ID, m.Name, m.Email, m.Subject, m.Message, m.Status, m.Spam, m.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("inserting contact message: %w", err)
	}
	return m, nil
}

func (c *Conf) List(ctx context.Context, f Filter) ([]Message, int, error) {
	cond := "1=1"
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, f.Status)
		cond = "status = $1"
	}

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contact_messages WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting contact messages: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, name, email, subject, message, status, spam, created_at
		FROM contact_messages WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing contact messages: %w", err)
	}
	defer rows.Close()

	var list []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Status, &m.Spam, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning contact message: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating contact messages: %w", err)
	}
	return list, total, nil
}

func (c *Conf) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE contact_messages SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("updating message status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating message status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Conf) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
