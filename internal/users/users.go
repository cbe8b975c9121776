package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
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

// InsertUser registers a credentials-based user. The email uniqueness
// pre-check runs before the insert; the unique index remains the backstop.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	email := strings.ToLower(strings.TrimSpace(nu.Email))

	taken, err := c.emailInUse(ctx, email, "")
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	u := User{
		ID:        uuid.NewString(),
		Name:      nu.Name,
		Email:     email,
		Role:      "user",
		Status:    StatusActive,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = c.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, string(hash), u.Role, u.Status, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// Authenticate compares the password against the stored bcrypt hash.
// All failure paths collapse to ErrInvalidCredentials so callers cannot
// leak which part was wrong.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := c.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if u.PasswordHash == "" {
		// OAuth-only account, no password to compare.
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// UpsertOAuthUser creates or refreshes a user row keyed by email after an
// OAuth handshake, copying the provider-supplied name and avatar.
func (c *Conf) UpsertOAuthUser(ctx context.Context, email, name, avatar string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := c.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		u = User{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			Avatar:    avatar,
			Role:      "user",
			Status:    StatusActive,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		query := `
			INSERT INTO users (id, name, email, avatar, role, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err = c.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.Avatar, u.Role, u.Status, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return User{}, fmt.Errorf("inserting oauth user: %w", err)
		}
		return u, nil
	}
	if err != nil {
		return User{}, err
	}

	query := `UPDATE users SET name = $1, avatar = $2, updated_at = NOW() WHERE id = $3`
	if _, err := c.db.ExecContext(ctx, query, name, avatar, u.ID); err != nil {
		return User{}, fmt.Errorf("updating oauth user: %w", err)
	}
	u.Name = name
	u.Avatar = avatar
	return u, nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (User, error) {
	return c.getBy(ctx, "id", id)
}

func (c *Conf) GetByEmail(ctx context.Context, email string) (User, error) {
	return c.getBy(ctx, "email", email)
}

func (c *Conf) getBy(ctx context.Context, column, value string) (User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, COALESCE(password_hash, ''), avatar, role, status, created_at, updated_at
		FROM users WHERE %s = $1
	`, column)

	var u User
	err := c.db.QueryRowContext(ctx, query, value).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// List returns a page of users plus the total row count for the filter.
func (c *Conf) List(ctx context.Context, f Filter) ([]User, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args), len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + cond
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	listQuery := fmt.Sprintf(`
		SELECT id, name, email, COALESCE(password_hash, ''), avatar, role, status, created_at, updated_at
		FROM users WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning user: %w", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating users: %w", err)
	}
	return list, total, nil
}

// Update applies the non-nil fields. A changed email goes through the same
// uniqueness pre-check as registration.
func (c *Conf) Update(ctx context.Context, id string, up UpdateUser) (User, error) {
	u, err := c.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if up.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*up.Email))
		if email != u.Email {
			taken, err := c.emailInUse(ctx, email, id)
			if err != nil {
				return User{}, err
			}
			if taken {
				return User{}, ErrEmailTaken
			}
		}
		u.Email = email
	}
	if up.Name != nil {
		u.Name = *up.Name
	}
	if up.Role != nil {
		u.Role = *up.Role
	}
	if up.Status != nil {
		u.Status = *up.Status
	}

	query := `
		UPDATE users SET name = $1, email = $2, role = $3, status = $4, updated_at = NOW()
		WHERE id = $5
	`
	if _, err := c.db.ExecContext(ctx, query, u.Name, u.Email, u.Role, u.Status, id); err != nil {
		return User{}, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

// Delete removes the user; dependent rows cascade at the database level.
func (c *Conf) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Conf) emailInUse(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE email = $1 AND id::text <> $2`
	var count int
	if err := c.db.QueryRowContext(ctx, query, email, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return count > 0, nil
}
