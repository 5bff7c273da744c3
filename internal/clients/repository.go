package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// Repository persists clients. Every method is scoped to owner; a row that
// belongs to someone else behaves exactly like a missing one.
type Repository interface {
	List(ctx context.Context, owner uuid.UUID) ([]Client, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*Client, error)
	Create(ctx context.Context, client Client) error
	Update(ctx context.Context, client Client) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(conn dbtx) Repository {
	return &repository{db: conn}
}

const clientColumns = `id, owner_id, name, company_name, email, phone, address, notes, created_at, updated_at`

func (r *repository) List(ctx context.Context, owner uuid.UUID) ([]Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE owner_id = $1 ORDER BY LOWER(name), created_at`, owner)
	if err != nil {
		return nil, fmt.Errorf("clients: list: %w", err)
	}
	defer rows.Close()

	out := make([]Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clients: list rows: %w", err)
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, owner, id uuid.UUID) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE owner_id = $1 AND id = $2`, owner, id)
	return scanClient(row)
}

func (r *repository) Create(ctx context.Context, c Client) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO clients (id, owner_id, name, company_name, email, phone, address, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		c.ID, c.OwnerID, c.Name, c.CompanyName, c.Email, c.Phone, c.Address, c.Notes, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("clients: insert: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, c Client) error {
	tag, err := r.db.Exec(ctx, `
UPDATE clients
SET name = $3, company_name = $4, email = $5, phone = $6, address = $7, notes = $8, updated_at = $9
WHERE owner_id = $1 AND id = $2`,
		c.OwnerID, c.ID, c.Name, c.CompanyName, c.Email, c.Phone, c.Address, c.Notes, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("clients: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE owner_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return fmt.Errorf("clients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CompanyName, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("clients: scan: %w", err)
	}
	return &c, nil
}
