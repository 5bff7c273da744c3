package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/invoicedesk/invoicedesk/internal/platform/db"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

const numberConstraint = "invoices_owner_number_key"

// Repository persists invoices and their items. Every method is scoped to
// the owner; multi-step writes run in a single transaction.
type Repository interface {
	List(ctx context.Context, owner uuid.UUID) ([]Invoice, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*Invoice, error)
	Count(ctx context.Context, owner uuid.UUID) (int, error)
	Create(ctx context.Context, inv Invoice) error
	Update(ctx context.Context, inv Invoice) error
	// ReplaceItems swaps the items of an invoice and rewrites its subtotal
	// and total from the new items and the stored charges.
	ReplaceItems(ctx context.Context, owner, id uuid.UUID, items []Item) (*Invoice, error)
	UpdateStatus(ctx context.Context, owner, id uuid.UUID, status Status) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// Conn is satisfied by *pgxpool.Pool.
type Conn interface {
	dbtx
	db.TxStarter
}

type repository struct {
	conn Conn
	now  func() time.Time
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(conn Conn) Repository {
	return &repository{conn: conn, now: time.Now}
}

const listQuery = `
SELECT i.id, i.owner_id, i.client_id, i.invoice_number, i.invoice_date, i.due_date, i.status, i.notes,
       i.subtotal, i.total, i.additional_charges, i.include_bank_details, i.created_at, i.updated_at,
       c.id, c.name, c.company_name, c.email, c.phone, c.address
FROM invoices i
LEFT JOIN clients c ON c.id = i.client_id AND c.owner_id = i.owner_id
WHERE i.owner_id = $1`

func (r *repository) List(ctx context.Context, owner uuid.UUID) ([]Invoice, error) {
	rows, err := r.conn.Query(ctx, listQuery+` ORDER BY i.created_at DESC, i.invoice_number DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	defer rows.Close()

	out := make([]Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoices: list rows: %w", err)
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, owner, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn.QueryRow(ctx, listQuery+` AND i.id = $2`, owner, id))
	if err != nil {
		return nil, err
	}
	inv.Items, err = listItems(ctx, r.conn, id)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE owner_id = $1`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("invoices: count: %w", err)
	}
	return n, nil
}

func (r *repository) Create(ctx context.Context, inv Invoice) error {
	charges, err := encodeCharges(inv.Charges)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO invoices (id, owner_id, client_id, invoice_number, invoice_date, due_date, status, notes,
                      subtotal, total, additional_charges, include_bank_details, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
			inv.ID, inv.OwnerID, inv.ClientID, inv.Number, inv.InvoiceDate, inv.DueDate, string(inv.Status), inv.Notes,
			inv.Subtotal, inv.Total, charges, inv.IncludeBankDetails, inv.CreatedAt,
		)
		if err != nil {
			if db.IsUniqueViolation(err, numberConstraint) {
				return ErrDuplicateNumber
			}
			return fmt.Errorf("invoices: insert: %w", err)
		}
		return insertItems(ctx, tx, inv.ID, inv.Items)
	})
}

func (r *repository) Update(ctx context.Context, inv Invoice) error {
	charges, err := encodeCharges(inv.Charges)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE invoices
SET client_id = $3, invoice_number = $4, invoice_date = $5, due_date = $6, status = $7, notes = $8,
    subtotal = $9, total = $10, additional_charges = $11, include_bank_details = $12, updated_at = $13
WHERE owner_id = $1 AND id = $2`,
			inv.OwnerID, inv.ID, inv.ClientID, inv.Number, inv.InvoiceDate, inv.DueDate, string(inv.Status), inv.Notes,
			inv.Subtotal, inv.Total, charges, inv.IncludeBankDetails, inv.UpdatedAt,
		)
		if err != nil {
			if db.IsUniqueViolation(err, numberConstraint) {
				return ErrDuplicateNumber
			}
			return fmt.Errorf("invoices: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
			return fmt.Errorf("invoices: clear items: %w", err)
		}
		return insertItems(ctx, tx, inv.ID, inv.Items)
	})
}

func (r *repository) ReplaceItems(ctx context.Context, owner, id uuid.UUID, items []Item) (*Invoice, error) {
	var out *Invoice
	err := db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx, `SELECT additional_charges FROM invoices WHERE owner_id = $1 AND id = $2 FOR UPDATE`, owner, id).Scan(&raw)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return fmt.Errorf("invoices: lock invoice: %w", err)
		}
		charges, err := decodeCharges(raw)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
			return fmt.Errorf("invoices: clear items: %w", err)
		}
		if err := insertItems(ctx, tx, id, items); err != nil {
			return err
		}
		subtotal := SumItems(items)
		total := subtotal.Add(Invoice{Charges: charges}.ChargesTotal())
		if _, err := tx.Exec(ctx, `UPDATE invoices SET subtotal = $3, total = $4, updated_at = $5 WHERE owner_id = $1 AND id = $2`,
			owner, id, subtotal, total, r.now().UTC()); err != nil {
			return fmt.Errorf("invoices: rewrite totals: %w", err)
		}
		out, err = scanInvoice(tx.QueryRow(ctx, listQuery+` AND i.id = $2`, owner, id))
		if err != nil {
			return err
		}
		out.Items, err = listItems(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) UpdateStatus(ctx context.Context, owner, id uuid.UUID, status Status) error {
	tag, err := r.conn.Exec(ctx, `UPDATE invoices SET status = $3, updated_at = $4 WHERE owner_id = $1 AND id = $2`,
		owner, id, string(status), r.now().UTC())
	if err != nil {
		return fmt.Errorf("invoices: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
DELETE FROM invoice_items
WHERE invoice_id = (SELECT id FROM invoices WHERE owner_id = $1 AND id = $2)`, owner, id); err != nil {
			return fmt.Errorf("invoices: delete items: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE owner_id = $1 AND id = $2`, owner, id)
		if err != nil {
			return fmt.Errorf("invoices: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func insertItems(ctx context.Context, tx dbtx, invoiceID uuid.UUID, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range items {
		id := it.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(`
INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, total)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, invoiceID, i, it.Description, it.Quantity, it.UnitPrice, it.Total)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("invoices: insert items: %w", err)
	}
	return nil
}

func listItems(ctx context.Context, q dbtx, invoiceID uuid.UUID) ([]Item, error) {
	rows, err := q.Query(ctx, `
SELECT id, position, description, quantity, unit_price, total
FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoices: list items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Position, &it.Description, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return nil, fmt.Errorf("invoices: scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoices: item rows: %w", err)
	}
	return items, nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv     Invoice
		status  string
		charges []byte
		client  struct {
			id                                   *uuid.UUID
			name, company, email, phone, address *string
		}
	)
	err := row.Scan(
		&inv.ID, &inv.OwnerID, &inv.ClientID, &inv.Number, &inv.InvoiceDate, &inv.DueDate, &status, &inv.Notes,
		&inv.Subtotal, &inv.Total, &charges, &inv.IncludeBankDetails, &inv.CreatedAt, &inv.UpdatedAt,
		&client.id, &client.name, &client.company, &client.email, &client.phone, &client.address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("invoices: scan: %w", err)
	}
	inv.Status = Status(status)
	if inv.Charges, err = decodeCharges(charges); err != nil {
		return nil, err
	}
	if client.id != nil {
		inv.Client = &ClientSummary{
			ID:          *client.id,
			Name:        deref(client.name),
			CompanyName: deref(client.company),
			Email:       deref(client.email),
			Phone:       deref(client.phone),
			Address:     deref(client.address),
		}
		inv.ClientName = inv.Client.DisplayName()
	}
	return &inv, nil
}

func encodeCharges(charges []Charge) ([]byte, error) {
	if charges == nil {
		charges = []Charge{}
	}
	raw, err := json.Marshal(charges)
	if err != nil {
		return nil, fmt.Errorf("invoices: encode charges: %w", err)
	}
	return raw, nil
}

func decodeCharges(raw []byte) ([]Charge, error) {
	charges := make([]Charge, 0)
	if len(raw) == 0 {
		return charges, nil
	}
	if err := json.Unmarshal(raw, &charges); err != nil {
		return nil, fmt.Errorf("invoices: decode charges: %w", err)
	}
	return charges, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
