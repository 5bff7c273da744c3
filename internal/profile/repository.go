package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists one profile per owner.
type Repository interface {
	// Get returns nil without error when owner never saved a profile.
	Get(ctx context.Context, owner uuid.UUID) (*Profile, error)
	Upsert(ctx context.Context, p Profile) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(conn dbtx) Repository {
	return &repository{db: conn}
}

func (r *repository) Get(ctx context.Context, owner uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.db.QueryRow(ctx, `
SELECT owner_id, company_name, tagline, rc_number, address, phone, email,
       bank_name, account_name, account_number,
       invoice_prefix, default_due_days, default_notes, currency, updated_at
FROM profiles WHERE owner_id = $1`, owner).Scan(
		&p.OwnerID, &p.CompanyName, &p.Tagline, &p.RCNumber, &p.Address, &p.Phone, &p.Email,
		&p.BankName, &p.AccountName, &p.AccountNumber,
		&p.InvoicePrefix, &p.DefaultDueDays, &p.DefaultNotes, &p.Currency, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile: get: %w", err)
	}
	p.Saved = true
	return &p, nil
}

func (r *repository) Upsert(ctx context.Context, p Profile) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO profiles (owner_id, company_name, tagline, rc_number, address, phone, email,
                      bank_name, account_name, account_number,
                      invoice_prefix, default_due_days, default_notes, currency, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (owner_id) DO UPDATE SET
    company_name = EXCLUDED.company_name,
    tagline = EXCLUDED.tagline,
    rc_number = EXCLUDED.rc_number,
    address = EXCLUDED.address,
    phone = EXCLUDED.phone,
    email = EXCLUDED.email,
    bank_name = EXCLUDED.bank_name,
    account_name = EXCLUDED.account_name,
    account_number = EXCLUDED.account_number,
    invoice_prefix = EXCLUDED.invoice_prefix,
    default_due_days = EXCLUDED.default_due_days,
    default_notes = EXCLUDED.default_notes,
    currency = EXCLUDED.currency,
    updated_at = EXCLUDED.updated_at`,
		p.OwnerID, p.CompanyName, p.Tagline, p.RCNumber, p.Address, p.Phone, p.Email,
		p.BankName, p.AccountName, p.AccountNumber,
		p.InvoicePrefix, p.DefaultDueDays, p.DefaultNotes, p.Currency, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("profile: upsert: %w", err)
	}
	return nil
}
