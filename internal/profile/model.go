package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/money"
)

// Defaults applied while an owner has not saved a profile.
const (
	DefaultPrefix  = "INV"
	DefaultDueDays = 7
)

// Profile holds the business details printed on invoices and the defaults
// used when drafting a new one.
type Profile struct {
	OwnerID        uuid.UUID `json:"owner_id"`
	CompanyName    string    `json:"company_name"`
	Tagline        string    `json:"tagline"`
	RCNumber       string    `json:"rc_number"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	BankName       string    `json:"bank_name"`
	AccountName    string    `json:"account_name"`
	AccountNumber  string    `json:"account_number"`
	InvoicePrefix  string    `json:"invoice_prefix"`
	DefaultDueDays int       `json:"default_due_days"`
	DefaultNotes   string    `json:"default_notes"`
	Currency       string    `json:"currency"`
	UpdatedAt      time.Time `json:"updated_at"`
	Saved          bool      `json:"saved"`
}

// Defaults returns the profile used for an owner without a saved row.
func Defaults(owner uuid.UUID) Profile {
	return Profile{
		OwnerID:        owner,
		InvoicePrefix:  DefaultPrefix,
		DefaultDueDays: DefaultDueDays,
		Currency:       money.DefaultCurrency,
	}
}

// HasBankDetails reports whether bank name and account number are set.
func (p Profile) HasBankDetails() bool {
	return strings.TrimSpace(p.BankName) != "" && strings.TrimSpace(p.AccountNumber) != ""
}

// Prefix returns the invoice number prefix, falling back to DefaultPrefix.
func (p Profile) Prefix() string {
	if prefix := strings.TrimSpace(p.InvoicePrefix); prefix != "" {
		return prefix
	}
	return DefaultPrefix
}

// DueDate offsets invoiceDate by the default due days.
func (p Profile) DueDate(invoiceDate time.Time) time.Time {
	return invoiceDate.AddDate(0, 0, p.DefaultDueDays)
}

// Formatter formats amounts in the profile currency.
func (p Profile) Formatter() money.Formatter {
	return money.NewFormatter(p.Currency)
}
