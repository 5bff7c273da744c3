package invoices

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateNumber is returned when the owner already used an invoice
// number.
var ErrDuplicateNumber = errors.New("invoices: invoice number already used")

// Status is the payment state of an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusDraft, StatusPending, StatusPaid, StatusOverdue, StatusCancelled}

// ParseStatus converts s into a Status.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Label is the human readable status name.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPaid:
		return "Paid"
	case StatusOverdue:
		return "Overdue"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Draft"
	}
}

// BadgeClass is the CSS modifier of the status badge.
func (s Status) BadgeClass() string {
	switch s {
	case StatusPending:
		return "badge--warning"
	case StatusPaid:
		return "badge--success"
	case StatusOverdue:
		return "badge--error"
	default:
		return "badge--default"
	}
}

// StatusAction is a quick status change offered on the invoice page.
type StatusAction struct {
	Status Status
	Label  string
	Class  string
}

// NextActions lists the quick actions for an invoice in status s. Any
// unpaid invoice can be marked paid, a draft can be sent and a pending
// invoice can be flagged overdue.
func (s Status) NextActions() []StatusAction {
	var out []StatusAction
	if s != StatusPaid {
		out = append(out, StatusAction{Status: StatusPaid, Label: "Mark as paid", Class: "btn--success"})
	}
	switch s {
	case StatusDraft:
		out = append(out, StatusAction{Status: StatusPending, Label: "Mark as pending", Class: "btn--warning"})
	case StatusPending:
		out = append(out, StatusAction{Status: StatusOverdue, Label: "Mark as overdue", Class: "btn--danger"})
	}
	return out
}

// Charge is an extra amount added on top of the line items, such as
// delivery or installation.
type Charge struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Item is one line of an invoice.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// ClientSummary is the part of the linked client shown with an invoice.
type ClientSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
}

// DisplayName prefers the contact name and falls back to the company.
func (c ClientSummary) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.CompanyName
}

// Invoice is a bill sent to a client. Subtotal and Total are derived from
// Items and Charges whenever the invoice is saved.
type Invoice struct {
	ID                 uuid.UUID       `json:"id"`
	OwnerID            uuid.UUID       `json:"owner_id"`
	ClientID           *uuid.UUID      `json:"client_id,omitempty"`
	Client             *ClientSummary  `json:"client,omitempty"`
	ClientName         string          `json:"client_name"`
	Number             string          `json:"invoice_number"`
	InvoiceDate        time.Time       `json:"invoice_date"`
	DueDate            *time.Time      `json:"due_date,omitempty"`
	Status             Status          `json:"status"`
	Notes              string          `json:"notes"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Total              decimal.Decimal `json:"total"`
	Charges            []Charge        `json:"additional_charges"`
	IncludeBankDetails bool            `json:"include_bank_details"`
	Items              []Item          `json:"items,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ChargesTotal sums the additional charges.
func (inv Invoice) ChargesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range inv.Charges {
		sum = sum.Add(c.Amount)
	}
	return sum
}

// SearchFields lists the values matched by the list search box.
func SearchFields(inv Invoice) []string {
	return []string{inv.Number, inv.ClientName}
}
