// Package pdf renders invoices as PDF documents.
package pdf

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Renderer turns a Document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// Company is the issuing business.
type Company struct {
	Name     string
	Tagline  string
	Address  string
	Phone    string
	Email    string
	RCNumber string
}

// Client is the billed party.
type Client struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Line is one row of the item table.
type Line struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Charge is an additional amount listed below the items.
type Charge struct {
	Label  string
	Amount decimal.Decimal
}

// Bank holds the payment details printed when the invoice asks for them.
type Bank struct {
	BankName      string
	AccountName   string
	AccountNumber string
}

// Document is everything printed on an invoice.
type Document struct {
	Number      string
	Status      string
	InvoiceDate time.Time
	DueDate     *time.Time
	Currency    string
	Company     Company
	Client      Client
	Lines       []Line
	Charges     []Charge
	Subtotal    decimal.Decimal
	Total       decimal.Decimal
	Notes       string
	Bank        *Bank
}

// Filename is the download name of the document.
func (d Document) Filename() string {
	if d.Number == "" {
		return "invoice.pdf"
	}
	return d.Number + ".pdf"
}

// CompanyName falls back to a generic title when the profile has no name.
func (d Document) CompanyName() string {
	if d.Company.Name != "" {
		return d.Company.Name
	}
	return "Invoice"
}
