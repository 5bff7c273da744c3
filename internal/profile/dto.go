package profile

import (
	"net/url"
	"strconv"
	"strings"
)

// Input carries the settings form.
type Input struct {
	CompanyName    string `form:"company_name" validate:"max=200"`
	Tagline        string `form:"tagline" validate:"max=200"`
	RCNumber       string `form:"rc_number" validate:"max=50"`
	Address        string `form:"address" validate:"max=500"`
	Phone          string `form:"phone" validate:"omitempty,phone"`
	Email          string `form:"email" validate:"omitempty,email"`
	BankName       string `form:"bank_name" validate:"max=100"`
	AccountName    string `form:"account_name" validate:"max=200"`
	AccountNumber  string `form:"account_number" validate:"max=34"`
	InvoicePrefix  string `form:"invoice_prefix" validate:"required,alphanum,max=10"`
	DefaultDueDays string `form:"default_due_days" validate:"required,number"`
	DefaultNotes   string `form:"default_notes" validate:"max=2000"`
	Currency       string `form:"currency" validate:"required,len=3"`
}

// InputFromForm reads Input from posted form values.
func InputFromForm(values url.Values) Input {
	field := func(name string) string { return strings.TrimSpace(values.Get(name)) }
	return Input{
		CompanyName:    field("company_name"),
		Tagline:        field("tagline"),
		RCNumber:       field("rc_number"),
		Address:        field("address"),
		Phone:          field("phone"),
		Email:          field("email"),
		BankName:       field("bank_name"),
		AccountName:    field("account_name"),
		AccountNumber:  field("account_number"),
		InvoicePrefix:  strings.ToUpper(field("invoice_prefix")),
		DefaultDueDays: field("default_due_days"),
		DefaultNotes:   field("default_notes"),
		Currency:       strings.ToUpper(field("currency")),
	}
}

// InputFromProfile pre-fills the settings form.
func InputFromProfile(p Profile) Input {
	return Input{
		CompanyName:    p.CompanyName,
		Tagline:        p.Tagline,
		RCNumber:       p.RCNumber,
		Address:        p.Address,
		Phone:          p.Phone,
		Email:          p.Email,
		BankName:       p.BankName,
		AccountName:    p.AccountName,
		AccountNumber:  p.AccountNumber,
		InvoicePrefix:  p.InvoicePrefix,
		DefaultDueDays: strconv.Itoa(p.DefaultDueDays),
		DefaultNotes:   p.DefaultNotes,
		Currency:       p.Currency,
	}
}
