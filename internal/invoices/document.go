package invoices

import (
	"github.com/invoicedesk/invoicedesk/internal/pdf"
	"github.com/invoicedesk/invoicedesk/internal/profile"
)

// Document maps inv and the issuing profile onto the printable document.
// Bank details are only printed when the invoice asks for them and the
// profile has them.
func Document(inv Invoice, p profile.Profile) pdf.Document {
	doc := pdf.Document{
		Number:      inv.Number,
		Status:      inv.Status.Label(),
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
		Currency:    p.Currency,
		Company: pdf.Company{
			Name:     p.CompanyName,
			Tagline:  p.Tagline,
			Address:  p.Address,
			Phone:    p.Phone,
			Email:    p.Email,
			RCNumber: p.RCNumber,
		},
		Subtotal: inv.Subtotal,
		Total:    inv.Total,
		Notes:    inv.Notes,
	}
	if inv.Client != nil {
		doc.Client = pdf.Client{
			Name:    inv.Client.DisplayName(),
			Address: inv.Client.Address,
			Phone:   inv.Client.Phone,
			Email:   inv.Client.Email,
		}
	} else {
		doc.Client.Name = inv.ClientName
	}
	for _, it := range inv.Items {
		doc.Lines = append(doc.Lines, pdf.Line{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	for _, c := range inv.Charges {
		doc.Charges = append(doc.Charges, pdf.Charge{Label: c.Label, Amount: c.Amount})
	}
	if inv.IncludeBankDetails && p.HasBankDetails() {
		doc.Bank = &pdf.Bank{
			BankName:      p.BankName,
			AccountName:   p.AccountName,
			AccountNumber: p.AccountNumber,
		}
	}
	return doc
}
