package invoices

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicedesk/invoicedesk/internal/shared"
)

const dateLayout = "2006-01-02"

// Form actions posted by the invoice editor buttons.
const (
	ActionSave         = "save"
	ActionRecalc       = "recalc"
	ActionAddItem      = "add_item"
	ActionRemoveItem   = "remove_item"
	ActionAddCharge    = "add_charge"
	ActionRemoveCharge = "remove_charge"
)

// Draft is the editable state of the invoice form. Rows are kept exactly as
// typed until the draft is built into an Invoice.
type Draft struct {
	ClientID           string        `json:"client_id" form:"client_id"`
	Number             string        `json:"invoice_number" form:"invoice_number" validate:"required,max=50"`
	InvoiceDate        string        `json:"invoice_date" form:"invoice_date" validate:"required,datetime=2006-01-02"`
	DueDate            string        `json:"due_date" form:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Status             string        `json:"status" form:"status" validate:"required,oneof=draft pending paid overdue cancelled"`
	Notes              string        `json:"notes" form:"notes" validate:"max=5000"`
	IncludeBankDetails bool          `json:"include_bank_details" form:"include_bank_details"`
	Items              []ItemInput   `json:"items" form:"-" validate:"-"`
	Charges            []ChargeInput `json:"additional_charges" form:"-" validate:"-"`
}

// Defaults seed a new draft.
type Defaults struct {
	Number  string
	Date    time.Time
	DueDays int
	Notes   string
}

// NewDraft returns the draft of a new invoice: one empty row, the due date
// offset from the invoice date and the default notes.
func NewDraft(d Defaults) Draft {
	draft := Draft{
		Number:      d.Number,
		InvoiceDate: d.Date.Format(dateLayout),
		Status:      string(StatusDraft),
		Notes:       d.Notes,
	}
	if d.DueDays >= 0 {
		draft.DueDate = d.Date.AddDate(0, 0, d.DueDays).Format(dateLayout)
	}
	draft.AddItem()
	return draft
}

// DraftFromInvoice loads a saved invoice into the editor.
func DraftFromInvoice(inv Invoice) Draft {
	d := Draft{
		Number:             inv.Number,
		InvoiceDate:        inv.InvoiceDate.Format(dateLayout),
		Status:             string(inv.Status),
		Notes:              inv.Notes,
		IncludeBankDetails: inv.IncludeBankDetails,
	}
	if inv.ClientID != nil {
		d.ClientID = inv.ClientID.String()
	}
	if inv.DueDate != nil {
		d.DueDate = inv.DueDate.Format(dateLayout)
	}
	for _, it := range inv.Items {
		d.Items = append(d.Items, ItemInput{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice.String(),
		})
	}
	for _, c := range inv.Charges {
		d.Charges = append(d.Charges, ChargeInput{Label: c.Label, Amount: c.Amount.String()})
	}
	if len(d.Items) == 0 {
		d.AddItem()
	}
	return d
}

// DraftFromForm reads a draft from posted values. Rows arrive as parallel
// item_* and charge_* lists.
func DraftFromForm(values url.Values) Draft {
	d := Draft{
		ClientID:           strings.TrimSpace(values.Get("client_id")),
		Number:             strings.TrimSpace(values.Get("invoice_number")),
		InvoiceDate:        strings.TrimSpace(values.Get("invoice_date")),
		DueDate:            strings.TrimSpace(values.Get("due_date")),
		Status:             strings.TrimSpace(values.Get("status")),
		Notes:              strings.TrimSpace(values.Get("notes")),
		IncludeBankDetails: checked(values.Get("include_bank_details")),
	}
	descriptions := values["item_description"]
	quantities := values["item_quantity"]
	prices := values["item_unit_price"]
	rows := max(len(descriptions), len(quantities), len(prices))
	for i := 0; i < rows; i++ {
		d.Items = append(d.Items, ItemInput{
			Description: at(descriptions, i),
			Quantity:    at(quantities, i),
			UnitPrice:   at(prices, i),
		})
	}
	labels := values["charge_label"]
	amounts := values["charge_amount"]
	for i := 0; i < max(len(labels), len(amounts)); i++ {
		d.Charges = append(d.Charges, ChargeInput{Label: at(labels, i), Amount: at(amounts, i)})
	}
	if len(d.Items) == 0 {
		d.AddItem()
	}
	return d
}

// ParseAction splits an editor button value such as "remove_item:2".
func ParseAction(v string) (string, int) {
	name, idx, found := strings.Cut(v, ":")
	if name == "" {
		name = ActionSave
	}
	if !found {
		return name, -1
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return name, -1
	}
	return name, i
}

// Apply runs an editor action other than save on the draft.
func (d *Draft) Apply(action string, index int) {
	switch action {
	case ActionAddItem:
		d.AddItem()
	case ActionRemoveItem:
		d.RemoveItem(index)
	case ActionAddCharge:
		d.AddCharge()
	case ActionRemoveCharge:
		d.RemoveCharge(index)
	}
}

// AddItem appends an empty row with quantity 1.
func (d *Draft) AddItem() {
	d.Items = append(d.Items, ItemInput{Quantity: "1", UnitPrice: "0"})
}

// RemoveItem drops row i. The last remaining row is never removed.
func (d *Draft) RemoveItem(i int) {
	if len(d.Items) <= 1 || i < 0 || i >= len(d.Items) {
		return
	}
	d.Items = append(d.Items[:i:i], d.Items[i+1:]...)
}

// AddCharge appends an empty charge.
func (d *Draft) AddCharge() {
	d.Charges = append(d.Charges, ChargeInput{})
}

// RemoveCharge drops charge i.
func (d *Draft) RemoveCharge(i int) {
	if i < 0 || i >= len(d.Charges) {
		return
	}
	d.Charges = append(d.Charges[:i:i], d.Charges[i+1:]...)
}

// Totals computes the live totals of every row and charge in the editor.
func (d Draft) Totals() Totals {
	return Calculate(d.Items, d.Charges)
}

// Build validates the draft and converts it into the invoice to save.
// Rows without a description and charges without a label are dropped, a
// blank quantity becomes 1 and the totals are computed from what remains.
// Bank details are only kept when the owner has any.
func (d Draft) Build(v *validator.Validate, hasBankDetails bool) (Invoice, shared.FormErrors) {
	errs := shared.Validate(v, d)
	inv := Invoice{
		Number:             d.Number,
		Status:             Status(d.Status),
		Notes:              d.Notes,
		IncludeBankDetails: d.IncludeBankDetails && hasBankDetails,
	}

	if d.ClientID != "" {
		id, err := uuid.Parse(d.ClientID)
		if err != nil {
			errs.Add("client_id", "Select a valid client")
		} else {
			inv.ClientID = &id
		}
	}
	if !errs.Has("invoice_date") {
		inv.InvoiceDate, _ = time.Parse(dateLayout, d.InvoiceDate)
	}
	if d.DueDate != "" && !errs.Has("due_date") {
		due, _ := time.Parse(dateLayout, d.DueDate)
		inv.DueDate = &due
	}

	kept := keptItems(d.Items, errs)
	charges := KeptCharges(d.Charges)
	totals := Calculate(kept, charges)
	for i, it := range kept {
		inv.Items = append(inv.Items, Item{
			Position:    i,
			Description: it.Description,
			Quantity:    ParseNumber(it.Quantity),
			UnitPrice:   ParseNumber(it.UnitPrice),
			Total:       totals.Items[i],
		})
	}
	inv.Charges = make([]Charge, 0, len(charges))
	for _, c := range charges {
		inv.Charges = append(inv.Charges, Charge{Label: strings.TrimSpace(c.Label), Amount: ChargeAmount(c)})
	}
	inv.Subtotal = totals.Subtotal
	inv.Total = totals.Total
	return inv, errs
}

// BuildItems validates rows the way Build does and converts the kept rows
// into items with their totals.
func BuildItems(rows []ItemInput) ([]Item, shared.FormErrors) {
	errs := shared.FormErrors{}
	kept := keptItems(rows, errs)
	out := make([]Item, 0, len(kept))
	for i, it := range kept {
		out = append(out, Item{
			Position:    i,
			Description: it.Description,
			Quantity:    ParseNumber(it.Quantity),
			UnitPrice:   ParseNumber(it.UnitPrice),
			Total:       ItemTotal(it),
		})
	}
	return out, errs
}

// keptItems drops rows without a description, defaults blank numbers and
// reports malformed ones into errs under the original row index. Quantities
// and prices are limited to cents so stored rows add up to the saved totals.
func keptItems(rows []ItemInput, errs shared.FormErrors) []ItemInput {
	var kept []ItemInput
	for i, it := range rows {
		if strings.TrimSpace(it.Description) == "" {
			continue
		}
		row := ItemInput{Description: strings.TrimSpace(it.Description), Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		if strings.TrimSpace(row.Quantity) == "" {
			row.Quantity = "1"
		}
		if strings.TrimSpace(row.UnitPrice) == "" {
			row.UnitPrice = "0"
		}
		if q, ok := parseStrict(row.Quantity); !ok {
			errs.Add(itemField(i, "quantity"), "Quantity must be a number")
		} else if q.IsNegative() {
			errs.Add(itemField(i, "quantity"), "Quantity cannot be negative")
		} else if tooPrecise(q) {
			errs.Add(itemField(i, "quantity"), "Quantity can have at most 2 decimal places")
		}
		if p, ok := parseStrict(row.UnitPrice); !ok {
			errs.Add(itemField(i, "unit_price"), "Unit price must be a number")
		} else if p.IsNegative() {
			errs.Add(itemField(i, "unit_price"), "Unit price cannot be negative")
		} else if tooPrecise(p) {
			errs.Add(itemField(i, "unit_price"), "Unit price can have at most 2 decimal places")
		}
		kept = append(kept, row)
	}
	if len(kept) == 0 {
		errs.Add("items", "Add at least one line item with a description")
	}
	return kept
}

// SumItems adds up the item totals.
func SumItems(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total)
	}
	return sum
}

func itemField(i int, name string) string {
	return "items." + strconv.Itoa(i) + "." + name
}

func at(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
