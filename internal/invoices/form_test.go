package invoices

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicedesk/invoicedesk/internal/shared"
)

func validDraft() Draft {
	return Draft{
		Number:      "INV-20240305-001",
		InvoiceDate: "2024-03-05",
		DueDate:     "2024-03-12",
		Status:      "draft",
		Items:       []ItemInput{{Description: "Design", Quantity: "2", UnitPrice: "500"}},
		Charges:     []ChargeInput{{Label: "Delivery", Amount: "100"}},
	}
}

func TestNewDraftAppliesDefaults(t *testing.T) {
	d := NewDraft(Defaults{
		Number:  "INV-20240305-001",
		Date:    time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		DueDays: 7,
		Notes:   "Payment within 7 days",
	})
	assert.Equal(t, "2024-03-05", d.InvoiceDate)
	assert.Equal(t, "2024-03-12", d.DueDate)
	assert.Equal(t, "draft", d.Status)
	assert.Equal(t, "Payment within 7 days", d.Notes)
	assert.Equal(t, []ItemInput{{Quantity: "1", UnitPrice: "0"}}, d.Items)
}

func TestDraftFromForm(t *testing.T) {
	values := url.Values{
		"client_id":            {" 7b0e6c1e-7d0a-4a53-9a57-3c4f57bd5d1a "},
		"invoice_number":       {"INV-1"},
		"invoice_date":         {"2024-03-05"},
		"status":               {"pending"},
		"include_bank_details": {"on"},
		"item_description":     {"Design", "Print"},
		"item_quantity":        {"2", "3"},
		"item_unit_price":      {"500"},
		"charge_label":         {"Delivery"},
		"charge_amount":        {"100", "20"},
	}
	d := DraftFromForm(values)
	assert.Equal(t, "7b0e6c1e-7d0a-4a53-9a57-3c4f57bd5d1a", d.ClientID)
	assert.True(t, d.IncludeBankDetails)
	require.Len(t, d.Items, 2)
	assert.Equal(t, ItemInput{Description: "Print", Quantity: "3"}, d.Items[1])
	require.Len(t, d.Charges, 2)
	assert.Equal(t, ChargeInput{Amount: "20"}, d.Charges[1])
}

func TestDraftFromFormAlwaysHasARow(t *testing.T) {
	d := DraftFromForm(url.Values{})
	assert.Len(t, d.Items, 1)
	assert.False(t, d.IncludeBankDetails)
}

func TestParseAction(t *testing.T) {
	name, idx := ParseAction("remove_item:2")
	assert.Equal(t, ActionRemoveItem, name)
	assert.Equal(t, 2, idx)

	name, idx = ParseAction("")
	assert.Equal(t, ActionSave, name)
	assert.Equal(t, -1, idx)

	name, idx = ParseAction("remove_charge:x")
	assert.Equal(t, ActionRemoveCharge, name)
	assert.Equal(t, -1, idx)
}

func TestDraftRowEditing(t *testing.T) {
	d := validDraft()
	d.Apply(ActionRemoveItem, 0)
	assert.Len(t, d.Items, 1, "last row is kept")

	d.Apply(ActionAddItem, -1)
	d.Items[1].Description = "Print"
	d.Apply(ActionRemoveItem, 0)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "Print", d.Items[0].Description)

	d.Apply(ActionRemoveItem, 9)
	assert.Len(t, d.Items, 1)

	d.Apply(ActionAddCharge, -1)
	assert.Len(t, d.Charges, 2)
	d.Apply(ActionRemoveCharge, 0)
	d.Apply(ActionRemoveCharge, 0)
	assert.Empty(t, d.Charges)
}

func TestRemoveItemDoesNotAliasRows(t *testing.T) {
	d := validDraft()
	d.Items = append(d.Items, ItemInput{Description: "B"}, ItemInput{Description: "C"})
	before := d.Items
	d.RemoveItem(1)
	assert.Equal(t, "B", before[1].Description)
	assert.Equal(t, []string{"Design", "C"}, []string{d.Items[0].Description, d.Items[1].Description})
}

func TestBuildComputesPersistedTotals(t *testing.T) {
	d := validDraft()
	d.Items = append(d.Items,
		ItemInput{Description: "", Quantity: "9", UnitPrice: "999"},
		ItemInput{Description: "Setup", Quantity: "", UnitPrice: "50"},
	)
	d.Charges = append(d.Charges, ChargeInput{Label: " ", Amount: "400"})

	inv, errs := d.Build(shared.NewValidator(), false)
	require.False(t, errs.Any(), "%v", errs)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Setup", inv.Items[1].Description)
	assert.True(t, decimal.NewFromInt(1).Equal(inv.Items[1].Quantity), "blank quantity saves as 1")
	assert.True(t, decimal.NewFromInt(1050).Equal(inv.Subtotal))
	require.Len(t, inv.Charges, 1)
	assert.Equal(t, "Delivery", inv.Charges[0].Label)
	assert.True(t, decimal.NewFromInt(1150).Equal(inv.Total), "unlabeled charges are not saved")
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), inv.InvoiceDate)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, StatusDraft, inv.Status)
}

func TestBuildReportsFieldErrors(t *testing.T) {
	d := Draft{
		ClientID:    "not-a-uuid",
		InvoiceDate: "05/03/2024",
		DueDate:     "soon",
		Status:      "sent",
		Items: []ItemInput{
			{Description: "", Quantity: "1", UnitPrice: "1"},
			{Description: "Design", Quantity: "two", UnitPrice: "-5"},
		},
	}
	_, errs := d.Build(shared.NewValidator(), false)
	assert.Equal(t, "Invoice number is required", errs["invoice_number"])
	assert.Equal(t, "Invoice date must be a valid date", errs["invoice_date"])
	assert.Equal(t, "Due date must be a valid date", errs["due_date"])
	assert.Equal(t, "Status must be one of draft, pending, paid, overdue, cancelled", errs["status"])
	assert.Equal(t, "Select a valid client", errs["client_id"])
	assert.Equal(t, "Quantity must be a number", errs["items.1.quantity"])
	assert.Equal(t, "Unit price cannot be negative", errs["items.1.unit_price"])
	assert.False(t, errs.Has("items"))
}

func TestBuildRejectsSubCentQuantitiesAndPrices(t *testing.T) {
	d := validDraft()
	d.Items = []ItemInput{
		{Description: "Design", Quantity: "1.555", UnitPrice: "100"},
		{Description: "Print", Quantity: "2", UnitPrice: "0.005"},
		{Description: "Paper", Quantity: "1.500", UnitPrice: "10.10"},
	}
	_, errs := d.Build(shared.NewValidator(), false)
	assert.Equal(t, "Quantity can have at most 2 decimal places", errs["items.0.quantity"])
	assert.Equal(t, "Unit price can have at most 2 decimal places", errs["items.1.unit_price"])
	assert.False(t, errs.Has("items.2.quantity"))
	assert.False(t, errs.Has("items.2.unit_price"))
}

func TestBuildTotalsAddUpAtCentPrecision(t *testing.T) {
	d := validDraft()
	d.Items = []ItemInput{
		{Description: "Stickers", Quantity: "0.5", UnitPrice: "0.01"},
		{Description: "Labels", Quantity: "0.5", UnitPrice: "0.01"},
		{Description: "Ink", Quantity: "1.55", UnitPrice: "1.55"},
	}
	d.Charges = []ChargeInput{{Label: "Handling", Amount: "0.125"}}

	inv, errs := d.Build(shared.NewValidator(), false)
	require.False(t, errs.Any(), "%v", errs)
	require.Len(t, inv.Items, 3)
	assert.True(t, dec("0.01").Equal(inv.Items[0].Total))
	assert.True(t, dec("0.01").Equal(inv.Items[1].Total))
	assert.True(t, dec("2.40").Equal(inv.Items[2].Total))
	assert.True(t, dec("0.13").Equal(inv.Charges[0].Amount))

	sum := decimal.Zero
	for _, it := range inv.Items {
		assert.True(t, it.Total.Equal(it.Total.Round(2)))
		assert.True(t, it.Quantity.Equal(it.Quantity.Round(2)))
		assert.True(t, it.UnitPrice.Equal(it.UnitPrice.Round(2)))
		sum = sum.Add(it.Total)
	}
	assert.True(t, sum.Equal(inv.Subtotal))
	assert.True(t, dec("2.42").Equal(inv.Subtotal))
	assert.True(t, inv.Subtotal.Add(inv.ChargesTotal()).Equal(inv.Total))
	assert.True(t, dec("2.55").Equal(inv.Total))
}

func TestBuildNeedsOneDescribedItem(t *testing.T) {
	d := validDraft()
	d.Items = []ItemInput{{Quantity: "1", UnitPrice: "10"}}
	_, errs := d.Build(shared.NewValidator(), false)
	assert.Equal(t, "Add at least one line item with a description", errs["items"])
}

func TestBuildBankDetailsNeedProfileDetails(t *testing.T) {
	d := validDraft()
	d.IncludeBankDetails = true

	inv, errs := d.Build(shared.NewValidator(), false)
	require.False(t, errs.Any())
	assert.False(t, inv.IncludeBankDetails)

	inv, errs = d.Build(shared.NewValidator(), true)
	require.False(t, errs.Any())
	assert.True(t, inv.IncludeBankDetails)
}

func TestDraftFromInvoiceRoundTrip(t *testing.T) {
	client := uuid.New()
	inv, errs := validDraft().Build(shared.NewValidator(), false)
	require.False(t, errs.Any())
	inv.ClientID = &client

	d := DraftFromInvoice(inv)
	assert.Equal(t, client.String(), d.ClientID)
	assert.Equal(t, "2024-03-12", d.DueDate)
	assert.Equal(t, []ItemInput{{Description: "Design", Quantity: "2", UnitPrice: "500"}}, d.Items)
	assert.Equal(t, []ChargeInput{{Label: "Delivery", Amount: "100"}}, d.Charges)
	assert.True(t, decimal.NewFromInt(1100).Equal(d.Totals().Total))
}

func TestBuildItems(t *testing.T) {
	items, errs := BuildItems([]ItemInput{
		{Description: "Design", Quantity: "2", UnitPrice: "500"},
		{Description: ""},
		{Description: "Print", Quantity: "1,000", UnitPrice: "0.5"},
	})
	require.False(t, errs.Any())
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[1].Position)
	assert.True(t, decimal.NewFromInt(1500).Equal(SumItems(items)))

	_, errs = BuildItems(nil)
	assert.True(t, errs.Has("items"))
}
