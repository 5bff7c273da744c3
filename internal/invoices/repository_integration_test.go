//go:build integration

package invoices_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicedesk/invoicedesk/internal/auth"
	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/testing/pgtest"
)

func TestPostgresRepository(t *testing.T) {
	pool := pgtest.New(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	owner := uuid.New()
	require.NoError(t, auth.NewRepository(pool).Create(ctx, auth.User{
		ID: owner, Email: "owner@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now,
	}))
	client := clients.Client{ID: uuid.New(), OwnerID: owner, Name: "Acme", Email: "hello@acme.ng", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, clients.NewRepository(pool).Create(ctx, client))

	repo := invoices.NewRepository(pool)
	due := now.AddDate(0, 0, 7)
	inv := invoices.Invoice{
		ID:          uuid.New(),
		OwnerID:     owner,
		ClientID:    &client.ID,
		Number:      "INV-20240305-001",
		InvoiceDate: now,
		DueDate:     &due,
		Status:      invoices.StatusPending,
		Subtotal:    decimal.NewFromInt(1000),
		Total:       decimal.NewFromInt(1100),
		Charges:     []invoices.Charge{{Label: "Delivery", Amount: decimal.NewFromInt(100)}},
		Items: []invoices.Item{{
			ID: uuid.New(), Position: 0, Description: "Design",
			Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500), Total: decimal.NewFromInt(1000),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, inv))

	t.Run("get joins client and items", func(t *testing.T) {
		got, err := repo.Get(ctx, owner, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.ClientName)
		require.NotNil(t, got.Client)
		assert.Equal(t, "hello@acme.ng", got.Client.Email)
		require.Len(t, got.Items, 1)
		assert.True(t, decimal.NewFromInt(1000).Equal(got.Items[0].Total))
		require.Len(t, got.Charges, 1)
		assert.Equal(t, "Delivery", got.Charges[0].Label)
		assert.True(t, decimal.NewFromInt(1100).Equal(got.Total))
	})

	t.Run("numbers are unique per owner", func(t *testing.T) {
		dup := inv
		dup.ID = uuid.New()
		dup.Items = nil
		assert.ErrorIs(t, repo.Create(ctx, dup), invoices.ErrDuplicateNumber)
	})

	t.Run("other owners see nothing", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New(), inv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		list, err := repo.List(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("replace items rewrites totals", func(t *testing.T) {
		got, err := repo.ReplaceItems(ctx, owner, inv.ID, []invoices.Item{
			{ID: uuid.New(), Position: 0, Description: "Audit", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(300), Total: decimal.NewFromInt(300)},
			{ID: uuid.New(), Position: 1, Description: "Report", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), Total: decimal.NewFromInt(100)},
		})
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.True(t, decimal.NewFromInt(400).Equal(got.Subtotal))
		assert.True(t, decimal.NewFromInt(500).Equal(got.Total))
	})

	t.Run("stored rows add up to the stored totals", func(t *testing.T) {
		d := invoices.Draft{
			Number:      "INV-20240305-002",
			InvoiceDate: "2024-03-05",
			Status:      "pending",
			Items: []invoices.ItemInput{
				{Description: "Stickers", Quantity: "0.5", UnitPrice: "0.01"},
				{Description: "Labels", Quantity: "0.5", UnitPrice: "0.01"},
				{Description: "Ink", Quantity: "1.55", UnitPrice: "1.55"},
			},
			Charges: []invoices.ChargeInput{{Label: "Handling", Amount: "0.125"}},
		}
		built, errs := d.Build(shared.NewValidator(), false)
		require.False(t, errs.Any(), "%v", errs)
		built.ID = uuid.New()
		built.OwnerID = owner
		built.CreatedAt = now
		built.UpdatedAt = now
		require.NoError(t, repo.Create(ctx, built))

		got, err := repo.Get(ctx, owner, built.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 3)
		sum := decimal.Zero
		for i, it := range got.Items {
			assert.True(t, built.Items[i].Quantity.Equal(it.Quantity), "quantity of row %d", i)
			assert.True(t, built.Items[i].Total.Equal(it.Total), "total of row %d", i)
			assert.True(t, it.Quantity.Mul(it.UnitPrice).Round(2).Equal(it.Total), "row %d", i)
			sum = sum.Add(it.Total)
		}
		assert.True(t, sum.Equal(got.Subtotal))
		assert.True(t, got.Subtotal.Add(got.ChargesTotal()).Equal(got.Total))
		assert.True(t, decimal.RequireFromString("2.55").Equal(got.Total))

		require.NoError(t, repo.Delete(ctx, owner, built.ID))
	})

	t.Run("status and delete", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, owner, inv.ID, invoices.StatusPaid))
		got, err := repo.Get(ctx, owner, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, invoices.StatusPaid, got.Status)

		n, err := repo.Count(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, repo.Delete(ctx, owner, inv.ID))
		assert.ErrorIs(t, repo.Delete(ctx, owner, inv.ID), shared.ErrNotFound)
	})
}
