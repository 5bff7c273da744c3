// Package memstore holds in-memory repositories for service and handler
// tests. They honour owner scoping, not-found and duplicate number rules the
// same way the Postgres repositories do.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// Clients is an in-memory clients.Repository.
type Clients struct {
	mu   sync.Mutex
	rows map[uuid.UUID]clients.Client
}

// NewClients constructs an empty Clients store.
func NewClients() *Clients {
	return &Clients{rows: make(map[uuid.UUID]clients.Client)}
}

func (m *Clients) List(_ context.Context, owner uuid.UUID) ([]clients.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]clients.Client, 0)
	for _, c := range m.rows {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (m *Clients) Get(_ context.Context, owner, id uuid.UUID) (*clients.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.OwnerID != owner {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (m *Clients) Create(_ context.Context, c clients.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[c.ID] = c
	return nil
}

func (m *Clients) Update(_ context.Context, c clients.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ID]
	if !ok || cur.OwnerID != c.OwnerID {
		return shared.ErrNotFound
	}
	m.rows[c.ID] = c
	return nil
}

func (m *Clients) Delete(_ context.Context, owner, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.OwnerID != owner {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *Clients) lookup(owner, id uuid.UUID) (clients.Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	return c, ok && c.OwnerID == owner
}

// Invoices is an in-memory invoices.Repository. When Clients is set the
// client summary is joined on read, so deleted clients leave the invoice
// unlinked as they do in Postgres.
type Invoices struct {
	Clients *Clients
	// CountErr, when set, is returned by Count.
	CountErr error

	mu    sync.Mutex
	rows  map[uuid.UUID]invoices.Invoice
	lists int
}

// NewInvoices constructs an empty Invoices store.
func NewInvoices(joined *Clients) *Invoices {
	return &Invoices{Clients: joined, rows: make(map[uuid.UUID]invoices.Invoice)}
}

// ListCalls reports how often List reached the store.
func (m *Invoices) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

func (m *Invoices) List(_ context.Context, owner uuid.UUID) ([]invoices.Invoice, error) {
	m.mu.Lock()
	m.lists++
	out := make([]invoices.Invoice, 0)
	for _, inv := range m.rows {
		if inv.OwnerID == owner {
			inv.Items = nil
			out = append(out, inv)
		}
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Number > out[j].Number
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	for i := range out {
		m.join(&out[i])
	}
	return out, nil
}

func (m *Invoices) Get(_ context.Context, owner, id uuid.UUID) (*invoices.Invoice, error) {
	m.mu.Lock()
	inv, ok := m.rows[id]
	m.mu.Unlock()
	if !ok || inv.OwnerID != owner {
		return nil, shared.ErrNotFound
	}
	inv.Items = append([]invoices.Item(nil), inv.Items...)
	m.join(&inv)
	return &inv, nil
}

func (m *Invoices) Count(_ context.Context, owner uuid.UUID) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inv := range m.rows {
		if inv.OwnerID == owner {
			n++
		}
	}
	return n, nil
}

func (m *Invoices) Create(_ context.Context, inv invoices.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.numberTaken(inv) {
		return invoices.ErrDuplicateNumber
	}
	m.rows[inv.ID] = withItemIDs(inv)
	return nil
}

func (m *Invoices) Update(_ context.Context, inv invoices.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[inv.ID]
	if !ok || cur.OwnerID != inv.OwnerID {
		return shared.ErrNotFound
	}
	if m.numberTaken(inv) {
		return invoices.ErrDuplicateNumber
	}
	m.rows[inv.ID] = withItemIDs(inv)
	return nil
}

func (m *Invoices) ReplaceItems(ctx context.Context, owner, id uuid.UUID, items []invoices.Item) (*invoices.Invoice, error) {
	m.mu.Lock()
	inv, ok := m.rows[id]
	if !ok || inv.OwnerID != owner {
		m.mu.Unlock()
		return nil, shared.ErrNotFound
	}
	inv.Items = items
	inv.Subtotal = invoices.SumItems(items)
	inv.Total = inv.Subtotal.Add(inv.ChargesTotal())
	m.rows[id] = withItemIDs(inv)
	m.mu.Unlock()
	return m.Get(ctx, owner, id)
}

func (m *Invoices) UpdateStatus(_ context.Context, owner, id uuid.UUID, status invoices.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[id]
	if !ok || inv.OwnerID != owner {
		return shared.ErrNotFound
	}
	inv.Status = status
	m.rows[id] = inv
	return nil
}

func (m *Invoices) Delete(_ context.Context, owner, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[id]
	if !ok || inv.OwnerID != owner {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *Invoices) numberTaken(inv invoices.Invoice) bool {
	for id, other := range m.rows {
		if id != inv.ID && other.OwnerID == inv.OwnerID && other.Number == inv.Number {
			return true
		}
	}
	return false
}

func (m *Invoices) join(inv *invoices.Invoice) {
	if m.Clients == nil {
		return
	}
	inv.Client, inv.ClientName = nil, ""
	if inv.ClientID == nil {
		return
	}
	c, ok := m.Clients.lookup(inv.OwnerID, *inv.ClientID)
	if !ok {
		return
	}
	inv.Client = &invoices.ClientSummary{
		ID:          c.ID,
		Name:        c.Name,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
	}
	inv.ClientName = c.DisplayName()
}

func withItemIDs(inv invoices.Invoice) invoices.Invoice {
	items := make([]invoices.Item, len(inv.Items))
	for i, it := range inv.Items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.Position = i
		items[i] = it
	}
	inv.Items = items
	return inv
}
