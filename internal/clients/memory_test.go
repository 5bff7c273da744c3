package clients_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

type memRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]clients.Client
	lists int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]clients.Client)}
}

func (m *memRepo) List(_ context.Context, owner uuid.UUID) ([]clients.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]clients.Client, 0)
	for _, c := range m.rows {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (m *memRepo) Get(_ context.Context, owner, id uuid.UUID) (*clients.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.OwnerID != owner {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (m *memRepo) Create(_ context.Context, c clients.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[c.ID] = c
	return nil
}

func (m *memRepo) Update(_ context.Context, c clients.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ID]
	if !ok || cur.OwnerID != c.OwnerID {
		return shared.ErrNotFound
	}
	m.rows[c.ID] = c
	return nil
}

func (m *memRepo) Delete(_ context.Context, owner, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.OwnerID != owner {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memRepo) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}
