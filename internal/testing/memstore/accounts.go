package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/auth"
	"github.com/invoicedesk/invoicedesk/internal/profile"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// Users is an in-memory auth.Repository with case-insensitive emails.
type Users struct {
	mu   sync.Mutex
	rows map[uuid.UUID]auth.User
}

// NewUsers constructs an empty Users store.
func NewUsers() *Users {
	return &Users{rows: make(map[uuid.UUID]auth.User)}
}

func (m *Users) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *Users) FindByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m *Users) Create(_ context.Context, user auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if strings.EqualFold(u.Email, user.Email) {
			return auth.ErrEmailTaken
		}
	}
	m.rows[user.ID] = user
	return nil
}

func (m *Users) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	m.rows[id] = u
	return nil
}

// Profiles is an in-memory profile.Repository.
type Profiles struct {
	mu   sync.Mutex
	rows map[uuid.UUID]profile.Profile
}

// NewProfiles constructs an empty Profiles store.
func NewProfiles() *Profiles {
	return &Profiles{rows: make(map[uuid.UUID]profile.Profile)}
}

func (m *Profiles) Get(_ context.Context, owner uuid.UUID) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[owner]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Profiles) Upsert(_ context.Context, p profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.OwnerID] = p
	return nil
}

var (
	_ auth.Repository    = (*Users)(nil)
	_ profile.Repository = (*Profiles)(nil)
)
