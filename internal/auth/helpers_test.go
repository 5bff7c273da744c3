package auth_test

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/auth"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

type memRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]auth.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[uuid.UUID]auth.User)}
}

func (m *memRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) FindByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m *memRepo) Create(_ context.Context, user auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return auth.ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

var _ auth.Repository = (*memRepo)(nil)
