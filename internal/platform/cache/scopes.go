package cache

import "github.com/google/uuid"

// ClientsScope groups the cached client reads of owner.
func ClientsScope(owner uuid.UUID) string {
	return "clients:" + owner.String()
}

// InvoicesScope groups the cached invoice reads of owner. Invoice rows carry
// the client name, so client writes must drop this scope as well.
func InvoicesScope(owner uuid.UUID) string {
	return "invoices:" + owner.String()
}

// ProfileScope groups the cached profile of owner.
func ProfileScope(owner uuid.UUID) string {
	return "profile:" + owner.String()
}

// OwnerScopes lists every scope held for owner.
func OwnerScopes(owner uuid.UUID) []string {
	return []string{ClientsScope(owner), InvoicesScope(owner), ProfileScope(owner)}
}
