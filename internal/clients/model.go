package clients

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer an owner bills.
type Client struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayName prefers the contact name and falls back to the company.
func (c Client) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.CompanyName
}

// SearchFields lists the values matched by the list search box.
func SearchFields(c Client) []string {
	return []string{c.Name, c.CompanyName, c.Email, c.Phone}
}
