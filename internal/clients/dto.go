package clients

import (
	"net/url"
	"strings"
)

// Input carries the editable client fields of the create and edit forms.
type Input struct {
	Name        string `form:"name" validate:"required,max=200"`
	CompanyName string `form:"company_name" validate:"max=200"`
	Email       string `form:"email" validate:"omitempty,email,max=254"`
	Phone       string `form:"phone" validate:"omitempty,phone"`
	Address     string `form:"address" validate:"max=500"`
	Notes       string `form:"notes" validate:"max=2000"`
}

// InputFromForm reads Input from posted form values.
func InputFromForm(values url.Values) Input {
	return Input{
		Name:        strings.TrimSpace(values.Get("name")),
		CompanyName: strings.TrimSpace(values.Get("company_name")),
		Email:       strings.TrimSpace(values.Get("email")),
		Phone:       strings.TrimSpace(values.Get("phone")),
		Address:     strings.TrimSpace(values.Get("address")),
		Notes:       strings.TrimSpace(values.Get("notes")),
	}
}

// InputFromClient pre-fills the edit form.
func InputFromClient(c Client) Input {
	return Input{
		Name:        c.Name,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Notes:       c.Notes,
	}
}

func (in Input) apply(c *Client) {
	c.Name = in.Name
	c.CompanyName = in.CompanyName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.Notes = in.Notes
}
