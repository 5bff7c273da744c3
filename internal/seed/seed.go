// Package seed fills an account with believable demo data: a business
// profile, clients and a year of invoices.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/profile"
)

// Options controls how much data Run generates. A zero Seed picks a random
// one.
type Options struct {
	Clients  int
	Invoices int
	Seed     uint64
}

// Result reports what Run created.
type Result struct {
	Clients  int
	Invoices int
}

var statuses = []string{"draft", "pending", "pending", "paid", "paid", "paid", "overdue", "cancelled"}

var chargeLabels = []string{"Delivery", "Installation", "Rush fee", "Packaging"}

// Seeder writes demo data through the services so every business rule
// applies.
type Seeder struct {
	clients  *clients.Service
	invoices *invoices.Service
	profiles *profile.Service
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Seeder.
func New(clientSvc *clients.Service, invoiceSvc *invoices.Service, profileSvc *profile.Service, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{clients: clientSvc, invoices: invoiceSvc, profiles: profileSvc, logger: logger, now: time.Now}
}

// WithNow overrides the clock invoice dates are spread back from.
func (s *Seeder) WithNow(now func() time.Time) *Seeder {
	if now != nil {
		s.now = now
	}
	return s
}

// Run seeds owner's account.
func (s *Seeder) Run(ctx context.Context, owner uuid.UUID, opts Options) (Result, error) {
	var res Result
	if opts.Clients <= 0 {
		opts.Clients = 8
	}
	if opts.Invoices < 0 {
		opts.Invoices = 0
	}
	f := gofakeit.New(opts.Seed)

	prof, err := s.profiles.Save(ctx, owner, profileInput(f))
	if err != nil {
		return res, fmt.Errorf("seed: profile: %w", err)
	}

	created := make([]*clients.Client, 0, opts.Clients)
	for i := 0; i < opts.Clients; i++ {
		c, err := s.clients.Create(ctx, owner, clientInput(f))
		if err != nil {
			return res, fmt.Errorf("seed: client %d: %w", i+1, err)
		}
		created = append(created, c)
		res.Clients++
	}

	now := s.now()
	for i := 0; i < opts.Invoices; i++ {
		client := created[f.Number(0, len(created)-1)]
		d := invoiceDraft(f, now)
		d.ClientID = client.ID.String()
		d.Number = s.invoices.NextNumber(ctx, owner, prof.InvoicePrefix)
		d.Notes = prof.DefaultNotes
		if _, err := s.invoices.Create(ctx, owner, d, prof.HasBankDetails()); err != nil {
			return res, fmt.Errorf("seed: invoice %d: %w", i+1, err)
		}
		res.Invoices++
	}
	s.logger.Info("seeded account",
		slog.String("owner_id", owner.String()),
		slog.Int("clients", res.Clients),
		slog.Int("invoices", res.Invoices),
	)
	return res, nil
}

func profileInput(f *gofakeit.Faker) profile.Input {
	company := f.Company()
	return profile.Input{
		CompanyName:    company,
		Tagline:        f.BuzzWord() + " solutions",
		RCNumber:       fmt.Sprintf("RC%07d", f.Number(1, 9999999)),
		Address:        f.Address().Address,
		Phone:          phone(f),
		Email:          f.Email(),
		BankName:       f.RandomString([]string{"Access Bank", "GTBank", "Zenith Bank", "First Bank"}),
		AccountName:    company,
		AccountNumber:  fmt.Sprintf("%010d", f.Number(0, 999999999)),
		InvoicePrefix:  prefix(company),
		DefaultDueDays: "14",
		DefaultNotes:   "Thank you for your business.",
		Currency:       "NGN",
	}
}

func clientInput(f *gofakeit.Faker) clients.Input {
	in := clients.Input{
		Name:    f.Name(),
		Email:   f.Email(),
		Phone:   phone(f),
		Address: f.Address().Address,
	}
	if f.Bool() {
		in.CompanyName = f.Company()
	}
	return in
}

// invoiceDraft spreads invoice dates over the twelve months before now.
func invoiceDraft(f *gofakeit.Faker, now time.Time) invoices.Draft {
	date := f.DateRange(now.AddDate(-1, 0, 0), now)
	d := invoices.Draft{
		InvoiceDate:        date.Format("2006-01-02"),
		DueDate:            date.AddDate(0, 0, 14).Format("2006-01-02"),
		Status:             f.RandomString(statuses),
		IncludeBankDetails: f.Bool(),
	}
	for n := f.Number(1, 4); n > 0; n-- {
		d.Items = append(d.Items, invoices.ItemInput{
			Description: f.ProductName(),
			Quantity:    fmt.Sprint(f.Number(1, 10)),
			UnitPrice:   decimal.NewFromFloat(f.Price(1000, 50000)).Round(0).String(),
		})
	}
	if f.Number(0, 2) == 0 {
		d.Charges = append(d.Charges, invoices.ChargeInput{
			Label:  f.RandomString(chargeLabels),
			Amount: decimal.NewFromInt(int64(f.Number(5, 50)) * 100).String(),
		})
	}
	return d
}

// phone returns a Nigerian mobile number.
func phone(f *gofakeit.Faker) string {
	return fmt.Sprintf("080%08d", f.Number(0, 99999999))
}

func prefix(company string) string {
	var b strings.Builder
	for _, word := range strings.Fields(company) {
		for _, r := range word {
			if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
				b.WriteRune(r)
				break
			}
		}
		if b.Len() == 3 {
			break
		}
	}
	if b.Len() == 0 {
		return invoices.DefaultPrefix
	}
	return strings.ToUpper(b.String())
}
