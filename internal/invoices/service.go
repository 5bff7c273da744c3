package invoices

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/platform/cache"
	"github.com/invoicedesk/invoicedesk/internal/search"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// ClientLookup resolves the client an invoice is billed to.
type ClientLookup interface {
	Get(ctx context.Context, owner, id uuid.UUID) (*clients.Client, error)
}

// Recorder observes invoice writes.
type Recorder interface {
	InvoiceSaved(op string)
}

// Service applies invoice rules on top of the repository.
type Service struct {
	repo      Repository
	clients   ClientLookup
	numbers   *NumberGenerator
	cache     *cache.Keyed
	validator *validator.Validate
	logger    *slog.Logger
	recorder  Recorder
	now       func() time.Time
}

// NewService constructs a Service. A nil cache reads straight from repo.
func NewService(repo Repository, lookup ClientLookup, keyed *cache.Keyed, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		clients:   lookup,
		numbers:   NewNumberGenerator(repo, logger),
		cache:     keyed,
		validator: shared.NewValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock used for timestamps and numbers.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
		s.numbers.WithNow(now)
	}
	return s
}

// WithRecorder installs a write observer.
func (s *Service) WithRecorder(rec Recorder) *Service {
	s.recorder = rec
	return s
}

// List returns every invoice of owner, newest first, without items.
func (s *Service) List(ctx context.Context, owner uuid.UUID) ([]Invoice, error) {
	var out []Invoice
	err := s.cache.Fetch(ctx, cache.InvoicesScope(owner), "list", &out, func(ctx context.Context) (any, error) {
		return s.repo.List(ctx, owner)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListView is the filtered invoice list with a count per status tab.
type ListView struct {
	Invoices []Invoice
	Counts   map[Status]int
	All      int
	Query    string
	Status   string
}

// Browse filters the invoices of owner by free text and by status. An
// empty or unknown status shows every status. Tab counts cover every
// invoice of owner regardless of the search.
func (s *Service) Browse(ctx context.Context, owner uuid.UUID, query, status string) (ListView, error) {
	all, err := s.List(ctx, owner)
	if err != nil {
		return ListView{}, err
	}
	matched := search.Filter(all, query, SearchFields)
	view := ListView{Counts: make(map[Status]int, len(Statuses)), All: len(all), Query: query, Status: "all"}
	for _, inv := range all {
		view.Counts[inv.Status]++
	}
	st, ok := ParseStatus(status)
	if !ok {
		view.Invoices = matched
		return view, nil
	}
	view.Status = string(st)
	view.Invoices = make([]Invoice, 0, len(matched))
	for _, inv := range matched {
		if inv.Status == st {
			view.Invoices = append(view.Invoices, inv)
		}
	}
	return view, nil
}

// Get loads one invoice of owner with its items.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*Invoice, error) {
	return s.repo.Get(ctx, owner, id)
}

// NextNumber proposes a number for the next invoice of owner.
func (s *Service) NextNumber(ctx context.Context, owner uuid.UUID, prefix string) string {
	return s.numbers.Next(ctx, owner, prefix)
}

// Create validates the draft and stores the invoice with its items.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, d Draft, hasBankDetails bool) (*Invoice, error) {
	inv, err := s.build(ctx, owner, d, hasBankDetails)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	inv.ID = uuid.New()
	inv.OwnerID = owner
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, duplicateAsField(err)
	}
	s.saved(ctx, owner, "create")
	return &inv, nil
}

// Update validates the draft and overwrites invoice id and its items.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, d Draft, hasBankDetails bool) (*Invoice, error) {
	current, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	inv, err := s.build(ctx, owner, d, hasBankDetails)
	if err != nil {
		return nil, err
	}
	inv.ID = id
	inv.OwnerID = owner
	inv.CreatedAt = current.CreatedAt
	inv.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, duplicateAsField(err)
	}
	s.saved(ctx, owner, "update")
	return &inv, nil
}

// ReplaceItems swaps the line items of invoice id. Rows without a
// description are dropped; the stored totals follow the new items.
func (s *Service) ReplaceItems(ctx context.Context, owner, id uuid.UUID, rows []ItemInput) (*Invoice, error) {
	items, errs := BuildItems(rows)
	if errs.Any() {
		return nil, &shared.ValidationError{Fields: errs}
	}
	inv, err := s.repo.ReplaceItems(ctx, owner, id, items)
	if err != nil {
		return nil, err
	}
	s.saved(ctx, owner, "replace_items")
	return inv, nil
}

// SetStatus changes the status of invoice id.
func (s *Service) SetStatus(ctx context.Context, owner, id uuid.UUID, status string) (Status, error) {
	st, ok := ParseStatus(status)
	if !ok {
		return "", &shared.ValidationError{Fields: shared.FormErrors{"status": "Unknown status"}}
	}
	if err := s.repo.UpdateStatus(ctx, owner, id, st); err != nil {
		return "", err
	}
	s.saved(ctx, owner, "status")
	return st, nil
}

// Delete removes invoice id and its items.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.saved(ctx, owner, "delete")
	return nil
}

func (s *Service) build(ctx context.Context, owner uuid.UUID, d Draft, hasBankDetails bool) (Invoice, error) {
	inv, errs := d.Build(s.validator, hasBankDetails)
	if inv.ClientID != nil && s.clients != nil {
		client, err := s.clients.Get(ctx, owner, *inv.ClientID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			errs.Add("client_id", "Select a valid client")
		case err != nil:
			return Invoice{}, err
		default:
			inv.Client = &ClientSummary{
				ID:          client.ID,
				Name:        client.Name,
				CompanyName: client.CompanyName,
				Email:       client.Email,
				Phone:       client.Phone,
				Address:     client.Address,
			}
			inv.ClientName = client.DisplayName()
		}
	}
	if errs.Any() {
		return Invoice{}, &shared.ValidationError{Fields: errs}
	}
	return inv, nil
}

func (s *Service) saved(ctx context.Context, owner uuid.UUID, op string) {
	if err := s.cache.Invalidate(ctx, cache.InvoicesScope(owner)); err != nil {
		s.logger.Warn("invalidate invoice cache", slog.String("owner_id", owner.String()), slog.Any("error", err))
	}
	if s.recorder != nil {
		s.recorder.InvoiceSaved(op)
	}
}

func duplicateAsField(err error) error {
	if errors.Is(err, ErrDuplicateNumber) {
		return &shared.ValidationError{Fields: shared.FormErrors{"invoice_number": "This invoice number is already in use"}}
	}
	return err
}
