package clients

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/platform/cache"
	"github.com/invoicedesk/invoicedesk/internal/search"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// Service applies client rules and keeps the owner's cached list current.
type Service struct {
	repo      Repository
	cache     *cache.Keyed
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service. A nil cache reads straight from repo.
func NewService(repo Repository, keyed *cache.Keyed, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		cache:     keyed,
		validator: shared.NewValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// List returns every client of owner ordered by name.
func (s *Service) List(ctx context.Context, owner uuid.UUID) ([]Client, error) {
	var out []Client
	err := s.cache.Fetch(ctx, cache.ClientsScope(owner), "list", &out, func(ctx context.Context) (any, error) {
		return s.repo.List(ctx, owner)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search filters the client list of owner by query.
func (s *Service) Search(ctx context.Context, owner uuid.UUID, query string) ([]Client, error) {
	list, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return search.Filter(list, query, SearchFields), nil
}

// Get loads one client of owner.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*Client, error) {
	return s.repo.Get(ctx, owner, id)
}

// Create validates in and stores a new client.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in Input) (*Client, error) {
	if errs := shared.Validate(s.validator, in); errs.Any() {
		return nil, &shared.ValidationError{Fields: errs}
	}
	now := s.now().UTC()
	c := Client{ID: uuid.New(), OwnerID: owner, CreatedAt: now, UpdatedAt: now}
	in.apply(&c)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, owner)
	return &c, nil
}

// Update validates in and overwrites the editable fields of client id.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, in Input) (*Client, error) {
	if errs := shared.Validate(s.validator, in); errs.Any() {
		return nil, &shared.ValidationError{Fields: errs}
	}
	c, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, *c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, owner)
	return c, nil
}

// Delete removes client id. Invoices that referenced it keep their rows with
// the client link cleared.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.invalidate(ctx, owner)
	return nil
}

func (s *Service) invalidate(ctx context.Context, owner uuid.UUID) {
	if err := s.cache.Invalidate(ctx, cache.ClientsScope(owner), cache.InvoicesScope(owner)); err != nil {
		s.logger.Warn("invalidate client cache", slog.String("owner_id", owner.String()), slog.Any("error", err))
	}
}
