package profile

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/money"
	"github.com/invoicedesk/invoicedesk/internal/platform/cache"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

const maxDueDays = 365

// Service reads and saves owner profiles.
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

// Get returns the profile of owner, or the defaults when none was saved.
func (s *Service) Get(ctx context.Context, owner uuid.UUID) (Profile, error) {
	var p Profile
	err := s.cache.Fetch(ctx, cache.ProfileScope(owner), "profile", &p, func(ctx context.Context) (any, error) {
		stored, err := s.repo.Get(ctx, owner)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return Defaults(owner), nil
		}
		return *stored, nil
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Save validates in and stores it as the profile of owner.
func (s *Service) Save(ctx context.Context, owner uuid.UUID, in Input) (Profile, error) {
	errs := shared.Validate(s.validator, in)
	days, err := strconv.Atoi(in.DefaultDueDays)
	if !errs.Has("default_due_days") && (err != nil || days < 0 || days > maxDueDays) {
		errs.Add("default_due_days", "Default due days must be between 0 and 365")
	}
	if !errs.Has("currency") && !money.ValidCode(in.Currency) {
		errs.Add("currency", "Please choose a supported currency")
	}
	if errs.Any() {
		return Profile{}, &shared.ValidationError{Fields: errs}
	}

	p := Profile{
		OwnerID:        owner,
		CompanyName:    in.CompanyName,
		Tagline:        in.Tagline,
		RCNumber:       in.RCNumber,
		Address:        in.Address,
		Phone:          in.Phone,
		Email:          in.Email,
		BankName:       in.BankName,
		AccountName:    in.AccountName,
		AccountNumber:  in.AccountNumber,
		InvoicePrefix:  in.InvoicePrefix,
		DefaultDueDays: days,
		DefaultNotes:   in.DefaultNotes,
		Currency:       in.Currency,
		UpdatedAt:      s.now().UTC(),
		Saved:          true,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	if err := s.cache.Invalidate(ctx, cache.ProfileScope(owner)); err != nil {
		s.logger.Warn("invalidate profile cache", slog.String("owner_id", owner.String()), slog.Any("error", err))
	}
	return p, nil
}
