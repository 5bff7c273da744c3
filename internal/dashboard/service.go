package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/profile"
)

// InvoiceLister lists the invoices of an owner.
type InvoiceLister interface {
	List(ctx context.Context, owner uuid.UUID) ([]invoices.Invoice, error)
}

// ProfileSource resolves the business profile of an owner.
type ProfileSource interface {
	Get(ctx context.Context, owner uuid.UUID) (profile.Profile, error)
}

// Overview is everything the dashboard page shows.
type Overview struct {
	Stats   Stats
	Buckets []Bucket
	Recent  []invoices.Invoice
	Period  Period
	Profile profile.Profile
}

// Service assembles dashboard data.
type Service struct {
	invoices InvoiceLister
	profiles ProfileSource
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(list InvoiceLister, profiles ProfileSource) *Service {
	return &Service{invoices: list, profiles: profiles, now: time.Now}
}

// WithNow overrides the clock the chart is relative to.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Overview loads the invoices and the profile of owner concurrently and
// derives the dashboard from them.
func (s *Service) Overview(ctx context.Context, owner uuid.UUID, period Period) (Overview, error) {
	var (
		list []invoices.Invoice
		p    profile.Profile
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.invoices.List(ctx, owner)
		return err
	})
	g.Go(func() error {
		var err error
		p, err = s.profiles.Get(ctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return Overview{
		Stats:   ComputeStats(list),
		Buckets: Aggregate(list, period, s.now()),
		Recent:  Recent(list, RecentLimit),
		Period:  period,
		Profile: p,
	}, nil
}

// Revenue returns the chart buckets of owner for period.
func (s *Service) Revenue(ctx context.Context, owner uuid.UUID, period Period) ([]Bucket, error) {
	list, err := s.invoices.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return Aggregate(list, period, s.now()), nil
}
