package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/invoicedesk/invoicedesk/internal/auth"
	"github.com/invoicedesk/invoicedesk/internal/observability"
	"github.com/invoicedesk/invoicedesk/internal/platform/cache"
)

// EventSource is the subscription side of auth.Store.
type EventSource interface {
	Subscribe(ctx context.Context, buffer int) (<-chan auth.Event, func(), error)
}

// ConsumeAuthEvents counts session events and drops the cached reads of a
// user once they sign out or lose their sessions. It blocks until ctx is
// cancelled or the store stops.
func ConsumeAuthEvents(ctx context.Context, source EventSource, keyed *cache.Keyed, metrics *observability.Metrics, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	events, cancel, err := source.Subscribe(ctx, 64)
	if err != nil {
		return ignoreClosed(err)
	}
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			metrics.AuthEvent(string(ev.Kind))
			if ev.Kind != auth.EventSignedOut && ev.Kind != auth.EventRevoked {
				continue
			}
			if err := keyed.Invalidate(ctx, cache.OwnerScopes(ev.UserID)...); err != nil {
				logger.Warn("invalidate owner cache", slog.String("user_id", ev.UserID.String()), slog.Any("error", err))
			}
		}
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, auth.ErrStoreClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
