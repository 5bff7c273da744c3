package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicedesk/invoicedesk/internal/auth"
	"github.com/invoicedesk/invoicedesk/internal/observability"
	"github.com/invoicedesk/invoicedesk/internal/platform/cache"
)

type chanSource struct {
	events chan auth.Event
	err    error
}

func (s chanSource) Subscribe(context.Context, int) (<-chan auth.Event, func(), error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.events, func() {}, nil
}

func TestConsumeAuthEventsInvalidatesOnSignOut(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	keyed := cache.NewKeyed(client, "test", time.Minute, nil)
	ctx := context.Background()

	owner := uuid.New()
	before, err := keyed.Version(ctx, cache.InvoicesScope(owner))
	require.NoError(t, err)

	source := chanSource{events: make(chan auth.Event, 2)}
	source.events <- auth.Event{Kind: auth.EventSignedIn, UserID: owner}
	source.events <- auth.Event{Kind: auth.EventSignedOut, UserID: owner}
	close(source.events)

	require.NoError(t, ConsumeAuthEvents(ctx, source, keyed, observability.NewMetrics(), nil))

	after, err := keyed.Version(ctx, cache.InvoicesScope(owner))
	require.NoError(t, err)
	assert.Greater(t, after, before)
	profileVersion, err := keyed.Version(ctx, cache.ProfileScope(owner))
	require.NoError(t, err)
	assert.Positive(t, profileVersion)
}

func TestConsumeAuthEventsStoppedStore(t *testing.T) {
	err := ConsumeAuthEvents(context.Background(), chanSource{err: auth.ErrStoreClosed}, nil, nil, nil)
	assert.NoError(t, err)
}
