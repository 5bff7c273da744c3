package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPrefix is used when the owner configured no prefix.
const DefaultPrefix = "INV"

// Counter reports how many invoices an owner has.
type Counter interface {
	Count(ctx context.Context, owner uuid.UUID) (int, error)
}

// NumberGenerator proposes invoice numbers shaped PREFIX-YYYYMMDD-SEQ where
// SEQ is the owner's invoice count plus one. It never fails: when counting
// fails it falls back to PREFIX-<unix millis>. Uniqueness is left to the
// storage layer.
type NumberGenerator struct {
	counter Counter
	logger  *slog.Logger
	now     func() time.Time
}

// NewNumberGenerator constructs a NumberGenerator.
func NewNumberGenerator(counter Counter, logger *slog.Logger) *NumberGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &NumberGenerator{counter: counter, logger: logger, now: time.Now}
}

// WithNow overrides the clock.
func (g *NumberGenerator) WithNow(now func() time.Time) *NumberGenerator {
	if now != nil {
		g.now = now
	}
	return g
}

// Next proposes the next number for owner.
func (g *NumberGenerator) Next(ctx context.Context, owner uuid.UUID, prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	now := g.now()
	count, err := g.counter.Count(ctx, owner)
	if err != nil {
		g.logger.Warn("count invoices for number", slog.String("owner_id", owner.String()), slog.Any("error", err))
		return fmt.Sprintf("%s-%d", prefix, now.UnixMilli())
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, now.Format("20060102"), count+1)
}
