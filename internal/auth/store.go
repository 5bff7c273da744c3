package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// UserFinder resolves accounts for the Store.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}

type subscription struct {
	ch    chan Event
	reply chan uint64
}

// Store owns authenticated session state. Sessions are bound to users through
// the SessionManager; every transition is announced as an Event. A single
// dispatcher goroutine (Run) owns the subscriber set, publishers never touch
// it directly.
type Store struct {
	sessions *shared.SessionManager
	users    UserFinder
	logger   *slog.Logger
	now      func() time.Time

	events chan Event
	subs   chan subscription
	unsubs chan uint64
	done   chan struct{}
	start  sync.Once
}

// NewStore constructs a Store. Call Run to start delivering events.
func NewStore(sessions *shared.SessionManager, users UserFinder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: sessions,
		users:    users,
		logger:   logger,
		now:      time.Now,
		events:   make(chan Event, 64),
		subs:     make(chan subscription),
		unsubs:   make(chan uint64),
		done:     make(chan struct{}),
	}
}

// WithNow overrides the clock used to stamp events.
func (s *Store) WithNow(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// Run dispatches events until ctx is cancelled. Subscriber channels are
// closed when Run returns. Delivery never blocks: a subscriber whose buffer
// is full misses the event.
func (s *Store) Run(ctx context.Context) {
	started := false
	s.start.Do(func() { started = true })
	if !started {
		return
	}

	subscribers := make(map[uint64]chan Event)
	var next uint64
	defer func() {
		for _, ch := range subscribers {
			close(ch)
		}
		close(s.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-s.subs:
			next++
			subscribers[next] = sub.ch
			sub.reply <- next
		case id := <-s.unsubs:
			if ch, ok := subscribers[id]; ok {
				delete(subscribers, id)
				close(ch)
			}
		case ev := <-s.events:
			for id, ch := range subscribers {
				select {
				case ch <- ev:
				default:
					s.logger.Warn("auth event dropped", slog.Uint64("subscriber", id), slog.String("kind", string(ev.Kind)))
				}
			}
		}
	}
}

// Subscribe registers a consumer with the given channel buffer. The returned
// cancel func unregisters it and closes the channel.
func (s *Store) Subscribe(ctx context.Context, buffer int) (<-chan Event, func(), error) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := subscription{ch: make(chan Event, buffer), reply: make(chan uint64, 1)}
	select {
	case s.subs <- sub:
	case <-s.done:
		return nil, nil, ErrStoreClosed
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	id := <-sub.reply

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			select {
			case s.unsubs <- id:
			case <-s.done:
			}
		})
	}
	return sub.ch, cancel, nil
}

func (s *Store) publish(kind EventKind, userID uuid.UUID, sessionID string) {
	ev := Event{Kind: kind, UserID: userID, SessionID: sessionID, At: s.now()}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("auth event queue full", slog.String("kind", string(kind)))
	}
}

// Establish binds sess to user. The session id is rotated before it is
// recorded as a live session of the user.
func (s *Store) Establish(ctx context.Context, sess *shared.Session, user User) error {
	if sess == nil {
		return errors.New("auth: session missing")
	}
	sess.Rotate()
	sess.SetUser(user.ID.String())
	if err := s.sessions.Track(ctx, user.ID.String(), sess.ID); err != nil {
		return fmt.Errorf("auth: establish: %w", err)
	}
	s.publish(EventSignedIn, user.ID, sess.ID)
	return nil
}

// End signs sess out. The record is removed when the session is committed.
func (s *Store) End(ctx context.Context, sess *shared.Session) {
	if sess == nil {
		return
	}
	userID, err := uuid.Parse(sess.User())
	s.sessions.Destroy(sess)
	if err == nil {
		s.publish(EventSignedOut, userID, sess.ID)
	}
}

// Current resolves the user bound to sess. Anonymous sessions and sessions
// whose user no longer exists yield nil without error.
func (s *Store) Current(ctx context.Context, sess *shared.Session) (*User, error) {
	if sess == nil || sess.User() == "" {
		return nil, nil
	}
	id, err := uuid.Parse(sess.User())
	if err != nil {
		sess.SetUser("")
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			sess.SetUser("")
			return nil, nil
		}
		return nil, fmt.Errorf("auth: current user: %w", err)
	}
	return user, nil
}

// Revoke deletes every live session of userID except keep and reports how
// many were removed.
func (s *Store) Revoke(ctx context.Context, userID uuid.UUID, keep string) (int, error) {
	ids, err := s.sessions.SessionsForUser(ctx, userID.String())
	if err != nil {
		return 0, err
	}
	revoked := 0
	for _, id := range ids {
		if id == keep {
			continue
		}
		if err := s.sessions.Delete(ctx, id, userID.String()); err != nil {
			return revoked, err
		}
		revoked++
		s.publish(EventRevoked, userID, id)
	}
	return revoked, nil
}

// PasswordChanged announces a password change made from session keep.
func (s *Store) PasswordChanged(userID uuid.UUID, keep string) {
	s.publish(EventPasswordChanged, userID, keep)
}

// WatchPasswordChanges revokes the other sessions of a user whenever their
// password changes. It blocks until ctx is cancelled or the store stops.
func (s *Store) WatchPasswordChanges(ctx context.Context) error {
	events, cancel, err := s.Subscribe(ctx, 32)
	if err != nil {
		return err
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
			if ev.Kind != EventPasswordChanged {
				continue
			}
			n, err := s.Revoke(ctx, ev.UserID, ev.SessionID)
			if err != nil {
				s.logger.Error("revoke sessions", slog.String("user_id", ev.UserID.String()), slog.Any("error", err))
				continue
			}
			s.logger.Info("sessions revoked after password change", slog.String("user_id", ev.UserID.String()), slog.Int("count", n))
		}
	}
}
