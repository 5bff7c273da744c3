package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// Service wraps account rules on top of the repository and session store.
type Service struct {
	repo      Repository
	store     *Store
	validator *validator.Validate
	cost      int
	now       func() time.Time
}

// NewService constructs a new Service. store may be nil for callers that
// never touch HTTP sessions, such as the CLI.
func NewService(repo Repository, store *Store) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		validator: shared.NewValidator(),
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
}

// WithHashCost overrides the bcrypt cost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

type credentials struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

type passwordChange struct {
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// Register creates an account after validating the email and password.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	form := credentials{Email: normalizeEmail(email), Password: password}
	if errs := shared.Validate(s.validator, form); errs.Any() {
		return nil, &shared.ValidationError{Fields: errs}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	now := s.now().UTC()
	user := User{
		ID:           uuid.New(),
		Email:        form.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignUp registers an account and signs sess in as the new user.
func (s *Service) SignUp(ctx context.Context, sess *shared.Session, email, password string) (*User, error) {
	user, err := s.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, sess, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SignIn authenticates the credentials and binds sess to the user.
func (s *Service) SignIn(ctx context.Context, sess *shared.Session, email, password string) (*User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, sess, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignOut ends sess.
func (s *Service) SignOut(ctx context.Context, sess *shared.Session) {
	if s.store != nil {
		s.store.End(ctx, sess)
	}
}

// UpdatePassword stores a new password for userID. Other sessions of the
// user are revoked by the store's password watcher; sess stays signed in.
func (s *Service) UpdatePassword(ctx context.Context, sess *shared.Session, userID uuid.UUID, password, confirm string) error {
	form := passwordChange{Password: password, ConfirmPassword: confirm}
	if errs := shared.Validate(s.validator, form); errs.Any() {
		return &shared.ValidationError{Fields: errs}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	if s.store != nil {
		keep := ""
		if sess != nil {
			keep = sess.ID
		}
		s.store.PasswordChanged(userID, keep)
	}
	return nil
}

func (s *Service) establish(ctx context.Context, sess *shared.Session, user User) error {
	if s.store == nil || sess == nil {
		return nil
	}
	return s.store.Establish(ctx, sess, user)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
