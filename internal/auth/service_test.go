package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/invoicedesk/invoicedesk/internal/auth"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

func newService(repo auth.Repository) *auth.Service {
	return auth.NewService(repo, nil).WithHashCost(bcrypt.MinCost)
}

func TestRegisterNormalizesEmailAndHashes(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)

	user, err := svc.Register(context.Background(), "  Ada@Example.COM ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(newMemRepo())

	_, err := svc.Register(context.Background(), "not-an-email", "123")
	fields, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Please enter a valid email address", fields["email"])
	assert.Contains(t, fields["password"], "at least 6")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(newMemRepo())
	_, err := svc.Register(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "ADA@example.com", "another")
	require.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	svc := newService(newMemRepo())
	_, err := svc.Register(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "Ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = svc.Authenticate(context.Background(), "ada@example.com", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "secret1")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestUpdatePassword(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	user, err := svc.Register(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	err = svc.UpdatePassword(context.Background(), nil, user.ID, "newpass", "different")
	fields, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Confirm password does not match", fields["confirm_password"])

	require.NoError(t, svc.UpdatePassword(context.Background(), nil, user.ID, "newpass", "newpass"))
	_, err = svc.Authenticate(context.Background(), "ada@example.com", "secret1")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "ada@example.com", "newpass")
	require.NoError(t, err)
}
