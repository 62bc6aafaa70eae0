package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apiclient"
	"storefront/internal/backend"
	"storefront/internal/domain"
)

func TestAuth_LoginStartsSession(t *testing.T) {
	e := newEnv(t)

	u, err := e.auth.Login(context.Background(), " admin@example.com ", backend.SeedPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.True(t, e.store.Active())
	assert.NotEmpty(t, e.store.Token())
	assert.Equal(t, Note{Level: "success", Text: "Logged in successfully!"}, e.notes.Last())
}

func TestAuth_LoginValidation(t *testing.T) {
	e := newEnv(t)

	_, err := e.auth.Login(context.Background(), "not-an-email", "x")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.auth.Login(context.Background(), "a@b.c", "")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, e.http.total())
	assert.False(t, e.store.Active())
}

func TestAuth_BadCredentials(t *testing.T) {
	e := newEnv(t)

	_, err := e.auth.Login(context.Background(), "customer@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, KindUnauthenticated, Classify(err))
	assert.Equal(t, "invalid email or password", e.notes.Last().Text)
	assert.False(t, e.store.Active())
}

func TestAuth_RegisterSignsIn(t *testing.T) {
	e := newEnv(t)

	u, err := e.auth.Register(context.Background(), "Sam", "sam@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.Equal(t, "Sam", e.store.User().Name)
	assert.Equal(t, "Registered successfully!", e.notes.Last().Text)

	_, err = e.auth.Register(context.Background(), "Sam", "sam@example.com", "pw123456")
	require.Error(t, err)
	assert.Equal(t, "user already exists", e.notes.Last().Text)
}

func TestAuth_LogoutFailureKeepsSession(t *testing.T) {
	e := newEnv(t)
	e.login(t, "customer@example.com")
	e.http.fail("POST /api/auth/logout", http.StatusInternalServerError, "")

	require.Error(t, e.auth.Logout(context.Background()))
	assert.True(t, e.store.Active())
	assert.Equal(t, "Logout failed", e.notes.Last().Text)

	e.http.hook("POST /api/auth/logout", nil)
	require.NoError(t, e.auth.Logout(context.Background()))
	assert.False(t, e.store.Active())
	assert.Nil(t, e.store.User())
}

func TestAuth_ResumeFromToken(t *testing.T) {
	e := newEnv(t)
	r, err := e.client.Login(context.Background(), "admin@example.com", backend.SeedPassword)
	require.NoError(t, err)

	u, err := e.auth.Resume(context.Background(), "Bearer "+r.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, "Store Admin", u.Name)
	assert.Equal(t, r.Token, e.store.Token())
}

func TestAuth_ResumeRejectedToken(t *testing.T) {
	e := newEnv(t)
	r, err := e.client.Login(context.Background(), "customer@example.com", backend.SeedPassword)
	require.NoError(t, err)
	e.http.fail("GET /api/auth/profile", http.StatusUnauthorized, "not authorized, token failed")

	_, err = e.auth.Resume(context.Background(), r.Token)
	require.Error(t, err)
	assert.False(t, e.store.Active())

	_, err = e.auth.Resume(context.Background(), "garbage")
	require.Error(t, err)
}

func TestAuth_ResumeKeepsTokenUserWhenOffline(t *testing.T) {
	e := newEnv(t)
	r, err := e.client.Login(context.Background(), "customer@example.com", backend.SeedPassword)
	require.NoError(t, err)
	e.http.fail("GET /api/auth/profile", http.StatusServiceUnavailable, "maintenance")

	u, err := e.auth.Resume(context.Background(), r.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.EntityID(e.customerID()), u.ID)
	assert.Equal(t, domain.RoleCustomer, u.Role)
}

func TestAuth_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	e.login(t, "customer@example.com")

	name := "Jane Q. Customer"
	u, err := e.auth.UpdateProfile(context.Background(), apiclient.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, u.Name)
	assert.Equal(t, name, e.store.User().Name)
	assert.Equal(t, "+1 555 0100", u.Phone)

	empty := " "
	_, err = e.auth.UpdateProfile(context.Background(), apiclient.ProfileUpdate{Name: &empty})
	require.ErrorIs(t, err, ErrInvalidInput)

	p, err := e.auth.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, name, p.Name)
}
