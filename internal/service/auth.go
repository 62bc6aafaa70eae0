package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"storefront/internal/apiclient"
	"storefront/internal/domain"
	"storefront/internal/session"
)

// AuthAPI is the account part of the remote service.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*apiclient.AuthResult, error)
	Register(ctx context.Context, name, email, password string) (*apiclient.AuthResult, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context, userID domain.EntityID) (*domain.User, error)
	UpdateProfile(ctx context.Context, in apiclient.ProfileUpdate) (*domain.User, error)
}

// AuthService drives the session lifecycle: it starts the session store on
// login and tears it down on logout.
type AuthService struct {
	api    AuthAPI
	store  *session.Store
	notify Notifier
	log    *slog.Logger
}

func NewAuthService(api AuthAPI, store *session.Store, n Notifier, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{api: api, store: store, notify: n, log: log}
}

func validCredentials(email, password string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return ErrInvalidInput
	}
	if password == "" {
		return ErrInvalidInput
	}
	return nil
}

// start initializes the session from an auth answer. When the answer carries
// no user, the user is read from the token.
func (s *AuthService) start(r *apiclient.AuthResult) (*domain.User, error) {
	u := r.User
	if u == nil || u.ID.IsZero() {
		fromToken, err := session.UserFromToken(r.Token)
		if err != nil {
			return nil, err
		}
		u = fromToken
	}
	s.store.Init(u, r.Token)
	return s.store.User(), nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	const fallback = "Login failed"
	if err := validCredentials(email, password); err != nil {
		return nil, notify(s.notify, err, "", "Please enter a valid email and password")
	}
	r, err := s.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	u, err := s.start(r)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	notify(s.notify, nil, "Logged in successfully!", "")
	return u, nil
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	const fallback = "Registration failed"
	if strings.TrimSpace(name) == "" {
		return nil, notify(s.notify, ErrInvalidInput, "", "Name is required")
	}
	if err := validCredentials(email, password); err != nil {
		return nil, notify(s.notify, err, "", "Please enter a valid email and password")
	}
	r, err := s.api.Register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	u, err := s.start(r)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	notify(s.notify, nil, "Registered successfully!", "")
	return u, nil
}

// Logout ends the session. When the service call fails the session is kept.
func (s *AuthService) Logout(ctx context.Context) error {
	if !s.store.Active() {
		return nil
	}
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn("logout failed", "err", err)
		return notify(s.notify, err, "", "Logout failed")
	}
	s.store.Teardown()
	notify(s.notify, nil, "Logged out successfully!", "")
	return nil
}

// Resume starts a session from a stored token and refreshes the user from
// the service. A rejected token ends the session; an unreachable service
// keeps the user decoded from the token.
func (s *AuthService) Resume(ctx context.Context, token string) (*domain.User, error) {
	u, err := session.UserFromToken(token)
	if err != nil {
		return nil, err
	}
	s.store.Init(u, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")))

	fresh, err := s.api.GetProfile(ctx, "")
	switch {
	case err == nil:
		s.store.UpdateUser(fresh)
	case Classify(err) == KindUnauthenticated:
		s.store.Teardown()
		return nil, err
	default:
		s.log.Warn("profile refresh failed, keeping token user", "user", u.ID, "err", err)
	}
	return s.store.User(), nil
}

// Profile reads the signed-in user's own profile.
func (s *AuthService) Profile(ctx context.Context) (*domain.User, error) {
	const fallback = "Failed to load profile"
	if !s.store.Active() || s.store.User() == nil {
		return nil, notify(s.notify, session.ErrUnauthenticated, "", fallback)
	}
	u, err := s.api.GetProfile(ctx, "")
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	s.store.UpdateUser(u)
	return u, nil
}

// UpdateProfile changes the signed-in user's editable fields.
func (s *AuthService) UpdateProfile(ctx context.Context, in apiclient.ProfileUpdate) (*domain.User, error) {
	const fallback = "Failed to update profile"
	if !s.store.Active() || s.store.User() == nil {
		return nil, notify(s.notify, session.ErrUnauthenticated, "", fallback)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, notify(s.notify, ErrInvalidInput, "", "Name cannot be empty")
	}
	u, err := s.api.UpdateProfile(ctx, in)
	if err != nil {
		return nil, notify(s.notify, err, "", fallback)
	}
	if !s.store.UpdateUser(u) {
		return nil, errors.New("session changed during profile update")
	}
	notify(s.notify, nil, "Profile updated successfully!", "")
	return s.store.User(), nil
}
