package backend

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"
)

var (
	ErrBadCredentials = errors.New("invalid email or password")
	ErrEmailTaken     = errors.New("user already exists")
	ErrNoToken        = errors.New("not authorized, no token")
	ErrBadToken       = errors.New("not authorized, token failed")
	ErrAdminOnly      = errors.New("admin access required")
	ErrUserNotFound   = errors.New("user not found")
)

// Accounts issues and verifies session tokens and owns user profiles.
type Accounts struct {
	users    repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAccounts(users repository.UserRepository, secret string, tokenTTL time.Duration) *Accounts {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Accounts{users: users, secret: []byte(secret), tokenTTL: tokenTTL}
}

// Register creates a customer account. Accounts are stored with the legacy
// role "user".
func (s *Accounts) Register(ctx context.Context, name, email, password string) (*repository.UserRecord, string, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || len(password) < 6 {
		return nil, "", ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	u := repository.UserRecord{Name: name, Email: strings.ToLower(email), PasswordHash: string(hash), Role: "user"}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}
	tok, err := s.issue(&u)
	if err != nil {
		return nil, "", err
	}
	return &u, tok, nil
}

// CreateAdmin stores an account flagged only by isAdmin, the way older admin
// records look.
func (s *Accounts) CreateAdmin(ctx context.Context, name, email, password string) (*repository.UserRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := repository.UserRecord{Name: name, Email: strings.ToLower(email), PasswordHash: string(hash), IsAdmin: true}
	if err := s.users.Create(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Accounts) Login(ctx context.Context, email, password string) (*repository.UserRecord, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrBadCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrBadCredentials
	}
	tok, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

func (s *Accounts) issue(u *repository.UserRecord) (string, error) {
	claims := session.Claims{
		UserID: u.ID.Hex(),
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	}
	if u.IsAdmin {
		flag := true
		claims.IsAdmin = &flag
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate verifies token and loads its user.
func (s *Accounts) Authenticate(ctx context.Context, token string) (*repository.UserRecord, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	claims := &session.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrBadToken
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBadToken
	}
	return u, err
}

// Profile returns the profile of userID, or the caller's own when userID is
// empty. Only admins may read other users.
func (s *Accounts) Profile(ctx context.Context, caller *repository.UserRecord, userID string) (*repository.UserRecord, error) {
	if userID == "" || userID == caller.ID.Hex() {
		return caller, nil
	}
	if !isAdmin(caller) {
		return nil, ErrForbidden
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// ProfilePatch carries editable profile fields; nil fields are kept.
type ProfilePatch struct {
	Name    *string
	Phone   *string
	Address *domain.Address
}

func (s *Accounts) UpdateProfile(ctx context.Context, caller *repository.UserRecord, patch ProfilePatch) (*repository.UserRecord, error) {
	u := *caller
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, ErrInvalidInput
		}
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		u.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Address != nil {
		u.Address = *patch.Address
	}
	if err := s.users.Update(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func isAdmin(u *repository.UserRecord) bool {
	return u != nil && (u.IsAdmin || u.Role == string(domain.RoleAdmin))
}
