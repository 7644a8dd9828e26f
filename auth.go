package webstory

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed sign in. It never says
// which half of the credential was wrong.
var ErrInvalidCredentials = eris.New("invalid credentials")

// Authenticator checks admin credentials and issues API tokens. The
// configured credential is consulted only when Config.AllowConfigAdmin is
// set; the accounts table is always consulted.
type Authenticator struct {
	store *Store
	cfg   SiteConfig
}

// NewAuthenticator creates an Authenticator backed by the accounts table.
func NewAuthenticator(store *Store, cfg SiteConfig) *Authenticator {
	return &Authenticator{store: store, cfg: cfg}
}

// SignIn verifies email and password.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}
	if a.cfg.AllowConfigAdmin && a.cfg.AdminPassword != "" &&
		subtle.ConstantTimeCompare([]byte(email), []byte(normalizeEmail(a.cfg.AdminEmail))) == 1 &&
		subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.AdminPassword)) == 1 {
		return Account{Email: email, Name: a.cfg.Author, Role: "admin"}, nil
	}
	acc, err := a.store.GetAccount(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// HashPassword hashes a password for the accounts table.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", eris.New("password must be at least 8 characters")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", eris.Wrap(err, "hashing password")
	}
	return string(b), nil
}

// TokenClaims are the claims of an API bearer token.
type TokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for acc valid for Config.TokenTTL.
func (a *Authenticator) IssueToken(acc Account, now time.Time) (string, time.Time, error) {
	expires := now.Add(a.cfg.TokenTTL)
	claims := TokenClaims{
		Email: acc.Email,
		Role:  acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.Email,
			Issuer:    a.cfg.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, eris.Wrap(err, "signing token")
	}
	return signed, expires, nil
}

// ParseToken validates a bearer token and returns its claims.
func (a *Authenticator) ParseToken(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}
