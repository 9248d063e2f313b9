package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by access tokens issued by the identity service.
type Claims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating,omitempty"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenConfig holds JWT verification configuration.
type TokenConfig struct {
	Secret    []byte
	Issuer    string        // empty accepts any issuer
	AccessTTL time.Duration // only used by Issue, default: 1 hour
}

// Manager validates access tokens. Issue exists for local tooling and tests;
// production tokens come from the identity service.
type Manager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewManager creates a JWT token manager.
func NewManager(cfg TokenConfig) *Manager {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 1 * time.Hour
	}
	return &Manager{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		accessTTL: cfg.AccessTTL,
	}
}

// Identity is the data embedded in an issued token.
type Identity struct {
	UserID      string
	DisplayName string
	Rating      int
	AvatarRef   string
}

// Issue signs an access token for id.
func (m *Manager) Issue(id Identity, now time.Time) (string, error) {
	claims := Claims{
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		Rating:      id.Rating,
		AvatarRef:   id.AvatarRef,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and validates an access token.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
