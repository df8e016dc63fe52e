// Package auth issues and verifies the HS256 bearer tokens the API uses
// for authentication, and hashes passwords with bcrypt.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"

	"github.com/sustainboard/esg-cli/internal/model"
)

const issuer = "esg-api"

// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
var ErrInvalidToken = eris.New("auth: invalid token")

// Claims carry the tenant context of an authenticated request.
type Claims struct {
	UserID    string     `json:"sub"`
	CompanyID string     `json:"company_id"`
	Role      model.Role `json:"role"`
	Plan      model.Plan `json:"plan"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a shared secret.
type Manager struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewManager builds a token manager. ttl bounds token lifetime.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), tokenTTL: ttl, now: time.Now}
}

// Issue creates a signed token for the user.
func (m *Manager) Issue(u *model.User) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:    u.ID,
		CompanyID: u.CompanyID,
		Role:      u.Role,
		Plan:      u.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", eris.Wrap(err, "auth: sign token")
	}
	return signed, nil
}

// Verify parses a token string and returns its claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("auth: unexpected signing method %s", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }), jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", eris.Wrap(err, "auth: hash password")
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
