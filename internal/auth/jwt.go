package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
)

var (
	// ErrTokenExpired is returned for a well-formed token whose expiry has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for malformed tokens, bad signatures or unknown claims.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims defines the JWT claims we embed in our tokens.
// Subject carries the user id; SessionID is present only for tokens
// bound to a live equipment session.
type Claims struct {
	Role      string  `json:"role"`
	SessionID *string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager manages creation and validation of access and refresh tokens.
// Both token kinds carry identical subject/role semantics and differ only
// in lifetime.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (m *JWTManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// GenerateAccessToken creates a signed short-lived token for the given user.
func (m *JWTManager) GenerateAccessToken(userID string, role rbac.Role, sessionID *string) (string, error) {
	return m.generate(userID, role, sessionID, m.accessTTL)
}

// GenerateRefreshToken creates a signed long-lived token for the given user.
func (m *JWTManager) GenerateRefreshToken(userID string, role rbac.Role) (string, error) {
	return m.generate(userID, role, nil, m.refreshTTL)
}

func (m *JWTManager) generate(userID string, role rbac.Role, sessionID *string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := &Claims{
		Role:      string(role),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign jwt: %w", err)
	}

	return signed, nil
}

// ParseAndValidate validates a token and reconstructs the Principal.
// An elapsed expiry yields ErrTokenExpired; any other failure (bad
// signature, wrong format, unknown role) yields ErrTokenInvalid.
func (m *JWTManager) ParseAndValidate(tokenStr string) (rbac.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Ensure token is signed using HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %T", t.Method)
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return rbac.Principal{}, ErrTokenExpired
		}
		return rbac.Principal{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return rbac.Principal{}, ErrTokenInvalid
	}

	role, err := rbac.ParseRole(claims.Role)
	if err != nil {
		return rbac.Principal{}, ErrTokenInvalid
	}

	return rbac.Principal{
		UserID:    claims.Subject,
		Role:      role,
		SessionID: claims.SessionID,
	}, nil
}
