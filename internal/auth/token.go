package auth

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin marks tokens allowed to call administrative operations.
const RoleAdmin = "admin"

// Claims carried by a session token.
type Claims struct {
	ProfileId string `json:"profile_id"`
	Role      string `json:"role"`
	jwt.StandardClaims
}

// Manager issues and validates HS256-signed, expiring session tokens.
// This replaces the unsigned encoded-payload scheme the platform
// previously used for administrative access.
type Manager struct {
	secret   []byte
	lifespan time.Duration
}

func NewManager(secret string, lifespan time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	if lifespan <= 0 {
		return nil, fmt.Errorf("token lifespan must be positive, got %v", lifespan)
	}
	return &Manager{secret: []byte(secret), lifespan: lifespan}, nil
}

// Generate signs a token for the given profile and role.
func (m *Manager) Generate(profileId, role string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		ProfileId: profileId,
		Role:      role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(m.lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	token, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Validate parses and verifies a token, returning its claims.
func (m *Manager) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password against its bcrypt hash.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
