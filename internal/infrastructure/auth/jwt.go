package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evmarket/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the caller role carried in a bearer token
type Role string

const (
	// RoleVendor may only act on its own vendor_id
	RoleVendor Role = "vendor"
	// RoleAdmin may drive settlement lifecycle and audits for any vendor
	RoleAdmin Role = "admin"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingVendorID  = errors.New("missing vendor_id in claims")
	ErrUnknownRole      = errors.New("unknown role in claims")
	ErrMissingToken     = errors.New("missing bearer token")
)

// Claims represents the settlement API token claims
type Claims struct {
	jwt.RegisteredClaims
	VendorID string `json:"vendor_id,omitempty"`
	Role     Role   `json:"role"`
}

// Actor identifies the caller for audit columns
func (c *Claims) Actor() string {
	if c.Subject != "" {
		return c.Subject
	}
	if c.VendorID != "" {
		return "vendor:" + c.VendorID
	}
	return string(c.Role)
}

// VendorUUID parses the vendor id claim
func (c *Claims) VendorUUID() (uuid.UUID, error) {
	if c.VendorID == "" {
		return uuid.Nil, ErrMissingVendorID
	}
	id, err := uuid.Parse(c.VendorID)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}

// IsAdmin reports whether the token carries the admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// JWTService signs and verifies HS256 bearer tokens
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	Subject  string
	VendorID uuid.UUID
	Role     Role
	TTL      time.Duration
}

// GenerateToken signs a token. Tokens are normally issued by the identity
// service; this is used by the reconcile CLI and tests.
func (s *JWTService) GenerateToken(input GenerateTokenInput) (string, error) {
	if input.Role != RoleVendor && input.Role != RoleAdmin {
		return "", ErrUnknownRole
	}
	if input.Role == RoleVendor && input.VendorID == uuid.Nil {
		return "", ErrMissingVendorID
	}
	ttl := input.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: input.Role,
	}
	if input.VendorID != uuid.Nil {
		claims.VendorID = input.VendorID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a bearer token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	switch claims.Role {
	case RoleAdmin:
	case RoleVendor:
		if _, err := claims.VendorUUID(); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownRole
	}
	return claims, nil
}

// ExtractBearer returns the token from an Authorization header value
func ExtractBearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
