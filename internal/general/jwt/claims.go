package jwt

import (
	"time"

	"ride-console/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped on every token minted by this module.
const Issuer = "ride-console"

// Claims defines our canonical JWT claims payload.
type Claims struct {
	Role user.Role `json:"role"` // console role for RBAC (ADMIN/OPERATOR)
	jwtlib.RegisteredClaims
}

var _ jwtlib.Claims = (*Claims)(nil)

// NewOperatorClaims constructs claims for a console operator or service account.
func NewOperatorClaims(subject string, role user.Role, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
