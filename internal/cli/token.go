package cli

import (
	"fmt"
	"time"

	"ride-console/internal/domain/user"
	"ride-console/internal/general/jwt"
)

// GenerateOperatorToken mints a JWT for a console operator or service account.
//
// Typical use (dev-only):
//
//	token, _, err := cli.GenerateOperatorToken(secret, 2*time.Hour, "ops-1", "OPERATOR")
func GenerateOperatorToken(secret string, ttl time.Duration, subject string, roleStr string) (string, jwt.Claims, error) {
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: %w", roleStr, err)
	}

	mgr, err := jwt.NewManager(secret, ttl)
	if err != nil {
		return "", jwt.Claims{}, err
	}

	token, claims, err := mgr.IssueToken(subject, role)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *claims, nil
}
