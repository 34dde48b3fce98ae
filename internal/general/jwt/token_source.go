package jwt

import (
	"sync"
	"time"

	"ride-console/internal/domain/user"
)

// refreshMargin is how long before expiry a cached token is replaced.
const refreshMargin = 30 * time.Second

// TokenSource returns a func that hands out a cached token for subject and role,
// minting a new one when the cached token is close to expiry.
func (m *Manager) TokenSource(subject string, role user.Role) func() (string, error) {
	var (
		mu      sync.Mutex
		cached  string
		expires time.Time
	)

	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()

		if cached != "" && time.Until(expires) > refreshMargin {
			return cached, nil
		}

		tok, claims, err := m.IssueToken(subject, role)
		if err != nil {
			return "", err
		}
		cached, expires = tok, claims.ExpiresAt.Time
		return cached, nil
	}
}
