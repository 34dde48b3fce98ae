package jwt

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ride-console/internal/domain/user"
)

func newManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", ttl)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManager_EmptySecret(t *testing.T) {
	if _, err := NewManager("   ", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestIssueAndParse(t *testing.T) {
	m := newManager(t, time.Hour)

	tok, claims, err := m.IssueToken("console", user.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if claims.Issuer != Issuer || claims.Subject != "console" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	parsed, err := m.ParseAndValidate(tok)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if parsed.Role != user.RoleAdmin || parsed.Subject != "console" {
		t.Fatalf("unexpected parsed claims: %+v", parsed)
	}

	other := newManager(t, time.Hour)
	other.secret = []byte("another-secret")
	if _, err := other.ParseAndValidate(tok); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}

	if _, _, err := m.IssueToken("console", user.Role("PASSENGER")); err == nil {
		t.Fatal("unknown role must be rejected")
	}
}

func TestParse_Expired(t *testing.T) {
	m := newManager(t, -time.Minute)
	tok, _, err := m.IssueToken("console", user.RoleOperator)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := m.ParseAndValidate(tok); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestFromAuthorization(t *testing.T) {
	cases := map[string]error{
		"":             ErrNoAuthHeader,
		"Basic abc":    ErrBadAuthScheme,
		"Bearer ":      ErrEmptyToken,
		"bearer token": nil,
	}
	for header, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		_, err := FromAuthorization(r)
		if !errors.Is(err, want) {
			t.Errorf("header %q: got %v, want %v", header, err, want)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	m := newManager(t, time.Hour)
	admin, _, _ := m.IssueToken("ops-1", user.RoleAdmin)
	operator, _, _ := m.IssueToken("ops-2", user.RoleOperator)

	var seen *Claims
	h := AuthMiddlewareFunc(m, user.RoleAdmin)(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + operator, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/rides/active", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h(w, r)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.status, w.Body.String())
			}
			if tc.status != http.StatusNoContent && !strings.Contains(w.Body.String(), `"error"`) {
				t.Fatalf("expected JSON error body, got %s", w.Body.String())
			}
		})
	}
	if seen == nil || seen.Subject != "ops-1" {
		t.Fatalf("claims not injected: %+v", seen)
	}
}

func TestValidateWSAuth(t *testing.T) {
	m := newManager(t, time.Hour)
	tok, _, _ := m.IssueToken("ops-1", user.RoleOperator)

	claims, err := ValidateWSAuth([]byte(`{"type":"auth","token":"Bearer `+tok+`"}`), m, user.MonitoringRoles...)
	if err != nil || claims.Subject != "ops-1" {
		t.Fatalf("expected valid auth, got %+v, %v", claims, err)
	}

	if _, err := ValidateWSAuth([]byte(`{"type":"hello"}`), m); !errors.Is(err, ErrBadAuthMsg) {
		t.Fatalf("expected ErrBadAuthMsg, got %v", err)
	}
	if _, err := ValidateWSAuth([]byte(`{"type":"auth","token":"`+tok+`"}`), m); !errors.Is(err, ErrBadTokenWrap) {
		t.Fatalf("expected ErrBadTokenWrap, got %v", err)
	}
	if _, err := ValidateWSAuth([]byte(`{"type":"auth","token":"Bearer `+tok+`"}`), m, user.RoleAdmin); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("expected ErrRoleForbidden, got %v", err)
	}
}

func TestTokenSource_CachesUntilNearExpiry(t *testing.T) {
	m := newManager(t, time.Hour)
	src := m.TokenSource("console", user.RoleAdmin)

	first, err := src()
	if err != nil {
		t.Fatalf("first token: %v", err)
	}
	second, err := src()
	if err != nil {
		t.Fatalf("second token: %v", err)
	}
	if first != second {
		t.Fatal("long-lived token should be reused")
	}
	if _, err := m.ParseAndValidate(first); err != nil {
		t.Fatalf("cached token invalid: %v", err)
	}

	// a ttl inside the refresh margin forces a new mint every call
	short := newManager(t, 10*time.Second).TokenSource("console", user.RoleAdmin)
	if _, err := short(); err != nil {
		t.Fatalf("short token: %v", err)
	}
}

func TestTokenSource_InvalidRole(t *testing.T) {
	src := newManager(t, time.Hour).TokenSource("console", user.Role("DRIVER"))
	if _, err := src(); err == nil {
		t.Fatal("expected error for a role the console does not know")
	}
}
