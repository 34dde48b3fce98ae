package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ride-console/internal/domain/geo"
	"ride-console/internal/domain/ride"
	"ride-console/internal/domain/user"
	"ride-console/internal/general/jwt"
	"ride-console/internal/general/logger"
	"ride-console/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

type stubMonitor struct {
	rides   ports.ActiveRidesResult
	summary ports.SummaryResult
	err     error
}

func (s *stubMonitor) GetActiveRides(context.Context) (ports.ActiveRidesResult, error) {
	return s.rides, s.err
}

func (s *stubMonitor) GetSummary(context.Context) (ports.SummaryResult, error) {
	return s.summary, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, svc ports.MonitorService, db Pinger) (*http.ServeMux, string) {
	t.Helper()
	mgr, err := jwt.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, _, err := mgr.IssueToken("console", user.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	NewMonitorHTTPHandler(svc, logger.NewWithWriter("admin-service", &bytes.Buffer{}, logger.LevelDebug), mgr, db).RegisterRoutes(mux)
	return mux, tok
}

func do(mux *http.ServeMux, path, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestActiveRides_OK(t *testing.T) {
	sample := geo.Sample{DriverID: "d2", Latitude: 43.2, Longitude: 76.9, Heading: 270, Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	svc := &stubMonitor{rides: ports.ActiveRidesResult{
		Rides: []ports.EnrichedRide{
			{Record: ride.Record{ID: "r1", Status: ride.StatusConfirmed, Driver: &ride.DriverSummary{ID: "d1"}, Stops: []ride.Point{}}},
			{Record: ride.Record{ID: "r2", Status: ride.StatusInProgress, Driver: &ride.DriverSummary{ID: "d2"}, Stops: []ride.Point{}}, DriverLocation: &sample},
		},
		Count: 2,
	}}
	mux, tok := newTestServer(t, svc, nil)

	w := do(mux, "/admin/rides/active", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}

	var body struct {
		Rides []map[string]json.RawMessage `json:"rides"`
		Count int                          `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || len(body.Rides) != 2 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if string(body.Rides[0]["driverLocation"]) != "null" {
		t.Fatalf("r1 driverLocation should be null, got %s", body.Rides[0]["driverLocation"])
	}
	if !strings.Contains(string(body.Rides[1]["driverLocation"]), `"heading":270`) {
		t.Fatalf("r2 driverLocation missing heading: %s", body.Rides[1]["driverLocation"])
	}
	// nested objects keep their shape
	if _, ok := body.Rides[0]["passenger"]; !ok {
		t.Fatal("passenger key must be present (as null)")
	}
}

func TestActiveRides_EmptyListIsArray(t *testing.T) {
	mux, tok := newTestServer(t, &stubMonitor{}, nil)

	w := do(mux, "/admin/rides/active", tok)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"rides":[]`) || !strings.Contains(w.Body.String(), `"count":0`) {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestActiveRides_Failure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		msg  string
	}{
		{"generic", errors.New("telemetry store unavailable"), "failed to fetch active rides"},
		{"postgres", fmt.Errorf("list confirmed rides: %w", &pgconn.PgError{Code: "57P01", Message: "terminating connection"}), "database error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux, tok := newTestServer(t, &stubMonitor{err: tc.err}, nil)

			w := do(mux, "/admin/rides/active", tok)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tc.msg {
				t.Fatalf("error = %q, want %q", body["error"], tc.msg)
			}
			if strings.Contains(w.Body.String(), `"rides":`) {
				t.Fatalf("failure must not carry a partial list: %s", w.Body.String())
			}
		})
	}
}

func TestActiveRides_RequiresToken(t *testing.T) {
	mux, _ := newTestServer(t, &stubMonitor{}, nil)
	if w := do(mux, "/admin/rides/active", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestOverview(t *testing.T) {
	svc := &stubMonitor{summary: ports.SummaryResult{Confirmed: 2, Arrived: 1, InProgress: 4, Total: 7}}
	mux, tok := newTestServer(t, svc, nil)

	w := do(mux, "/admin/overview", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got ports.SummaryResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 7 || got.InProgress != 4 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestHealth(t *testing.T) {
	mux, _ := newTestServer(t, &stubMonitor{}, stubPinger{})
	if w := do(mux, "/admin/health", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health %d %s", w.Code, w.Body.String())
	}

	mux, _ = newTestServer(t, &stubMonitor{}, stubPinger{err: errors.New("connection refused")})
	if w := do(mux, "/admin/health", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
