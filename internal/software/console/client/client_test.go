package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ride-console/internal/general/logger"

	"github.com/google/uuid"
)

func quiet() *logger.Logger {
	return logger.NewWithWriter("console", &bytes.Buffer{}, logger.LevelError)
}

func TestActiveRides(t *testing.T) {
	var gotAuth, gotReqID, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotReqID, gotPath = r.Header.Get("Authorization"), r.Header.Get("X-Request-ID"), r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rides":[{"id":"r1","status":"confirmed","driver":{"id":"d1","name":"","phone":""},"driverLocation":null}],"count":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", srv.Client(), func() (string, error) { return "tkn", nil }, quiet())
	res, err := c.ActiveRides(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotPath != "/admin/rides/active" || gotAuth != "Bearer tkn" {
		t.Fatalf("unexpected request: path=%q auth=%q", gotPath, gotAuth)
	}
	if _, err := uuid.Parse(gotReqID); err != nil {
		t.Fatalf("X-Request-ID is not a uuid: %q", gotReqID)
	}
	if res.Count != 1 || res.Rides[0].ID != "r1" || res.Rides[0].DriverLocation != nil || res.Rides[0].DriverID() != "d1" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestActiveRides_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database error"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), nil, quiet()).ActiveRides(context.Background())
	if !IsAPIError(err, http.StatusInternalServerError) {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
	if !strings.Contains(err.Error(), "database error") {
		t.Fatalf("error should carry the server message, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/overview" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"timestamp":"2024-05-01T10:00:00Z","confirmed":1,"arrived":2,"in_progress":3,"total":6}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, srv.Client(), nil, quiet()).Summary(context.Background())
	if err != nil || res.Total != 6 || res.InProgress != 3 {
		t.Fatalf("unexpected summary %+v, %v", res, err)
	}
}

func TestTokenFailureStopsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	boom := errors.New("no secret")
	_, err := New(srv.URL, srv.Client(), func() (string, error) { return "", boom }, quiet()).Summary(context.Background())
	if !errors.Is(err, boom) || called {
		t.Fatalf("expected token error without a request, got %v (called=%v)", err, called)
	}
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(srv.URL, srv.Client(), nil, quiet()).ActiveRides(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
