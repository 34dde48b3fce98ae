package console

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"ride-console/internal/domain/geo"
	"ride-console/internal/domain/ride"
	"ride-console/internal/general/contracts"
	"ride-console/internal/general/logger"
	"ride-console/internal/ports"
	"ride-console/internal/software/console/mapsync"
)

var testMap = mapsync.Options{
	DefaultCenter: geo.LatLng{Lat: 43.238949, Lon: 76.889709},
	DefaultZoom:   12,
	FocusZoom:     16,
	FitPadding:    50,
}

type recordingView struct {
	frames chan any
}

func newRecordingView() *recordingView {
	return &recordingView{frames: make(chan any, 256)}
}

func (v *recordingView) Broadcast(frame any) { v.frames <- frame }

// script feeds one poll result per fetch; every fetch blocks until the test supplies it.
type script struct {
	next chan pollStep
}

type pollStep struct {
	rides []ports.EnrichedRide
	err   error
}

func (s *script) fetch(ctx context.Context) (ports.ActiveRidesResult, error) {
	select {
	case step := <-s.next:
		if step.err != nil {
			return ports.ActiveRidesResult{}, step.err
		}
		return ports.ActiveRidesResult{Rides: step.rides, Count: len(step.rides)}, nil
	case <-ctx.Done():
		return ports.ActiveRidesResult{}, ctx.Err()
	}
}

func activeRide(id string, status ride.Status, driverID string) ports.EnrichedRide {
	r := ports.EnrichedRide{Record: ride.Record{
		ID:          id,
		Status:      status,
		Origin:      &ride.Point{Lat: 43.25, Lon: 76.90},
		Destination: &ride.Point{Lat: 43.20, Lon: 76.85},
		Stops:       []ride.Point{},
	}}
	if driverID != "" {
		r.Driver = &ride.DriverSummary{ID: driverID, Name: "Aidos"}
	}
	return r
}

type harness struct {
	t       *testing.T
	session *Session
	view    *recordingView
	polls   *script
	cancel  context.CancelFunc
	done    chan error
	once    sync.Once
}

func startSession(t *testing.T, summary func(context.Context) (ports.SummaryResult, error)) *harness {
	t.Helper()

	h := &harness{
		t:     t,
		view:  newRecordingView(),
		polls: &script{next: make(chan pollStep)},
		done:  make(chan error, 1),
	}
	opts := Options{RidesInterval: 5 * time.Millisecond, SummaryInterval: time.Hour, Map: testMap}
	lg := logger.NewWithWriter("console", io.Discard, logger.LevelDebug)
	h.session = NewSession(opts, h.polls.fetch, summary, h.view, lg)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.session.Run(ctx) }()

	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.once.Do(func() {
		h.cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			h.t.Error("session did not stop")
		}
	})
}

func (h *harness) poll(step pollStep) {
	h.t.Helper()
	select {
	case h.polls.next <- step:
	case <-time.After(2 * time.Second):
		h.t.Fatal("session never polled")
	}
}

// waitFor consumes frames until match returns true.
func waitFor[F any](h *harness, match func(F) bool) F {
	h.t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case f := <-h.view.frames:
			if typed, ok := f.(F); ok && match(typed) {
				return typed
			}
		case <-deadline:
			var zero F
			h.t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func anyFrame[F any](F) bool { return true }

func opsOf(cmds []mapsync.Command) map[mapsync.Op][]string {
	out := map[mapsync.Op][]string{}
	for _, c := range cmds {
		out[c.Op] = append(out[c.Op], c.ID)
	}
	return out
}

func TestSession_StartsAtDefaultView(t *testing.T) {
	h := startSession(t, nil)

	f := waitFor(h, anyFrame[RenderFrame])
	if len(f.Commands) != 1 || f.Commands[0].Op != mapsync.OpSetView {
		t.Fatalf("expected a single set_view, got %+v", f.Commands)
	}
	if *f.Commands[0].Center != testMap.DefaultCenter {
		t.Fatalf("unexpected center %+v", *f.Commands[0].Center)
	}
}

func TestSession_SelectedRideDisappears(t *testing.T) {
	h := startSession(t, nil)
	ctx := context.Background()

	h.poll(pollStep{rides: []ports.EnrichedRide{
		activeRide("r1", ride.StatusInProgress, "d1"),
		activeRide("r2", ride.StatusConfirmed, ""),
	}})
	waitFor(h, func(f RidesFrame) bool { return f.Count == 2 })

	if err := h.session.Post(ctx, contracts.WSViewIntent{Type: contracts.WSIntentSelect, RideID: "r1"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	focus := waitFor(h, func(f RenderFrame) bool { return len(opsOf(f.Commands)[mapsync.OpFlyTo]) == 1 })
	if len(opsOf(focus.Commands)[mapsync.OpUpdateMarker]) == 0 {
		t.Fatalf("selecting should restyle markers, got %+v", focus.Commands)
	}
	waitFor(h, func(f contracts.WSSelection) bool { return f.RideID == "r1" })

	h.poll(pollStep{rides: []ports.EnrichedRide{activeRide("r2", ride.StatusConfirmed, "")}})

	render := waitFor(h, func(f RenderFrame) bool { return len(opsOf(f.Commands)[mapsync.OpRemoveMarker]) > 0 })
	got := opsOf(render.Commands)
	if len(got[mapsync.OpRemoveMarker]) != 3 || len(got[mapsync.OpRemoveRoute]) != 1 {
		t.Fatalf("r1 entities not removed: %+v", got)
	}
	if len(got[mapsync.OpFitBounds]) != 1 {
		t.Fatalf("expected camera to fit the remaining ride, got %+v", got)
	}

	list := waitFor(h, anyFrame[RidesFrame])
	if list.Count != 1 || list.SelectedID != "" {
		t.Fatalf("unexpected list frame %+v", list)
	}
	waitFor(h, func(f contracts.WSSelection) bool { return f.RideID == "" })
}

func TestSession_EmptyListShowsDefaultRegion(t *testing.T) {
	h := startSession(t, nil)
	waitFor(h, anyFrame[RenderFrame])

	h.poll(pollStep{rides: []ports.EnrichedRide{activeRide("r1", ride.StatusConfirmed, "")}})
	waitFor(h, func(f RenderFrame) bool { return len(opsOf(f.Commands)[mapsync.OpAddRoute]) == 1 })

	h.poll(pollStep{rides: []ports.EnrichedRide{}})
	render := waitFor(h, func(f RenderFrame) bool { return len(opsOf(f.Commands)[mapsync.OpSetView]) == 1 })
	got := opsOf(render.Commands)
	if len(got[mapsync.OpAddMarker]) != 0 || len(got[mapsync.OpRemoveRoute]) != 1 {
		t.Fatalf("unexpected commands %+v", got)
	}

	list := waitFor(h, anyFrame[RidesFrame])
	if list.Count != 0 || list.Rides == nil {
		t.Fatalf("expected an empty, non-nil list, got %+v", list)
	}
}

func TestSession_FailedPollWarnsAndKeepsList(t *testing.T) {
	h := startSession(t, nil)
	ctx := context.Background()

	h.poll(pollStep{rides: []ports.EnrichedRide{activeRide("r1", ride.StatusArrived, "d1")}})
	waitFor(h, func(f RidesFrame) bool { return f.Count == 1 })

	h.poll(pollStep{err: errors.New("connection refused")})
	warning := waitFor(h, anyFrame[contracts.WSWarning])
	if warning.Source != "active_rides" || warning.Message == "" {
		t.Fatalf("unexpected warning %+v", warning)
	}

	var mu sync.Mutex
	var replay []any
	if err := h.session.Attach(ctx, func(f any) {
		mu.Lock()
		replay = append(replay, f)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var sawList bool
	for _, f := range replay {
		if list, ok := f.(RidesFrame); ok {
			sawList = true
			if list.Count != 1 || list.Rides[0].ID != "r1" {
				t.Fatalf("previous list not retained: %+v", list)
			}
		}
	}
	if !sawList {
		t.Fatalf("attach did not replay the list: %+v", replay)
	}

	// the next good poll recovers without any backoff
	h.poll(pollStep{rides: []ports.EnrichedRide{}})
	waitFor(h, func(f RidesFrame) bool { return f.Count == 0 })
}

func TestSession_ClickTogglesSelection(t *testing.T) {
	h := startSession(t, nil)
	ctx := context.Background()

	h.poll(pollStep{rides: []ports.EnrichedRide{activeRide("r1", ride.StatusInProgress, "d1")}})
	waitFor(h, func(f RidesFrame) bool { return f.Count == 1 })

	click := contracts.WSViewIntent{Type: contracts.WSIntentClick, EntityID: mapsync.EntityID("r1", mapsync.KindDriver)}
	if err := h.session.Post(ctx, click); err != nil {
		t.Fatalf("post: %v", err)
	}
	waitFor(h, func(f contracts.WSSelection) bool { return f.RideID == "r1" })

	if err := h.session.Post(ctx, click); err != nil {
		t.Fatalf("post: %v", err)
	}
	waitFor(h, func(f contracts.WSSelection) bool { return f.RideID == "" })
}

func TestSession_SelectUnknownRideIgnored(t *testing.T) {
	h := startSession(t, nil)
	ctx := context.Background()

	h.poll(pollStep{rides: []ports.EnrichedRide{activeRide("r1", ride.StatusConfirmed, "")}})
	waitFor(h, func(f RidesFrame) bool { return f.Count == 1 })

	if err := h.session.Post(ctx, contracts.WSViewIntent{Type: contracts.WSIntentSelect, RideID: "ghost"}); err != nil {
		t.Fatalf("post: %v", err)
	}

	var selected string
	if err := h.session.Attach(ctx, func(f any) {
		if s, ok := f.(contracts.WSSelection); ok {
			selected = s.RideID
		}
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if selected != "" {
		t.Fatalf("unknown ride should not be selected, got %q", selected)
	}
}

func TestSession_SummaryFrames(t *testing.T) {
	summary := ports.SummaryResult{Confirmed: 2, InProgress: 1, Total: 3}
	h := startSession(t, func(context.Context) (ports.SummaryResult, error) { return summary, nil })

	f := waitFor(h, anyFrame[SummaryFrame])
	if f.Type != contracts.WSFrameSummary || f.Total != 3 {
		t.Fatalf("unexpected summary frame %+v", f)
	}
}

func TestSession_PostAfterStop(t *testing.T) {
	h := startSession(t, nil)
	h.stop()

	err := h.session.Post(context.Background(), contracts.WSViewIntent{Type: contracts.WSIntentClick})
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if err := h.session.Attach(context.Background(), func(any) {}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed from attach, got %v", err)
	}
}
