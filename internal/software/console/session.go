// Package console runs the monitoring console: two polling loops, the shared ride
// selection and the map reconciliation, all sequenced by one event loop.
package console

import (
	"context"
	"errors"
	"time"

	"ride-console/internal/general/contracts"
	"ride-console/internal/general/logger"
	"ride-console/internal/ports"
	"ride-console/internal/software/console/mapsync"
	"ride-console/internal/software/console/poller"
	"ride-console/internal/software/console/selection"
)

var ErrSessionClosed = errors.New("console session is not running")

// Broadcaster delivers frames to every attached view. It must not block.
type Broadcaster interface {
	Broadcast(frame any)
}

// Options configures a Session.
type Options struct {
	RidesInterval   time.Duration
	SummaryInterval time.Duration
	Map             mapsync.Options
}

type attachRequest struct {
	send func(frame any)
	done chan struct{}
}

// Session owns every piece of mutable console state. Only the Run goroutine touches
// the list, the selection and the map engine; everything else posts events.
type Session struct {
	logger *logger.Logger
	view   Broadcaster

	rides   *poller.Poller[ports.ActiveRidesResult]
	summary *poller.Poller[ports.SummaryResult]

	sel    *selection.Machine
	batch  *mapsync.Batch
	engine *mapsync.Engine

	list        []ports.EnrichedRide
	lastSummary *ports.SummaryResult

	dirtyMap, dirtyList, dirtySelection bool

	intents chan contracts.WSViewIntent
	attach  chan attachRequest
	stopped chan struct{}
}

// NewSession wires the pollers, the selection machine and the map engine.
// fetchSummary may be nil to disable the summary loop.
func NewSession(
	opts Options,
	fetchRides poller.FetchFunc[ports.ActiveRidesResult],
	fetchSummary poller.FetchFunc[ports.SummaryResult],
	view Broadcaster,
	logger *logger.Logger,
) *Session {
	s := &Session{
		logger:  logger,
		view:    view,
		rides:   poller.New("active_rides", opts.RidesInterval, fetchRides, logger),
		sel:     selection.New(),
		batch:   &mapsync.Batch{},
		intents: make(chan contracts.WSViewIntent, 16),
		attach:  make(chan attachRequest),
		stopped: make(chan struct{}),
	}
	if fetchSummary != nil {
		s.summary = poller.New("summary", opts.SummaryInterval, fetchSummary, logger)
	}

	// map clicks and list rows share the one transition function
	s.engine = mapsync.NewEngine(s.batch, opts.Map, s.sel.Select)
	s.sel.OnChange(s.onSelectionChange)

	return s
}

// Run starts the pollers and processes events until ctx is done. Pollers are stopped
// before Run returns, and results that arrive afterwards are discarded.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)

	if err := s.rides.Start(ctx); err != nil {
		return err
	}
	defer s.rides.Stop()

	var summaryResults <-chan poller.Result[ports.SummaryResult]
	if s.summary != nil {
		if err := s.summary.Start(ctx); err != nil {
			return err
		}
		defer s.summary.Stop()
		summaryResults = s.summary.Results()
	}

	// nothing is known before the first poll; show the default region
	s.dirtyMap = true
	s.flush()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(context.WithoutCancel(ctx), "console_session_stopped", "Console session stopped", nil)
			return nil
		case res := <-s.rides.Results():
			s.onRides(ctx, res)
		case res := <-summaryResults:
			s.onSummary(ctx, res)
		case in := <-s.intents:
			s.onIntent(ctx, in)
		case req := <-s.attach:
			s.onAttach(req)
		}
		s.flush()
	}
}

// Post queues a view intent for the event loop.
func (s *Session) Post(ctx context.Context, intent contracts.WSViewIntent) error {
	select {
	case <-s.stopped:
		return ErrSessionClosed
	default:
	}

	select {
	case s.intents <- intent:
		return nil
	case <-s.stopped:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attach replays the current state to send, on the event loop, and returns when done.
func (s *Session) Attach(ctx context.Context, send func(frame any)) error {
	req := attachRequest{send: send, done: make(chan struct{})}
	select {
	case s.attach <- req:
	case <-s.stopped:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-s.stopped:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ----- event handlers (loop goroutine only) -----

func (s *Session) onRides(ctx context.Context, res poller.Result[ports.ActiveRidesResult]) {
	if !s.rides.Accept(res) {
		s.logger.Debug(ctx, "poll_result_discarded", "Stale rides result dropped",
			map[string]any{"generation": res.Generation})
		return
	}
	if res.Err != nil {
		s.warn(ctx, s.rides.Name(), "Active rides refresh failed; showing last known data", res.Err)
		return
	}

	s.list = res.Value.Rides
	s.sel.Reconcile(res.Value.IDs())
	s.dirtyMap, s.dirtyList = true, true

	s.logger.Debug(ctx, "rides_refreshed", "Active rides refreshed", map[string]any{
		"count":       len(s.list),
		"duration_ms": res.Duration.Milliseconds(),
	})
}

func (s *Session) onSummary(ctx context.Context, res poller.Result[ports.SummaryResult]) {
	if !s.summary.Accept(res) {
		return
	}
	if res.Err != nil {
		s.warn(ctx, s.summary.Name(), "Summary refresh failed; counters are stale", res.Err)
		return
	}
	summary := res.Value
	s.lastSummary = &summary
	s.view.Broadcast(summaryFrame(summary))
}

func (s *Session) onIntent(ctx context.Context, in contracts.WSViewIntent) {
	switch in.Type {
	case contracts.WSIntentClick:
		if !s.engine.Click(in.EntityID) {
			s.logger.Debug(ctx, "click_ignored", "Click on unknown map entity", map[string]any{"entity_id": in.EntityID})
		}
	case contracts.WSIntentSelect:
		if in.RideID != "" && !s.listed(in.RideID) {
			s.logger.Debug(ctx, "select_ignored", "Select for a ride not in the list", map[string]any{"ride_id": in.RideID})
			return
		}
		s.sel.Select(in.RideID)
	default:
		s.logger.Debug(ctx, "intent_ignored", "Unknown view intent", map[string]any{"type": in.Type})
	}
}

func (s *Session) onAttach(req attachRequest) {
	defer close(req.done)

	var snap mapsync.Batch
	s.engine.Snapshot(&snap)
	selected, _ := s.sel.Current()

	req.send(renderFrame(snap.Drain()))
	req.send(ridesFrame(s.list, selected))
	req.send(selectionFrame(selected))
	if s.lastSummary != nil {
		req.send(summaryFrame(*s.lastSummary))
	}
}

func (s *Session) onSelectionChange(c selection.Change) {
	s.dirtyMap, s.dirtySelection = true, true

	ctx := s.logger.WithRideID(context.Background(), c.To)
	if c.To == "" {
		ctx = s.logger.WithRideID(context.Background(), c.From)
	}
	s.logger.Info(ctx, "selection_changed", "Ride selection changed",
		map[string]any{"from": c.From, "to": c.To, "reason": c.Reason})
}

// flush reconciles the map and pushes whatever changed to the views.
func (s *Session) flush() {
	selected, _ := s.sel.Current()

	if s.dirtyMap {
		s.engine.Sync(s.list, selected)
		if s.batch.Len() > 0 {
			s.view.Broadcast(renderFrame(s.batch.Drain()))
		}
	}
	if s.dirtyList {
		s.view.Broadcast(ridesFrame(s.list, selected))
	}
	if s.dirtySelection {
		s.view.Broadcast(selectionFrame(selected))
	}
	s.dirtyMap, s.dirtyList, s.dirtySelection = false, false, false
}

func (s *Session) warn(ctx context.Context, source, msg string, err error) {
	s.logger.Warn(ctx, "poll_failed", msg, err, map[string]any{"poller": source})
	s.view.Broadcast(contracts.WSWarning{
		Type:      contracts.WSFrameWarning,
		Source:    source,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Session) listed(id string) bool {
	for _, r := range s.list {
		if r.ID == id {
			return true
		}
	}
	return false
}
