// Package mapsync reconciles the map against the latest ride list and selection.
//
// The engine keeps a mirror of every entity it has sent to the renderer, so each
// Sync issues only the adds, updates and removals needed to match the new input.
// An Engine is not safe for concurrent use.
package mapsync

import (
	"slices"

	"ride-console/internal/domain/geo"
	"ride-console/internal/domain/ride"
	"ride-console/internal/ports"
)

// Engine owns the map's view of the ride list.
type Engine struct {
	renderer Renderer
	opts     Options
	onSelect func(rideID string)

	markers map[string]Marker
	routes  map[string]Route
	camera  *Camera
}

// NewEngine builds an engine with an empty map. onSelect receives the ride id of
// every clicked entity.
func NewEngine(renderer Renderer, opts Options, onSelect func(rideID string)) *Engine {
	return &Engine{
		renderer: renderer,
		opts:     opts,
		onSelect: onSelect,
		markers:  make(map[string]Marker),
		routes:   make(map[string]Route),
	}
}

// scene is the desired map state for one Sync.
type scene struct {
	markers []Marker
	routes  []Route
	bounds  geo.Bounds
}

// Sync makes the map reflect exactly rides under selectedID. A selectedID that is not
// in rides is treated as no selection.
func (e *Engine) Sync(rides []ports.EnrichedRide, selectedID string) {
	var selected *ports.EnrichedRide
	for i := range rides {
		if rides[i].ID == selectedID {
			selected = &rides[i]
			break
		}
	}
	if selected == nil {
		selectedID = ""
	}

	want := buildScene(rides, selectedID)
	e.removeAbsent(want)

	for _, route := range want.routes {
		cur, ok := e.routes[route.ID]
		switch {
		case !ok:
			e.renderer.AddRoute(route)
		case !cur.equal(route):
			e.renderer.UpdateRoute(route)
		default:
			continue
		}
		e.routes[route.ID] = route
	}

	for _, m := range want.markers {
		cur, ok := e.markers[m.ID]
		switch {
		case !ok:
			e.renderer.AddMarker(m)
		case cur != m:
			e.renderer.UpdateMarker(m)
		default:
			continue
		}
		e.markers[m.ID] = m
	}

	e.applyCamera(e.planCamera(rides, selected, want.bounds))
}

// removeAbsent drops every mirrored entity that want no longer contains.
func (e *Engine) removeAbsent(want scene) {
	keepMarkers := make(map[string]struct{}, len(want.markers))
	for _, m := range want.markers {
		keepMarkers[m.ID] = struct{}{}
	}
	keepRoutes := make(map[string]struct{}, len(want.routes))
	for _, r := range want.routes {
		keepRoutes[r.ID] = struct{}{}
	}

	for _, id := range sortedKeys(e.markers) {
		if _, ok := keepMarkers[id]; !ok {
			e.renderer.RemoveMarker(id)
			delete(e.markers, id)
		}
	}
	for _, id := range sortedKeys(e.routes) {
		if _, ok := keepRoutes[id]; !ok {
			e.renderer.RemoveRoute(id)
			delete(e.routes, id)
		}
	}
}

// Click resolves entityID to its ride and forwards it to the select callback.
// It reports whether the entity is on the map.
func (e *Engine) Click(entityID string) bool {
	rideID, _, ok := ParseEntityID(entityID)
	if !ok {
		return false
	}
	_, isMarker := e.markers[entityID]
	_, isRoute := e.routes[entityID]
	if !isMarker && !isRoute {
		return false
	}
	if e.onSelect != nil {
		e.onSelect(rideID)
	}
	return true
}

// Snapshot replays the current map onto r, for a view that attaches mid-session.
func (e *Engine) Snapshot(r Renderer) {
	for _, id := range sortedKeys(e.routes) {
		r.AddRoute(e.routes[id])
	}
	for _, id := range sortedKeys(e.markers) {
		r.AddMarker(e.markers[id])
	}
	cam := e.defaultCamera()
	if e.camera != nil {
		cam = *e.camera
	}
	switch cam.Mode {
	case CameraFocus:
		r.FlyTo(cam.Center, cam.Zoom)
	case CameraFit:
		r.FitBounds(cam.Bounds, cam.Padding)
	default:
		r.SetView(cam.Center, cam.Zoom)
	}
}

// Marker returns the mirrored marker with id.
func (e *Engine) Marker(id string) (Marker, bool) {
	m, ok := e.markers[id]
	return m, ok
}

// Route returns the mirrored route with id.
func (e *Engine) Route(id string) (Route, bool) {
	r, ok := e.routes[id]
	return r, ok
}

// Camera returns the last camera command issued.
func (e *Engine) Camera() (Camera, bool) {
	if e.camera == nil {
		return Camera{}, false
	}
	return *e.camera, true
}

// EntityCount returns the number of mirrored markers and routes.
func (e *Engine) EntityCount() int {
	return len(e.markers) + len(e.routes)
}

// ----- scene building -----

func buildScene(rides []ports.EnrichedRide, selectedID string) scene {
	var s scene
	for _, r := range rides {
		emph := emphasisFor(r.ID, selectedID)

		if r.HasRoute() {
			pickup := latLng(r.Origin)
			dropoff := latLng(r.Destination)

			s.markers = append(s.markers,
				Marker{
					ID: EntityID(r.ID, KindPickup), RideID: r.ID, Kind: KindPickup,
					Position: pickup, Live: true, Tooltip: endpointTooltip("Pickup", r.Origin),
					Opacity: emph.opacity, ZIndex: zEndpoint + emph.zBoost,
				},
				Marker{
					ID: EntityID(r.ID, KindDropoff), RideID: r.ID, Kind: KindDropoff,
					Position: dropoff, Live: true, Tooltip: endpointTooltip("Drop-off", r.Destination),
					Opacity: emph.opacity, ZIndex: zEndpoint + emph.zBoost,
				},
			)
			s.bounds.Extend(pickup)
			s.bounds.Extend(dropoff)

			style := StyleFor(r.Status)
			if emph.selected {
				style.Weight = selectedRouteWeight
			}
			s.routes = append(s.routes, Route{
				ID: EntityID(r.ID, KindRoute), RideID: r.ID,
				Path: routePath(r.Record), Style: style, Tooltip: routeTooltip(r.Record),
				Opacity: emph.opacity, ZIndex: zRoute + emph.zBoost,
			})
		}

		if m, ok := driverMarker(r, emph); ok {
			s.markers = append(s.markers, m)
			s.bounds.Extend(m.Position)
		}
	}
	return s
}

// driverMarker places the driver at its live sample, else at the pickup point with
// rotation 0. Rides without an assigned driver get no driver marker.
func driverMarker(r ports.EnrichedRide, emph emphasis) (Marker, bool) {
	if r.Driver == nil {
		return Marker{}, false
	}
	m := Marker{
		ID: EntityID(r.ID, KindDriver), RideID: r.ID, Kind: KindDriver,
		Opacity: emph.opacity, ZIndex: zDriver + emph.zBoost,
	}
	switch {
	case r.DriverLocation != nil:
		m.Position = r.DriverLocation.Position()
		m.Rotation = geo.NormalizeHeading(r.DriverLocation.Heading)
		m.Live = true
	case r.Origin != nil:
		m.Position = latLng(r.Origin)
	default:
		return Marker{}, false
	}
	m.Tooltip = driverTooltip(r.Record, m.Live)
	return m, true
}

func routePath(r ride.Record) []geo.LatLng {
	path := make([]geo.LatLng, 0, len(r.Stops)+2)
	path = append(path, latLng(r.Origin))
	for i := range r.Stops {
		path = append(path, latLng(&r.Stops[i]))
	}
	return append(path, latLng(r.Destination))
}

func latLng(p *ride.Point) geo.LatLng {
	return geo.LatLng{Lat: p.Lat, Lon: p.Lon}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
