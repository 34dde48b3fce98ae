package mapsync

import (
	"ride-console/internal/domain/geo"
	"ride-console/internal/ports"
)

// CameraMode is the framing policy in effect.
type CameraMode string

const (
	CameraDefault CameraMode = "default" // empty list: fixed service-region view
	CameraFit     CameraMode = "fit"     // no selection: frame every rendered point
	CameraFocus   CameraMode = "focus"   // selection: close-up on the selected ride
)

// Camera is the last camera command the engine issued.
type Camera struct {
	Mode    CameraMode
	Center  geo.LatLng
	Zoom    float64
	Bounds  geo.Bounds
	Padding int
}

// Options configures framing.
type Options struct {
	DefaultCenter geo.LatLng
	DefaultZoom   float64
	FocusZoom     float64
	FitPadding    int
}

func (e *Engine) defaultCamera() Camera {
	return Camera{Mode: CameraDefault, Center: e.opts.DefaultCenter, Zoom: e.opts.DefaultZoom}
}

// planCamera picks the framing for rides under selectedID. bounds covers every rendered point.
func (e *Engine) planCamera(rides []ports.EnrichedRide, selected *ports.EnrichedRide, bounds geo.Bounds) Camera {
	if len(rides) == 0 {
		return e.defaultCamera()
	}
	if selected != nil {
		if center, ok := focusPoint(*selected); ok {
			return Camera{Mode: CameraFocus, Center: center, Zoom: e.opts.FocusZoom}
		}
	}
	if bounds.Empty() {
		return e.defaultCamera()
	}
	return Camera{Mode: CameraFit, Bounds: bounds, Padding: e.opts.FitPadding}
}

// focusPoint is the driver's live position, else the pickup, else the drop-off.
func focusPoint(r ports.EnrichedRide) (geo.LatLng, bool) {
	switch {
	case r.DriverLocation != nil:
		return r.DriverLocation.Position(), true
	case r.Origin != nil:
		return geo.LatLng{Lat: r.Origin.Lat, Lon: r.Origin.Lon}, true
	case r.Destination != nil:
		return geo.LatLng{Lat: r.Destination.Lat, Lon: r.Destination.Lon}, true
	default:
		return geo.LatLng{}, false
	}
}

func (e *Engine) applyCamera(cam Camera) {
	if e.camera != nil && *e.camera == cam {
		return
	}
	switch cam.Mode {
	case CameraFocus:
		e.renderer.FlyTo(cam.Center, cam.Zoom)
	case CameraFit:
		e.renderer.FitBounds(cam.Bounds, cam.Padding)
	default:
		e.renderer.SetView(cam.Center, cam.Zoom)
	}
	e.camera = &cam
}
