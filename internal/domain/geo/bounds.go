package geo

import "math"

// LatLng is a bare map position.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is an axis-aligned lat/lon box. The zero value is empty.
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
	filled    bool
}

// Extend grows the box to contain p.
func (b *Bounds) Extend(p LatLng) {
	if !b.filled {
		b.SouthWest, b.NorthEast, b.filled = p, p, true
		return
	}
	b.SouthWest.Lat = math.Min(b.SouthWest.Lat, p.Lat)
	b.SouthWest.Lon = math.Min(b.SouthWest.Lon, p.Lon)
	b.NorthEast.Lat = math.Max(b.NorthEast.Lat, p.Lat)
	b.NorthEast.Lon = math.Max(b.NorthEast.Lon, p.Lon)
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return !b.filled
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lon: (b.SouthWest.Lon + b.NorthEast.Lon) / 2,
	}
}

// Contains reports whether p lies inside the box (edges included).
func (b Bounds) Contains(p LatLng) bool {
	if !b.filled {
		return false
	}
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lon >= b.SouthWest.Lon && p.Lon <= b.NorthEast.Lon
}
