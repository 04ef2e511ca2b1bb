package view

import (
	"math"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
)

const (
	defaultPitch = 45

	columnElevationScale = 1000
	columnRadiusMeters   = 50000

	tooltipHTML = "<b>AOR:</b> {aor}<br/><b>Summary:</b> {summary}"

	earthRadiusKM = 6371.0088
)

var columnFill = [4]int{200, 30, 0, 160}

// ColumnLayer describes the 3D column layer: each feature becomes a column at
// its point, extruded by its intensity property.
type ColumnLayer struct {
	Type           string                     `json:"type"`
	ElevationKey   string                     `json:"elevation_key"`
	ElevationScale int                        `json:"elevation_scale"`
	Radius         int                        `json:"radius"`
	FillColor      [4]int                     `json:"fill_color"`
	Pickable       bool                       `json:"pickable"`
	AutoHighlight  bool                       `json:"auto_highlight"`
	Tooltip        Tooltip                    `json:"tooltip"`
	Data           *geojson.FeatureCollection `json:"data"`
}

// Tooltip is a client-side template; {field} placeholders refer to feature properties.
type Tooltip struct {
	HTML  string            `json:"html"`
	Style map[string]string `json:"style"`
}

func newColumnLayer(fc *geojson.FeatureCollection) *ColumnLayer {
	return &ColumnLayer{
		Type:           "ColumnLayer",
		ElevationKey:   domain.FieldIntensity,
		ElevationScale: columnElevationScale,
		Radius:         columnRadiusMeters,
		FillColor:      columnFill,
		Pickable:       true,
		AutoHighlight:  true,
		Tooltip: Tooltip{
			HTML:  tooltipHTML,
			Style: map[string]string{"backgroundColor": "steelblue", "color": "white"},
		},
		Data: fc,
	}
}

// Renderable re-checks that a report can be placed on the map: a valid
// latitude/longitude pair and a finite intensity. Normalize already
// guarantees finiteness; the range check is the layer's own.
func Renderable(r domain.Report) bool {
	if !finite(r.Lat) || !finite(r.Lon) || !finite(r.Intensity) {
		return false
	}
	return s2.LatLngFromDegrees(r.Lat, r.Lon).IsValid()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// distanceKM returns the great-circle distance between two points, rounded
// to 0.1 km.
func distanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	km := a.Distance(b).Radians() * earthRadiusKM
	return math.Round(km*10) / 10
}

// bounds accumulates the smallest lat/lng rectangle covering every point.
// Longitude spans may wrap the antimeridian, in which case west > east.
type bounds struct {
	rect s2.Rect
	set  bool
}

func (b *bounds) add(lat, lon float64) {
	ll := s2.LatLngFromDegrees(lat, lon)
	if !b.set {
		b.rect = s2.RectFromLatLng(ll)
		b.set = true
		return
	}
	b.rect = b.rect.AddPoint(ll)
}

// bbox returns the GeoJSON bounding box [west, south, east, north], or nil
// when no points were added.
func (b *bounds) bbox() []float64 {
	if !b.set {
		return nil
	}
	lo, hi := b.rect.Lo(), b.rect.Hi()
	return []float64{
		round6(lo.Lng.Degrees()),
		round6(lo.Lat.Degrees()),
		round6(hi.Lng.Degrees()),
		round6(hi.Lat.Degrees()),
	}
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
