// Package view builds the render contract consumed by the dashboard front end:
// a 3D column map with a tabular feed when an AOR has reports, or a briefing
// view anchored on the AOR center when it has none.
package view

import (
	"fmt"
	"time"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	geojson "github.com/paulmach/go.geojson"
)

// Mode selects which view the front end renders.
type Mode string

const (
	ModeMap      Mode = "map"
	ModeBriefing Mode = "briefing"
)

// ExpectedVolume is the placeholder metric shown while an AOR awaits data.
const ExpectedVolume = "100+"

// ViewState is the initial camera for the map.
type ViewState struct {
	Lat   float64 `json:"latitude"`
	Lon   float64 `json:"longitude"`
	Zoom  int     `json:"zoom"`
	Pitch int     `json:"pitch"`
}

// Marker is a single map point.
type Marker struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Briefing is the configuration-only fallback shown for an empty dataset.
type Briefing struct {
	Message        string                `json:"message"`
	Marker         Marker                `json:"marker"`
	Description    string                `json:"description"`
	ExpectedVolume string                `json:"expected_volume"`
	Notes          []domain.BriefingNote `json:"notes,omitempty"`
}

// Dashboard is the full render contract for one AOR selection.
type Dashboard struct {
	AOR         string        `json:"aor"`
	Title       string        `json:"title"`
	Mode        Mode          `json:"mode"`
	View        ViewState     `json:"view_state"`
	Layer       *ColumnLayer  `json:"layer,omitempty"`
	Table       *domain.Table `json:"table,omitempty"`
	Briefing    *Briefing     `json:"briefing,omitempty"`
	Stats       domain.Stats  `json:"stats"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Build assembles the dashboard for an AOR from its registry entry and
// normalized dataset. Rows that fail the renderability re-check are left out
// of both the map and the table; if none remain the briefing view is used.
func Build(cfg domain.AORConfig, ds domain.Dataset) Dashboard {
	d := Dashboard{
		AOR:         cfg.Name,
		View:        ViewState{Lat: cfg.Lat, Lon: cfg.Lon, Zoom: cfg.Zoom, Pitch: defaultPitch},
		Stats:       ds.Stats,
		GeneratedAt: ds.GeneratedAt,
	}

	renderable := ds.Filter(Renderable)
	if renderable.Empty() {
		d.Mode = ModeBriefing
		d.Title = fmt.Sprintf("Strategic View: %s (Awaiting Data)", cfg.Name)
		d.Briefing = newBriefing(cfg, ds, len(ds.Reports))
		return d
	}

	table := renderable.Table()
	d.Mode = ModeMap
	d.Title = fmt.Sprintf("Intelligence Distribution: %s", cfg.Name)
	d.Layer = newColumnLayer(FeatureCollection(cfg, renderable))
	d.Table = &table
	return d
}

func newBriefing(cfg domain.AORConfig, ds domain.Dataset, unrenderable int) *Briefing {
	return &Briefing{
		Message:        emptyMessage(ds, unrenderable),
		Marker:         Marker{Lat: cfg.Lat, Lon: cfg.Lon},
		Description:    cfg.Description,
		ExpectedVolume: ExpectedVolume,
		Notes:          cfg.Notes,
	}
}

// emptyMessage tells an empty store apart from a batch that was entirely
// rejected, so operators know whether to seed or to fix the producer.
func emptyMessage(ds domain.Dataset, unrenderable int) string {
	switch {
	case ds.Outcome() == domain.OutcomeNoDocuments:
		return "No intelligence reports found. Run 'intelctl seed' to populate the database."
	case unrenderable > 0:
		return fmt.Sprintf("%d intelligence reports found, but none can be placed on the map.", unrenderable)
	default:
		return fmt.Sprintf("%d intelligence reports found, but none had a valid position and intensity.", ds.Stats.Fetched)
	}
}

// FeatureCollection converts renderable reports into GeoJSON point features.
func FeatureCollection(cfg domain.AORConfig, ds domain.Dataset) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	var b bounds
	for _, r := range ds.Reports {
		if !Renderable(r) {
			continue
		}
		fc.AddFeature(newFeature(cfg, r))
		b.add(r.Lat, r.Lon)
	}
	if bbox := b.bbox(); bbox != nil {
		fc.BoundingBox = bbox
	}
	return fc
}

func newFeature(cfg domain.AORConfig, r domain.Report) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{r.Lon, r.Lat})
	f.SetProperty("aor", r.AOR)
	f.SetProperty("intensity", r.Intensity)
	f.SetProperty("summary", r.Cell(domain.FieldSummary))
	f.SetProperty("distance_km", distanceKM(cfg.Lat, cfg.Lon, r.Lat, r.Lon))
	if r.Country != nil {
		f.SetProperty("country", *r.Country)
	}
	if r.Category != nil {
		f.SetProperty("category", *r.Category)
	}
	if r.Timestamp.Valid() {
		f.SetProperty("timestamp", r.Timestamp.Display())
	}
	return f
}
