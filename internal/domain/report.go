package domain

import (
	"encoding/json"
	"time"
)

// Canonical document keys.
const (
	FieldID        = "_id"
	FieldAOR       = "aor"
	FieldCountry   = "country"
	FieldCategory  = "category"
	FieldLat       = "lat"
	FieldLon       = "lon"
	FieldIntensity = "intensity"
	FieldSummary   = "summary"
	FieldSource    = "source"
	FieldTimestamp = "timestamp"
)

// Legacy producer keys, resolved to their canonical key when the canonical
// key is missing from a document.
const (
	FieldAORLegacy = "ccom"
	FieldLatLong   = "latitude"
	FieldLonLong   = "longitude"
)

// TimestampLayout is the fixed display format for report timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// DisplayColumns is the ordered set of fields shown in the tabular feed.
var DisplayColumns = []string{FieldTimestamp, FieldCountry, FieldCategory, FieldSummary, FieldIntensity}

// RawDocument is a report document exactly as read from the store. Values are
// plain Go types (string, float64, int32, int64, bool, time.Time, nil, nested
// maps and slices); store adapters are responsible for unwrapping any
// driver-specific types before handing documents over.
type RawDocument map[string]any

// FieldState records the outcome of coercing a single document field.
type FieldState int

const (
	// FieldAbsent means the key was missing or null.
	FieldAbsent FieldState = iota
	// FieldValid means the value coerced cleanly.
	FieldValid
	// FieldInvalid means a value was present but could not be coerced.
	FieldInvalid
)

func (s FieldState) String() string {
	switch s {
	case FieldAbsent:
		return "absent"
	case FieldValid:
		return "valid"
	case FieldInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Number is the coerced form of a numeric field. Value is only meaningful
// when State is FieldValid, and is then always finite.
type Number struct {
	State FieldState
	Value float64
}

// Float returns the value and whether it is usable.
func (n Number) Float() (float64, bool) {
	return n.Value, n.State == FieldValid
}

// Timestamp is the coerced form of the timestamp field.
type Timestamp struct {
	State FieldState
	Time  time.Time
}

// Valid reports whether the timestamp parsed.
func (t Timestamp) Valid() bool { return t.State == FieldValid }

// Present reports whether the document carried a timestamp at all.
func (t Timestamp) Present() bool { return t.State != FieldAbsent }

// Display renders the timestamp in UTC using TimestampLayout, or "" when the
// timestamp is absent or invalid.
func (t Timestamp) Display() string {
	if !t.Valid() {
		return ""
	}
	return t.Time.UTC().Format(TimestampLayout)
}

// Report is a normalized, render-ready report. Lat, Lon and Intensity are
// always finite.
type Report struct {
	AOR       string
	Lat       float64
	Lon       float64
	Intensity float64
	Country   *string
	Category  *string
	Summary   *string
	Source    *string
	Timestamp Timestamp

	// Extra holds unrecognized document fields, passed through untouched.
	Extra map[string]any
}

// MarshalJSON flattens the report into a single object: canonical keys for
// known fields, optional fields omitted when absent, extras merged in.
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+9)
	for k, v := range r.Extra {
		out[k] = v
	}
	if r.AOR != "" {
		out[FieldAOR] = r.AOR
	}
	out[FieldLat] = r.Lat
	out[FieldLon] = r.Lon
	out[FieldIntensity] = r.Intensity
	putText(out, FieldCountry, r.Country)
	putText(out, FieldCategory, r.Category)
	putText(out, FieldSummary, r.Summary)
	putText(out, FieldSource, r.Source)
	if r.Timestamp.Valid() {
		out[FieldTimestamp] = r.Timestamp.Display()
	}
	return json.Marshal(out)
}

func putText(out map[string]any, key string, v *string) {
	if v != nil {
		out[key] = *v
	}
}

// Has reports whether the report carries the given display column.
func (r Report) Has(column string) bool {
	switch column {
	case FieldTimestamp:
		return r.Timestamp.Present()
	case FieldCountry:
		return r.Country != nil
	case FieldCategory:
		return r.Category != nil
	case FieldSummary:
		return r.Summary != nil
	case FieldIntensity, FieldLat, FieldLon:
		return true
	case FieldAOR:
		return r.AOR != ""
	case FieldSource:
		return r.Source != nil
	default:
		_, ok := r.Extra[column]
		return ok
	}
}

// Cell returns the display value of a column for this report. Absent text
// fields and invalid timestamps render as "".
func (r Report) Cell(column string) any {
	switch column {
	case FieldTimestamp:
		return r.Timestamp.Display()
	case FieldCountry:
		return textOrBlank(r.Country)
	case FieldCategory:
		return textOrBlank(r.Category)
	case FieldSummary:
		return textOrBlank(r.Summary)
	case FieldSource:
		return textOrBlank(r.Source)
	case FieldAOR:
		return r.AOR
	case FieldIntensity:
		return r.Intensity
	case FieldLat:
		return r.Lat
	case FieldLon:
		return r.Lon
	default:
		return r.Extra[column]
	}
}

func textOrBlank(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// DropReason classifies why a document was excluded from a dataset.
type DropReason string

const (
	DropInvalidPosition  DropReason = "invalid_position"
	DropInvalidIntensity DropReason = "invalid_intensity"
)

// Stats summarizes a normalization pass.
type Stats struct {
	Fetched           int                `json:"fetched"`
	Kept              int                `json:"kept"`
	Dropped           map[DropReason]int `json:"dropped,omitempty"`
	InvalidTimestamps int                `json:"invalid_timestamps"`
	// NonFiniteExtras counts NaN or Inf values in pass-through fields that
	// were replaced with null.
	NonFiniteExtras int `json:"non_finite_extras"`
}

// DroppedTotal returns the number of documents excluded for any reason.
func (s Stats) DroppedTotal() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Outcome describes why a dataset is, or is not, empty.
type Outcome string

const (
	OutcomeReports     Outcome = "reports"
	OutcomeNoDocuments Outcome = "no_documents"
	OutcomeAllFiltered Outcome = "all_filtered"
)

// Dataset is the output of Normalize.
type Dataset struct {
	Reports     []Report  `json:"reports"`
	Columns     []string  `json:"columns"`
	Stats       Stats     `json:"stats"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Empty reports whether the dataset has no rows.
func (d Dataset) Empty() bool { return len(d.Reports) == 0 }

// Outcome distinguishes an empty store result from a batch whose rows were
// all rejected.
func (d Dataset) Outcome() Outcome {
	switch {
	case !d.Empty():
		return OutcomeReports
	case d.Stats.Fetched == 0:
		return OutcomeNoDocuments
	default:
		return OutcomeAllFiltered
	}
}

// Table is the display projection of a dataset.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Table projects every report onto the dataset's display columns.
func (d Dataset) Table() Table {
	t := Table{
		Columns: d.Columns,
		Rows:    make([][]any, 0, len(d.Reports)),
	}
	for _, r := range d.Reports {
		row := make([]any, len(d.Columns))
		for i, c := range d.Columns {
			row[i] = r.Cell(c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Filter returns a copy of the dataset holding only the reports for which keep
// returns true, with the display projection recomputed. Stats are unchanged.
func (d Dataset) Filter(keep func(Report) bool) Dataset {
	out := d
	out.Reports = make([]Report, 0, len(d.Reports))
	for _, r := range d.Reports {
		if keep(r) {
			out.Reports = append(out.Reports, r)
		}
	}
	out.Columns = projectColumns(out.Reports)
	return out
}
