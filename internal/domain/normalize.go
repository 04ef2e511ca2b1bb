package domain

import "math"

// aliases maps a canonical key to the legacy key that may stand in for it.
var aliases = map[string]string{
	FieldAOR: FieldAORLegacy,
	FieldLat: FieldLatLong,
	FieldLon: FieldLonLong,
}

// recognized are the keys consumed into typed Report fields.
var recognized = map[string]struct{}{
	FieldID:        {},
	FieldAOR:       {},
	FieldCountry:   {},
	FieldCategory:  {},
	FieldLat:       {},
	FieldLon:       {},
	FieldIntensity: {},
	FieldSummary:   {},
	FieldSource:    {},
	FieldTimestamp: {},
}

// Normalize turns raw store documents into a render-ready Dataset. It never
// fails: documents with an unusable position or intensity are dropped and
// counted in Stats, and bad timestamps are marked invalid without dropping the
// row. An empty input yields an empty Dataset with no columns.
func Normalize(docs []RawDocument) Dataset {
	ds := Dataset{
		Stats:       Stats{Fetched: len(docs)},
		GeneratedAt: clock.Now(),
	}
	if len(docs) == 0 {
		return ds
	}

	ds.Reports = make([]Report, 0, len(docs))
	for _, doc := range docs {
		report, reason, ok := normalizeDocument(doc)
		if !ok {
			if ds.Stats.Dropped == nil {
				ds.Stats.Dropped = make(map[DropReason]int)
			}
			ds.Stats.Dropped[reason]++
			continue
		}
		if report.Timestamp.State == FieldInvalid {
			ds.Stats.InvalidTimestamps++
		}
		ds.Stats.NonFiniteExtras += sanitizeExtras(report.Extra)
		ds.Reports = append(ds.Reports, report)
	}

	ds.Stats.Kept = len(ds.Reports)
	ds.Columns = projectColumns(ds.Reports)
	return ds
}

// normalizeDocument coerces a single document. It returns false with a drop
// reason when the position or intensity is absent or invalid.
func normalizeDocument(doc RawDocument) (Report, DropReason, bool) {
	fields := resolveAliases(doc)

	lat, latOK := coerceNumber(lookup(fields, FieldLat)).Float()
	lon, lonOK := coerceNumber(lookup(fields, FieldLon)).Float()
	if !latOK || !lonOK {
		return Report{}, DropInvalidPosition, false
	}
	intensity, ok := coerceNumber(lookup(fields, FieldIntensity)).Float()
	if !ok {
		return Report{}, DropInvalidIntensity, false
	}

	r := Report{
		Lat:       lat,
		Lon:       lon,
		Intensity: intensity,
		Country:   coerceText(lookup(fields, FieldCountry)),
		Category:  coerceText(lookup(fields, FieldCategory)),
		Summary:   coerceText(lookup(fields, FieldSummary)),
		Source:    coerceText(lookup(fields, FieldSource)),
		Timestamp: coerceTimestamp(lookup(fields, FieldTimestamp)),
	}
	if aor := coerceText(lookup(fields, FieldAOR)); aor != nil {
		r.AOR = *aor
	}

	for k, v := range fields {
		if _, ok := recognized[k]; ok {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = v
	}
	return r, "", true
}

// sanitizeExtras replaces NaN and Inf values anywhere inside pass-through
// fields with nil, so one bad extra cannot make the dataset unencodable. It
// returns the number of values replaced. Nested containers are copied before
// they change; the source document is never written.
func sanitizeExtras(extra map[string]any) int {
	replaced := 0
	for k, v := range extra {
		clean, n := sanitizeValue(v)
		if n > 0 {
			extra[k] = clean
			replaced += n
		}
	}
	return replaced
}

func sanitizeValue(v any) (any, int) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, 1
		}
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, 1
		}
	case []float64:
		out := make([]any, len(x))
		replaced := 0
		for i, f := range x {
			clean, n := sanitizeValue(f)
			out[i] = clean
			replaced += n
		}
		if replaced > 0 {
			return out, replaced
		}
	case []any:
		var out []any
		replaced := 0
		for i, vv := range x {
			clean, n := sanitizeValue(vv)
			if n == 0 {
				continue
			}
			if out == nil {
				out = append([]any(nil), x...)
			}
			out[i] = clean
			replaced += n
		}
		if replaced > 0 {
			return out, replaced
		}
	case map[string]any:
		var out map[string]any
		replaced := 0
		for k, vv := range x {
			clean, n := sanitizeValue(vv)
			if n == 0 {
				continue
			}
			if out == nil {
				out = make(map[string]any, len(x))
				for kk, orig := range x {
					out[kk] = orig
				}
			}
			out[k] = clean
			replaced += n
		}
		if replaced > 0 {
			return out, replaced
		}
	}
	return v, 0
}

// resolveAliases returns a shallow copy of doc with legacy keys moved to their
// canonical key. When both keys exist the canonical one wins and the legacy
// key is left as an ordinary extra field.
func resolveAliases(doc RawDocument) map[string]any {
	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		fields[k] = v
	}
	for canonical, legacy := range aliases {
		if _, ok := fields[canonical]; ok {
			continue
		}
		if v, ok := fields[legacy]; ok {
			fields[canonical] = v
			delete(fields, legacy)
		}
	}
	return fields
}

func lookup(fields map[string]any, key string) (any, bool) {
	v, ok := fields[key]
	return v, ok
}

// projectColumns keeps the display columns carried by at least one report,
// preserving DisplayColumns order.
func projectColumns(reports []Report) []string {
	if len(reports) == 0 {
		return nil
	}
	cols := make([]string, 0, len(DisplayColumns))
	for _, c := range DisplayColumns {
		for i := range reports {
			if reports[i].Has(c) {
				cols = append(cols, c)
				break
			}
		}
	}
	return cols
}
