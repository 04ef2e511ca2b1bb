// Package domain models intelligence report documents and the Areas of
// Responsibility (AORs) they are filed under.
//
// # Document Shape
//
// Reports are written to the store by producers (the synthetic seeder today,
// live OSINT feeds later) as schemaless documents. Nothing about a stored
// document is trusted: every field is read out of a [RawDocument] field bag
// and coerced into the strict [Report] type by [Normalize].
//
// Recognized keys:
//
//	aor        AOR identifier ("ccom" accepted from legacy producers)
//	lat, lon   WGS-84 position ("latitude"/"longitude" accepted)
//	intensity  severity weight driving column elevation
//	country, category, summary, source   free text
//	timestamp  observation time
//	_id        store identifier, always stripped
//
// Any other key is carried through to the output untouched.
//
// # Coercion Rules
//
// Position and intensity accept Go numeric values and numeric-looking strings
// ("12.5", " 80 "). Missing values, non-numeric strings, booleans, NaN and
// infinities are marked invalid and the row is dropped; a missing position is
// never inferred or defaulted.
//
// Timestamps accept time values and strings in RFC 3339 or
// "YYYY-MM-DD HH:MM:SS" form. An unparseable timestamp is marked invalid but
// the row is kept: temporal quality does not block spatial rendering.
//
// # Display Projection
//
// The tabular feed shows at most five columns, in this order:
//
//	timestamp, country, category, summary, intensity
//
// A column is shown only if at least one surviving row carries it.
package domain
