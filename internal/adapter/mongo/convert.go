package mongo

import (
	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toRawDocument converts a decoded BSON document into the domain field bag,
// unwrapping driver types so the domain never sees them.
func toRawDocument(m bson.M) domain.RawDocument {
	doc := make(domain.RawDocument, len(m))
	for k, v := range m {
		doc[k] = convertValue(v)
	}
	return doc
}

// convertValue maps BSON-specific values onto plain Go values. Dates become
// time.Time (UTC), decimals become their string form so they go through the
// same numeric-string parsing as any other text, and ObjectIDs become hex.
func convertValue(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Decimal128:
		return x.String()
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Timestamp:
		return int64(x.T)
	case primitive.Null, primitive.Undefined:
		return nil
	case bson.M:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = convertValue(vv)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = convertValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = convertValue(vv)
		}
		return out
	default:
		return v
	}
}
