package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Record is one document in a collection: an open mapping from field name
// to scalar value. Numbers are kept as json.Number end to end so fields the
// service never touches survive read-modify-write byte-for-byte. The "id"
// field is the only one with a fixed meaning and is always an integer.
type Record map[string]any

// RecordSet is the full ordered collection of records for one document.
type RecordSet []Record

// IDField is the record field holding the unique integer identifier.
const IDField = "id"

// ID returns the record's integer id, or false when the field is missing
// or not an integer.
func (r Record) ID() (int64, bool) {
	switch v := r[IDField].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		return id, err == nil
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// Clone deep-copies the record so callers never alias store-owned state.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Clone deep-copies the whole set.
func (rs RecordSet) Clone() RecordSet {
	if rs == nil {
		return nil
	}
	out := make(RecordSet, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case Record:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		// Scalars (string, json.Number, bool, nil) are immutable.
		return v
	}
}

// nextID assigns ids as max(existing)+1, starting at 1 for an empty set.
func nextID(rs RecordSet) int64 {
	var max int64
	for _, r := range rs {
		if id, ok := r.ID(); ok && id > max {
			max = id
		}
	}
	return max + 1
}

func findByID(rs RecordSet, id int64) int {
	for i, r := range rs {
		if rid, ok := r.ID(); ok && rid == id {
			return i
		}
	}
	return -1
}

// decodeRecords parses a canonical document: a JSON array of objects.
// Numbers are decoded as json.Number. A bare "null" document counts as
// empty rather than malformed.
func decodeRecords(data []byte) (RecordSet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rs RecordSet
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if rs == nil {
		rs = RecordSet{}
	}
	return rs, nil
}

// encodeRecords renders the canonical pretty-printed document.
func encodeRecords(rs RecordSet) ([]byte, error) {
	if rs == nil {
		rs = RecordSet{}
	}
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// jsonNumberPattern is the JSON number grammar. ParseFloat accepts a
// superset of it ("+5", ".5", "5.", hex floats), so literals that parse
// but fail this pattern are re-emitted in canonical form instead of being
// stored raw, where the encoder would later reject them.
var jsonNumberPattern = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?$`)

// Number converts v to a json.Number when it carries a parseable numeric
// value (json.Number, numeric string, int, float). It returns nil for
// empty strings, nil and anything non-numeric, mirroring how the catalog
// sanitizes price fields.
func Number(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case json.Number:
		return numberLiteral(val.String())
	case string:
		if val == "" {
			return nil
		}
		return numberLiteral(val)
	case int:
		return json.Number(strconv.Itoa(val))
	case int64:
		return json.Number(strconv.FormatInt(val, 10))
	case float64:
		return json.Number(strconv.FormatFloat(val, 'f', -1, 64))
	default:
		return nil
	}
}

// numberLiteral validates raw as a finite number and returns it as a
// json.Number, rewritten to a valid JSON literal when needed.
func numberLiteral(raw string) any {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	if jsonNumberPattern.MatchString(raw) {
		return json.Number(raw)
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// Float reads v as a float64, returning 0 for anything non-numeric.
func Float(v any) float64 {
	switch val := v.(type) {
	case json.Number:
		f, _ := val.Float64()
		return f
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
