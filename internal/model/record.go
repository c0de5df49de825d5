package model

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RawRecord is one remote record as decoded from a response body. Keys keep
// their document order. A RawRecord has no mutators; build one with
// NewRecord or DecodeRecord.
type RawRecord struct {
	fields *orderedmap.OrderedMap[string, any]
}

// Pair is a single key/value used to build a RawRecord.
type Pair struct {
	Key   string
	Value any
}

// NewRecord builds a record from pairs, in order. A repeated key keeps its
// first position and takes the last value.
func NewRecord(pairs ...Pair) RawRecord {
	om := orderedmap.New[string, any](orderedmap.WithCapacity[string, any](len(pairs)))
	for _, p := range pairs {
		om.Set(p.Key, p.Value)
	}
	return RawRecord{fields: om}
}

// DecodeRecord decodes a JSON object into a record.
func DecodeRecord(data []byte) (RawRecord, error) {
	var r RawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return RawRecord{}, err
	}
	return r, nil
}

// Len returns the number of top-level keys.
func (r RawRecord) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Get returns the value stored under key.
func (r RawRecord) Get(key string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// String returns the value under key formatted as text, or "" when absent.
func (r RawRecord) String(key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}
	return FormatScalar(v)
}

// Keys returns the top-level keys in document order.
func (r RawRecord) Keys() []string {
	keys := make([]string, 0, r.Len())
	r.Each(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Each calls fn for every top-level pair in order until fn returns false.
func (r RawRecord) Each(fn func(key string, value any) bool) {
	if r.fields == nil {
		return
	}
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// MarshalJSON encodes the record with its keys in document order.
func (r RawRecord) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	om := orderedmap.New[string, any]()
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	r.fields = om
	return nil
}

// MarshalYAML encodes the record as an ordered YAML mapping.
func (r RawRecord) MarshalYAML() (any, error) {
	if r.fields == nil {
		return map[string]any{}, nil
	}
	return r.fields.MarshalYAML()
}
