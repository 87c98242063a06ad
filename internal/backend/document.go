package backend

import (
	"encoding/json"
	"sort"
)

// Document is a JSON object returned by the backend. Its shape is owned by
// the server; the helpers read well-known keys without failing on absent or
// mistyped ones.
type Document map[string]any

func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

func (d Document) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Strings returns key as a string slice. A JSON array of strings and a JSON
// object (whose keys are returned, sorted) are both accepted.
func (d Document) Strings(key string) []string {
	switch v := d[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		out := make([]string, 0, len(v))
		for k := range v {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	default:
		return nil
	}
}

// Object returns a nested JSON object, or nil.
func (d Document) Object(key string) Document {
	switch v := d[key].(type) {
	case map[string]any:
		return Document(v)
	case Document:
		return v
	default:
		return nil
	}
}

// Clone returns a deep copy so callers cannot mutate recorded results.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return d
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return d
	}
	return out
}
