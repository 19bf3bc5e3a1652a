package domain

import (
	"errors"
	"strings"
)

// IDField is the system identifier field assigned by the gateway on insert.
const IDField = "_id"

var (
	ErrInvalidID      = errors.New("document identifier is malformed")
	ErrNotAnObject    = errors.New("document body must be a JSON object")
	ErrEmptyFieldName = errors.New("document field name must not be empty")
)

// Document is a schema-less record keyed by field name.
type Document map[string]any

// ID is a gateway-specific identifier produced by the gateway's parser.
type ID interface {
	String() string
}

// Collection is the per-request handle bound to a collection name.
type Collection struct {
	name string
}

// NewCollection binds a handle to name without any existence check.
func NewCollection(name string) Collection {
	return Collection{name: name}
}

// Name returns the bound collection name.
func (c Collection) Name() string {
	return c.name
}

// Clone returns a deep copy so callers never share nested maps or slices.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// WithoutID returns a copy with the system identifier removed.
func (d Document) WithoutID() Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	delete(out, IDField)
	return out
}

// Validate rejects field names a document store cannot hold.
func (d Document) Validate() error {
	for k := range d {
		if strings.TrimSpace(k) == "" {
			return ErrEmptyFieldName
		}
	}
	return nil
}

// StringField returns the trimmed string stored at key and whether it was a string.
func (d Document) StringField(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		return Document(t).Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []Document:
		out := make([]Document, len(t))
		for i := range t {
			out[i] = t[i].Clone()
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i := range t {
			out[i] = Document(t[i]).Clone()
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
