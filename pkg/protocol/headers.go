package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Headers is an insertion-ordered string map.
// The zero value is empty and ready to use; read methods accept a nil receiver.
type Headers struct {
	keys   []string
	values map[string]string
}

// NewHeaders creates an empty header set
func NewHeaders() *Headers {
	return &Headers{values: make(map[string]string)}
}

// Len returns the number of headers
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// Get returns the value stored under key
func (h *Headers) Get(key string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.values[key]
	return v, ok
}

// Has reports whether key is present
func (h *Headers) Has(key string) bool {
	_, ok := h.Get(key)
	return ok
}

// Add appends a header. An existing key is left untouched and
// ErrDuplicateHeader is returned.
func (h *Headers) Add(key, value string) error {
	if h.Has(key) {
		return fmt.Errorf("%w: %q", ErrDuplicateHeader, key)
	}
	h.set(key, value)
	return nil
}

// Set stores value under key, replacing any existing value in place
func (h *Headers) Set(key, value string) {
	h.set(key, value)
}

func (h *Headers) set(key, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Del removes key if present
func (h *Headers) Del(key string) {
	if !h.Has(key) {
		return
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the header names in insertion order
func (h *Headers) Keys() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Range calls fn for each header in insertion order until fn returns false
func (h *Headers) Range(fn func(key, value string) bool) {
	if h == nil {
		return
	}
	for _, k := range h.keys {
		if !fn(k, h.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy; cloning nil yields an empty set
func (h *Headers) Clone() *Headers {
	out := NewHeaders()
	h.Range(func(k, v string) bool {
		out.set(k, v)
		return true
	})
	return out
}

// Equal reports whether both sets hold the same headers in the same order
func (h *Headers) Equal(other *Headers) bool {
	if h.Len() != other.Len() {
		return false
	}
	for i := 0; i < h.Len(); i++ {
		k := h.keys[i]
		if other.keys[i] != k || other.values[k] != h.values[k] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the headers as a JSON object in insertion order
func (h *Headers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	h.writeJSON(&buf)
	return buf.Bytes(), nil
}

func (h *Headers) writeJSON(buf *bytes.Buffer) {
	buf.WriteByte('{')
	first := true
	h.Range(func(k, v string) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeJSONString(buf, k)
		buf.WriteByte(':')
		writeJSONString(buf, v)
		return true
	})
	buf.WriteByte('}')
}

// UnmarshalJSON decodes a JSON object of strings, keeping document order.
// Duplicate keys and non-string values are rejected.
func (h *Headers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("headers must be an object")
	}

	parsed := NewHeaders()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("header name must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("header %q: %w", key, err)
		}
		if bytes.Equal(raw, jsonNull) {
			return fmt.Errorf("header %q: null value", key)
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("header %q: %w", key, err)
		}
		if err := parsed.Add(key, value); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*h = *parsed
	return nil
}

var jsonNull = []byte("null")

// writeJSONString appends s as a quoted JSON string
func writeJSONString(buf *bytes.Buffer, s string) {
	// Marshalling a string cannot fail.
	b, _ := json.Marshal(s)
	buf.Write(b)
}
