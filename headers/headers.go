// Package headers implements the case-insensitive, insertion-ordered header
// collection described in spec §3: duplicate names are permitted and kept
// in insertion order, lookup by name returns the first match, and
// iteration yields insertion order.
package headers

import "strings"

// Field is one (name, value) pair as it will be emitted on the wire.
type Field struct {
	Name  string
	Value string
}

// Headers is an ordered sequence of Fields with ASCII case-insensitive name
// comparison. The zero value is an empty collection ready to use.
type Headers struct {
	fields []Field
}

// New builds a Headers collection from the given fields, preserving order.
func New(fields ...Field) *Headers {
	h := &Headers{}
	for _, f := range fields {
		h.Add(f.Name, f.Value)
	}
	return h
}

// Add appends a (name, value) pair, permitting duplicate names.
func (h *Headers) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Get returns the value of the first field matching name, case
// insensitively, and whether one was found.
func (h *Headers) Get(name string) (string, bool) {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether any field matches name, case insensitively.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// HasValueFold reports whether any field matching name has the given value,
// both compared case insensitively — used for directives like
// "Transfer-Encoding: chunked" or "Content-Encoding: gzip".
func (h *Headers) HasValueFold(name, value string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) && strings.EqualFold(strings.TrimSpace(f.Value), value) {
			return true
		}
	}
	return false
}

// Set removes every existing field matching name, then adds one field with
// the given value.
func (h *Headers) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

// Del removes every field matching name, case insensitively.
func (h *Headers) Del(name string) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

// Len returns the number of fields, including duplicates.
func (h *Headers) Len() int {
	return len(h.fields)
}

// Each calls fn once per field, in insertion order.
func (h *Headers) Each(fn func(name, value string)) {
	for _, f := range h.fields {
		fn(f.Name, f.Value)
	}
}

// Clone returns an independent copy of h.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return New()
	}
	clone := &Headers{fields: make([]Field, len(h.fields))}
	copy(clone.fields, h.fields)
	return clone
}
