package jsonschema

import (
	"bytes"
	"iter"

	json "github.com/goccy/go-json"
)

// OrderedMap is a string-keyed map that remembers insertion order.
// Schema keywords such as "properties" are order sensitive for completion,
// so decoded schemas keep the order of the source document.
type OrderedMap[V any] struct {
	keys []string
	m    map[string]V
}

// NewOrderedMap returns an empty map.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{m: map[string]V{}}
}

// Len reports the number of entries. A nil map is empty.
func (o *OrderedMap[V]) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Get returns the value stored under key.
func (o *OrderedMap[V]) Get(key string) (V, bool) {
	var zero V
	if o == nil {
		return zero, false
	}
	v, ok := o.m[key]
	return v, ok
}

// Has reports whether key is present.
func (o *OrderedMap[V]) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores v under key. New keys go to the end; existing keys keep their position.
func (o *OrderedMap[V]) Set(key string, v V) {
	if o.m == nil {
		o.m = map[string]V{}
	}
	if _, ok := o.m[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.m[key] = v
}

// Delete removes key if present.
func (o *OrderedMap[V]) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.m[key]; !ok {
		return
	}
	delete(o.m, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in order.
func (o *OrderedMap[V]) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// All iterates entries in insertion order.
func (o *OrderedMap[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if o == nil {
			return
		}
		for _, k := range o.keys {
			if !yield(k, o.m[k]) {
				return
			}
		}
	}
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (o *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.MarshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.MarshalNoEscape(o.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
