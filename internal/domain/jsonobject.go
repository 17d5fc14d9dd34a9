package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// objectWriter encodes a JSON object with keys in the order they are added.
type objectWriter struct {
	buf bytes.Buffer
	n   int
}

func (w *objectWriter) field(key string, val any) error {
	encoded, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if w.n == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	w.n++
	k, _ := json.Marshal(key)
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(encoded)
	return nil
}

// extra appends the keys of m in sorted order.
func (w *objectWriter) extra(m map[string]json.RawMessage) error {
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if err := w.field(key, m[key]); err != nil {
			return err
		}
	}
	return nil
}

func (w *objectWriter) bytes() []byte {
	if w.n == 0 {
		return []byte("{}")
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}

func isJSONNull(val json.RawMessage) bool {
	return string(bytes.TrimSpace(val)) == "null"
}
