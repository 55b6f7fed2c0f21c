package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Field is one named column of an entry, in response order.
type Field struct {
	Key   string
	Value interface{}
}

// Entry is one decoded result row: the dt and raw base columns plus any
// extra selected columns in response order.
type Entry struct {
	DT    string
	Raw   string
	Extra []Field

	hasRaw bool
}

// NewEntry builds an entry with both base columns present.
func NewEntry(dt, raw string) Entry {
	return Entry{DT: dt, Raw: raw, hasRaw: true}
}

// HasRaw reports whether the raw column was part of the row.
func (e Entry) HasRaw() bool { return e.hasRaw }

// Get returns the value of a column by name.
func (e Entry) Get(key string) (interface{}, bool) {
	switch key {
	case "dt":
		return e.DT, true
	case "raw":
		if !e.hasRaw {
			return nil, false
		}
		return e.Raw, true
	}
	for _, f := range e.Extra {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// GetString returns a column as a string, or "" when absent or not a
// string.
func (e Entry) GetString(key string) string {
	v, ok := e.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Set updates a column, appending extras in first-set order.
func (e *Entry) Set(key string, value interface{}) {
	switch key {
	case "dt":
		e.DT = coerceString(value)
		return
	case "raw":
		e.Raw = coerceString(value)
		e.hasRaw = true
		return
	}
	for i := range e.Extra {
		if e.Extra[i].Key == key {
			e.Extra[i].Value = value
			return
		}
	}
	e.Extra = append(e.Extra, Field{Key: key, Value: value})
}

// Keys lists the entry's column names in order.
func (e Entry) Keys() []string {
	keys := []string{"dt"}
	if e.hasRaw {
		keys = append(keys, "raw")
	}
	for _, f := range e.Extra {
		keys = append(keys, f.Key)
	}
	return keys
}

// MarshalJSON renders the entry as an object with columns in order.
func (e Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, "dt", e.DT, true); err != nil {
		return nil, err
	}
	if e.hasRaw {
		if err := writeMember(&buf, "raw", e.Raw, false); err != nil {
			return nil, err
		}
	}
	for _, f := range e.Extra {
		if err := writeMember(&buf, f.Key, f.Value, false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value interface{}, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(v)
	return nil
}

// Object is a nested JSON object with document key order preserved.
type Object []Field

// MarshalJSON renders the object with members in document order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if err := writeMember(&buf, f.Key, f.Value, i == 0); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns a member value by key.
func (o Object) Get(key string) (interface{}, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

var errNotObject = errors.New("row is not a JSON object")

// DecodeEntry parses one newline-delimited-JSON line into an entry,
// keeping column order.
func DecodeEntry(line []byte) (Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Entry{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Entry{}, errNotObject
	}

	var e Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Entry{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Entry{}, fmt.Errorf("column name is not a string: %v", keyTok)
		}
		value, err := decodeAny(dec)
		if err != nil {
			return Entry{}, err
		}
		e.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// decodeAny recursively decodes one JSON value, using Object for nested
// objects so key order survives re-encoding.
func decodeAny(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil // string, bool, json.Number or nil
	}

	switch delim {
	case '{':
		var obj Object
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is not a string: %v", keyTok)
			}
			value, err := decodeAny(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Field{Key: key, Value: value})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []interface{}{}
		for dec.More() {
			item, err := decodeAny(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, item)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}

func coerceString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
