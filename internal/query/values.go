package query

// Object key order matters here (the SQL rendering of a composite value
// must round-trip the input order), so JSON decoding goes through the
// stdlib token stream rather than a map-based Unmarshal.
import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindObject
	KindArray
)

// Member is one key/value pair of an object value, in input order.
type Member struct {
	Key   string
	Value Value
}

// Value is a tagged variant for the scalar and composite values accepted
// in where clauses and shorthand arguments.
type Value struct {
	Kind    Kind
	Str     string
	Int     int64
	Float   float64
	Bool    bool
	Members []Member // KindObject
	Items   []Value  // KindArray
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntValue wraps an integer.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// ObjectValue wraps an ordered list of members.
func ObjectValue(members []Member) Value { return Value{Kind: KindObject, Members: members} }

// ArrayValue wraps a list of items.
func ArrayValue(items []Value) Value { return Value{Kind: KindArray, Items: items} }

var (
	intLiteralRe   = regexp.MustCompile(`^-?\d+$`)
	floatLiteralRe = regexp.MustCompile(`^-?\d*\.\d+$`)
)

// InferValue converts untyped string input into a Value. Null and boolean
// keywords are checked first, then integer and float literals, then a JSON
// parse is attempted for brace- or bracket-delimited text; everything else
// stays a string.
func InferValue(s string) Value {
	if s == "" {
		return StringValue("")
	}

	switch strings.ToLower(s) {
	case "null":
		return Null()
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	if intLiteralRe.MatchString(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(n)
		}
	}
	if floatLiteralRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return FloatValue(f)
		}
	}

	if (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) {
		if v, err := ParseJSONValue(s); err == nil {
			return v
		}
	}

	return StringValue(s)
}

// ParseJSONValue decodes a JSON document into a Value, preserving object
// key order.
func ParseJSONValue(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if dec.More() {
		return Value{}, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(members), nil
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ArrayValue(items), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if n, err := t.Int64(); err == nil {
				return IntValue(n), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// Text renders the value the way untyped scalar coercion would: strings
// as-is, numbers and booleans as their literal text, composites as compact
// JSON.
func (v Value) Text() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.Str
	default:
		return v.JSON()
	}
}

// AsInt reports the value as an integer when it is one, or parses string
// and float values that reduce to one.
func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		return int64(v.Float), true
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// JSON renders the value as compact JSON. Object member order is the
// input order.
func (v Value) JSON() string {
	var b strings.Builder
	v.writeJSON(&b)
	return b.String()
}

func (v Value) writeJSON(b *strings.Builder) {
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case KindString:
		encoded, _ := json.Marshal(v.Str)
		b.Write(encoded)
	case KindObject:
		b.WriteByte('{')
		for i, m := range v.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(m.Key)
			b.Write(key)
			b.WriteByte(':')
			m.Value.writeJSON(b)
		}
		b.WriteByte('}')
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			item.writeJSON(b)
		}
		b.WriteByte(']')
	}
}
