package values

import (
	"bytes"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
)

type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Uint
	Float
	String
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value holds an arbitrary JSON value. The zero Value is null.
type Value struct {
	kind Kind

	b bool
	i int64
	u uint64
	f float64
	s string

	list []Value
	m    map[string]Value
}

func NewNull() Value            { return Value{kind: Null} }
func NewBool(b bool) Value      { return Value{kind: Bool, b: b} }
func NewInt(i int64) Value      { return Value{kind: Int, i: i} }
func NewUint(u uint64) Value    { return Value{kind: Uint, u: u} }
func NewFloat(f float64) Value  { return Value{kind: Float, f: f} }
func NewString(s string) Value  { return Value{kind: String, s: s} }
func NewList(vs ...Value) Value { return Value{kind: List, list: append([]Value{}, vs...)} }

func NewMap(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: Map, m: cp}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == Bool }
func (v Value) AsInt() (int64, bool)     { return v.i, v.kind == Int }
func (v Value) AsUint() (uint64, bool)   { return v.u, v.kind == Uint }
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == Float }
func (v Value) AsString() (string, bool) { return v.s, v.kind == String }

func (v Value) AsList() ([]Value, bool) {
	if v.kind != List {
		return nil, false
	}
	return append([]Value{}, v.list...), true
}

func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != Map {
		return nil, false
	}
	cp := make(map[string]Value, len(v.m))
	for k, e := range v.m {
		cp[k] = e
	}
	return cp, true
}

// Get returns the member named key of a map value
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Map {
		return Value{}, false
	}
	e, ok := v.m[key]
	return e, ok
}

// Index returns element i of a list value
func (v Value) Index(i int) (Value, bool) {
	if v.kind != List || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// Len returns the number of elements of a list or map value, and 0 for anything else
func (v Value) Len() int {
	switch v.kind {
	case List:
		return len(v.list)
	case Map:
		return len(v.m)
	}
	return 0
}

// Keys returns the sorted member names of a map value
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Any unwraps the value into plain Go values (nil, bool, int64, uint64, float64, string,
// []any and map[string]any).
func (v Value) Any() any {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return v.i
	case Uint:
		return v.u
	case Float:
		return v.f
	case String:
		return v.s
	case List:
		l := make([]any, 0, len(v.list))
		for _, e := range v.list {
			l = append(l, e.Any())
		}
		return l
	case Map:
		m := make(map[string]any, len(v.m))
		for k, e := range v.m {
			m[k] = e.Any()
		}
		return m
	}
	return nil
}

// Equal reports whether v and other hold the same kind and equal contents. Numbers of
// different kinds are never equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.b == other.b
	case Int:
		return v.i == other.i
	case Uint:
		return v.u == other.u
	case Float:
		return v.f == other.f
	case String:
		return v.s == other.s
	case List:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case Map:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, e := range v.m {
			o, ok := other.m[k]
			if !ok || !e.Equal(o) {
				return false
			}
		}
		return true
	}

	return false
}

// Decode parses body into a Value
func Decode(body []byte) (Value, error) {
	var v Value
	err := json.Unmarshal(body, &v)
	if err != nil {
		if goerrors.Is(err, errors.ErrMalformedDynamicValue) {
			return Value{}, err
		}
		return Value{}, errors.NewMalformedDynamicValueError("invalid json", err)
	}
	return v, nil
}

var jsonNull = []byte("null")

// UnmarshalJSON reads data in a single pass. Numbers are tried as int64, uint64 and
// float64 in that order and keep the first kind that can hold them.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	err := dec.Decode(&raw)
	if err != nil {
		return errors.NewMalformedDynamicValueError("invalid json", err)
	}

	if dec.InputOffset() != int64(len(data)) {
		return errors.NewMalformedDynamicValueError(fmt.Sprintf("unexpected data after value %.32q", string(data)), nil)
	}

	value, err := fromAny(raw)
	if err != nil {
		return err
	}

	*v = value
	return nil
}

func fromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		return fromNumber(t.String())
	case string:
		return NewString(t), nil
	case []any:
		l := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			l = append(l, ev)
		}
		return Value{kind: List, list: l}, nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = ev
		}
		return Value{kind: Map, m: m}, nil
	}

	return Value{}, errors.NewMalformedDynamicValueError(fmt.Sprintf("unsupported value of type %T", raw), nil)
}

func fromNumber(n string) (Value, error) {
	if i, err := strconv.ParseInt(n, 10, 64); err == nil {
		return NewInt(i), nil
	}

	if u, err := strconv.ParseUint(n, 10, 64); err == nil {
		return NewUint(u), nil
	}

	f, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return Value{}, errors.NewMalformedDynamicValueError(fmt.Sprintf("unsupported number %.32q", n), err)
	}

	return NewFloat(f), nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(make([]byte, 0, 64))
}

// appendJSON writes nested lists and maps directly into buf instead of going through
// json.Marshal at every level
func (v Value) appendJSON(buf []byte) ([]byte, error) {
	switch v.kind {
	case Null:
		return append(buf, jsonNull...), nil
	case Bool:
		return strconv.AppendBool(buf, v.b), nil
	case Int:
		return strconv.AppendInt(buf, v.i, 10), nil
	case Uint:
		return strconv.AppendUint(buf, v.u, 10), nil
	case Float:
		f, err := marshalFloat(v.f)
		if err != nil {
			return nil, err
		}
		return append(buf, f...), nil
	case String:
		return appendString(buf, v.s)
	case List:
		var err error
		buf = append(buf, '[')
		for i, e := range v.list {
			if i > 0 {
				buf = append(buf, ',')
			}
			if buf, err = e.appendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case Map:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var err error
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			if buf, err = appendString(buf, k); err != nil {
				return nil, err
			}
			buf = append(buf, ':')
			if buf, err = v.m[k].appendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	}

	return nil, fmt.Errorf("unable to marshal value of %s", v.kind)
}

func appendString(buf []byte, s string) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

// marshalFloat keeps a fraction or an exponent in the output so that the number is read
// back as a float and not as an integer
func marshalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unable to marshal %v as json", f)
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return []byte(s), nil
}
