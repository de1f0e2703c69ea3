package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/values"
)

// Identifier is the (id, type) pair that addresses a resource within a document
type Identifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func NewIdentifier(id, typ string) Identifier {
	return Identifier{ID: id, Type: typ}
}

func (i Identifier) String() string {
	return i.Type + "_" + i.ID
}

func (i *Identifier) UnmarshalJSON(data []byte) error {
	ref := struct {
		ID   *string `json:"id"`
		Type *string `json:"type"`
	}{}

	err := json.Unmarshal(data, &ref)
	if err != nil {
		return err
	}

	if ref.ID == nil || ref.Type == nil {
		return fmt.Errorf("resource identifiers must have both id and type")
	}

	i.ID = *ref.ID
	i.Type = *ref.Type

	return nil
}

// Meta is a bag of non standard meta information
type Meta map[string]values.Value

// Get returns the unwrapped value stored under key
func (m Meta) Get(key string) (any, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return v.Any(), true
}

func (m Meta) IsEmpty() bool {
	return len(m) == 0
}

func (m Meta) Equal(other Meta) bool {
	return values.NewMap(m).Equal(values.NewMap(other))
}

func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	cp := make(Meta, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// DecodeMeta decodes an optional meta member. Absent and null members yield a nil Meta.
func DecodeMeta(raw json.RawMessage) (Meta, error) {
	if isNullOrEmpty(raw) {
		return nil, nil
	}

	v, err := values.Decode(raw)
	if err != nil {
		return nil, err
	}

	m, ok := v.AsMap()
	if !ok {
		return nil, errors.NewMalformedDynamicValueError(fmt.Sprintf("meta must be an object, not %s", v.Kind()), nil)
	}

	return Meta(m), nil
}

func isNullOrEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
