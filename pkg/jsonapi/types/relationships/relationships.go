package relationships

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi/pkg/jsonapi/types"
)

// Relationship holds the resource linkage of a named relationship. A to-one linkage is
// stored as a single element slice.
type Relationship struct {
	Data  []types.Identifier
	Links types.Links
	Meta  types.Meta
}

func NewRelationship(data ...types.Identifier) Relationship {
	return Relationship{
		Data: append([]types.Identifier{}, data...),
	}
}

func (r Relationship) Clone() Relationship {
	return Relationship{
		Data:  append([]types.Identifier{}, r.Data...),
		Links: r.Links.Clone(),
		Meta:  r.Meta.Clone(),
	}
}

// Relationships maps relationship names to their linkage
type Relationships map[string]Relationship

func (rs Relationships) Names() []string {
	names := make([]string, 0, len(rs))
	for n := range rs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (rs Relationships) Clone() Relationships {
	cp := make(Relationships, len(rs))
	for k, v := range rs {
		cp[k] = v.Clone()
	}
	return cp
}

var jsonNull = []byte("null")

// Decode parses the relationships member of a resource. An absent or null member means
// that the resource has no relationships.
func Decode(body json.RawMessage) (Relationships, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, jsonNull) {
		return Relationships{}, nil
	}

	contents := map[string]json.RawMessage{}
	err := json.Unmarshal(body, &contents)
	if err != nil {
		return nil, errors.NewMalformedRelationshipError("relationships must be an object", err)
	}

	result := make(Relationships, len(contents))

	for name, raw := range contents {
		r, err := UnmarshalR(raw)
		if err != nil {
			return nil, errors.NewMalformedRelationshipError(fmt.Sprintf("relationship %q is invalid", name), err)
		}
		result[name] = r
	}

	return result, nil
}

// UnmarshalR parses a single relationship object
func UnmarshalR(body json.RawMessage) (Relationship, error) {
	contents := struct {
		Data  json.RawMessage `json:"data"`
		Links json.RawMessage `json:"links"`
		Meta  json.RawMessage `json:"meta"`
	}{}

	err := json.Unmarshal(body, &contents)
	if err != nil {
		return Relationship{}, fmt.Errorf("relationship must be an object: %w", err)
	}

	data, err := unmarshalData(contents.Data)
	if err != nil {
		return Relationship{}, err
	}

	links, err := types.DecodeLinks(contents.Links)
	if err != nil {
		return Relationship{}, err
	}

	meta, err := types.DecodeMeta(contents.Meta)
	if err != nil {
		return Relationship{}, err
	}

	return Relationship{Data: data, Links: links, Meta: meta}, nil
}

func unmarshalData(data json.RawMessage) ([]types.Identifier, error) {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0 || bytes.Equal(data, jsonNull):
		return []types.Identifier{}, nil
	case data[0] == '[':
		ids := []types.Identifier{}
		err := json.Unmarshal(data, &ids)
		if err != nil {
			return nil, fmt.Errorf("invalid resource linkage: %w", err)
		}
		return ids, nil
	case data[0] == '{':
		var id types.Identifier
		err := json.Unmarshal(data, &id)
		if err != nil {
			return nil, fmt.Errorf("invalid resource linkage: %w", err)
		}
		return []types.Identifier{id}, nil
	default:
		return nil, fmt.Errorf("resource linkage must be null, an object or an array of objects")
	}
}
