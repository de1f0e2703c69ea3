package resources

import (
	"bytes"
	"encoding/json"

	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi/pkg/jsonapi/types"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/relationships"
)

var jsonNull = json.RawMessage("null")

// Shell is a resource object whose attributes and relationships have not been decoded
// yet, since the shape of the attributes depends on the resource type
type Shell struct {
	ID            types.Identifier
	Attributes    json.RawMessage
	Relationships json.RawMessage
	Links         types.Links
	Meta          types.Meta
}

func (s *Shell) UnmarshalJSON(data []byte) error {
	header := struct {
		ID            *string         `json:"id"`
		Type          *string         `json:"type"`
		Attributes    json.RawMessage `json:"attributes"`
		Relationships json.RawMessage `json:"relationships"`
		Links         json.RawMessage `json:"links"`
		Meta          json.RawMessage `json:"meta"`
	}{}

	err := json.Unmarshal(data, &header)
	if err != nil {
		return errors.NewMalformedEnvelopeError("failed to unmarshal resource object", err)
	}

	if header.ID == nil || header.Type == nil {
		return errors.NewMalformedEnvelopeError("resource objects must have both id and type", nil)
	}

	links, err := types.DecodeLinks(header.Links)
	if err != nil {
		return err
	}

	meta, err := types.DecodeMeta(header.Meta)
	if err != nil {
		return err
	}

	s.ID = types.NewIdentifier(*header.ID, *header.Type)
	s.Attributes = orNull(header.Attributes)
	s.Relationships = orNull(header.Relationships)
	s.Links = links
	s.Meta = meta

	return nil
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return jsonNull
	}
	return raw
}

// Resource is a resource object with its attributes decoded into whatever type the
// registry selected for its resource type
type Resource struct {
	id            types.Identifier
	attributes    any
	source        json.RawMessage
	decode        func(json.RawMessage) (any, error)
	relationships relationships.Relationships
	links         types.Links
	meta          types.Meta
}

type ResourceDecoratorFunc func(r *Resource)

func New(id types.Identifier, attributes any, decorators ...ResourceDecoratorFunc) *Resource {
	r := &Resource{
		id:            id,
		attributes:    attributes,
		relationships: relationships.Relationships{},
	}

	for _, decorator := range decorators {
		decorator(r)
	}

	return r
}

func Relationships(rels relationships.Relationships) ResourceDecoratorFunc {
	return func(r *Resource) {
		r.relationships = rels.Clone()
	}
}

func R(name string, rel relationships.Relationship) ResourceDecoratorFunc {
	return func(r *Resource) {
		r.relationships[name] = rel.Clone()
	}
}

// Source keeps the raw attributes together with the decoder that produced them, so that
// every call to Attributes hands out a value of its own
func Source(raw json.RawMessage, decode func(json.RawMessage) (any, error)) ResourceDecoratorFunc {
	return func(r *Resource) {
		r.source = append(json.RawMessage{}, raw...)
		r.decode = decode
	}
}

func Links(links types.Links) ResourceDecoratorFunc {
	return func(r *Resource) {
		r.links = links.Clone()
	}
}

func Meta(meta types.Meta) ResourceDecoratorFunc {
	return func(r *Resource) {
		r.meta = meta.Clone()
	}
}

func (r *Resource) ID() types.Identifier {
	return r.id
}

func (r *Resource) Attributes() any {
	if r.decode == nil {
		return r.attributes
	}

	attributes, err := r.decode(r.source)
	if err != nil {
		// the source decoded once already when the resource was created
		return r.attributes
	}

	return attributes
}

func (r *Resource) Relationships() relationships.Relationships {
	return r.relationships.Clone()
}

func (r *Resource) Links() types.Links {
	return r.links.Clone()
}

func (r *Resource) Meta() types.Meta {
	return r.meta.Clone()
}

// ForEachRelated calls callback once for every identifier referenced by the resource
func (r *Resource) ForEachRelated(callback func(name string, target types.Identifier)) {
	for _, name := range r.relationships.Names() {
		for _, target := range r.relationships[name].Data {
			callback(name, target)
		}
	}
}
