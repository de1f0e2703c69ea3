package document

import (
	"fmt"
	"sort"

	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi/pkg/jsonapi/types"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/relationships"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/resources"
)

// Object is a read only view of a resource with its attributes typed as T
type Object[T any] struct {
	id            types.Identifier
	attributes    T
	relationships relationships.Relationships
	links         types.Links
	meta          types.Meta
}

func (o Object[T]) ID() types.Identifier {
	return o.id
}

func (o Object[T]) Attributes() T {
	return o.attributes
}

// Relationship returns the identifiers linked by the relationship called name, in
// document order. Unknown relationship names yield an empty slice.
func (o Object[T]) Relationship(name string) []types.Identifier {
	r, ok := o.relationships[name]
	if !ok {
		return []types.Identifier{}
	}
	return append([]types.Identifier{}, r.Data...)
}

func (o Object[T]) RelationshipNames() []string {
	return o.relationships.Names()
}

func (o Object[T]) RelationshipLinks(name string) types.Links {
	return o.relationships[name].Links.Clone()
}

func (o Object[T]) Relationships() map[string][]types.Identifier {
	result := make(map[string][]types.Identifier, len(o.relationships))
	for name, r := range o.relationships {
		result[name] = append([]types.Identifier{}, r.Data...)
	}
	return result
}

func (o Object[T]) Links() types.Links {
	return o.links.Clone()
}

func (o Object[T]) Meta() types.Meta {
	return o.meta.Clone()
}

func newObject[T any](r *resources.Resource) (Object[T], error) {
	decoded := r.Attributes()

	attributes, ok := decoded.(T)
	if !ok {
		var want T
		return Object[T]{}, errors.NewTypeMismatchError(r.ID(), want, decoded)
	}

	return Object[T]{
		id:            r.ID(),
		attributes:    attributes,
		relationships: r.Relationships(),
		links:         r.Links(),
		meta:          r.Meta(),
	}, nil
}

// Document is the decoded form of a JSON:API document. The primary resources are typed
// as T, while every other resource in the document can be resolved on demand.
type Document[T any] struct {
	primary []types.Identifier
	pool    map[types.Identifier]*resources.Resource

	links   types.Links
	meta    types.Meta
	jsonapi types.Meta
}

type DocumentDecoratorFunc func(d *documentInfo)

type documentInfo struct {
	links   types.Links
	meta    types.Meta
	jsonapi types.Meta
}

func Links(links types.Links) DocumentDecoratorFunc {
	return func(d *documentInfo) { d.links = links.Clone() }
}

func Meta(meta types.Meta) DocumentDecoratorFunc {
	return func(d *documentInfo) { d.meta = meta.Clone() }
}

func JSONAPI(jsonapi types.Meta) DocumentDecoratorFunc {
	return func(d *documentInfo) { d.jsonapi = jsonapi.Clone() }
}

// Assemble builds a document from the identifiers of the primary resources, in document
// order, and the pool of all decoded resources. Every primary identifier must be present
// in the pool.
func Assemble[T any](primary []types.Identifier, pool map[types.Identifier]*resources.Resource, decorators ...DocumentDecoratorFunc) (*Document[T], error) {
	info := &documentInfo{}
	for _, decorator := range decorators {
		decorator(info)
	}

	d := &Document[T]{
		primary: make([]types.Identifier, 0, len(primary)),
		pool:    make(map[types.Identifier]*resources.Resource, len(pool)),
		links:   info.links,
		meta:    info.meta,
		jsonapi: info.jsonapi,
	}

	for id, r := range pool {
		d.pool[id] = r
	}

	for _, id := range primary {
		r, ok := d.pool[id]
		if !ok {
			panic(fmt.Sprintf("primary resource %s is missing from the resource pool", id))
		}

		if _, err := newObject[T](r); err != nil {
			return nil, err
		}

		d.primary = append(d.primary, id)
	}

	return d, nil
}

// Primary returns the primary resources in document order. Every call returns freshly
// decoded attributes.
func (d *Document[T]) Primary() []Object[T] {
	result := make([]Object[T], 0, len(d.primary))
	for _, id := range d.primary {
		// the attribute type of every primary resource was checked by Assemble
		obj, _ := newObject[T](d.pool[id])
		result = append(result, obj)
	}
	return result
}

func (d *Document[T]) Len() int {
	return len(d.primary)
}

func (d *Document[T]) Contains(id types.Identifier) bool {
	_, ok := d.pool[id]
	return ok
}

// Resources returns the identifiers of every resource in the document, sorted by their
// string form
func (d *Document[T]) Resources() []types.Identifier {
	ids := make([]types.Identifier, 0, len(d.pool))
	for id := range d.pool {
		ids = append(ids, id)
	}
	sortIdentifiers(ids)
	return ids
}

// Included returns the identifiers of the resources that are not primary, sorted by
// their string form
func (d *Document[T]) Included() []types.Identifier {
	isPrimary := make(map[types.Identifier]bool, len(d.primary))
	for _, id := range d.primary {
		isPrimary[id] = true
	}

	ids := make([]types.Identifier, 0, len(d.pool))
	for id := range d.pool {
		if !isPrimary[id] {
			ids = append(ids, id)
		}
	}
	sortIdentifiers(ids)
	return ids
}

// Relation is a single relationship target referred to by a resource
type Relation struct {
	Source       types.Identifier
	Relationship string
	Target       types.Identifier
}

// Dangling returns every relationship target that is not part of the document. Sources
// are visited in the order of Resources and their relationships sorted by name.
func (d *Document[T]) Dangling() []Relation {
	dangling := []Relation{}

	for _, id := range d.Resources() {
		d.pool[id].ForEachRelated(func(name string, target types.Identifier) {
			if _, ok := d.pool[target]; !ok {
				dangling = append(dangling, Relation{Source: id, Relationship: name, Target: target})
			}
		})
	}

	return dangling
}

func (d *Document[T]) Links() types.Links {
	return d.links.Clone()
}

func (d *Document[T]) Meta() types.Meta {
	return d.meta.Clone()
}

// JSONAPI returns the members of the top level jsonapi object, if any
func (d *Document[T]) JSONAPI() types.Meta {
	return d.jsonapi.Clone()
}

// Resolve looks up id among all resources of the document and returns it with its
// attributes typed as U
func Resolve[U, T any](d *Document[T], id types.Identifier) (Object[U], error) {
	r, ok := d.pool[id]
	if !ok {
		return Object[U]{}, errors.NewMissingRelationshipError(id)
	}

	return newObject[U](r)
}

// ResolveAll resolves every identifier in ids, keeping their order. It fails if any of
// them cannot be resolved.
func ResolveAll[U, T any](d *Document[T], ids []types.Identifier) ([]Object[U], error) {
	result := make([]Object[U], 0, len(ids))

	for _, id := range ids {
		obj, err := Resolve[U](d, id)
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}

	return result, nil
}

func sortIdentifiers(ids []types.Identifier) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}
