package registry

import (
	"encoding/json"
	"sort"

	"github.com/diwise/jsonapi/pkg/jsonapi/types/values"
)

// DecoderFunc decodes the raw attributes member of a resource. The raw message is the
// JSON literal null when the resource has no attributes.
type DecoderFunc func(attributes json.RawMessage) (any, error)

// Registry maps resource type names to attribute decoders. A Registry is immutable once
// created and may be shared between concurrent decode calls.
type Registry struct {
	decoders map[string]DecoderFunc
}

type RegistryDecoratorFunc func(r *Registry)

func New(decorators ...RegistryDecoratorFunc) *Registry {
	r := &Registry{
		decoders: map[string]DecoderFunc{},
	}

	for _, decorator := range decorators {
		decorator(r)
	}

	return r
}

// Type registers T as the attribute type of resources named typeName
func Type[T any](typeName string) RegistryDecoratorFunc {
	return Custom(typeName, func(attributes json.RawMessage) (any, error) {
		return decodeInto[T](attributes)
	})
}

// Dynamic registers a decoder that keeps the attributes of typeName as a values.Value
func Dynamic(typeName string) RegistryDecoratorFunc {
	return Custom(typeName, func(attributes json.RawMessage) (any, error) {
		return values.Decode(attributes)
	})
}

func Custom(typeName string, decoder DecoderFunc) RegistryDecoratorFunc {
	return func(r *Registry) {
		r.decoders[typeName] = decoder
	}
}

func (r *Registry) Lookup(typeName string) (DecoderFunc, bool) {
	d, ok := r.decoders[typeName]
	return d, ok
}

func (r *Registry) Len() int {
	return len(r.decoders)
}

// Types returns the registered type names in sorted order
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.decoders))
	for n := range r.decoders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
