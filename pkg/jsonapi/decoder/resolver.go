package decoder

import (
	"context"
	"fmt"

	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi/pkg/jsonapi/registry"
	"github.com/diwise/jsonapi/pkg/jsonapi/types"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/relationships"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/resources"
	"golang.org/x/sync/errgroup"
)

// resolve is the second decoding phase. Every shell is decoded with the attribute
// decoder registered for its type, producing a new table of resources.
func resolve(ctx context.Context, shells []resources.Shell, reg *registry.Registry, concurrency int) (map[types.Identifier]*resources.Resource, error) {
	decoded := make([]*resources.Resource, len(shells))

	if concurrency <= 1 {
		for idx := range shells {
			r, err := resolveShell(shells[idx], reg)
			if err != nil {
				return nil, err
			}
			decoded[idx] = r
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for idx := range shells {
			g.Go(func() error {
				r, err := resolveShell(shells[idx], reg)
				if err != nil {
					return err
				}
				decoded[idx] = r
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	table := make(map[types.Identifier]*resources.Resource, len(decoded))
	for _, r := range decoded {
		table[r.ID()] = r
	}

	if len(table) != len(shells) {
		panic(fmt.Sprintf("decoded %d resources from %d resource objects", len(table), len(shells)))
	}

	return table, nil
}

func resolveShell(shell resources.Shell, reg *registry.Registry) (*resources.Resource, error) {
	decode, ok := reg.Lookup(shell.ID.Type)
	if !ok {
		return nil, errors.NewUnknownTypeError(shell.ID.Type)
	}

	attributes, err := decode(shell.Attributes)
	if err != nil {
		return nil, errors.NewMalformedAttributesError(shell.ID, err)
	}

	rels, err := relationships.Decode(shell.Relationships)
	if err != nil {
		return nil, err
	}

	return resources.New(shell.ID, attributes,
		resources.Source(shell.Attributes, decode),
		resources.Relationships(rels),
		resources.Links(shell.Links),
		resources.Meta(shell.Meta),
	), nil
}

// verifyRelationships makes sure that every relationship target is part of the table
func verifyRelationships(table map[types.Identifier]*resources.Resource, order []resources.Shell) error {
	var err error

	for _, shell := range order {
		table[shell.ID].ForEachRelated(func(_ string, target types.Identifier) {
			if _, ok := table[target]; !ok && err == nil {
				err = errors.NewMissingRelationshipError(target)
			}
		})

		if err != nil {
			return err
		}
	}

	return nil
}
