package inspector

import (
	"context"
	goerrors "errors"

	"github.com/diwise/jsonapi/pkg/jsonapi/decoder"
	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi/pkg/jsonapi/registry"
	"github.com/diwise/jsonapi/pkg/jsonapi/types"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/values"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

type Inspector interface {
	Inspect(ctx context.Context, body []byte) (*Report, error)
}

type Relation struct {
	Source       string `json:"source"`
	Relationship string `json:"relationship"`
	Target       string `json:"target"`
}

type Report struct {
	Primary  []string             `json:"primary,omitempty"`
	Included []string             `json:"included,omitempty"`
	Types    map[string]int       `json:"types,omitempty"`
	Dangling []Relation           `json:"dangling,omitempty"`
	Errors   []errors.ErrorObject `json:"errors,omitempty"`
	Meta     types.Meta           `json:"meta,omitempty"`
}

type inspectorApp struct {
	registry *registry.Registry
	options  []decoder.Option
}

func New(cfg Config) Inspector {
	decorators := make([]registry.RegistryDecoratorFunc, 0, len(cfg.Types))
	for _, name := range cfg.TypeNames() {
		decorators = append(decorators, registry.Dynamic(name))
	}

	options := []decoder.Option{}

	if cfg.Concurrency > 1 {
		options = append(options, decoder.Concurrency(cfg.Concurrency))
	}

	if cfg.VerifyRelationships {
		options = append(options, decoder.VerifyRelationships())
	}

	if cfg.RejectDuplicates {
		options = append(options, decoder.RejectDuplicates())
	}

	return &inspectorApp{
		registry: registry.New(decorators...),
		options:  options,
	}
}

// Inspect decodes body and summarises its contents. An error envelope is not an error
// here, its entries are returned as part of the report.
func (app *inspectorApp) Inspect(ctx context.Context, body []byte) (*Report, error) {
	log := logging.GetFromContext(ctx)

	doc, err := decoder.Decode[values.Value](ctx, body, app.registry, app.options...)
	if err != nil {
		var response *errors.ErrorResponse
		if goerrors.As(err, &response) {
			log.Info("document is an error response", "count", len(response.Errors))
			return &Report{Errors: response.Errors}, nil
		}

		return nil, err
	}

	primary := make([]types.Identifier, 0, doc.Len())
	for _, p := range doc.Primary() {
		primary = append(primary, p.ID())
	}

	report := &Report{
		Primary:  identifiers(primary),
		Included: identifiers(doc.Included()),
		Types:    map[string]int{},
		Dangling: []Relation{},
		Meta:     doc.Meta(),
	}

	for _, id := range doc.Resources() {
		report.Types[id.Type]++
	}

	for _, r := range doc.Dangling() {
		report.Dangling = append(report.Dangling, Relation{
			Source:       r.Source.String(),
			Relationship: r.Relationship,
			Target:       r.Target.String(),
		})
	}

	log.Debug("inspected document", "primary", len(report.Primary), "included", len(report.Included), "dangling", len(report.Dangling))

	return report, nil
}

func identifiers(ids []types.Identifier) []string {
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		result = append(result, id.String())
	}
	return result
}
