package decoder

import (
	"context"

	"github.com/diwise/jsonapi/pkg/jsonapi/document"
	"github.com/diwise/jsonapi/pkg/jsonapi/registry"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TraceAttributePrimaryCount  string = "jsonapi-primary-count"
	TraceAttributeResourceCount string = "jsonapi-resource-count"
)

var tracer = otel.Tracer("jsonapi-decoder")

type options struct {
	concurrency         int
	rejectDuplicates    bool
	verifyRelationships bool
}

type Option func(*options)

// Concurrency decodes up to n resources in parallel
func Concurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// RejectDuplicates makes a resource that occurs more than once fail the decode, instead
// of letting the last occurrence replace the earlier ones
func RejectDuplicates() Option {
	return func(o *options) {
		o.rejectDuplicates = true
	}
}

// VerifyRelationships makes the decode fail if any relationship points to a resource that
// is not part of the document
func VerifyRelationships() Option {
	return func(o *options) {
		o.verifyRelationships = true
	}
}

// Decode decodes a JSON:API document whose primary resources have attributes of type T.
// The attributes of every resource, primary or included, are decoded with the decoder
// that reg holds for the resource type.
func Decode[T any](ctx context.Context, body []byte, reg *registry.Registry, opts ...Option) (doc *document.Document[T], err error) {
	o := &options{concurrency: 1}
	for _, opt := range opts {
		opt(o)
	}

	ctx, span := tracer.Start(ctx, "decode-document")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	env, err := parseEnvelope(body, o.rejectDuplicates)
	if err != nil {
		log.Debug("failed to parse document", "err", err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int(TraceAttributePrimaryCount, len(env.primary)),
		attribute.Int(TraceAttributeResourceCount, len(env.shells)),
	)

	table, err := resolve(ctx, env.shells, reg, o.concurrency)
	if err != nil {
		log.Debug("failed to resolve resources", "err", err.Error())
		return nil, err
	}

	if o.verifyRelationships {
		err = verifyRelationships(table, env.shells)
		if err != nil {
			return nil, err
		}
	}

	doc, err = document.Assemble[T](env.primary, table,
		document.Links(env.links),
		document.Meta(env.meta),
		document.JSONAPI(env.jsonapi),
	)
	if err != nil {
		return nil, err
	}

	log.Debug("decoded document", "primary", len(env.primary), "resources", len(table))

	return doc, nil
}
