package querycache

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xenking/catalog-admin/internal/querycache"

type metrics struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	errors    metric.Int64Counter
	discarded metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (m metrics, err error) {
	meter := mp.Meter(meterName)

	if m.hits, err = meter.Int64Counter("querycache.hits",
		metric.WithDescription("Reads served from memory"),
	); err != nil {
		return m, errors.Wrap(err, "hits")
	}
	if m.misses, err = meter.Int64Counter("querycache.misses",
		metric.WithDescription("Reads that joined or started a fetch"),
	); err != nil {
		return m, errors.Wrap(err, "misses")
	}
	if m.errors, err = meter.Int64Counter("querycache.fetch.errors",
		metric.WithDescription("Fetches that failed"),
	); err != nil {
		return m, errors.Wrap(err, "fetch errors")
	}
	if m.discarded, err = meter.Int64Counter("querycache.discarded",
		metric.WithDescription("Fetch results dropped because the entry was superseded"),
	); err != nil {
		return m, errors.Wrap(err, "discarded")
	}
	return m, nil
}

// queryAttr labels a measurement with the key kind ("product" for
// "product:7") so cardinality stays bounded.
func queryAttr(key string) metric.MeasurementOption {
	kind, _, _ := strings.Cut(key, ":")
	return metric.WithAttributes(attribute.String("query", kind))
}

func (m metrics) hit(ctx context.Context, key string)  { m.hits.Add(ctx, 1, queryAttr(key)) }
func (m metrics) miss(ctx context.Context, key string) { m.misses.Add(ctx, 1, queryAttr(key)) }

func (m metrics) fetchError(ctx context.Context, key string) {
	m.errors.Add(ctx, 1, queryAttr(key))
}

func (m metrics) discard(ctx context.Context, key string) {
	m.discarded.Add(ctx, 1, queryAttr(key))
}
