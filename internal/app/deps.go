package app

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/catalog-admin/internal/catalog"
	"github.com/xenking/catalog-admin/internal/querycache"
	"github.com/xenking/catalog-admin/internal/upstream"
)

// Deps are the catalog components shared by the gateway and the CLI.
type Deps struct {
	HTTP     *http.Client
	Upstream *upstream.Client
	Cache    *querycache.Cache
	Catalog  *catalog.Service
}

// NewDeps builds the catalog service client, the query cache and the catalog
// service on top of them.
func NewDeps(cfg *Config, lg *zap.Logger, tp trace.TracerProvider, mp metric.MeterProvider) (*Deps, error) {
	mode, err := catalog.ParseUpdateMode(cfg.Catalog.UpdateMode)
	if err != nil {
		return nil, errors.Wrap(err, "update mode")
	}

	httpClient := &http.Client{
		Timeout: cfg.Upstream.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		),
	}
	client, err := upstream.New(cfg.Upstream.BaseURL, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "upstream client")
	}

	cache, err := querycache.New(querycache.Options{
		StaleTime:     cfg.Cache.StaleTime,
		GCTime:        cfg.Cache.GCTime,
		MeterProvider: mp,
		Logger:        lg.Named("querycache"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "query cache")
	}

	svc := catalog.NewService(client, client.Categories(), cache, catalog.Options{
		UpdateMode:     mode,
		TracerProvider: tp,
	})

	return &Deps{
		HTTP:     httpClient,
		Upstream: client,
		Cache:    cache,
		Catalog:  svc,
	}, nil
}
