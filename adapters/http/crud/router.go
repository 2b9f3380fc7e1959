// Package crud generates REST CRUD routes for a resource schema over any
// backend satisfying ports.Backend. The generator validates its
// configuration once at construction; request time is execution only.
package crud

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/artpar/crudgate/adapters/metrics"
	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/ports"
)

// Operation names one of the six generated routes.
type Operation string

const (
	OpList      Operation = "list"
	OpGet       Operation = "get"
	OpCreate    Operation = "create"
	OpUpdate    Operation = "update"
	OpDeleteOne Operation = "delete_one"
	OpDeleteAll Operation = "delete_all"
)

// Middleware is a standard net/http middleware, the hook for framework-level
// access-control dependencies.
type Middleware func(http.Handler) http.Handler

type options struct {
	prefix      string
	staticLimit int
	disabled    map[Operation]bool
	perOp       map[Operation][]Middleware
	logger      zerolog.Logger
	metrics     *metrics.Collector
}

// Option configures a Router at construction time.
type Option func(*options)

// WithPrefix overrides the route prefix (default: pluralized resource name).
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithStaticLimit caps the collection page size. Requests asking for more
// are served the cap.
func WithStaticLimit(n int) Option {
	return func(o *options) { o.staticLimit = n }
}

// Without omits operations from the generated route set entirely. A request
// to an omitted route is answered by the host router, not by this core.
func Without(ops ...Operation) Option {
	return func(o *options) {
		for _, op := range ops {
			o.disabled[op] = true
		}
	}
}

// WithOperationMiddleware attaches middleware (access control, auditing) to
// one operation.
func WithOperationMiddleware(op Operation, mw ...Middleware) Option {
	return func(o *options) { o.perOp[op] = append(o.perOp[op], mw...) }
}

// WithLogger sets the request logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics attaches a Prometheus collector to the generated routes.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// Router is the generated route set for one resource. It implements
// http.Handler and is mounted by the host under its Prefix.
type Router struct {
	chi.Router

	schema  resource.Schema
	backend ports.Backend
	pk      resource.Field
	opts    options
}

// NewRouter builds the route set for schema over backend. Schema validation
// and primary-key type resolution happen here, once; a misconfigured
// resource fails construction and never serves a request.
func NewRouter(schema resource.Schema, backend ports.Backend, opts ...Option) (*Router, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	o := options{
		disabled: make(map[Operation]bool),
		perOp:    make(map[Operation][]Middleware),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.prefix == "" {
		o.prefix = schema.RoutePrefix()
	}

	rt := &Router{
		Router:  chi.NewRouter(),
		schema:  schema,
		backend: backend,
		pk:      schema.PrimaryKeyField(),
		opts:    o,
	}

	rt.route(OpList, http.MethodGet, "/", rt.handleList)
	rt.route(OpGet, http.MethodGet, "/{id}", rt.handleGet)
	rt.route(OpCreate, http.MethodPost, "/", rt.handleCreate)
	rt.route(OpUpdate, http.MethodPut, "/{id}", rt.handleUpdate)
	rt.route(OpDeleteOne, http.MethodDelete, "/{id}", rt.handleDeleteOne)
	rt.route(OpDeleteAll, http.MethodDelete, "/", rt.handleDeleteAll)

	return rt, nil
}

// Prefix returns the route prefix the host should mount this router under.
func (rt *Router) Prefix() string {
	return rt.opts.prefix
}

// Schema returns the resource schema served by this router.
func (rt *Router) Schema() resource.Schema {
	return rt.schema
}

func (rt *Router) route(op Operation, method, pattern string, h http.HandlerFunc) {
	if rt.opts.disabled[op] {
		return
	}
	r := rt.Router
	if mw := rt.opts.perOp[op]; len(mw) > 0 {
		withs := make([]func(http.Handler) http.Handler, len(mw))
		for i, m := range mw {
			withs[i] = m
		}
		r = r.With(withs...)
	}
	r.Method(method, pattern, rt.instrument(op, h))
}

// instrument wraps a handler with outcome logging and metrics.
func (rt *Router) instrument(op Operation, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		if c := rt.opts.metrics; c != nil {
			c.RequestsInFlight.Inc()
			defer c.RequestsInFlight.Dec()
		}

		next(ww, r)

		elapsed := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if c := rt.opts.metrics; c != nil {
			c.RequestsTotal.WithLabelValues(rt.schema.Name, string(op), strconv.Itoa(status)).Inc()
			c.RequestDuration.WithLabelValues(rt.schema.Name, string(op)).Observe(elapsed.Seconds())
		}
		rt.opts.logger.Info().
			Str("resource", rt.schema.Name).
			Str("operation", string(op)).
			Int("status", status).
			Dur("duration", elapsed).
			Msg("request")
	})
}
