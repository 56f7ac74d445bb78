// Package logging builds the service's slog handler. Records carry service
// metadata, the module that emitted them and, when present in the context,
// the request id and trace identifiers.
package logging

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// Module names the component a log record belongs to.
type Module string

type ServiceInfo struct {
	Name     string
	Version  string
	Revision string
}

type Config struct {
	Service       ServiceInfo
	Environment   Environment
	Level         slog.Leveler
	DefaultModule Module
	GCPProjectID  string
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	moduleKey
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithModule(ctx context.Context, m Module) context.Context {
	return context.WithValue(ctx, moduleKey, m)
}

// NewHandler returns a JSON handler in production and a text handler
// otherwise, wrapped to enrich every record from its context.
func NewHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var base slog.Handler
	if cfg.Environment == EnvProd {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	attrs := []slog.Attr{
		slog.String("service", cfg.Service.Name),
		slog.String("env", string(cfg.Environment)),
	}
	if cfg.Service.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Service.Version))
	}
	if cfg.Service.Revision != "" {
		attrs = append(attrs, slog.String("revision", cfg.Service.Revision))
	}

	return &contextHandler{
		Handler:       base.WithAttrs(attrs),
		defaultModule: cfg.DefaultModule,
		projectID:     cfg.GCPProjectID,
	}
}

type contextHandler struct {
	slog.Handler
	defaultModule Module
	projectID     string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	module := h.defaultModule
	if m, ok := ctx.Value(moduleKey).(Module); ok && m != "" {
		module = m
	}
	if module != "" {
		r.AddAttrs(slog.String("module", string(module)))
	}

	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
		r.AddAttrs(gcpTraceAttrs(ctx, h.projectID)...)
	}

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{
		Handler:       h.Handler.WithAttrs(attrs),
		defaultModule: h.defaultModule,
		projectID:     h.projectID,
	}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{
		Handler:       h.Handler.WithGroup(name),
		defaultModule: h.defaultModule,
		projectID:     h.projectID,
	}
}
