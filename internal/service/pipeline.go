// Package service implements the activity handler pipeline: one small handler
// per operation, dispatched through a map and translated into classified failures.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/and161185/activities/internal/events"
	"github.com/and161185/activities/internal/repository"
)

// Operation names a pipeline entry point.
type Operation string

const (
	OpDetails Operation = "details"
	OpList    Operation = "list"
	OpCreate  Operation = "create"
	OpEdit    Operation = "edit"
	OpDelete  Operation = "delete"
)

// HandlerFunc handles one request of a concrete type.
type HandlerFunc func(ctx context.Context, req any) (any, error)

// Handle adapts a typed handler method to a HandlerFunc.
func Handle[Q, R any](h func(context.Context, Q) (R, error)) HandlerFunc {
	return func(ctx context.Context, req any) (any, error) {
		q, ok := req.(Q)
		if !ok {
			var want Q
			return nil, badRequest(fmt.Sprintf("unexpected request %T, want %T", req, want), nil)
		}
		return h(ctx, q)
	}
}

// Pipeline routes requests to handlers and classifies every error on the way out.
type Pipeline struct {
	handlers map[Operation]HandlerFunc
	log      *zap.Logger
	metrics  *metrics
}

type options struct {
	log *zap.Logger
	pub events.Publisher
	reg prometheus.Registerer
}

// Option configures a Pipeline.
type Option func(*options)

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithPublisher sets the change event publisher. Defaults to events.Nop.
func WithPublisher(p events.Publisher) Option { return func(o *options) { o.pub = p } }

// WithRegisterer registers pipeline metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option { return func(o *options) { o.reg = reg } }

// New wires the five activity handlers over repo.
func New(repo repository.Repository, opts ...Option) *Pipeline {
	o := options{log: zap.NewNop(), pub: events.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pipeline{
		handlers: map[Operation]HandlerFunc{
			OpDetails: Handle(NewDetails(repo).Handle),
			OpList:    Handle(NewList(repo).Handle),
			OpCreate:  Handle(NewCreate(repo, o.pub, o.log).Handle),
			OpEdit:    Handle(NewEdit(repo, o.pub, o.log).Handle),
			OpDelete:  Handle(NewDelete(repo, o.pub, o.log).Handle),
		},
		log:     o.log,
		metrics: newMetrics(o.reg),
	}
	return p
}

// Send dispatches req to the handler for op. A non-nil error is always a *Failure.
func (p *Pipeline) Send(ctx context.Context, op Operation, req any) (any, error) {
	start := time.Now()
	h, ok := p.handlers[op]
	if !ok {
		f := badRequest(fmt.Sprintf("unknown operation %q", op), nil)
		p.metrics.observe(op, string(f.Kind), time.Since(start))
		return nil, f
	}

	res, err := h(ctx, req)
	if err == nil {
		p.metrics.observe(op, "ok", time.Since(start))
		return res, nil
	}

	f := AsFailure(err)
	if cause := f.Unwrap(); cause != nil {
		// raw storage errors stay in logs
		p.log.Error("pipeline",
			zap.String("op", string(op)),
			zap.String("kind", string(f.Kind)),
			zap.Error(cause),
		)
	} else {
		p.log.Debug("pipeline",
			zap.String("op", string(op)),
			zap.String("kind", string(f.Kind)),
			zap.String("msg", f.Message),
		)
	}
	p.metrics.observe(op, string(f.Kind), time.Since(start))
	return nil, f
}

// Dispatch sends req and asserts the result type.
func Dispatch[R any](ctx context.Context, p *Pipeline, op Operation, req any) (R, error) {
	var zero R
	res, err := p.Send(ctx, op, req)
	if err != nil {
		return zero, err
	}
	r, ok := res.(R)
	if !ok {
		return zero, unavailable("unexpected result", fmt.Errorf("operation %s returned %T", op, res))
	}
	return r, nil
}

// publish delivers ev; failures are logged and never fail the committed operation.
func publish(ctx context.Context, pub events.Publisher, log *zap.Logger, ev events.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("publish event",
			zap.String("type", string(ev.Type)),
			zap.String("id", ev.ActivityID),
			zap.Error(err),
		)
	}
}
