// Package dispatch is the HTTP entry point of the connector runtime. It peeks
// the routing key out of a request envelope, resolves the operation in the
// registry and maps the invoker's outcome to a status code.
package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-connect/pkg/codec"
	"github.com/joeydtaylor/steeze-connect/pkg/connector"
	"github.com/joeydtaylor/steeze-connect/pkg/registry"
	"go.uber.org/zap"
)

// MalformedEnvelopeMessage is the fixed 400 body for bodies that cannot be routed.
const MalformedEnvelopeMessage = `Malformed request envelope: expected {"id":<u64>,"params":{"operation":<string>,...}}`

const (
	OutcomeOK          = "ok"
	OutcomeMalformed   = "malformed"
	OutcomeUnsupported = "unsupported"
	// OutcomeUnavailable is a 500 raised before the registry resolved the
	// request, e.g. a failed build. The name and operation were never checked.
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
)

const (
	DefaultPrefix       = "/csp"
	DefaultMaxBodyBytes = 1 << 20
)

// Resolver is the read side of the registry.
type Resolver interface {
	Lookup(name, operation string) (connector.Invoker, error)
}

// Observer receives one call per finished request.
type Observer interface {
	ObserveDispatch(name, operation, outcome string, d time.Duration)
}

type Options struct {
	Prefix       string
	MaxBodyBytes int64
	// Timeout bounds each request's context. Zero means no deadline.
	Timeout  time.Duration
	Logger   *zap.Logger
	Observer Observer
}

// Response is a terminal dispatch state.
type Response struct {
	Status  int
	Body    []byte
	Outcome string
}

type Dispatcher struct {
	reg  Resolver
	opts Options
	log  *zap.Logger
}

func New(reg Resolver, opts Options) *Dispatcher {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{reg: reg, opts: opts, log: log}
}

// ServeHTTP handles POST {prefix}/{name}.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	start := time.Now()

	body, err := d.readBody(w, r)
	if err != nil {
		d.finish(w, r, name, "", start, Response{
			Status:  http.StatusBadRequest,
			Body:    []byte(MalformedEnvelopeMessage),
			Outcome: OutcomeMalformed,
		})
		return
	}

	op, res := d.Dispatch(r.Context(), name, body)
	d.finish(w, r, name, op, start, res)
}

// Dispatch runs the routing state machine over an already-read body and
// returns the peeked operation alongside the response.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, body []byte) (string, Response) {
	op, err := codec.PeekOperation(body)
	if err != nil {
		return "", Response{
			Status:  http.StatusBadRequest,
			Body:    []byte(MalformedEnvelopeMessage),
			Outcome: OutcomeMalformed,
		}
	}

	inv, err := d.reg.Lookup(name, op)
	if err != nil {
		if errors.Is(err, registry.ErrUnsupportedOperation) {
			return op, Response{
				Status:  http.StatusBadRequest,
				Body:    []byte("Unsupported operation " + op),
				Outcome: OutcomeUnsupported,
			}
		}
		res := failed(err)
		res.Outcome = OutcomeUnavailable
		return op, res
	}

	return op, invoke(ctx, inv, body)
}

// StaticHandler serves POST {prefix}/{name}/{operation} for one descriptor.
// The path already identifies the handler, so the body goes straight to the
// invoker without a peek.
func (d *Dispatcher) StaticHandler(desc connector.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		body, err := d.readBody(w, r)
		if err != nil {
			d.finish(w, r, desc.Name, desc.Operation, start, Response{
				Status:  http.StatusBadRequest,
				Body:    []byte(MalformedEnvelopeMessage),
				Outcome: OutcomeMalformed,
			})
			return
		}
		d.finish(w, r, desc.Name, desc.Operation, start, invoke(r.Context(), desc.Invoke, body))
	}
}

func invoke(ctx context.Context, inv connector.Invoker, body []byte) Response {
	out, err := inv(ctx, body)
	if err != nil {
		return failed(err)
	}
	return Response{Status: http.StatusOK, Body: out, Outcome: OutcomeOK}
}

func failed(err error) Response {
	return Response{
		Status:  http.StatusInternalServerError,
		Body:    []byte(err.Error()),
		Outcome: OutcomeFailed,
	}
}

func (d *Dispatcher) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, io.ErrUnexpectedEOF
	}
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, d.opts.MaxBodyBytes))
}

func (d *Dispatcher) finish(w http.ResponseWriter, r *http.Request, name, op string, start time.Time, res Response) {
	lat := time.Since(start)

	fields := []zap.Field{
		zap.String("requestId", chimd.GetReqID(r.Context())),
		zap.String("connector", name),
		zap.String("operation", op),
		zap.String("outcome", res.Outcome),
		zap.Int("status", res.Status),
		zap.Duration("lat", lat),
	}
	switch res.Outcome {
	case OutcomeFailed, OutcomeUnavailable:
		d.log.Warn("dispatch failed", append(fields, zap.ByteString("error", res.Body))...)
	default:
		d.log.Debug("dispatch", fields...)
	}

	if d.opts.Observer != nil {
		d.opts.Observer.ObserveDispatch(name, op, res.Outcome, lat)
	}
	write(w, res)
}

func write(w http.ResponseWriter, res Response) {
	if res.Status == http.StatusOK {
		w.Header().Set("Content-Type", codec.JSON.ContentType())
		w.WriteHeader(res.Status)
		_, _ = w.Write(res.Body)
		return
	}
	http.Error(w, string(res.Body), res.Status)
}
