package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joeydtaylor/steeze-connect/pkg/codec"
)

// Handler is the typed contract exposed to connector authors.
type Handler[T, U any] func(ctx context.Context, id uint64, params T) (U, error)

// HandlerFunc adapts a handler that does not need the request context.
func HandlerFunc[T, U any](fn func(id uint64, params T) (U, error)) Handler[T, U] {
	return func(_ context.Context, id uint64, params T) (U, error) { return fn(id, params) }
}

// Adapt erases T and U behind an Invoker. The returned closure decodes the
// envelope, checks the embedded operation against operation, runs h and
// encodes its output. It never panics.
func Adapt[T, U any](operation string, h Handler[T, U]) Invoker {
	if h == nil {
		return func(context.Context, []byte) (json.RawMessage, error) {
			return nil, ErrHandlerRequired
		}
	}
	return func(ctx context.Context, raw []byte) (out json.RawMessage, err error) {
		defer func() {
			if r := recover(); r != nil {
				out, err = nil, fmt.Errorf("%w: %s: %v", ErrHandlerPanic, operation, r)
			}
		}()

		id, params, err := codec.DecodeTyped[T](raw, operation)
		if err != nil {
			return nil, err
		}

		res, err := h(ctx, id, params)
		if err != nil {
			return nil, &HandlerError{Err: err}
		}

		b, err := codec.JSON.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOutputEncoding, err)
		}
		return b, nil
	}
}
