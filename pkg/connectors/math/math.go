// Package math is the reference connector: unsigned add and sub under the
// "math" name.
package math

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/joeydtaylor/steeze-connect/pkg/connector"
	"github.com/joeydtaylor/steeze-connect/pkg/registry"
	"go.uber.org/zap"
)

const Name = "math"

type Input struct {
	A uint64 `json:"a"`
	B uint64 `json:"b"`
}

type Output struct {
	Result uint64 `json:"result"`
}

// ErrUnderflow is returned by sub when b > a. Results never wrap.
var ErrUnderflow = errors.New("subtraction underflow")

// ErrOverflow is returned by add when a+b does not fit in a uint64.
var ErrOverflow = errors.New("addition overflow")

// Module registers the math operations. Log may be nil.
type Module struct {
	Log *zap.Logger
}

// New returns the math module logging each call to log.
func New(log *zap.Logger) registry.Module { return Module{Log: log} }

func (Module) Name() string { return Name }

func (m Module) Register(r *registry.Registry) error {
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}
	for _, d := range []connector.Descriptor{
		connector.New(Name, "add", traced(log, "add", Add)),
		connector.New(Name, "sub", traced(log, "sub", Sub)),
	} {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func Add(_ context.Context, _ uint64, in Input) (Output, error) {
	sum, carry := bits.Add64(in.A, in.B, 0)
	if carry != 0 {
		return Output{}, fmt.Errorf("%w: %d + %d", ErrOverflow, in.A, in.B)
	}
	return Output{Result: sum}, nil
}

func Sub(_ context.Context, _ uint64, in Input) (Output, error) {
	diff, borrow := bits.Sub64(in.A, in.B, 0)
	if borrow != 0 {
		return Output{}, fmt.Errorf("%w: %d - %d", ErrUnderflow, in.A, in.B)
	}
	return Output{Result: diff}, nil
}

func traced(log *zap.Logger, op string, h connector.Handler[Input, Output]) connector.Handler[Input, Output] {
	return func(ctx context.Context, id uint64, in Input) (Output, error) {
		log.Info("math", zap.String("operation", op), zap.Uint64("id", id), zap.Uint64("a", in.A), zap.Uint64("b", in.B))
		return h(ctx, id, in)
	}
}
