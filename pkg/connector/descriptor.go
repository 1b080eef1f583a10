// Package connector holds the static identity of a connector operation and the
// adapter that turns a typed handler into the uniform Invoker surface the
// registry and dispatcher work with.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Invoker is the type-erased entry point of one (name, operation) pair. raw is
// the complete request envelope. The error text is what the caller sees.
type Invoker func(ctx context.Context, raw []byte) (json.RawMessage, error)

// Key is the composite routing key of a descriptor.
type Key struct {
	Name      string
	Operation string
}

func (k Key) String() string { return k.Name + "/" + k.Operation }

// Descriptor identifies one connector operation. It is never mutated after
// registration.
type Descriptor struct {
	Name      string
	Operation string
	Invoke    Invoker
}

// New builds a descriptor around a typed handler.
func New[T, U any](name, operation string, h Handler[T, U]) Descriptor {
	return Descriptor{
		Name:      name,
		Operation: operation,
		Invoke:    Adapt(operation, h),
	}
}

func (d Descriptor) Key() Key { return Key{Name: d.Name, Operation: d.Operation} }

// Validate rejects descriptors whose name or operation could not be used as a
// single route segment.
func (d Descriptor) Validate() error {
	if err := checkSegment("name", d.Name); err != nil {
		return err
	}
	if err := checkSegment("operation", d.Operation); err != nil {
		return fmt.Errorf("%w (connector %q)", err, d.Name)
	}
	if d.Invoke == nil {
		return fmt.Errorf("%w: invoker required for %s", ErrInvalidDescriptor, d.Key())
	}
	return nil
}

// reservedChars would change the meaning of a chi route pattern.
const reservedChars = "/{}*"

func checkSegment(field, v string) error {
	switch {
	case strings.TrimSpace(v) == "":
		return fmt.Errorf("%w: %s required", ErrInvalidDescriptor, field)
	case strings.TrimSpace(v) != v:
		return fmt.Errorf("%w: %s %q has surrounding whitespace", ErrInvalidDescriptor, field, v)
	case strings.ContainsAny(v, reservedChars):
		return fmt.Errorf("%w: %s %q contains one of %q", ErrInvalidDescriptor, field, v, reservedChars)
	}
	return nil
}
