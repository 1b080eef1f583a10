// pkg/codec/envelope.go
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrOperationMismatch = errors.New("operation mismatch")
)

// peekEnvelope only declares the routing field; everything else is skipped.
type peekEnvelope struct {
	Params *struct {
		Operation *string `json:"operation"`
	} `json:"params"`
}

// PeekOperation extracts params.operation without knowing the operation's schema.
func PeekOperation(raw []byte) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", fmt.Errorf("%w: empty body", ErrMalformedEnvelope)
	}
	var env peekEnvelope
	if err := JSON.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Params == nil {
		return "", fmt.Errorf("%w: missing params", ErrMalformedEnvelope)
	}
	if env.Params.Operation == nil {
		return "", fmt.Errorf("%w: missing params.operation", ErrMalformedEnvelope)
	}
	return *env.Params.Operation, nil
}

type rawEnvelope struct {
	ID     *uint64         `json:"id"`
	Params json.RawMessage `json:"params"`
}

// DecodeTyped decodes the full envelope into T. When params carries an
// operation it must equal operation; an absent one is accepted because
// path-routed requests do not repeat it.
func DecodeTyped[T any](raw []byte, operation string) (uint64, T, error) {
	var zero T

	var env rawEnvelope
	if err := JSON.Unmarshal(raw, &env); err != nil {
		return 0, zero, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if env.ID == nil {
		return 0, zero, fmt.Errorf("%w: missing field id", ErrSchemaMismatch)
	}
	params := bytes.TrimSpace(env.Params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		return 0, zero, fmt.Errorf("%w: missing field params", ErrSchemaMismatch)
	}

	var fields map[string]json.RawMessage
	if err := JSON.Unmarshal(params, &fields); err != nil {
		return 0, zero, fmt.Errorf("%w: params must be an object", ErrSchemaMismatch)
	}
	if opRaw, ok := fields["operation"]; ok {
		var op string
		if err := JSON.Unmarshal(opRaw, &op); err != nil {
			return 0, zero, fmt.Errorf("%w: params.operation must be a string", ErrSchemaMismatch)
		}
		if op != operation {
			return 0, zero, fmt.Errorf("%w: envelope names %q, route expects %q", ErrOperationMismatch, op, operation)
		}
	}

	if missing := missingFields(RequiredFields(reflect.TypeOf(zero)), fields); len(missing) > 0 {
		return 0, zero, fmt.Errorf("%w: missing field(s) %v", ErrSchemaMismatch, missing)
	}

	var out T
	if err := JSON.Unmarshal(params, &out); err != nil {
		return 0, zero, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return *env.ID, out, nil
}

func missingFields(required []string, present map[string]json.RawMessage) []string {
	var missing []string
	for _, name := range required {
		v, ok := present[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
