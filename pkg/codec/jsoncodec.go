// pkg/codec/jsoncodec.go
package codec

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

type jsonCodec struct{ api sonic.API }

// JSON is the wire codec for envelopes and handler outputs. Unknown fields are
// ignored so params types only need to declare what they read.
var JSON Codec = jsonCodec{api: sonic.ConfigStd}

func (c jsonCodec) Marshal(v any) ([]byte, error) {
	out, err := c.api.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(out, "\n"), nil
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	if err := c.api.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

func (jsonCodec) ContentType() string { return "application/json" }
