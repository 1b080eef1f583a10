package dispatch

import (
	"fmt"
	"strings"

	"github.com/joeydtaylor/steeze-connect/pkg/connector"
	httpx "github.com/joeydtaylor/steeze-connect/pkg/transport/httpx"
)

// Mode selects where a deployment reads the operation from. One deployment
// uses exactly one mode.
type Mode string

const (
	// ModeDynamic routes POST {prefix}/{name} by params.operation.
	ModeDynamic Mode = "dynamic"
	// ModeStatic mounts POST {prefix}/{name}/{operation} per descriptor.
	ModeStatic Mode = "static"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDynamic:
		return ModeDynamic, nil
	case ModeStatic:
		return ModeStatic, nil
	default:
		return "", fmt.Errorf("dispatch: unknown mode %q", s)
	}
}

// Catalog is what static mounting needs from the registry.
type Catalog interface {
	Resolver
	Descriptors() ([]connector.Descriptor, error)
}

// Mount registers the connector routes on r. Static mode builds the registry
// because it enumerates descriptors up front.
func Mount(r httpx.Router, cat Catalog, mode Mode, d *Dispatcher) error {
	prefix := strings.TrimRight(d.opts.Prefix, "/")
	switch mode {
	case ModeDynamic, "":
		r.Post(prefix+"/{name}", withTimeout(d, d.opts.Timeout))
		return nil
	case ModeStatic:
		descs, err := cat.Descriptors()
		if err != nil {
			return err
		}
		for _, desc := range descs {
			r.Post(prefix+"/"+desc.Name+"/"+desc.Operation, withTimeout(d.StaticHandler(desc), d.opts.Timeout))
		}
		return nil
	default:
		return fmt.Errorf("dispatch: unknown mode %q", mode)
	}
}
