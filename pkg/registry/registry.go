// Package registry collects connector descriptors and freezes them into the
// lookup table the dispatcher reads.
//
// Descriptors are registered during an explicit bootstrap phase. The first
// lookup (or an explicit Build) turns the pending set into a read-only table
// exactly once; registering afterwards is an error.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/joeydtaylor/steeze-connect/pkg/connector"
)

var (
	ErrDuplicateRegistration = errors.New("registry: duplicate registration")
	ErrUnsupportedOperation  = errors.New("registry: unsupported operation")
	ErrRegistryFrozen        = errors.New("registry: table already built")
)

// Default is the process-wide registry.
var Default = New()

type Registry struct {
	mu      sync.Mutex
	pending []connector.Descriptor
	frozen  bool

	once     sync.Once
	table    map[connector.Key]connector.Invoker
	sorted   []connector.Descriptor
	buildErr error
}

func New() *Registry { return &Registry{} }

// Register appends d to the pending set. Safe for concurrent use.
func (r *Registry) Register(d connector.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, d.Key())
	}
	r.pending = append(r.pending, d)
	return nil
}

func (r *Registry) MustRegister(d connector.Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Build consumes the pending set. It runs once; later calls return the first
// result. Duplicate keys fail the build and leave the registry unusable.
func (r *Registry) Build() error {
	r.once.Do(r.build)
	return r.buildErr
}

func (r *Registry) build() {
	r.mu.Lock()
	r.frozen = true
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	table := make(map[connector.Key]connector.Invoker, len(pending))
	counts := make(map[connector.Key]int, len(pending))
	for _, d := range pending {
		counts[d.Key()]++
		table[d.Key()] = d.Invoke
	}

	var dups []string
	for k, n := range counts {
		if n > 1 {
			dups = append(dups, fmt.Sprintf("%s (%d registrations)", k, n))
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		r.buildErr = fmt.Errorf("%w: %s", ErrDuplicateRegistration, strings.Join(dups, ", "))
		return
	}

	sorted := append([]connector.Descriptor(nil), pending...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Operation < sorted[j].Operation
	})

	r.table = table
	r.sorted = sorted
}

// Lookup resolves (name, operation), building the table on first use.
func (r *Registry) Lookup(name, operation string) (connector.Invoker, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	inv, ok := r.table[connector.Key{Name: name, Operation: operation}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedOperation, name, operation)
	}
	return inv, nil
}

// Descriptors returns the built table ordered by name, then operation.
func (r *Registry) Descriptors() ([]connector.Descriptor, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return append([]connector.Descriptor(nil), r.sorted...), nil
}
