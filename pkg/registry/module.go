package registry

import (
	"fmt"
	"strings"
)

// Module is implemented by every connector package compiled into a binary.
// Register makes plain Register calls; it must not depend on other modules.
type Module interface {
	Name() string
	Register(r *Registry) error
}

// Bootstrap registers every module accepted by enabled, in slice order. A nil
// enabled accepts all modules. Module names must be unique.
func Bootstrap(r *Registry, modules []Module, enabled func(name string) bool) error {
	seen := make(map[string]struct{}, len(modules))
	for i, m := range modules {
		if m == nil {
			return fmt.Errorf("registry: module %d is nil", i)
		}
		name := strings.TrimSpace(m.Name())
		if name == "" {
			return fmt.Errorf("registry: module %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("registry: module %q listed twice", name)
		}
		seen[name] = struct{}{}

		if enabled != nil && !enabled(name) {
			continue
		}
		if err := m.Register(r); err != nil {
			return fmt.Errorf("registry: module %q: %w", name, err)
		}
	}
	return nil
}
