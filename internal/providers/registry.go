package providers

import (
	"fmt"
	"strings"
)

type Registry struct {
	adapters map[Family]Adapter
}

// NewRegistry refuses an adapter set that leaves any family uncovered.
func NewRegistry(adapters map[Family]Adapter) (*Registry, error) {
	var missing []string
	for _, f := range Families() {
		if adapters[f] == nil {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no adapter for provider families: %s", strings.Join(missing, ", "))
	}

	copied := make(map[Family]Adapter, len(adapters))
	for f, a := range adapters {
		copied[f] = a
	}
	return &Registry{adapters: copied}, nil
}

func (r *Registry) Adapter(f Family) (Adapter, bool) {
	a, ok := r.adapters[f]
	return a, ok
}
