package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

// Factory builds an unconnected adapter. A nil logger discards output.
type Factory func(logger *slog.Logger) Adapter

// ErrNoType is returned by NewAdapter when the config names no adapter.
var ErrNoType = errors.New("adapter type not specified")

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register makes an adapter available under name, matched without regard
// to case. Adapters call it from init; registering a name twice panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	key := normalize(name)
	if _, dup := factories[key]; dup {
		panic("adapter: Register called twice for " + key)
	}
	factories[key] = f
}

// Get returns the factory registered under name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[normalize(name)]
	return f, ok
}

// IsRegistered reports whether an adapter is registered under name.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// ListAdapters returns the registered names in sorted order.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(factories))
}

// NewAdapter builds the adapter cfg.Type names. It does not connect.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if normalize(cfg.Type) == "" {
		return nil, ErrNoType
	}
	f, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	return f(logger), nil
}

// UnknownAdapterError reports a target type no adapter is registered for.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q (available: %s); check target.type in leapxmla.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
