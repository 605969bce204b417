package factory

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ErrUnknownType is returned by Create for a type nobody registered.
var ErrUnknownType = errors.New("unknown module type")

// ModuleConfig is one entry of a config list such as metrics.sinks:
//
//	- type: influx
//	  conf: {url: http://localhost:8086, bucket: svitlo}
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory turns the conf block of a ModuleConfig into a T.
type Factory[T any] func(conf map[string]any) (T, error)

// Registry holds the factories of one module kind. Type names are matched
// case-insensitively, so "Prometheus" and "prometheus" are the same sink.
type Registry[T any] struct {
	mu     sync.RWMutex
	byType map[string]Factory[T]
}

// NewRegistry returns a registry with nothing registered.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{byType: map[string]Factory[T]{}}
}

// Register binds name to f. Registering a name twice is an error.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	if f == nil {
		return fmt.Errorf("register %q: nil factory", name)
	}
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byType[key]; dup {
		return fmt.Errorf("register %q: type already taken", name)
	}
	r.byType[key] = f
	return nil
}

// Names lists the registered types, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byType))
	for n := range r.byType {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Create runs the factory registered for cfg.Type.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	r.mu.RLock()
	f, ok := r.byType[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w %q (known: %s)", ErrUnknownType, cfg.Type, strings.Join(r.Names(), ", "))
	}
	return f(cfg.Conf)
}

// Decode copies a conf block into out, matching json tags. Values coming
// from environment overrides arrive as strings and are converted to the
// field's type.
func Decode(conf map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("decode conf: %w", err)
	}
	return dec.Decode(conf)
}
