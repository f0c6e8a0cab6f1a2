package registry

import (
	"fmt"
	"reflect"

	"github.com/zjrosen/camel/internal/tag"
)

// Dumper registers fn as the representer for values of type T.
// T must be a concrete type: values never have an interface as their
// dynamic type, so an interface T would never be dispatched.
func Dumper[T any](r *Registry, name string, version tag.Version, fn func(T) (any, error)) error {
	if r.Frozen() {
		return fmt.Errorf("dumper %s: %w", name, ErrFrozenRegistry)
	}
	if fn == nil {
		return ErrNilFunc
	}
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Interface {
		return fmt.Errorf("dumper %s: %w: %s", name, ErrInterfaceType, typ)
	}
	return r.RegisterDumper(typ, name, version, func(v any) (any, error) {
		typed, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("dumper %s: expected %s, got %T", name, typ, v)
		}
		return fn(typed)
	})
}

// Loader registers fn as the constructor for tag name at version.
func Loader[T any](r *Registry, name string, version tag.Version, fn func(data any, version tag.Version) (T, error)) error {
	if r.Frozen() {
		return fmt.Errorf("loader %s: %w", name, ErrFrozenRegistry)
	}
	if fn == nil {
		return ErrNilFunc
	}
	return r.RegisterLoader(name, version, func(data any, v tag.Version) (any, error) {
		return fn(data, v)
	})
}

// MustDumper is Dumper that panics on error. Useful when building
// package-level registries.
func MustDumper[T any](r *Registry, name string, version tag.Version, fn func(T) (any, error)) {
	if err := Dumper(r, name, version, fn); err != nil {
		panic(err)
	}
}

// MustLoader is Loader that panics on error.
func MustLoader[T any](r *Registry, name string, version tag.Version, fn func(data any, version tag.Version) (T, error)) {
	if err := Loader(r, name, version, fn); err != nil {
		panic(err)
	}
}
