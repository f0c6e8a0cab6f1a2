package codec

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/zjrosen/camel/internal/bridge"
	"github.com/zjrosen/camel/internal/registry"
	"github.com/zjrosen/camel/internal/tag"
)

// Tuple is a fixed sequence, distinct from a plain []any when dumped.
type Tuple []any

// Namespace is a bag of named attributes.
type Namespace map[string]any

// FrozenSet is an immutable set, dumped as a sorted sequence.
type FrozenSet struct {
	items map[any]struct{}
}

// NewFrozenSet returns a FrozenSet of items. Items must be comparable.
func NewFrozenSet(items ...any) (FrozenSet, error) {
	s, err := NewSet(items...)
	if err != nil {
		return FrozenSet{}, err
	}
	return FrozenSet{items: s}, nil
}

func (f FrozenSet) Len() int { return len(f.items) }

func (f FrozenSet) Has(v any) bool { return Set(f.items).Has(v) }

// Items returns the members in key order.
func (f FrozenSet) Items() []any {
	return slices.SortedFunc(maps.Keys(f.items), compareKeys)
}

// ExtendedTypes holds tuples, complex numbers, frozen sets and namespaces.
// Codecs only load these tags when it is composed.
var ExtendedTypes = newExtendedTypes()

func newExtendedTypes() *registry.Registry {
	r := registry.New("extended")

	tuple := tag.Standard("tuple")
	registry.MustDumper(r, tuple, tag.None, func(t Tuple) (any, error) {
		return []any(t), nil
	})
	registry.MustLoader(r, tuple, tag.None, func(data any, _ tag.Version) (Tuple, error) {
		seq, ok := data.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: !!tuple wants a sequence, got %T", ErrMalformed, data)
		}
		return Tuple(seq), nil
	})

	cplx := tag.Standard("complex")
	registry.MustDumper(r, cplx, tag.None, func(c complex128) (any, error) {
		s := strconv.FormatComplex(c, 'g', -1, 128)
		return strings.TrimSuffix(strings.TrimPrefix(s, "("), ")"), nil
	})
	registry.MustLoader(r, cplx, tag.None, func(data any, _ tag.Version) (complex128, error) {
		s, ok := data.(string)
		if !ok {
			return 0, fmt.Errorf("%w: !!complex wants a scalar, got %T", ErrMalformed, data)
		}
		c, err := strconv.ParseComplex(strings.TrimSpace(s), 128)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return c, nil
	})

	frozen := tag.Standard("frozenset")
	registry.MustDumper(r, frozen, tag.None, func(f FrozenSet) (any, error) {
		return f.Items(), nil
	})
	registry.MustLoader(r, frozen, tag.None, func(data any, _ tag.Version) (FrozenSet, error) {
		seq, ok := data.([]any)
		if !ok {
			return FrozenSet{}, fmt.Errorf("%w: !!frozenset wants a sequence, got %T", ErrMalformed, data)
		}
		return NewFrozenSet(seq...)
	})

	ns := tag.Standard("namespace")
	registry.MustDumper(r, ns, tag.None, func(n Namespace) (any, error) {
		return map[string]any(n), nil
	})
	registry.MustLoader(r, ns, tag.None, constructNamespace)

	r.Freeze()
	return r
}

func constructNamespace(data any, _ tag.Version) (Namespace, error) {
	m, ok := data.(bridge.Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: !!namespace wants a mapping, got %T", ErrMalformed, data)
	}
	out := make(Namespace, len(m))
	for _, it := range m {
		k, ok := it.Key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: !!namespace key %v is not a string", ErrMalformed, it.Key)
		}
		out[k] = it.Value
	}
	return out, nil
}
