package codec

import (
	"fmt"
	"slices"

	"github.com/zjrosen/camel/internal/bridge"
	"github.com/zjrosen/camel/internal/registry"
	"github.com/zjrosen/camel/internal/tag"
)

// Set is an unordered collection, dumped as !!set.
type Set map[any]struct{}

// NewSet returns a Set holding items. Items must be comparable.
func NewSet(items ...any) (Set, error) {
	s := make(Set, len(items))
	for _, it := range items {
		if !hashable(it) {
			return nil, fmt.Errorf("%w: set member of type %T is not comparable", ErrMalformed, it)
		}
		s[it] = struct{}{}
	}
	return s, nil
}

// Has reports whether v is a member.
func (s Set) Has(v any) bool {
	if !hashable(v) {
		return false
	}
	_, ok := s[v]
	return ok
}

// StandardTypes holds the YAML standard collection types. Every Codec
// composes it first.
var StandardTypes = newStandardTypes()

func newStandardTypes() *registry.Registry {
	r := registry.New("standard")

	omap := tag.Standard("omap")
	registry.MustDumper(r, omap, tag.None, representOrderedMap)
	registry.MustLoader(r, omap, tag.None, constructOrderedMap)

	set := tag.Standard("set")
	registry.MustDumper(r, set, tag.None, representSet)
	registry.MustLoader(r, set, tag.None, constructSet)

	r.Freeze()
	return r
}

// representOrderedMap writes an ordered mapping as a sequence of
// single-pair mappings.
func representOrderedMap(m bridge.Mapping) (any, error) {
	pairs := make([]any, 0, len(m))
	for _, it := range m {
		if !hashable(it.Key) {
			return nil, fmt.Errorf("%w: omap key of type %T is not comparable", ErrMalformed, it.Key)
		}
		pairs = append(pairs, map[any]any{it.Key: it.Value})
	}
	return pairs, nil
}

func constructOrderedMap(data any, _ tag.Version) (bridge.Mapping, error) {
	seq, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: !!omap wants a sequence, got %T", ErrMalformed, data)
	}
	out := make(bridge.Mapping, 0, len(seq))
	for i, entry := range seq {
		it, ok := singlePair(entry)
		if !ok {
			return nil, fmt.Errorf("%w: !!omap entry %d is not a single-pair mapping", ErrMalformed, i)
		}
		out = append(out, it)
	}
	return out, nil
}

func singlePair(v any) (bridge.Item, bool) {
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			return bridge.Item{Key: k, Value: val}, len(m) == 1
		}
	case map[any]any:
		for k, val := range m {
			return bridge.Item{Key: k, Value: val}, len(m) == 1
		}
	case bridge.Mapping:
		if len(m) == 1 {
			return m[0], true
		}
	}
	return bridge.Item{}, false
}

func representSet(s Set) (any, error) {
	out := make(bridge.Mapping, 0, len(s))
	for k := range s {
		out = append(out, bridge.Item{Key: k})
	}
	slices.SortFunc(out, func(a, b bridge.Item) int { return compareKeys(a.Key, b.Key) })
	return out, nil
}

func constructSet(data any, _ tag.Version) (Set, error) {
	m, ok := data.(bridge.Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: !!set wants a mapping, got %T", ErrMalformed, data)
	}
	return NewSet(m.Keys()...)
}
