// Package bridge converts between yaml.v3 nodes and canonical values.
//
// A canonical value is exactly one of:
//   - an ordered mapping: Mapping, or map[string]any (emitted with sorted keys)
//   - a sequence: []any
//   - a primitive scalar: string, bool, any integer or float kind, or nil
//
// Container children are not converted here. Both directions take a callback
// that the codec uses to represent or construct each child, so nested custom
// types are resolved bottom-up.
package bridge

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Bridge errors
var (
	ErrDumpType     = errors.New("representer returned a non-canonical value")
	ErrNotPrimitive = errors.New("not a primitive node")
)

// RepresentFunc turns a child value into a node.
type RepresentFunc func(v any) (*yaml.Node, error)

// ConstructFunc turns a child node into a value.
type ConstructFunc func(n *yaml.Node) (any, error)

// Item is one key/value pair of a Mapping.
type Item struct {
	Key   any
	Value any
}

// Mapping is an insertion-ordered mapping.
type Mapping []Item

// Get returns the value of the first item whose key equals key.
func (m Mapping) Get(key any) (any, bool) {
	if !isComparable(key) {
		return nil, false
	}
	for _, it := range m {
		if isComparable(it.Key) && it.Key == key {
			return it.Value, true
		}
	}
	return nil, false
}

func isComparable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

// Keys returns the keys in order.
func (m Mapping) Keys() []any {
	keys := make([]any, len(m))
	for i, it := range m {
		keys[i] = it.Key
	}
	return keys
}

// ToNode converts a canonical value into a node carrying tagText. Children are
// represented with child. A value outside the canonical shapes fails with
// ErrDumpType.
func ToNode(tagText string, canonical any, child RepresentFunc) (*yaml.Node, error) {
	switch v := canonical.(type) {
	case Mapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: tagText, Style: yaml.TaggedStyle}
		for _, it := range v {
			if err := appendPair(n, it.Key, it.Value, child); err != nil {
				return nil, err
			}
		}
		return n, nil

	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: tagText, Style: yaml.TaggedStyle}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := appendPair(n, k, v[k], child); err != nil {
				return nil, err
			}
		}
		return n, nil

	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: tagText, Style: yaml.TaggedStyle}
		for i, elem := range v {
			en, err := child(elem)
			if err != nil {
				return nil, fmt.Errorf("sequence item %d: %w", i, err)
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	}

	text, ok := scalarText(canonical)
	if !ok {
		return nil, fmt.Errorf("%w: tag %s got %T", ErrDumpType, tagText, canonical)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagText, Style: yaml.TaggedStyle, Value: text}, nil
}

func appendPair(n *yaml.Node, key, value any, child RepresentFunc) error {
	kn, err := child(key)
	if err != nil {
		return fmt.Errorf("mapping key %v: %w", key, err)
	}
	vn, err := child(value)
	if err != nil {
		return fmt.Errorf("mapping value for %v: %w", key, err)
	}
	n.Content = append(n.Content, kn, vn)
	return nil
}

// scalarText renders a primitive scalar the way it reads in YAML.
func scalarText(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "null", true
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	case int:
		return strconv.FormatInt(int64(s), 10), true
	case int8:
		return strconv.FormatInt(int64(s), 10), true
	case int16:
		return strconv.FormatInt(int64(s), 10), true
	case int32:
		return strconv.FormatInt(int64(s), 10), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case uint:
		return strconv.FormatUint(uint64(s), 10), true
	case uint8:
		return strconv.FormatUint(uint64(s), 10), true
	case uint16:
		return strconv.FormatUint(uint64(s), 10), true
	case uint32:
		return strconv.FormatUint(uint64(s), 10), true
	case uint64:
		return strconv.FormatUint(s, 10), true
	case float32:
		return floatText(float64(s), 32), true
	case float64:
		return floatText(s, 64), true
	}
	return "", false
}

func floatText(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

// FromNode converts a node into its canonical value: Mapping for mapping
// nodes, []any for sequences and the raw string for scalars. Numeric and
// boolean coercion of scalars is left to the caller. Keys and values are
// constructed with child.
func FromNode(n *yaml.Node, child ConstructFunc) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for i, en := range n.Content {
			v, err := child(en)
			if err != nil {
				return nil, fmt.Errorf("sequence item %d: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		if len(n.Content)%2 != 0 {
			return nil, fmt.Errorf("%w: mapping at line %d has odd content", ErrNotPrimitive, n.Line)
		}
		out := make(Mapping, 0, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			k, err := child(n.Content[i])
			if err != nil {
				return nil, fmt.Errorf("mapping key at line %d: %w", n.Content[i].Line, err)
			}
			v, err := child(n.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("mapping value for %v: %w", k, err)
			}
			out = append(out, Item{Key: k, Value: v})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s at line %d", ErrNotPrimitive, KindName(n.Kind), n.Line)
}

// KindName names a node kind for diagnostics.
func KindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}
