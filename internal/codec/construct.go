package codec

import (
	"context"
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/camel/internal/bridge"
	"github.com/zjrosen/camel/internal/log"
	"github.com/zjrosen/camel/internal/registry"
	"github.com/zjrosen/camel/internal/tracing"
)

// loader walks the node tree of one document.
type loader struct {
	ctx       context.Context
	c         *Codec
	expanding map[*yaml.Node]bool // aliases currently being followed
}

func newLoader(ctx context.Context, c *Codec) *loader {
	return &loader{ctx: ctx, c: c, expanding: map[*yaml.Node]bool{}}
}

func (l *loader) construct(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return l.construct(n.Content[0])

	case yaml.AliasNode:
		if l.expanding[n.Alias] {
			return nil, fmt.Errorf("%w: alias *%s at line %d refers to itself", ErrFormat, n.Value, n.Line)
		}
		l.expanding[n.Alias] = true
		defer delete(l.expanding, n.Alias)
		return l.construct(n.Alias)
	}

	if coreTags[n.Tag] {
		return l.builtin(n)
	}
	return l.tagged(n)
}

// tagged resolves an explicit application tag and runs its constructor on
// the already-loaded children.
func (l *loader) tagged(n *yaml.Node) (any, error) {
	span := trace.SpanFromContext(l.ctx)

	// Verbatim and %TAG-expanded tags arrive as global URIs; no registry
	// names those.
	if !strings.HasPrefix(n.Tag, "!") {
		return nil, fmt.Errorf("line %d: %w: %s", n.Line, registry.ErrUnknownTag, n.Tag)
	}

	t, err := l.c.parseTag(l.ctx, n.Tag)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	span.AddEvent(tracing.EventTagParsed, trace.WithAttributes(attribute.String(tracing.AttrTag, t.String())))

	entry, err := l.c.resolver.LoaderFor(t)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	span.AddEvent(tracing.EventVersionMatched, trace.WithAttributes(
		attribute.String(tracing.AttrTag, t.String()),
		attribute.String(tracing.AttrVersion, entry.Tag.Version.String()),
	))
	log.Debug(log.CatLoad, "loader selected", "tag", t, "entry", entry.Tag.Version)

	canonical, err := bridge.FromNode(n, l.construct)
	if err != nil {
		return nil, err
	}

	v, err := entry.Construct(canonical, t.Version)
	span.AddEvent(tracing.EventConstructorInvoked, trace.WithAttributes(
		attribute.String(tracing.AttrTag, t.String()),
		attribute.Bool(tracing.AttrFailed, err != nil),
	))
	if err != nil {
		return nil, fmt.Errorf("constructing %s at line %d: %w", t, n.Line, err)
	}
	return v, nil
}

// builtin loads untagged nodes and nodes carrying core tags.
func (l *loader) builtin(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return decodeScalar(n)

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, en := range n.Content {
			v, err := l.construct(en)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		return l.mapping(n)
	}
	return nil, fmt.Errorf("%w: %s at line %d", bridge.ErrNotPrimitive, bridge.KindName(n.Kind), n.Line)
}

// mapping loads a plain mapping as map[string]any, switching to map[any]any
// once a key that is not a string shows up. Merge keys ("<<") splice in the
// merged mappings without overriding keys given explicitly; with a sequence
// of mappings, earlier ones take precedence.
func (l *loader) mapping(n *yaml.Node) (any, error) {
	m := plainMap{str: make(map[string]any, len(n.Content)/2)}
	var merges []*yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if kn.Kind == yaml.ScalarNode && kn.Tag == mergeTag {
			merges = append(merges, vn)
			continue
		}

		k, err := l.construct(kn)
		if err != nil {
			return nil, err
		}
		v, err := l.construct(vn)
		if err != nil {
			return nil, err
		}
		if err := m.set(k, v, kn.Line); err != nil {
			return nil, err
		}
	}

	for _, vn := range merges {
		if err := l.merge(&m, vn); err != nil {
			return nil, err
		}
	}
	return m.value(), nil
}

// merge adds the keys of the mapping, or sequence of mappings, at n to m
// unless m already has them.
func (l *loader) merge(m *plainMap, n *yaml.Node) error {
	src, err := l.construct(n)
	if err != nil {
		return err
	}

	sources := []any{src}
	if seq, ok := src.([]any); ok {
		sources = seq
	}
	for _, s := range sources {
		switch mm := s.(type) {
		case map[string]any:
			for k, v := range mm {
				if !m.has(k) {
					if err := m.set(k, v, n.Line); err != nil {
						return err
					}
				}
			}
		case map[any]any:
			for k, v := range mm {
				if !m.has(k) {
					if err := m.set(k, v, n.Line); err != nil {
						return err
					}
				}
			}
		default:
			return fmt.Errorf("%w: merge value at line %d must be a mapping or a sequence of mappings, got %T",
				ErrFormat, n.Line, s)
		}
	}
	return nil
}

// plainMap accumulates an untagged mapping.
type plainMap struct {
	str  map[string]any
	keys map[any]any // non-nil once a key that is not a string appears
}

func (m *plainMap) set(k, v any, line int) error {
	if m.keys == nil {
		if s, ok := k.(string); ok {
			m.str[s] = v
			return nil
		}
		m.keys = make(map[any]any, len(m.str)+1)
		for sk, sv := range m.str {
			m.keys[sk] = sv
		}
	}
	if !hashable(k) {
		return fmt.Errorf("%w: mapping key of type %T at line %d cannot be a map key",
			ErrUnsupportedType, k, line)
	}
	m.keys[k] = v
	return nil
}

func (m *plainMap) has(k any) bool {
	if m.keys != nil {
		if !hashable(k) {
			return false
		}
		_, ok := m.keys[k]
		return ok
	}
	s, ok := k.(string)
	if !ok {
		return false
	}
	_, ok = m.str[s]
	return ok
}

func (m *plainMap) value() any {
	if m.keys != nil {
		return m.keys
	}
	return m.str
}

func decodeScalar(n *yaml.Node) (any, error) {
	switch n.Tag {
	case timestampTag:
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return t, nil
	case binaryTag:
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("%w: !!binary at line %d: %w", ErrFormat, n.Line, err)
		}
		return data, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return v, nil
}

func hashable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}
