package codec

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/camel/internal/bridge"
	"github.com/zjrosen/camel/internal/log"
	"github.com/zjrosen/camel/internal/tracing"
)

// Core tags the engine resolves itself.
const (
	strTag       = "!!str"
	intTag       = "!!int"
	floatTag     = "!!float"
	boolTag      = "!!bool"
	nullTag      = "!!null"
	mapTag       = "!!map"
	seqTag       = "!!seq"
	timestampTag = "!!timestamp"
	binaryTag    = "!!binary"
	mergeTag     = "!!merge"
)

var coreTags = map[string]bool{
	"":           true,
	strTag:       true,
	intTag:       true,
	floatTag:     true,
	boolTag:      true,
	nullTag:      true,
	mapTag:       true,
	seqTag:       true,
	timestampTag: true,
	binaryTag:    true,
	mergeTag:     true,
}

// maxDepth bounds nesting while dumping, catching representers that keep
// returning values of their own type.
const maxDepth = 512

// dumper walks a value tree for a single Dump call.
type dumper struct {
	ctx      context.Context
	c        *Codec
	depth    int
	visiting map[visit]bool // maps, slices and pointers on the current path
}

type visit struct {
	ptr uintptr
	len int
	typ reflect.Type
}

func newDumper(ctx context.Context, c *Codec) *dumper {
	return &dumper{ctx: ctx, c: c, visiting: map[visit]bool{}}
}

func (d *dumper) represent(v any) (*yaml.Node, error) {
	if v == nil {
		return nullNode(), nil
	}
	typ := reflect.TypeOf(v)

	d.depth++
	defer func() { d.depth-- }()
	if d.depth > maxDepth {
		return nil, fmt.Errorf("%w: %s nested deeper than %d levels", ErrUnsupportedType, typ, maxDepth)
	}

	entry, found, err := d.c.resolver.DumperFor(typ, d.c.locks)
	if err != nil {
		return nil, err
	}
	if !found {
		return d.builtin(v)
	}

	text := entry.Tag.String()
	_, locked := d.c.locks[typ]
	trace.SpanFromContext(d.ctx).AddEvent(tracing.EventRepresenterInvoked, trace.WithAttributes(
		attribute.String(tracing.AttrType, typ.String()),
		attribute.String(tracing.AttrTag, text),
		attribute.Bool(tracing.AttrLocked, locked),
	))
	log.Debug(log.CatDump, "dumper selected", "type", typ, "tag", text, "locked", locked)

	canonical, err := entry.Represent(v)
	if err != nil {
		return nil, fmt.Errorf("representing %s as %s: %w", typ, text, err)
	}
	n, err := bridge.ToNode(text, canonical, d.represent)
	if err != nil {
		return nil, fmt.Errorf("dumping %s: %w", typ, err)
	}
	return n, nil
}

// enter marks a map, slice or pointer as being dumped. It fails when the
// value is already on the current path, i.e. it contains itself.
func (d *dumper) enter(rv reflect.Value) (func(), error) {
	ptr := rv.Pointer()
	if ptr == 0 {
		return func() {}, nil
	}
	key := visit{ptr: ptr, typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if d.visiting[key] {
		return nil, fmt.Errorf("%w: %s contains itself", ErrUnsupportedType, rv.Type())
	}
	d.visiting[key] = true
	return func() { delete(d.visiting, key) }, nil
}

// builtin represents values that no registry claims.
func (d *dumper) builtin(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: timestampTag, Value: t.Format(time.RFC3339Nano)}, nil
	case []byte:
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   binaryTag,
			Value: base64.StdEncoding.EncodeToString(t),
			Style: yaml.LiteralStyle,
		}, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nullNode(), nil
		}
		leave, err := d.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		return d.represent(rv.Elem().Interface())

	case reflect.Float32, reflect.Float64:
		return floatNode(rv.Float(), rv.Type().Bits()), nil

	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return n, nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			leave, err := d.enter(rv)
			if err != nil {
				return nil, err
			}
			defer leave()
		}
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: seqTag}
		for i := range rv.Len() {
			en, err := d.represent(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("%s item %d: %w", rv.Type(), i, err)
			}
			n.Content = append(n.Content, en)
		}
		return n, nil

	case reflect.Map:
		leave, err := d.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return compareKeys(a.Interface(), b.Interface())
		})
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: mapTag}
		for _, k := range keys {
			kn, err := d.represent(k.Interface())
			if err != nil {
				return nil, fmt.Errorf("%s key %v: %w", rv.Type(), k, err)
			}
			vn, err := d.represent(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, fmt.Errorf("%s value for %v: %w", rv.Type(), k, err)
			}
			n.Content = append(n.Content, kn, vn)
		}
		return n, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}

// floatNode renders f so it reads back as a float: whole values keep a
// trailing ".0".
func floatNode(f float64, bits int) *yaml.Node {
	var text string
	switch {
	case math.IsInf(f, 1):
		text = ".inf"
	case math.IsInf(f, -1):
		text = "-.inf"
	case math.IsNaN(f):
		text = ".nan"
	default:
		text = strconv.FormatFloat(f, 'g', -1, bits)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: floatTag, Value: text}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: nullTag, Value: "null"}
}
