package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/camel/internal/cachemanager"
	"github.com/zjrosen/camel/internal/log"
	"github.com/zjrosen/camel/internal/registry"
	"github.com/zjrosen/camel/internal/resolver"
	"github.com/zjrosen/camel/internal/tag"
	"github.com/zjrosen/camel/internal/tracing"
)

// Codec errors
var (
	ErrFormat            = errors.New("yaml format error")
	ErrMultipleDocuments = errors.New("input contains more than one document")
	ErrUnsupportedType   = errors.New("no dumper or built-in representation for type")
	ErrMalformed         = errors.New("node does not have the shape its tag requires")
)

const (
	defaultIndent = 2
	endMarker     = "...\n"
)

// Codec dumps and loads documents through an ordered list of registries.
type Codec struct {
	resolver  *resolver.Resolver
	locks     resolver.LockTable
	indent    int
	endMarker bool
	tracer    trace.Tracer
	tagCache  cachemanager.CacheManager[string, tag.Tag]
	tags      *cachemanager.ReadThroughCache[string, tag.Tag, string]
}

// Option configures a Codec.
type Option func(*Codec)

// WithIndent sets the number of spaces per nesting level.
func WithIndent(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.indent = n
		}
	}
}

// WithTracer records a span per Dump/Load call on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Codec) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithTagCache replaces the private cache of parsed tag text.
func WithTagCache(cache cachemanager.CacheManager[string, tag.Tag]) Option {
	return func(c *Codec) {
		c.tagCache = cache
	}
}

// WithoutDocumentEndMarker stops the codec from closing open-ended scalar
// documents with "...".
func WithoutDocumentEndMarker() Option {
	return func(c *Codec) {
		c.endMarker = false
	}
}

// New returns a Codec over StandardTypes followed by registries, in order.
// Later registries win ties during resolution.
func New(registries []*registry.Registry, opts ...Option) *Codec {
	c := &Codec{
		locks:     resolver.LockTable{},
		indent:    defaultIndent,
		endMarker: true,
		tracer:    noop.NewTracerProvider().Tracer("camel"),
		tagCache:  cachemanager.NewInMemoryCacheManager[string, tag.Tag]("tags", cachemanager.NoExpiration, cachemanager.NoCleanup),
	}
	for _, opt := range opts {
		opt(c)
	}

	composed := make([]*registry.Registry, 0, len(registries)+1)
	composed = append(composed, StandardTypes)
	composed = append(composed, registries...)
	c.resolver = resolver.New(composed...)

	c.tags = cachemanager.NewReadThroughCache(c.tagCache, func(_ context.Context, text string) (tag.Tag, error) {
		return tag.Parse(text)
	}, false)
	return c
}

// Registries returns the composed registries, StandardTypes first.
func (c *Codec) Registries() []*registry.Registry {
	return c.resolver.Registries()
}

// LockVersion pins the version dumped for values of exactly typ. The lock is
// checked when dumping: a version with no dumper then fails with
// registry.ErrUnknownVersion. Locking to tag.None selects the unversioned
// dumper. Loading is unaffected.
func (c *Codec) LockVersion(typ reflect.Type, version tag.Version) error {
	if typ == nil {
		return registry.ErrNilType
	}
	if version.IsAny() {
		return fmt.Errorf("lock %s: %w: cannot lock to any version", typ, tag.ErrInvalidVersion)
	}
	if err := version.Validate(); err != nil {
		return fmt.Errorf("lock %s: %w", typ, err)
	}
	c.locks[typ] = version
	log.Debug(log.CatDump, "version locked", "type", typ, "version", version)
	return nil
}

// Unlock removes a lock set with LockVersion.
func (c *Codec) Unlock(typ reflect.Type) {
	delete(c.locks, typ)
}

// Lock is LockVersion for the type parameter.
func Lock[T any](c *Codec, version tag.Version) error {
	return c.LockVersion(reflect.TypeFor[T](), version)
}

// Dump renders v as a single YAML document.
func (c *Codec) Dump(v any) (string, error) {
	return c.DumpContext(context.Background(), v)
}

// DumpContext is Dump with the span parented to ctx.
func (c *Codec) DumpContext(ctx context.Context, v any) (string, error) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanDump,
		trace.WithAttributes(attribute.String(tracing.AttrType, typeName(v))))
	defer span.End()

	out, err := c.dump(ctx, []any{v})
	if err != nil {
		fail(span, err)
		log.ErrorErr(log.CatDump, "dump failed", err, "type", typeName(v))
		return "", err
	}
	span.SetAttributes(attribute.Int(tracing.AttrBytes, len(out)))
	return out, nil
}

// DumpAll renders each value as its own document, separated by "---".
func (c *Codec) DumpAll(values ...any) (string, error) {
	return c.DumpAllContext(context.Background(), values...)
}

func (c *Codec) DumpAllContext(ctx context.Context, values ...any) (string, error) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanDumpAll,
		trace.WithAttributes(attribute.Int(tracing.AttrDocuments, len(values))))
	defer span.End()

	out, err := c.dump(ctx, values)
	if err != nil {
		fail(span, err)
		log.ErrorErr(log.CatDump, "dump all failed", err, "documents", len(values))
		return "", err
	}
	span.SetAttributes(attribute.Int(tracing.AttrBytes, len(out)))
	return out, nil
}

// Load reads exactly one document. Empty input loads as nil. Input with more
// than one document fails with ErrMultipleDocuments; use LoadAll for streams.
func (c *Codec) Load(text string) (any, error) {
	return c.LoadContext(context.Background(), text)
}

// LoadContext is Load with the span parented to ctx.
func (c *Codec) LoadContext(ctx context.Context, text string) (any, error) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanLoad,
		trace.WithAttributes(attribute.Int(tracing.AttrBytes, len(text))))
	defer span.End()

	v, err := c.loadOne(ctx, text)
	if err != nil {
		fail(span, err)
		log.ErrorErr(log.CatLoad, "load failed", err)
		return nil, err
	}
	return v, nil
}

func (c *Codec) loadOne(ctx context.Context, text string) (any, error) {
	docs, err := parseDocuments(text, 2)
	if err != nil {
		return nil, err
	}
	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		return newLoader(ctx, c).construct(docs[0])
	default:
		return nil, ErrMultipleDocuments
	}
}

// LoadAll reads every document in text.
func (c *Codec) LoadAll(text string) ([]any, error) {
	return c.LoadAllContext(context.Background(), text)
}

func (c *Codec) LoadAllContext(ctx context.Context, text string) ([]any, error) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanLoadAll,
		trace.WithAttributes(attribute.Int(tracing.AttrBytes, len(text))))
	defer span.End()

	docs, err := parseDocuments(text, 0)
	if err != nil {
		fail(span, err)
		log.ErrorErr(log.CatLoad, "load all failed", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrDocuments, len(docs)))

	out := make([]any, 0, len(docs))
	for i, doc := range docs {
		v, err := newLoader(ctx, c).construct(doc)
		if err != nil {
			err = fmt.Errorf("document %d: %w", i+1, err)
			fail(span, err)
			log.ErrorErr(log.CatLoad, "load all failed", err)
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// parseDocuments splits text into document nodes, stopping after limit
// documents when limit > 0.
func parseDocuments(text string, limit int) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	var docs []*yaml.Node
	for limit <= 0 || len(docs) < limit {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

func (c *Codec) dump(ctx context.Context, values []any) (string, error) {
	d := newDumper(ctx, c)
	var b strings.Builder
	for i, v := range values {
		n, err := d.represent(v)
		if err != nil {
			return "", err
		}
		doc, err := c.encode(n)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString("---\n")
		}
		b.WriteString(doc)
	}
	return b.String(), nil
}

// encode emits one document. Output is only produced once the whole node
// tree has been built, so a failing representer never leaves partial text.
func (c *Codec) encode(n *yaml.Node) (string, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(c.indent)
	if err := enc.Encode(n); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFormat, err)
	}
	out := b.String()
	if c.endMarker && openEnded(n, out) {
		out += endMarker
	}
	return out, nil
}

// openEnded reports whether a document is a single plain scalar line, which a
// reader could not tell apart from the start of a longer scalar.
func openEnded(n *yaml.Node, out string) bool {
	if n.Kind != yaml.ScalarNode || strings.Count(out, "\n") != 1 {
		return false
	}
	line := strings.TrimSuffix(out, "\n")
	return !strings.HasSuffix(line, `"`) && !strings.HasSuffix(line, `'`)
}

func (c *Codec) parseTag(ctx context.Context, text string) (tag.Tag, error) {
	return c.tags.Get(ctx, text, text, cachemanager.NoExpiration)
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
