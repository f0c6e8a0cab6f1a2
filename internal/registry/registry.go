package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/zjrosen/camel/internal/log"
	"github.com/zjrosen/camel/internal/tag"
)

// Registry errors
var (
	ErrFrozenRegistry = errors.New("registry is frozen")
	ErrUnknownTag     = errors.New("unknown tag")
	ErrUnknownVersion = errors.New("unknown tag version")
	ErrNilFunc        = errors.New("registration function cannot be nil")
	ErrNilType        = errors.New("registration type cannot be nil")
	ErrInterfaceType  = errors.New("registration type must be concrete")
)

// Representer turns a value into its canonical form.
type Representer func(value any) (any, error)

// Constructor builds a value from its canonical form and the version found
// in the document. version is None for unversioned tags.
type Constructor func(data any, version tag.Version) (any, error)

// DumperEntry is one registered representer.
type DumperEntry struct {
	Type      reflect.Type
	Tag       tag.Tag
	Represent Representer
}

// LoaderEntry is one registered constructor. Tag.Version is the matcher:
// concrete, Any or None.
type LoaderEntry struct {
	Tag       tag.Tag
	Construct Constructor
}

type dumperKey struct {
	typ     reflect.Type
	version tag.Version
}

// Registry holds the dump and load tables for a set of types.
// Registration is expected to finish, ending with Freeze, before the
// registry is used by a codec. A frozen registry is immutable and may be
// read concurrently.
type Registry struct {
	name    string
	mu      sync.RWMutex
	dumpers map[dumperKey]DumperEntry
	loaders map[string][]LoaderEntry
	frozen  atomic.Bool
}

// New creates an empty registry. name is used in diagnostics only.
func New(name string) *Registry {
	return &Registry{
		name:    name,
		dumpers: make(map[dumperKey]DumperEntry),
		loaders: make(map[string][]LoaderEntry),
	}
}

// Name returns the diagnostic name given to New.
func (r *Registry) Name() string { return r.name }

// Freeze stops all further registration. It is irreversible and idempotent.
// Once frozen, every registration attempt fails with ErrFrozenRegistry,
// whatever its arguments.
func (r *Registry) Freeze() {
	if !r.frozen.Swap(true) {
		log.Debug(log.CatRegistry, "registry frozen", "registry", r.name)
	}
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen.Load() }

// RegisterDumper registers fn as the representer for values whose dynamic
// type is exactly typ, tagged name at version. version may be concrete or
// None. A prior entry for the same type and version is replaced.
func (r *Registry) RegisterDumper(typ reflect.Type, name string, version tag.Version, fn Representer) error {
	if r.Frozen() {
		return fmt.Errorf("dumper %s for %s: %w", name, typ, ErrFrozenRegistry)
	}
	if typ == nil {
		return ErrNilType
	}
	if fn == nil {
		return ErrNilFunc
	}
	if version.IsAny() {
		return fmt.Errorf("dumper for %s: %w: dumpers need a concrete version or none", typ, tag.ErrInvalidVersion)
	}
	t, err := tag.New(name, version)
	if err != nil {
		return fmt.Errorf("dumper for %s: %w", typ, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Frozen() {
		return fmt.Errorf("dumper %s for %s: %w", t, typ, ErrFrozenRegistry)
	}

	key := dumperKey{typ: typ, version: version}
	if _, exists := r.dumpers[key]; exists {
		log.Debug(log.CatRegistry, "replacing dumper", "registry", r.name, "type", typ, "tag", t)
	}
	r.dumpers[key] = DumperEntry{Type: typ, Tag: t, Represent: fn}
	return nil
}

// RegisterLoader registers fn as the constructor for tag name at version,
// which may be concrete, Any or None. A prior entry for the same name and
// version is replaced in place.
func (r *Registry) RegisterLoader(name string, version tag.Version, fn Constructor) error {
	if r.Frozen() {
		return fmt.Errorf("loader %s: %w", name, ErrFrozenRegistry)
	}
	if fn == nil {
		return ErrNilFunc
	}
	t, err := tag.New(name, version)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Frozen() {
		return fmt.Errorf("loader %s: %w", t, ErrFrozenRegistry)
	}

	entry := LoaderEntry{Tag: t, Construct: fn}
	entries := r.loaders[name]
	for i, existing := range entries {
		if existing.Tag.Version == version {
			log.Debug(log.CatRegistry, "replacing loader", "registry", r.name, "tag", t)
			entries[i] = entry
			return nil
		}
	}
	r.loaders[name] = append(entries, entry)
	return nil
}

// DumpersFor returns every dumper registered for typ, ordered by version
// with None first.
func (r *Registry) DumpersFor(typ reflect.Type) []DumperEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DumperEntry
	for key, entry := range r.dumpers {
		if key.typ == typ {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Tag.Version.Compare(out[j].Tag.Version) < 0
	})
	return out
}

// LoadersFor returns the loaders registered under name in registration order.
func (r *Registry) LoadersFor(name string) []LoaderEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.loaders[name]
	out := make([]LoaderEntry, len(entries))
	copy(out, entries)
	return out
}

// LoaderFor picks the constructor for name at version. An exact match wins;
// a concrete version falls back to the Any entry. Fails with ErrUnknownTag
// when nothing is registered under name, and ErrUnknownVersion otherwise.
func (r *Registry) LoaderFor(name string, version tag.Version) (LoaderEntry, error) {
	entries := r.LoadersFor(name)
	if len(entries) == 0 {
		return LoaderEntry{}, fmt.Errorf("%w: %s", ErrUnknownTag, tag.Tag{Name: name})
	}
	if entry, ok := MatchLoader(entries, version); ok {
		return entry, nil
	}
	return LoaderEntry{}, fmt.Errorf("%w: %s", ErrUnknownVersion, tag.Tag{Name: name, Version: version})
}

// MatchLoader applies the load-time matching rules to entries. When several
// entries match equally, the last one wins, so callers may pass entries from
// several registries in composition order.
func MatchLoader(entries []LoaderEntry, version tag.Version) (LoaderEntry, bool) {
	if version.IsNone() {
		return lastWith(entries, tag.None)
	}
	if entry, ok := lastWith(entries, version); ok {
		return entry, true
	}
	if version.IsConcrete() {
		return lastWith(entries, tag.Any)
	}
	return LoaderEntry{}, false
}

func lastWith(entries []LoaderEntry, version tag.Version) (LoaderEntry, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Tag.Version == version {
			return entries[i], true
		}
	}
	return LoaderEntry{}, false
}

// Entry describes one registration for listings.
type Entry struct {
	Registry string
	Kind     string // "dumper" or "loader"
	Tag      tag.Tag
	Type     reflect.Type // nil for loaders
}

// Entries returns a snapshot of every registration in deterministic order:
// dumpers before loaders, then by tag name and version.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.dumpers)+len(r.loaders))
	for _, d := range r.dumpers {
		out = append(out, Entry{Registry: r.name, Kind: "dumper", Tag: d.Tag, Type: d.Type})
	}
	for _, entries := range r.loaders {
		for _, l := range entries {
			out = append(out, Entry{Registry: r.name, Kind: "loader", Tag: l.Tag})
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind == "dumper"
		}
		if a.Tag.Name != b.Tag.Name {
			return a.Tag.Name < b.Tag.Name
		}
		if c := a.Tag.Version.Compare(b.Tag.Version); c != 0 {
			return c < 0
		}
		return typeName(a.Type) < typeName(b.Type)
	})
	return out
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
