// Package resolver picks which dumper and loader apply when several
// registries are composed.
//
// Dump side: a locked version wins outright. Otherwise the numerically
// highest versioned dumper across all registries is used; an unversioned
// dumper is only used when no versioned one exists. Equal versions are
// settled by composition order, later registries winning.
//
// Load side: loaders for the tag name are collected across registries in
// composition order. An unversioned tag matches only unversioned loaders. A
// concrete version prefers an exact loader from any registry, then an Any
// loader. Later registries win among equal matches.
package resolver

import (
	"fmt"
	"reflect"

	"github.com/zjrosen/camel/internal/registry"
	"github.com/zjrosen/camel/internal/tag"
)

// LockTable pins the dump-time version of types. It never affects loading.
type LockTable map[reflect.Type]tag.Version

// Resolver resolves over an ordered list of registries.
type Resolver struct {
	registries []*registry.Registry
}

// New returns a resolver over registries in composition order.
func New(registries ...*registry.Registry) *Resolver {
	regs := make([]*registry.Registry, 0, len(registries))
	for _, r := range registries {
		if r != nil {
			regs = append(regs, r)
		}
	}
	return &Resolver{registries: regs}
}

// Registries returns the composed registries in order.
func (r *Resolver) Registries() []*registry.Registry {
	out := make([]*registry.Registry, len(r.registries))
	copy(out, r.registries)
	return out
}

// DumperFor selects the dumper for typ. found is false when no registry has
// any dumper for typ and no lock applies; the caller then falls back to
// built-in representation. A lock with no dumper at exactly that version
// fails with registry.ErrUnknownVersion.
func (r *Resolver) DumperFor(typ reflect.Type, locks LockTable) (entry registry.DumperEntry, found bool, err error) {
	var all []registry.DumperEntry
	for _, reg := range r.registries {
		all = append(all, reg.DumpersFor(typ)...)
	}

	if locked, ok := locks[typ]; ok {
		for i := len(all) - 1; i >= 0; i-- {
			if all[i].Tag.Version == locked {
				return all[i], true, nil
			}
		}
		return registry.DumperEntry{}, false, fmt.Errorf("%w: %s locked to version %s but no dumper is registered at it",
			registry.ErrUnknownVersion, typ, locked)
	}

	if len(all) == 0 {
		return registry.DumperEntry{}, false, nil
	}

	best := -1
	for i, e := range all {
		if best < 0 || e.Tag.Version.Compare(all[best].Tag.Version) >= 0 {
			best = i
		}
	}
	return all[best], true, nil
}

// LoaderFor selects the constructor for a parsed tag.
func (r *Resolver) LoaderFor(t tag.Tag) (registry.LoaderEntry, error) {
	var all []registry.LoaderEntry
	for _, reg := range r.registries {
		all = append(all, reg.LoadersFor(t.Name)...)
	}
	if len(all) == 0 {
		return registry.LoaderEntry{}, fmt.Errorf("%w: %s", registry.ErrUnknownTag, t)
	}

	if entry, ok := registry.MatchLoader(all, t.Version); ok {
		return entry, nil
	}
	return registry.LoaderEntry{}, fmt.Errorf("%w: %s", registry.ErrUnknownVersion, t)
}

// HasLoader reports whether any registry has a loader under name.
func (r *Resolver) HasLoader(name string) bool {
	for _, reg := range r.registries {
		if len(reg.LoadersFor(name)) > 0 {
			return true
		}
	}
	return false
}
