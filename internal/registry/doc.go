// Package registry holds the per-type dispatch tables used to dump and load
// tagged values.
//
// # Dumping
//
// A dumper maps an exact Go type to a tag and a Representer. Several versions
// of a type's dumper may coexist; the resolver picks the highest unless the
// codec has locked the type to a specific version. Registration is by exact
// dynamic type only: a named type built on a registered type is a different
// type and needs its own dumper.
//
// # Loading
//
// A loader maps a tag name and a version matcher to a Constructor. The
// matcher is a concrete version, tag.Any (matches every concrete version in a
// document) or tag.None (matches only unversioned tags).
//
// # Lifecycle
//
// Registries are built once, then frozen:
//
//	types := registry.New("my-types")
//	registry.MustDumper(types, "table", tag.V(2), dumpTableV2)
//	registry.MustLoader(types, "table", tag.V(2), loadTableV2)
//	registry.MustLoader(types, "table", tag.V(1), loadTableV1)
//	types.Freeze()
//
// Registering after Freeze fails with ErrFrozenRegistry and leaves the tables
// untouched. There is no global registry; codecs compose the registries they
// are given.
package registry
