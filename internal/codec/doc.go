// Package codec is the entry point for dumping Go values to YAML text and
// loading them back through composed tag registries.
//
// A Codec owns an ordered list of registries (StandardTypes always first) and
// a lock table. Values whose exact type has a registered dumper are written
// under that dumper's tag; everything else falls back to the engine's own
// representation of scalars, slices, maps and pointers. Loading walks the
// parsed node tree bottom-up, so by the time a constructor runs every child
// has already been turned into a Go value.
//
//	types := registry.New("game")
//	registry.MustDumper(types, "roll", tag.None, func(r Roll) (any, error) {
//		return fmt.Sprintf("%dd%d", r.Count, r.Sides), nil
//	})
//	registry.MustLoader(types, "roll", tag.None, parseRoll)
//	types.Freeze()
//
//	c := codec.New([]*registry.Registry{types})
//	text, _ := c.Dump(Roll{3, 6}) // "!roll 3d6\n...\n"
//
// A Codec is not safe for concurrent LockVersion and Dump calls. Independent
// Codecs over the same frozen registries may be used in parallel.
package codec
