package resolver

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/camel/internal/registry"
	"github.com/zjrosen/camel/internal/tag"
)

type table struct{ Height, Width int }

var tableType = reflect.TypeFor[table]()

// labelled returns a representer that reports which registration produced it.
func labelled(label string) registry.Representer {
	return func(any) (any, error) { return label, nil }
}

func labelledLoader(label string) registry.Constructor {
	return func(any, tag.Version) (any, error) { return label, nil }
}

func represent(t *testing.T, e registry.DumperEntry) any {
	t.Helper()
	v, err := e.Represent(table{})
	require.NoError(t, err)
	return v
}

func construct(t *testing.T, e registry.LoaderEntry) any {
	t.Helper()
	v, err := e.Construct(nil, tag.None)
	require.NoError(t, err)
	return v
}

func TestDumperFor_PicksHighestVersion(t *testing.T) {
	reg := registry.New("types")
	require.NoError(t, reg.RegisterDumper(tableType, "table", tag.V(1), labelled("v1")))
	require.NoError(t, reg.RegisterDumper(tableType, "table", tag.V(2), labelled("v2")))

	entry, found, err := New(reg).DumperFor(tableType, nil)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "!table;2", entry.Tag.String())
}

func TestDumperFor_HighestAcrossRegistries(t *testing.T) {
	a := registry.New("a")
	b := registry.New("b")
	require.NoError(t, a.RegisterDumper(tableType, "table", tag.V(3), labelled("a3")))
	require.NoError(t, b.RegisterDumper(tableType, "table", tag.V(2), labelled("b2")))

	entry, found, err := New(a, b).DumperFor(tableType, nil)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a3", represent(t, entry))
}

func TestDumperFor_TieGoesToLaterRegistry(t *testing.T) {
	a := registry.New("a")
	b := registry.New("b")
	require.NoError(t, a.RegisterDumper(tableType, "table", tag.V(2), labelled("a")))
	require.NoError(t, b.RegisterDumper(tableType, "table", tag.V(2), labelled("b")))

	entry, _, err := New(a, b).DumperFor(tableType, nil)
	require.NoError(t, err)
	require.Equal(t, "b", represent(t, entry))

	entry, _, err = New(b, a).DumperFor(tableType, nil)
	require.NoError(t, err)
	require.Equal(t, "a", represent(t, entry))
}

func TestDumperFor_UnversionedOnlyWithoutVersioned(t *testing.T) {
	reg := registry.New("types")
	require.NoError(t, reg.RegisterDumper(tableType, "table", tag.None, labelled("plain")))

	entry, _, err := New(reg).DumperFor(tableType, nil)
	require.NoError(t, err)
	require.Equal(t, "plain", represent(t, entry))

	require.NoError(t, reg.RegisterDumper(tableType, "table", tag.V(0.5), labelled("half")))
	entry, _, err = New(reg).DumperFor(tableType, nil)
	require.NoError(t, err)
	require.Equal(t, "half", represent(t, entry))
}

func TestDumperFor_Lock(t *testing.T) {
	reg := registry.New("types")
	require.NoError(t, reg.RegisterDumper(tableType, "table", tag.V(1), labelled("v1")))
	require.NoError(t, reg.RegisterDumper(tableType, "table", tag.V(2), labelled("v2")))
	r := New(reg)

	entry, _, err := r.DumperFor(tableType, LockTable{tableType: tag.V(1)})
	require.NoError(t, err)
	require.Equal(t, "!table;1", entry.Tag.String())

	_, _, err = r.DumperFor(tableType, LockTable{tableType: tag.V(5)})
	require.ErrorIs(t, err, registry.ErrUnknownVersion)

	// locks for other types do not interfere
	entry, _, err = r.DumperFor(tableType, LockTable{reflect.TypeFor[string](): tag.V(1)})
	require.NoError(t, err)
	require.Equal(t, "!table;2", entry.Tag.String())
}

func TestDumperFor_LockWithoutAnyDumper(t *testing.T) {
	_, found, err := New(registry.New("empty")).DumperFor(tableType, LockTable{tableType: tag.V(1)})
	require.False(t, found)
	require.ErrorIs(t, err, registry.ErrUnknownVersion)
}

func TestDumperFor_NotFound(t *testing.T) {
	_, found, err := New(registry.New("empty")).DumperFor(tableType, nil)
	require.NoError(t, err)
	require.False(t, found)
}

func TestLoaderFor_ExactAcrossRegistriesBeatsLaterAny(t *testing.T) {
	a := registry.New("a")
	b := registry.New("b")
	require.NoError(t, a.RegisterLoader("table", tag.V(2), labelledLoader("a-exact")))
	require.NoError(t, b.RegisterLoader("table", tag.Any, labelledLoader("b-any")))
	r := New(a, b)

	entry, err := r.LoaderFor(tag.MustParse("!table;2"))
	require.NoError(t, err)
	require.Equal(t, "a-exact", construct(t, entry))

	entry, err = r.LoaderFor(tag.MustParse("!table;9"))
	require.NoError(t, err)
	require.Equal(t, "b-any", construct(t, entry))
}

func TestLoaderFor_LaterRegistryWins(t *testing.T) {
	a := registry.New("a")
	b := registry.New("b")
	require.NoError(t, a.RegisterLoader("table", tag.V(1), labelledLoader("a")))
	require.NoError(t, b.RegisterLoader("table", tag.V(1), labelledLoader("b")))

	entry, err := New(a, b).LoaderFor(tag.MustParse("!table;1"))
	require.NoError(t, err)
	require.Equal(t, "b", construct(t, entry))
}

func TestLoaderFor_Errors(t *testing.T) {
	reg := registry.New("types")
	require.NoError(t, reg.RegisterLoader("table", tag.V(1), labelledLoader("v1")))
	r := New(reg)

	_, err := r.LoaderFor(tag.MustParse("!chair;1"))
	require.ErrorIs(t, err, registry.ErrUnknownTag)

	_, err = r.LoaderFor(tag.MustParse("!table;2"))
	require.ErrorIs(t, err, registry.ErrUnknownVersion)

	_, err = r.LoaderFor(tag.MustParse("!table"))
	require.ErrorIs(t, err, registry.ErrUnknownVersion)

	require.True(t, r.HasLoader("table"))
	require.False(t, r.HasLoader("chair"))
}

func TestNew_SkipsNilRegistries(t *testing.T) {
	r := New(nil, registry.New("a"), nil)
	require.Len(t, r.Registries(), 1)
}

func TestProperty_HighestVersionWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numRegs := rapid.IntRange(1, 4).Draw(t, "numRegs")
		regs := make([]*registry.Registry, numRegs)
		highest := -1

		for i := range regs {
			regs[i] = registry.New("reg")
			versions := rapid.SliceOfDistinct(rapid.IntRange(0, 20), rapid.ID[int]).Draw(t, "versions")
			for _, v := range versions {
				if err := regs[i].RegisterDumper(tableType, "table", tag.V(float64(v)), labelled("x")); err != nil {
					t.Fatal(err)
				}
				if v > highest {
					highest = v
				}
			}
		}

		entry, found, err := New(regs...).DumperFor(tableType, nil)
		if err != nil {
			t.Fatal(err)
		}
		if highest < 0 {
			if found {
				t.Fatalf("found a dumper with nothing registered")
			}
			return
		}
		if entry.Tag.Version != tag.V(float64(highest)) {
			t.Fatalf("picked %s, want version %d", entry.Tag, highest)
		}
	})
}

func TestProperty_AnyLoaderMatchesEveryVersion(t *testing.T) {
	reg := registry.New("types")
	require.NoError(t, reg.RegisterLoader("deleted-type", tag.Any, labelledLoader("any")))
	r := New(reg)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.OneOf(
			rapid.Map(rapid.IntRange(-1_000_000, 1_000_000), func(i int) float64 { return float64(i) }),
			rapid.Float64Range(-1e9, 1e9),
		).Draw(t, "version")

		parsed, err := tag.Parse("!deleted-type;" + tag.V(n).String())
		if err != nil {
			t.Fatal(err)
		}
		entry, err := r.LoaderFor(parsed)
		if err != nil {
			t.Fatalf("version %v: %v", n, err)
		}
		if !entry.Tag.Version.IsAny() {
			t.Fatalf("version %v matched %s, want the any loader", n, entry.Tag)
		}
	})
}
