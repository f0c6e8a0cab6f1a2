package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/camel/internal/bridge"
	"github.com/zjrosen/camel/internal/registry"
)

func extendedCodec() *Codec {
	return New([]*registry.Registry{ExtendedTypes})
}

func TestStandardTypes_Frozen(t *testing.T) {
	require.True(t, StandardTypes.Frozen())
	require.True(t, ExtendedTypes.Frozen())
}

func TestSet_RoundTrip(t *testing.T) {
	c := New(nil)
	s, err := NewSet("b", "a", "c")
	require.NoError(t, err)

	text, err := c.Dump(s)
	require.NoError(t, err)
	require.Equal(t, "!!set\na: null\nb: null\nc: null\n", text)

	back, err := c.Load(text)
	require.NoError(t, err)
	require.Equal(t, s, back)

	back, err = c.Load("!!set\n? 1\n? 2\n")
	require.NoError(t, err)
	require.True(t, back.(Set).Has(1))
	require.False(t, back.(Set).Has("1"))
}

func TestNewSet_RejectsUncomparable(t *testing.T) {
	_, err := NewSet([]any{1})
	require.ErrorIs(t, err, ErrMalformed)

	s, err := NewSet(1)
	require.NoError(t, err)
	require.False(t, s.Has([]any{1}))
}

func TestOmap_NonStringKeysAndNesting(t *testing.T) {
	c := New(nil)
	m := bridge.Mapping{
		{Key: 2, Value: "two"},
		{Key: 1, Value: bridge.Mapping{{Key: "inner", Value: true}}},
	}

	text, err := c.Dump(m)
	require.NoError(t, err)

	back, err := c.Load(text)
	require.NoError(t, err)
	require.Equal(t, m, back)
}

func TestOmap_UncomparableKey(t *testing.T) {
	_, err := New(nil).Dump(bridge.Mapping{{Key: []any{1}, Value: 1}})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestExtended_Dump(t *testing.T) {
	c := extendedCodec()
	fs, err := NewFrozenSet(3, 1, 2)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "tuple", in: Tuple{1, "a"}, want: "!!tuple\n- 1\n- a\n"},
		{name: "complex", in: complex(5, 12), want: "!!complex 5+12i\n...\n"},
		{name: "negative imaginary", in: complex(1.5, -2), want: "!!complex 1.5-2i\n...\n"},
		{name: "frozenset", in: fs, want: "!!frozenset\n- 1\n- 2\n- 3\n"},
		{name: "namespace", in: Namespace{"b": "x", "a": 1}, want: "!!namespace\na: 1\nb: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := c.Dump(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, text)

			back, err := c.Load(text)
			require.NoError(t, err)
			require.Equal(t, tt.in, back)
		})
	}
}

func TestExtended_LoadVariants(t *testing.T) {
	c := extendedCodec()

	v, err := c.Load("!!complex (1+2i)")
	require.NoError(t, err)
	require.Equal(t, complex(1, 2), v)

	_, err = c.Load("!!complex nope")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = c.Load("!!tuple {a: 1}")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = c.Load("!!namespace {1: a}")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = c.Load("!!frozenset [[1]]")
	require.ErrorIs(t, err, ErrMalformed)

	v, err = c.Load("!!frozenset [b, a, b]")
	require.NoError(t, err)
	require.Equal(t, 2, v.(FrozenSet).Len())
	require.Equal(t, []any{"a", "b"}, v.(FrozenSet).Items())
}

func TestPlainSliceIsNotTuple(t *testing.T) {
	text, err := extendedCodec().Dump([]any{1, 2})
	require.NoError(t, err)
	require.Equal(t, "- 1\n- 2\n", text)
}
