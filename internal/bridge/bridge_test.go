package bridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// plainChild represents children as untagged scalars via yaml.v3.
func plainChild(v any) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// rawChild constructs children as their raw scalar text.
func rawChild(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("unexpected %s", KindName(n.Kind))
	}
	return n.Value, nil
}

func TestToNode_OrderedMappingKeepsOrder(t *testing.T) {
	m := Mapping{{Key: "z", Value: 1}, {Key: "a", Value: 2}}

	n, err := ToNode("!thing;1", m, plainChild)
	require.NoError(t, err)
	require.Equal(t, yaml.MappingNode, n.Kind)
	require.Equal(t, "!thing;1", n.Tag)
	require.Len(t, n.Content, 4)
	require.Equal(t, "z", n.Content[0].Value)
	require.Equal(t, "1", n.Content[1].Value)
	require.Equal(t, "a", n.Content[2].Value)
	require.Equal(t, "2", n.Content[3].Value)
}

func TestToNode_StringMapSortsKeys(t *testing.T) {
	n, err := ToNode("!thing", map[string]any{"width": 10, "height": 7}, plainChild)
	require.NoError(t, err)
	require.Equal(t, "height", n.Content[0].Value)
	require.Equal(t, "width", n.Content[2].Value)
}

func TestToNode_Sequence(t *testing.T) {
	n, err := ToNode("!list", []any{"a", 2, true}, plainChild)
	require.NoError(t, err)
	require.Equal(t, yaml.SequenceNode, n.Kind)
	require.Len(t, n.Content, 3)
	require.Equal(t, "true", n.Content[2].Value)
}

func TestToNode_Scalars(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"3d6", "3d6"},
		{nil, "null"},
		{true, "true"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(255), "255"},
		{3.52, "3.52"},
		{float32(0.5), "0.5"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.in), func(t *testing.T) {
			n, err := ToNode("!roll", tt.in, plainChild)
			require.NoError(t, err)
			require.Equal(t, yaml.ScalarNode, n.Kind)
			require.Equal(t, tt.want, n.Value)
			require.Equal(t, "!roll", n.Tag)
		})
	}
}

func TestToNode_RejectsNonCanonical(t *testing.T) {
	type point struct{ X, Y int }

	for _, bad := range []any{point{1, 2}, []int{1, 2}, map[int]any{1: 2}, complex(1, 2)} {
		_, err := ToNode("!point;2", bad, plainChild)
		require.ErrorIs(t, err, ErrDumpType)
		require.Contains(t, err.Error(), "!point;2")
		require.Contains(t, err.Error(), fmt.Sprintf("%T", bad))
	}
}

func TestToNode_PropagatesChildError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ToNode("!x", []any{1}, func(any) (*yaml.Node, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
}

func TestFromNode_Scalar(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("!deleted-type;4 foo"), &doc))

	got, err := FromNode(doc.Content[0], rawChild)
	require.NoError(t, err)
	require.Equal(t, "foo", got)
}

func TestFromNode_ScalarStaysString(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("!count 12"), &doc))

	got, err := FromNode(doc.Content[0], rawChild)
	require.NoError(t, err)
	require.Equal(t, "12", got)
}

func TestFromNode_MappingKeepsOrder(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("!table;2\nwidth: 10\nheight: 7\n"), &doc))

	got, err := FromNode(doc.Content[0], rawChild)
	require.NoError(t, err)
	require.Equal(t, Mapping{{Key: "width", Value: "10"}, {Key: "height", Value: "7"}}, got)
}

func TestFromNode_Sequence(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("[a, b, c]"), &doc))

	got, err := FromNode(doc.Content[0], rawChild)
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b", "c"}, got)
}

func TestFromNode_RejectsOtherKinds(t *testing.T) {
	for _, n := range []*yaml.Node{
		{Kind: yaml.DocumentNode},
		{Kind: yaml.AliasNode},
		{Kind: 0},
	} {
		_, err := FromNode(n, rawChild)
		require.ErrorIs(t, err, ErrNotPrimitive)
	}
}

func TestMapping_Get(t *testing.T) {
	m := Mapping{{Key: "size", Value: 25}, {Key: 1, Value: "one"}, {Key: []any{1}, Value: "list"}}

	v, ok := m.Get("size")
	require.True(t, ok)
	require.Equal(t, 25, v)

	v, ok = m.Get(1)
	require.True(t, ok)
	require.Equal(t, "one", v)

	_, ok = m.Get("missing")
	require.False(t, ok)

	_, ok = m.Get([]any{1})
	require.False(t, ok, "uncomparable keys never match")

	require.Equal(t, []any{"size", 1, []any{1}}, m.Keys())
}
