package regiontree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

var testCodec = codec{marshal: defaultMarshal, unmarshal: defaultUnmarshal}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()
	tree := sampleTree(t)
	links := [4]string{"a", "", "c", "d"}
	b, err := marshalNode(testCodec, tree, links)
	require.NoError(t, err)
	n, gotLinks, err := unmarshalNode[string](testCodec, b)
	require.NoError(t, err)
	require.Equal(t, links, gotLinks)
	require.Equal(t, tree.size, n.size)
	require.Equal(t, tree.kind, n.kind)
	require.Equal(t, tree.center, n.center)
	require.Equal(t, tree.edges, n.edges)
}

func TestCodecSkipsUnknownFields(t *testing.T) {
	t.Parallel()
	b, err := marshalNode(testCodec, NewLeaf(2, "x"), [4]string{})
	require.NoError(t, err)
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "from a newer writer")
	b = protowire.AppendTag(b, 100, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	n, _, err := unmarshalNode[string](testCodec, b)
	require.NoError(t, err)
	require.Equal(t, NewLeaf(2, "x"), n)
}

func TestCodecRejectsCorruptNodes(t *testing.T) {
	t.Parallel()
	node := func(fields ...func([]byte) []byte) []byte {
		var b []byte
		for _, f := range fields {
			b = f(b)
		}
		return b
	}
	size := func(v int) func([]byte) []byte {
		return func(b []byte) []byte { return appendUint(b, fieldSize, v) }
	}
	kind := func(k Kind) func([]byte) []byte {
		return func(b []byte) []byte { return appendUint(b, fieldKind, int(k)) }
	}
	link := func(b []byte) []byte {
		b = protowire.AppendTag(b, fieldQuadrant, protowire.BytesType)
		return protowire.AppendString(b, "child")
	}
	outside := func(b []byte) []byte {
		r, err := marshalRegion(testCodec, region(0, 0, 9, 3, "x"))
		require.NoError(t, err)
		return appendBytes(b, fieldEdge, r)
	}
	for name, b := range map[string][]byte{
		"truncated":            {0x08},
		"garbage":              []byte("garbage"),
		"no size":              node(kind(KindEmpty)),
		"unknown kind":         node(size(4), kind(Kind(9))),
		"leaf with children":   node(size(4), kind(KindLeaf), link),
		"odd internal":         node(size(6), kind(KindInternal)),
		"region outside node":  node(size(4), kind(KindInternal), outside),
		"size with wrong type": appendBytes(nil, fieldSize, []byte("4")),
	} {
		_, _, err := unmarshalNode[string](testCodec, b)
		require.ErrorIs(t, err, ErrCorruptNode, name)
	}
}

func TestCodecRejectsOutOfRangeVarints(t *testing.T) {
	t.Parallel()
	b := appendUint(nil, fieldSize, 4)
	b = appendUint(b, fieldKind, 256+int(KindInternal))
	_, _, err := unmarshalNode[string](testCodec, b)
	require.ErrorIs(t, err, ErrCorruptNode)
	require.Contains(t, err.Error(), "kind 258")

	b = protowire.AppendTag(nil, fieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, math.MaxUint64)
	b = appendUint(b, fieldKind, int(KindEmpty))
	_, _, err = unmarshalNode[string](testCodec, b)
	require.ErrorIs(t, err, ErrCorruptNode)
	require.Contains(t, err.Error(), "overflows int")

	r := protowire.AppendTag(nil, fieldRegionBottom, protowire.VarintType)
	r = protowire.AppendVarint(r, 1<<63)
	b = appendUint(nil, fieldSize, 4)
	b = appendUint(b, fieldKind, int(KindInternal))
	b = appendBytes(b, fieldCenter, r)
	_, _, err = unmarshalNode[string](testCodec, b)
	require.ErrorIs(t, err, ErrCorruptNode)
}
