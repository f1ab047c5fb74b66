package regiontree

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Nodes are encoded in protobuf wire format so that other languages can
// read them with a plain message definition:
//
//	message Region { uint64 top = 1; uint64 left = 2; uint64 right = 3;
//	                 uint64 bottom = 4; bytes payload = 5; }
//	message Node   { uint64 size = 1; uint32 kind = 2; bytes payload = 3;
//	                 string top_left = 4; string top_right = 5;
//	                 string bottom_left = 6; string bottom_right = 7;
//	                 Region center = 8;
//	                 repeated Region top = 9; repeated Region bottom = 10;
//	                 repeated Region left = 11; repeated Region right = 12; }
const (
	fieldSize     protowire.Number = 1
	fieldKind     protowire.Number = 2
	fieldPayload  protowire.Number = 3
	fieldQuadrant protowire.Number = 4
	fieldCenter   protowire.Number = 8
	fieldEdge     protowire.Number = 9

	fieldRegionTop     protowire.Number = 1
	fieldRegionLeft    protowire.Number = 2
	fieldRegionRight   protowire.Number = 3
	fieldRegionBottom  protowire.Number = 4
	fieldRegionPayload protowire.Number = 5
)

type codec struct {
	marshal   func(interface{}) ([]byte, error)
	unmarshal func([]byte, interface{}) error
}

func appendUint(b []byte, num protowire.Number, v int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func marshalNode[T any](c codec, n *Node[T], links [4]string) ([]byte, error) {
	var b []byte
	b = appendUint(b, fieldSize, n.size)
	b = appendUint(b, fieldKind, int(n.kind))
	if n.kind == KindLeaf {
		p, err := c.marshal(n.payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		b = appendBytes(b, fieldPayload, p)
	}
	for i, l := range links {
		if l == "" {
			continue
		}
		b = protowire.AppendTag(b, fieldQuadrant+protowire.Number(i), protowire.BytesType)
		b = protowire.AppendString(b, l)
	}
	if n.center != nil {
		r, err := marshalRegion(c, *n.center)
		if err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		b = appendBytes(b, fieldCenter, r)
	}
	for i, e := range Edges {
		for _, region := range n.edges[e] {
			r, err := marshalRegion(c, region)
			if err != nil {
				return nil, fmt.Errorf("%v bucket: %w", e, err)
			}
			b = appendBytes(b, fieldEdge+protowire.Number(i), r)
		}
	}
	return b, nil
}

func marshalRegion[T any](c codec, r Region[T]) ([]byte, error) {
	p, err := c.marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	var b []byte
	b = appendUint(b, fieldRegionTop, r.Top)
	b = appendUint(b, fieldRegionLeft, r.Left)
	b = appendUint(b, fieldRegionRight, r.Right)
	b = appendUint(b, fieldRegionBottom, r.Bottom)
	b = appendBytes(b, fieldRegionPayload, p)
	return b, nil
}

// fieldReader walks the fields of one message.
type fieldReader struct {
	buf []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func (fr *fieldReader) next() bool {
	if fr.err != nil || len(fr.buf) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(fr.buf)
	if n < 0 {
		fr.err = protowire.ParseError(n)
		return false
	}
	fr.buf = fr.buf[n:]
	fr.num, fr.typ = num, typ
	return true
}

func (fr *fieldReader) uint() int {
	if fr.typ != protowire.VarintType {
		fr.err = fmt.Errorf("field %d: expected varint, got wire type %d", fr.num, fr.typ)
		return 0
	}
	v, n := protowire.ConsumeVarint(fr.buf)
	if n < 0 {
		fr.err = protowire.ParseError(n)
		return 0
	}
	fr.buf = fr.buf[n:]
	if v > math.MaxInt {
		fr.err = fmt.Errorf("field %d: varint %d overflows int", fr.num, v)
		return 0
	}
	return int(v)
}

func (fr *fieldReader) bytes() []byte {
	if fr.typ != protowire.BytesType {
		fr.err = fmt.Errorf("field %d: expected bytes, got wire type %d", fr.num, fr.typ)
		return nil
	}
	v, n := protowire.ConsumeBytes(fr.buf)
	if n < 0 {
		fr.err = protowire.ParseError(n)
		return nil
	}
	fr.buf = fr.buf[n:]
	return v
}

func (fr *fieldReader) skip() {
	n := protowire.ConsumeFieldValue(fr.num, fr.typ, fr.buf)
	if n < 0 {
		fr.err = protowire.ParseError(n)
		return
	}
	fr.buf = fr.buf[n:]
}

func unmarshalNode[T any](c codec, buf []byte) (*Node[T], [4]string, error) {
	var links [4]string
	n := &Node[T]{}
	fr := fieldReader{buf: buf}
	for fr.next() {
		switch {
		case fr.num == fieldSize:
			n.size = fr.uint()
		case fr.num == fieldKind:
			k := fr.uint()
			if k > int(KindInternal) {
				return nil, links, fmt.Errorf("%w: kind %d", ErrCorruptNode, k)
			}
			n.kind = Kind(k)
		case fr.num == fieldPayload:
			p := fr.bytes()
			if fr.err == nil {
				if err := c.unmarshal(p, &n.payload); err != nil {
					return nil, links, fmt.Errorf("unmarshal payload: %w", err)
				}
			}
		case fr.num >= fieldQuadrant && fr.num < fieldQuadrant+4:
			links[fr.num-fieldQuadrant] = string(fr.bytes())
		case fr.num == fieldCenter:
			r, err := unmarshalRegion[T](c, fr.bytes())
			if err != nil {
				return nil, links, fmt.Errorf("center: %w", err)
			}
			n.center = &r
		case fr.num >= fieldEdge && fr.num < fieldEdge+4:
			e := Edge(fr.num - fieldEdge)
			r, err := unmarshalRegion[T](c, fr.bytes())
			if err != nil {
				return nil, links, fmt.Errorf("%v bucket: %w", e, err)
			}
			n.edges[e] = append(n.edges[e], r)
		default:
			fr.skip()
		}
	}
	if fr.err != nil {
		return nil, links, fmt.Errorf("%w: %v", ErrCorruptNode, fr.err)
	}
	if err := checkDecoded(n, links); err != nil {
		return nil, links, err
	}
	return n, links, nil
}

func unmarshalRegion[T any](c codec, buf []byte) (Region[T], error) {
	var r Region[T]
	fr := fieldReader{buf: buf}
	for fr.next() {
		switch fr.num {
		case fieldRegionTop:
			r.Top = fr.uint()
		case fieldRegionLeft:
			r.Left = fr.uint()
		case fieldRegionRight:
			r.Right = fr.uint()
		case fieldRegionBottom:
			r.Bottom = fr.uint()
		case fieldRegionPayload:
			p := fr.bytes()
			if fr.err == nil {
				if err := c.unmarshal(p, &r.Payload); err != nil {
					return r, fmt.Errorf("unmarshal payload: %w", err)
				}
			}
		default:
			fr.skip()
		}
	}
	if fr.err != nil {
		return r, fmt.Errorf("%w: %v", ErrCorruptNode, fr.err)
	}
	return r, nil
}

// checkDecoded rejects nodes that could not have been produced by this
// package.
func checkDecoded[T any](n *Node[T], links [4]string) error {
	if n.size < 1 {
		return fmt.Errorf("%w: size %d", ErrCorruptNode, n.size)
	}
	switch n.kind {
	case KindEmpty, KindLeaf:
		if links != [4]string{} || n.center != nil {
			return fmt.Errorf("%w: %v node with children", ErrCorruptNode, n.kind)
		}
		for _, b := range n.edges {
			if len(b) > 0 {
				return fmt.Errorf("%w: %v node with edge regions", ErrCorruptNode, n.kind)
			}
		}
	case KindInternal:
		if !isPowerOfTwo(n.size) || n.size < 2 {
			return fmt.Errorf("%w: internal node of size %d", ErrCorruptNode, n.size)
		}
		extent := squareRect(n.size)
		for _, r := range ownRegions(n) {
			if r.Empty() || clip(r.Rect, extent) != r.Rect {
				return fmt.Errorf("%w: region %v outside node of size %d", ErrCorruptNode, r.Rect, n.size)
			}
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrCorruptNode, uint8(n.kind))
	}
	return nil
}
