package savev1

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

type header struct {
	MetadataSize uint32
	NodeCount    uint64
	EdgeCount    uint64
	EdgeChunks   uint64
	Weights      []float64
}

type metadata struct {
	Version     uint32
	DateCreated string
	Sources     []string
}

const (
	headerMetadataSize protowire.Number = 1
	headerNodeCount    protowire.Number = 2
	headerEdgeCount    protowire.Number = 3
	headerEdgeChunks   protowire.Number = 4
	headerWeights      protowire.Number = 5

	metadataVersion     protowire.Number = 1
	metadataDateCreated protowire.Number = 2
	metadataSources     protowire.Number = 3

	nodesCoords protowire.Number = 1

	edgesU      protowire.Number = 1
	edgesV      protowire.Number = 2
	edgesWeight protowire.Number = 3
)

func (h header) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, headerMetadataSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.MetadataSize))
	b = protowire.AppendTag(b, headerNodeCount, protowire.VarintType)
	b = protowire.AppendVarint(b, h.NodeCount)
	b = protowire.AppendTag(b, headerEdgeCount, protowire.VarintType)
	b = protowire.AppendVarint(b, h.EdgeCount)
	b = protowire.AppendTag(b, headerEdgeChunks, protowire.VarintType)
	b = protowire.AppendVarint(b, h.EdgeChunks)
	return appendPackedDoubles(b, headerWeights, h.Weights)
}

func (h *header) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == headerWeights && typ == protowire.BytesType:
			return consumePackedDoubles(b, &h.Weights)
		case typ != protowire.VarintType:
			return skipField, nil
		}

		v, n := protowire.ConsumeVarint(b)
		switch num {
		case headerMetadataSize:
			h.MetadataSize = uint32(v)
		case headerNodeCount:
			h.NodeCount = v
		case headerEdgeCount:
			h.EdgeCount = v
		case headerEdgeChunks:
			h.EdgeChunks = v
		}
		return n, nil
	})
}

func (m metadata) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, metadataVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Version))
	b = protowire.AppendTag(b, metadataDateCreated, protowire.BytesType)
	b = protowire.AppendString(b, m.DateCreated)
	for _, s := range m.Sources {
		b = protowire.AppendTag(b, metadataSources, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func (m *metadata) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == metadataVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Version = uint32(v)
			return n, nil
		case num == metadataDateCreated && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.DateCreated = v
			return n, nil
		case num == metadataSources && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Sources = append(m.Sources, v)
			return n, nil
		}
		return skipField, nil
	})
}

func marshalNodes(coords []float64) []byte {
	return appendPackedDoubles(nil, nodesCoords, coords)
}

func unmarshalNodes(b []byte) ([]float64, error) {
	var coords []float64
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == nodesCoords && typ == protowire.BytesType {
			return consumePackedDoubles(b, &coords)
		}
		return skipField, nil
	})
	return coords, err
}

func marshalEdges(edges []Edge) []byte {
	var us, vs, ws []byte
	for _, e := range edges {
		us = protowire.AppendVarint(us, uint64(e.U))
		vs = protowire.AppendVarint(vs, uint64(e.V))
		ws = protowire.AppendVarint(ws, uint64(e.Weight))
	}

	var b []byte
	b = protowire.AppendTag(b, edgesU, protowire.BytesType)
	b = protowire.AppendBytes(b, us)
	b = protowire.AppendTag(b, edgesV, protowire.BytesType)
	b = protowire.AppendBytes(b, vs)
	b = protowire.AppendTag(b, edgesWeight, protowire.BytesType)
	b = protowire.AppendBytes(b, ws)
	return b
}

func unmarshalEdges(b []byte) ([]Edge, error) {
	var us, vs, ws []uint64
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return skipField, nil
		}
		switch num {
		case edgesU:
			return consumePackedVarints(b, &us)
		case edgesV:
			return consumePackedVarints(b, &vs)
		case edgesWeight:
			return consumePackedVarints(b, &ws)
		}
		return skipField, nil
	})
	if err != nil {
		return nil, err
	}
	if len(us) != len(vs) || len(us) != len(ws) {
		return nil, fmt.Errorf("edge columns differ in length: %d, %d, %d", len(us), len(vs), len(ws))
	}

	edges := make([]Edge, len(us))
	for i := range us {
		edges[i] = Edge{U: uint32(us[i]), V: uint32(vs[i]), Weight: uint32(ws[i])}
	}
	return edges, nil
}

// skipField is returned by field callbacks for fields they do not know.
const skipField = math.MinInt

// consumeFields walks a message. f returns the number of bytes it consumed.
func consumeFields(b []byte, f func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := f(num, typ, b)
		if err != nil {
			return err
		}
		if n == skipField {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func appendPackedDoubles(b []byte, num protowire.Number, vals []float64) []byte {
	packed := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func consumePackedDoubles(b []byte, out *[]float64) (int, error) {
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	for len(packed) > 0 {
		v, m := protowire.ConsumeFixed64(packed)
		if m < 0 {
			return 0, protowire.ParseError(m)
		}
		*out = append(*out, math.Float64frombits(v))
		packed = packed[m:]
	}
	return n, nil
}

func consumePackedVarints(b []byte, out *[]uint64) (int, error) {
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	for len(packed) > 0 {
		v, m := protowire.ConsumeVarint(packed)
		if m < 0 {
			return 0, protowire.ParseError(m)
		}
		*out = append(*out, v)
		packed = packed[m:]
	}
	return n, nil
}
