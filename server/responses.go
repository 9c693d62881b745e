package server

import (
	"time"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/navgraph"
)

type statsResponse navgraph.Stats

func (v statsResponse) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"nodes":`)
	out.Int(v.Nodes)
	out.RawString(`,"edges":`)
	out.Int(v.Edges)
	if v.Metadata != nil {
		out.RawString(`,"version":`)
		out.Uint32(v.Metadata.Version)
		out.RawString(`,"date_created":`)
		out.String(v.Metadata.DateCreated.Format(time.RFC3339))
		out.RawString(`,"sources":[`)
		for i, s := range v.Metadata.Sources {
			if i > 0 {
				out.RawByte(',')
			}
			out.String(s)
		}
		out.RawByte(']')
	}
	out.RawByte('}')
}

type nodeResponse navgraph.Node

func (v nodeResponse) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"index":`)
	out.Int(v.Index)
	out.RawString(`,"point":`)
	writePoint(out, v.Point)
	out.RawString(`,"distance":`)
	out.Float64(v.Distance)
	out.RawByte('}')
}

type neighborList []navgraph.Neighbor

func (v neighborList) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawByte('[')
	for i, n := range v {
		if i > 0 {
			out.RawByte(',')
		}
		out.RawString(`{"index":`)
		out.Int(n.Index)
		out.RawString(`,"point":`)
		writePoint(out, n.Point)
		out.RawString(`,"weight":`)
		out.Float64(n.Weight)
		out.RawByte('}')
	}
	out.RawByte(']')
}

// neighborsResponse embeds an already encoded neighbor list.
type neighborsResponse struct {
	Node      navgraph.Node
	Neighbors []byte
}

func (v neighborsResponse) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"node":`)
	nodeResponse(v.Node).MarshalEasyJSON(out)
	out.RawString(`,"neighbors":`)
	out.Raw(v.Neighbors, nil)
	out.RawByte('}')
}

// nearestList holds one entry per requested point, nil where nothing is in range.
type nearestList []*navgraph.Node

func (v nearestList) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawByte('[')
	for i, n := range v {
		if i > 0 {
			out.RawByte(',')
		}
		if n == nil {
			out.RawString("null")
			continue
		}
		nodeResponse(*n).MarshalEasyJSON(out)
	}
	out.RawByte(']')
}

func writePoint(out *jwriter.Writer, p orb.Point) {
	out.RawByte('[')
	out.Float64(p[0])
	out.RawByte(',')
	out.Float64(p[1])
	out.RawByte(']')
}

// unmarshalPointsList parses [[lon, lat], ...] into result, reusing its storage.
func unmarshalPointsList(data []byte, result *[]orb.Point) error {
	in := jlexer.Lexer{Data: data}

	points := (*result)[:0]
	in.Delim('[')
	for !in.IsDelim(']') {
		var p orb.Point
		in.Delim('[')
		p[0] = in.Float64()
		in.WantComma()
		p[1] = in.Float64()
		in.WantComma()
		in.Delim(']')
		points = append(points, p)
		in.WantComma()
	}
	in.Delim(']')
	in.Consumed()

	*result = points
	return in.Error()
}
