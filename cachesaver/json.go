package cachesaver

import (
	"io"
	"strings"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/graphgen"
	"github.com/striide/walkgraph/internal/fileio"
)

// WriteJSON writes {"nodes":[[lon,lat],...],"edges":[[[lon,lat],[lon,lat],w],...]}.
// Floats use the shortest representation that parses back to the same bits.
func WriteJSON(w io.Writer, a graphgen.Artifact) error {
	out := jwriter.Writer{}
	out.RawString(`{"nodes":[`)
	for i, p := range a.Nodes {
		if i > 0 {
			out.RawByte(',')
		}
		writePoint(&out, p)
	}

	out.RawString(`],"edges":[`)
	for i, e := range a.Edges {
		if i > 0 {
			out.RawByte(',')
		}
		out.RawByte('[')
		writePoint(&out, a.Nodes[e.U])
		out.RawByte(',')
		writePoint(&out, a.Nodes[e.V])
		out.RawByte(',')
		out.Float64(e.Weight)
		out.RawByte(']')
	}
	out.RawString("]}")

	if out.Error != nil {
		return out.Error
	}
	_, err := out.DumpTo(w)
	return err
}

func writePoint(out *jwriter.Writer, p orb.Point) {
	out.RawByte('[')
	out.Float64(p[0])
	out.RawByte(',')
	out.Float64(p[1])
	out.RawByte(']')
}

// ReadJSON parses the JSON form. Edge endpoints are matched to nodes by exact coordinate.
func ReadJSON(r io.Reader) (graphgen.Artifact, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return graphgen.Artifact{}, err
	}
	return UnmarshalJSON(data)
}

func UnmarshalJSON(data []byte) (graphgen.Artifact, error) {
	in := jlexer.Lexer{Data: data}

	var a graphgen.Artifact
	var rawEdges []rawEdge

	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "nodes":
			in.Delim('[')
			for !in.IsDelim(']') {
				a.Nodes = append(a.Nodes, readPoint(&in))
				in.WantComma()
			}
			in.Delim(']')
		case "edges":
			in.Delim('[')
			for !in.IsDelim(']') {
				var e rawEdge
				in.Delim('[')
				e.from = readPoint(&in)
				in.WantComma()
				e.to = readPoint(&in)
				in.WantComma()
				e.weight = in.Float64()
				in.WantComma()
				in.Delim(']')
				rawEdges = append(rawEdges, e)
				in.WantComma()
			}
			in.Delim(']')
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()

	if err := in.Error(); err != nil {
		return graphgen.Artifact{}, err
	}

	// resolve endpoints through a graph of the nodes alone
	nodes, err := graphgen.FromArtifact(graphgen.Artifact{Nodes: a.Nodes})
	if err != nil {
		return graphgen.Artifact{}, err
	}
	a.Edges = make([]graphgen.Edge, len(rawEdges))
	for i, e := range rawEdges {
		u, ok := nodes.NodeIndex(e.from)
		if !ok {
			return graphgen.Artifact{}, &UnknownNodeError{Edge: i, Point: e.from}
		}
		v, ok := nodes.NodeIndex(e.to)
		if !ok {
			return graphgen.Artifact{}, &UnknownNodeError{Edge: i, Point: e.to}
		}
		a.Edges[i] = graphgen.Edge{U: u, V: v, Weight: e.weight}
	}

	return a, nil
}

type rawEdge struct {
	from, to orb.Point
	weight   float64
}

func readPoint(in *jlexer.Lexer) orb.Point {
	var p orb.Point
	in.Delim('[')
	p[0] = in.Float64()
	in.WantComma()
	p[1] = in.Float64()
	in.WantComma()
	in.Delim(']')
	return p
}

func isBinary(name string) bool {
	return strings.HasSuffix(fileio.TrimCompression(name), ".wgb")
}

func createWriter(name string) (io.WriteCloser, error) {
	return fileio.Create(name)
}

func openReader(name string) (io.ReadCloser, error) {
	return fileio.Open(name)
}
