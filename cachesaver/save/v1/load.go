package savev1

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/paulmach/orb"
)

func Load(r io.Reader) (Cache, error) {
	cache := Cache{}

	headerBytes, err := readBlob(r)
	if err != nil {
		return cache, fmt.Errorf("error reading header: %w", err)
	}
	var h header
	err = h.unmarshal(headerBytes)
	if err != nil {
		return cache, fmt.Errorf("error decoding header: %w", err)
	}
	cache.Weights = h.Weights

	metadataBytes, err := readSized(r, h.MetadataSize)
	if err != nil {
		return cache, fmt.Errorf("error reading metadata: %w", err)
	}
	var meta metadata
	err = meta.unmarshal(metadataBytes)
	if err != nil {
		return cache, fmt.Errorf("error decoding metadata: %w", err)
	}
	cache.Version = meta.Version
	cache.DateCreated = meta.DateCreated
	cache.Sources = meta.Sources

	nodesBytes, err := readBlob(r)
	if err != nil {
		return cache, fmt.Errorf("error reading nodes: %w", err)
	}
	coords, err := unmarshalNodes(nodesBytes)
	if err != nil {
		return cache, fmt.Errorf("error decoding nodes: %w", err)
	}
	if len(coords)%2 != 0 || uint64(len(coords)/2) != h.NodeCount {
		return cache, fmt.Errorf("expected %d nodes, got %d coordinates", h.NodeCount, len(coords))
	}
	cache.Nodes = make([]orb.Point, len(coords)/2)
	for i := range cache.Nodes {
		cache.Nodes[i] = orb.Point{coords[2*i], coords[2*i+1]}
	}

	for i := range h.EdgeChunks {
		blob, err := readBlob(r)
		if err != nil {
			return cache, fmt.Errorf("error reading edge chunk %d: %w", i, err)
		}
		edges, err := unmarshalEdges(blob)
		if err != nil {
			return cache, fmt.Errorf("error decoding edge chunk %d: %w", i, err)
		}
		cache.Edges = append(cache.Edges, edges...)
	}
	if uint64(len(cache.Edges)) != h.EdgeCount {
		return cache, fmt.Errorf("expected %d edges, got %d", h.EdgeCount, len(cache.Edges))
	}

	return cache, nil
}

func readBlob(r io.Reader) ([]byte, error) {
	var size uint32
	err := binary.Read(r, binary.LittleEndian, &size)
	if err != nil {
		return nil, err
	}
	return readSized(r, size)
}

// readSized grows the buffer as bytes arrive, so a corrupt size fails with
// ErrUnexpectedEOF instead of allocating it upfront.
func readSized(r io.Reader, size uint32) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, err
	}
	if len(buf) != int(size) {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}
