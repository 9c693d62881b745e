package savev1

import (
	"encoding/binary"
	"io"
)

func Save(w io.Writer, cache Cache) error {
	metadataBytes := metadata{
		Version:     cache.Version,
		DateCreated: cache.DateCreated,
		Sources:     cache.Sources,
	}.marshal()

	coords := make([]float64, 0, 2*len(cache.Nodes))
	for _, p := range cache.Nodes {
		coords = append(coords, p[0], p[1])
	}
	nodesBytes := marshalNodes(coords)

	// edges go in fixed-size chunks, each with its own size prefix
	var edgeBlobs [][]byte
	for i := 0; i < len(cache.Edges); i += edgesChunkSize {
		end := min(i+edgesChunkSize, len(cache.Edges))
		edgeBlobs = append(edgeBlobs, marshalEdges(cache.Edges[i:end]))
	}

	headerBytes := header{
		MetadataSize: uint32(len(metadataBytes)),
		NodeCount:    uint64(len(cache.Nodes)),
		EdgeCount:    uint64(len(cache.Edges)),
		EdgeChunks:   uint64(len(edgeBlobs)),
		Weights:      cache.Weights,
	}.marshal()

	err := writeBlob(w, headerBytes)
	if err != nil {
		return err
	}

	// metadata size is carried by the header
	_, err = w.Write(metadataBytes)
	if err != nil {
		return err
	}

	err = writeBlob(w, nodesBytes)
	if err != nil {
		return err
	}

	for _, blob := range edgeBlobs {
		err = writeBlob(w, blob)
		if err != nil {
			return err
		}
	}

	return nil
}

func writeBlob(w io.Writer, blob []byte) error {
	err := binary.Write(w, binary.LittleEndian, uint32(len(blob)))
	if err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}
