package savev1

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/graphgen"
)

func TestSaveLoad(t *testing.T) {
	// Create test data
	originalCache := Cache{
		Version:     3,
		DateCreated: "2025-06-01T10:00:00Z",
		Sources:     []string{"walkables.geojson", "lights.json"},
		Nodes: []orb.Point{
			{-79.3832, 43.6532},
			{-79.3871, 43.6426},
			{math.Nextafter(-79.3871, 0), 43.6426},
		},
		Weights: []float64{1, 10, 0},
		Edges: []Edge{
			{U: 0, V: 1, Weight: 0},
			{U: 1, V: 2, Weight: 1},
			{U: 2, V: 2, Weight: 2},
		},
	}

	// Create more edges to test chunking
	for i := 0; i < 2500; i++ {
		originalCache.Nodes = append(originalCache.Nodes, orb.Point{float64(i) / 1000, float64(i) / -1000})
		originalCache.Edges = append(originalCache.Edges, Edge{
			U:      uint32(i),
			V:      uint32(i + 3),
			Weight: uint32(i % 3),
		})
	}

	// Create a buffer to store the serialized data
	var buf bytes.Buffer

	err := Save(&buf, originalCache)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loadedCache, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loadedCache.Version != originalCache.Version || loadedCache.DateCreated != originalCache.DateCreated {
		t.Errorf("Metadata doesn't match:\nOriginal: %d %s\nLoaded: %d %s",
			originalCache.Version, originalCache.DateCreated, loadedCache.Version, loadedCache.DateCreated)
	}

	if !reflect.DeepEqual(originalCache.Sources, loadedCache.Sources) {
		t.Errorf("Sources don't match:\nOriginal: %v\nLoaded: %v", originalCache.Sources, loadedCache.Sources)
	}

	if !reflect.DeepEqual(originalCache.Weights, loadedCache.Weights) {
		t.Errorf("Weights don't match:\nOriginal: %v\nLoaded: %v", originalCache.Weights, loadedCache.Weights)
	}

	if len(originalCache.Nodes) != len(loadedCache.Nodes) {
		t.Fatalf("Nodes count doesn't match: expected %d, got %d", len(originalCache.Nodes), len(loadedCache.Nodes))
	}
	for i, p := range originalCache.Nodes {
		// nodes must survive bit for bit
		if math.Float64bits(p[0]) != math.Float64bits(loadedCache.Nodes[i][0]) ||
			math.Float64bits(p[1]) != math.Float64bits(loadedCache.Nodes[i][1]) {
			t.Fatalf("Node %d doesn't match:\nOriginal: %v\nLoaded: %v", i, p, loadedCache.Nodes[i])
		}
	}

	if !reflect.DeepEqual(originalCache.Edges, loadedCache.Edges) {
		t.Errorf("Edges don't match: expected %d edges, got %d", len(originalCache.Edges), len(loadedCache.Edges))
	}
}

func TestLoadTruncated(t *testing.T) {
	var buf bytes.Buffer
	err := Save(&buf, Cache{
		Nodes:   []orb.Point{{0, 0}, {1, 1}},
		Weights: []float64{1},
		Edges:   []Edge{{U: 0, V: 1}},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data := buf.Bytes()
	_, err = Load(bytes.NewReader(data[:len(data)-3]))
	if err == nil {
		t.Fatal("expected an error for a truncated cache")
	}
}

func writeBlob(buf *bytes.Buffer, b []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(len(b)))
	buf.Write(b)
}

func TestLoadCorruptHeader(t *testing.T) {
	headers := map[string]header{
		"edge count":    {EdgeCount: 1 << 62},
		"node count":    {NodeCount: 1 << 63},
		"metadata size": {MetadataSize: math.MaxUint32},
		"edge chunks":   {EdgeChunks: math.MaxUint64},
	}
	for name, h := range headers {
		var buf bytes.Buffer
		writeBlob(&buf, h.marshal())
		// empty metadata, then an empty nodes blob
		writeBlob(&buf, nil)

		if _, err := Load(&buf); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestLoadOversizedBlob(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(math.MaxUint32))
	buf.WriteString("short")

	if _, err := Load(&buf); err == nil {
		t.Fatal("expected an error for a blob larger than the input")
	}
}

func TestCacheFromArtifact(t *testing.T) {
	a := graphgen.Artifact{
		Nodes: []orb.Point{{0, 0}, {1, 0}, {1, 1}},
		Edges: []graphgen.Edge{
			{U: 0, V: 1, Weight: 1},
			{U: 1, V: 2, Weight: 4},
			{U: 0, V: 2, Weight: 1},
		},
	}

	cache := CacheFromArtifact(a)
	if len(cache.Weights) != 2 {
		t.Fatalf("expected 2 distinct weights, got %v", cache.Weights)
	}

	back, err := cache.Artifact()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, back) {
		t.Fatalf("artifact doesn't match:\nOriginal: %+v\nLoaded: %+v", a, back)
	}

	cache.Edges[0].Weight = 7
	if _, err := cache.Artifact(); err == nil {
		t.Fatal("expected an error for a weight index out of range")
	}
}
