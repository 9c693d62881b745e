package cachesaver

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"time"

	savev1 "github.com/striide/walkgraph/cachesaver/save/v1"
	"github.com/striide/walkgraph/graphgen"
)

// LoadFromReader reads either form. Input without MAGIC_BYTES is parsed as JSON.
func LoadFromReader(reader io.Reader, log *slog.Logger) (graphgen.Artifact, *Metadata, error) {
	br := bufio.NewReader(reader)
	magic, err := br.Peek(len(MAGIC_BYTES))
	if err != nil && err != io.EOF {
		return graphgen.Artifact{}, nil, fmt.Errorf("error reading magic bytes: %w", err)
	}

	if !bytes.Equal(magic, MAGIC_BYTES) {
		log.Info("Magic bytes not detected, reading JSON graph")
		a, err := ReadJSON(br)
		return a, nil, err
	}
	_, _ = br.Discard(len(MAGIC_BYTES))

	var compatibilityLevel uint32
	err = binary.Read(br, binary.LittleEndian, &compatibilityLevel)
	if err != nil {
		return graphgen.Artifact{}, nil, fmt.Errorf("error reading compatibility level: %w", err)
	}

	switch compatibilityLevel {
	case savev1.COMPATIBILITY_LEVEL:
		log.Info("Loading v1 graph format")
		a, meta, err := loadV1(br)
		if err != nil {
			return graphgen.Artifact{}, nil, err
		}
		log.Info("Loaded graph metadata", "version", meta.Version, "date_created", meta.DateCreated, "sources", meta.Sources)
		return a, meta, nil
	}

	return graphgen.Artifact{}, nil, fmt.Errorf("unsupported compatibility level: %d", compatibilityLevel)
}

// LoadFile decompresses by suffix and reads either form.
func LoadFile(name string, log *slog.Logger) (graphgen.Artifact, *Metadata, error) {
	r, err := openReader(name)
	if err != nil {
		return graphgen.Artifact{}, nil, err
	}
	defer r.Close()

	a, meta, err := LoadFromReader(r, log)
	if err != nil {
		return graphgen.Artifact{}, nil, fmt.Errorf("error loading %s: %w", name, err)
	}
	return a, meta, nil
}

func loadV1(reader io.Reader) (graphgen.Artifact, *Metadata, error) {
	cache, err := savev1.Load(reader)
	if err != nil {
		return graphgen.Artifact{}, nil, fmt.Errorf("error loading v1 graph: %w", err)
	}

	a, err := cache.Artifact()
	if err != nil {
		return graphgen.Artifact{}, nil, fmt.Errorf("error loading v1 graph: %w", err)
	}

	meta := &Metadata{
		Version: cache.Version,
		Sources: cache.Sources,
	}
	if cache.DateCreated != "" {
		meta.DateCreated, err = time.Parse(time.RFC3339, cache.DateCreated)
		if err != nil {
			return graphgen.Artifact{}, nil, fmt.Errorf("error parsing creation date: %w", err)
		}
	}
	return a, meta, nil
}
