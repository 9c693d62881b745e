// Package cachesaver stores graph artifacts on disk.
//
// Files ending in .wgb (optionally followed by .zst or .gz) hold the binary form.
// Everything else is the JSON form, compressed when the name ends in .gz or .zst.
package cachesaver

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	savev1 "github.com/striide/walkgraph/cachesaver/save/v1"
	"github.com/striide/walkgraph/graphgen"
)

var MAGIC_BYTES = []byte("WALKGRPH")

const DefaultFileName = "output.json.gz"

type Metadata struct {
	Version     uint32
	DateCreated time.Time
	Sources     []string
}

// Save writes the binary form.
func Save(a graphgen.Artifact, meta Metadata, w io.Writer) error {
	_, err := w.Write(MAGIC_BYTES)
	if err != nil {
		return err
	}

	err = binary.Write(w, binary.LittleEndian, savev1.COMPATIBILITY_LEVEL)
	if err != nil {
		return err
	}

	cache := savev1.CacheFromArtifact(a)
	cache.DateCreated = meta.DateCreated.Format(time.RFC3339)
	cache.Version = meta.Version
	cache.Sources = meta.Sources

	err = savev1.Save(w, cache)
	if err != nil {
		return err
	}
	return nil
}

// SaveFile picks the form and compression from the file name.
func SaveFile(name string, a graphgen.Artifact, meta Metadata) (err error) {
	w, err := createWriter(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing %s: %w", name, cerr)
		}
	}()

	if isBinary(name) {
		err = Save(a, meta, w)
	} else {
		err = WriteJSON(w, a)
	}
	if err != nil {
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	return nil
}
