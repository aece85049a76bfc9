// internal/model/persist.go
package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	json "github.com/json-iterator/go"
)

// snapshotVersion tags the on-disk format so an older build refuses a newer
// file instead of silently misreading it.
const snapshotVersion = 1

type snapshot struct {
	Version int      `json:"version"`
	Network *Network `json:"network"`
}

// Save writes the network to path as Brotli-compressed JSON, creating parent
// directories as needed. The snapshot carries the full weight matrices, so
// compression keeps larger topologies manageable on disk.
func (n *Network) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}

	data, err := json.Marshal(snapshot{Version: snapshotVersion, Network: n})
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}

	w := brotli.NewWriterLevel(f, brotli.DefaultCompression)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		_ = f.Close()
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	// Close the compressor before the file so the trailing block is flushed.
	if err := w.Close(); err != nil {
		_ = f.Close()
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load reads a snapshot written by Save, validates its topology, and returns
// a network ready for inference and further training.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(brotli.NewReader(f))
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	if snap.Version != snapshotVersion {
		return nil, &PersistenceError{Op: "load", Path: path, Err: fmt.Errorf("%w: snapshot version %d, this build reads %d", ErrIncompatibleSnapshot, snap.Version, snapshotVersion)}
	}
	if snap.Network == nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: fmt.Errorf("%w: snapshot has no network", ErrIncompatibleSnapshot)}
	}

	n := snap.Network
	if err := n.checkTopology(); err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	n.initScratchPool()
	return n, nil
}

// checkTopology verifies that deserialized layer shapes are mutually
// consistent and match the fixed input and output widths. A corrupted or
// hand-edited snapshot fails here rather than panicking mid-inference.
func (n *Network) checkTopology() error {
	if len(n.Sizes) < 2 || len(n.Layers) != len(n.Sizes)-1 {
		return fmt.Errorf("%w: %d sizes with %d layers", ErrIncompatibleSnapshot, len(n.Sizes), len(n.Layers))
	}
	if n.Sizes[0] != InputSize || n.Sizes[len(n.Sizes)-1] != OutputSize {
		return fmt.Errorf("%w: topology %d->%d, want %d->%d", ErrIncompatibleSnapshot, n.Sizes[0], n.Sizes[len(n.Sizes)-1], InputSize, OutputSize)
	}
	for i, layer := range n.Layers {
		if layer.In != n.Sizes[i] || layer.Out != n.Sizes[i+1] {
			return fmt.Errorf("%w: layer %d is %dx%d, want %dx%d", ErrIncompatibleSnapshot, i, layer.In, layer.Out, n.Sizes[i], n.Sizes[i+1])
		}
		if len(layer.Weights) != layer.In*layer.Out || len(layer.Biases) != layer.Out {
			return fmt.Errorf("%w: layer %d has %d weights and %d biases", ErrIncompatibleSnapshot, i, len(layer.Weights), len(layer.Biases))
		}
	}
	return nil
}
