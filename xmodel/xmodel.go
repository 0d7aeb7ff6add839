// Package xmodel moves external model payloads across the room boundary.
//
// Room files reference prop models by file name only; the model data itself
// lives in separate files shipped alongside the room. The Source and Sink
// interfaces abstract where payloads come from and go to, and Codec
// abstracts the payload format. Dir implements Source and Sink over a
// directory, and GLB implements Codec for the glTF binary format.
package xmodel

import (
	"os"
	"path/filepath"

	"github.com/scpcbapi/roommesh"
)

// Codec converts between model payloads and meshes.
type Codec interface {
	// Decode converts a payload into a mesh.
	Decode(data []byte) (*roommesh.Mesh, error)

	// Encode converts a mesh into a payload.
	Encode(mesh *roommesh.Mesh) ([]byte, error)
}

// Source resolves model names to payloads.
type Source interface {
	// ReadModel returns the payload stored under the given name.
	ReadModel(name string) ([]byte, error)
}

// Sink stores payloads under model names.
type Sink interface {
	// WriteModel stores a payload under the given name.
	WriteModel(name string, data []byte) error
}

// Dir is a Source and Sink over a directory. Names are reduced to their base
// name before being resolved against the directory, so a name cannot escape
// it.
type Dir string

// ReadModel implements Source.
func (d Dir) ReadModel(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), filepath.Base(name)))
}

// WriteModel implements Sink.
func (d Dir) WriteModel(name string, data []byte) error {
	return os.WriteFile(filepath.Join(string(d), filepath.Base(name)), data, 0666)
}
