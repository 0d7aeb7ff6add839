package rmesh

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// Indicates that the input ended before the format was completely read.
	ErrTruncated = errors.New("truncated input")
	// Indicates unexpected content after the point section.
	ErrTrailingData = errors.New("trailing data after point section")
	// Indicates a file that ends without the "EOF" marker record. Files
	// written by this package always carry the marker; the engine never
	// reads it, so its absence is reported as a warning.
	ErrNoTrailer = errors.New(`missing "EOF" trailer`)
	// Indicates two model payloads encoded under the same name with
	// different content.
	ErrModelConflict = errors.New("conflicting payloads for one model name")
)

// VersionError indicates a file signature not recognized by the codec.
type VersionError string

func (err VersionError) Error() string {
	return fmt.Sprintf("unrecognized signature %q", string(err))
}

// ClassError indicates a point record class not known by the codec.
type ClassError string

func (err ClassError) Error() string {
	return fmt.Sprintf("unknown point class %q", string(err))
}

// LayerError indicates a texture slot layer not known by the codec.
type LayerError uint8

func (err LayerError) Error() string {
	return fmt.Sprintf("invalid texture layer %d", uint8(err))
}

// StringLengthError indicates a string record whose length prefix exceeds
// the decoder's sanity limit.
type StringLengthError uint32

func (err StringLengthError) Error() string {
	return fmt.Sprintf("string length %d exceeds limit %d", uint32(err), maxStringLen)
}

// FaceIndexError indicates a triangle referring to a vertex that does not
// exist.
type FaceIndexError struct {
	// Ref is the reference of the offending mesh object, when encoding.
	Ref string
	// Triangle is the position of the triangle within its mesh.
	Triangle int
	// Index is the out-of-range vertex index.
	Index uint32
	// Count is the mesh's vertex count.
	Count int
}

func (err FaceIndexError) Error() string {
	if err.Ref == "" {
		return fmt.Sprintf("triangle %d: vertex index %d out of range [0, %d)", err.Triangle, err.Index, err.Count)
	}
	return fmt.Sprintf("mesh %s: triangle %d: vertex index %d out of range [0, %d)", err.Ref, err.Triangle, err.Index, err.Count)
}

// FormatError indicates malformed content within a section.
type FormatError struct {
	// Section is the section holding the malformed content.
	Section section
	// Record is the position of the offending record within the section, or
	// -1 when the error is not tied to a record.
	Record int

	Cause error
}

func (err FormatError) Error() string {
	if err.Record < 0 {
		return fmt.Sprintf("%s section: %s", err.Section, err.Cause.Error())
	}
	return fmt.Sprintf("%s section, record #%d: %s", err.Section, err.Record, err.Cause.Error())
}

func (err FormatError) Unwrap() error {
	return err.Cause
}

// DataError wraps an error that occurred while decoding or encoding byte
// data.
type DataError struct {
	// Offset is the byte offset where the error occurred.
	Offset int64

	Cause error
}

func (err DataError) Error() string {
	var s strings.Builder
	s.WriteString("data error")
	if err.Offset >= 0 {
		s.WriteString(" at ")
		s.Write(strconv.AppendInt(nil, err.Offset, 10))
	}
	if err.Cause != nil {
		s.WriteString(": ")
		s.WriteString(err.Cause.Error())
	}
	return s.String()
}

func (err DataError) Unwrap() error {
	return err.Cause
}

// ModelError wraps an error that occurred while moving a prop model payload
// through the model boundary.
type ModelError struct {
	// Path is the model's file name.
	Path string

	Cause error
}

func (err ModelError) Error() string {
	return fmt.Sprintf("model %q: %s", err.Path, err.Cause.Error())
}

func (err ModelError) Unwrap() error {
	return err.Cause
}

// UnknownSoundError indicates a sound emitter referencing a sound index with
// no registered sound. It is fatal: a file written with the index would
// crash the engine when the room loads.
type UnknownSoundError struct {
	// ID is the unregistered sound index.
	ID uint32
	// Ref is the reference of the offending emitter.
	Ref string
}

func (err UnknownSoundError) Error() string {
	return fmt.Sprintf("emitter %s: no registered sound for index %d", err.Ref, err.ID)
}

// MissingMaterialWarning indicates a drawn mesh with no material. The mesh
// is written with empty texture slots, which the engine renders untextured.
type MissingMaterialWarning struct {
	// Ref is the reference of the mesh object.
	Ref string
	// Index is the mesh object's position within Room.Meshes.
	Index int
}

func (err MissingMaterialWarning) Error() string {
	return fmt.Sprintf("mesh #%d (%s): no material; writing empty texture slots", err.Index, err.Ref)
}

// MissingScreenImageWarning indicates a screen entity with no image. The
// screen is written with an empty image name, which the engine shows blank.
type MissingScreenImageWarning struct {
	// Ref is the reference of the screen entity.
	Ref string
	// Index is the entity's position within Room.Points.
	Index int
}

func (err MissingScreenImageWarning) Error() string {
	return fmt.Sprintf("screen #%d (%s): no image", err.Index, err.Ref)
}
