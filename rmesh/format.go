// Package rmesh implements a decoder and encoder for the RoomMesh binary
// room format used by SCP: Containment Breach.
//
// The Decoder and Encoder types convert between byte streams and
// roommesh.Room structures. The format is fully positional: sections carry
// no tags, and a section's position within the file is its identity. Every
// multi-byte value is little-endian, and strings are a uint32 length
// followed by that many bytes.
package rmesh

// File signatures. A file signals the presence of the trigger box section
// through its signature alone.
const (
	sigRoomMesh   = "RoomMesh"
	sigTriggerBox = "RoomMesh.HasTriggerBox"
)

// eofMarker is the string record appended after the point section. The
// engine never reads it; writers always emit it.
const eofMarker = "EOF"

// section identifies one positional section of the format. Sections occur
// in the order the constants are declared.
type section uint8

const (
	sectionHeader section = iota
	sectionObjects
	sectionCollisions
	sectionTriggers
	sectionPoints
	sectionTrailer
)

// String returns a human-readable name for the section.
func (s section) String() string {
	switch s {
	case sectionHeader:
		return "header"
	case sectionObjects:
		return "objects"
	case sectionCollisions:
		return "collisions"
	case sectionTriggers:
		return "triggers"
	case sectionPoints:
		return "points"
	case sectionTrailer:
		return "trailer"
	}
	return "invalid"
}

// Texture slot layers. A drawn mesh record has two texture slots; each
// non-empty slot is tagged with the layer that tells the engine how to blend
// it.
const (
	layerNone     = 0 // empty slot, no file name on the wire
	layerDiffuse  = 1
	layerLightmap = 2
	layerAlpha    = 3
)

// layerName returns a human-readable name for a texture slot layer.
func layerName(layer uint8) string {
	switch layer {
	case layerNone:
		return "none"
	case layerDiffuse:
		return "diffuse"
	case layerLightmap:
		return "lightmap"
	case layerAlpha:
		return "alpha"
	}
	return "invalid"
}

// Point record class names.
const (
	classScreen       = "screen"
	classWaypoint     = "waypoint"
	classLight        = "light"
	classSpotlight    = "spotlight"
	classSoundEmitter = "soundemitter"
	classPlayerStart  = "playerstart"
	classModel        = "model"
)
