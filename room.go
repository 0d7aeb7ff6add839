// The roommesh package handles the decoding, encoding, and manipulation of
// RoomMesh scene data, the baked room format used by SCP: Containment Breach
// map rooms.
//
// A scene begins with a Room struct. A Room holds flat, ordered lists of the
// objects that make up one map room: textured mesh objects, invisible
// collision and trigger brushes, point entities, sound emitters, lights, and
// placements of external prop models. Textures are shared through a Material
// registry on the Room, so that any number of mesh objects can refer to the
// same texture set.
//
// Room structures are decoded from and encoded to the binary .rmesh wire
// format by the "rmesh" sub-package. Prop model payloads referenced by a
// Room move through the "xmodel" sub-package.
//
// Rooms can also be constructed manually; constructors such as NewMeshObject
// and NewScreen fill in references and safe defaults.
package roommesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

////////////////////////////////////////////////////////////////

// Room represents a single map room. It is the root of the scene model.
type Room struct {
	// Meshes contains the room's geometry: drawn surfaces as well as
	// invisible collision and trigger brushes, in file order.
	Meshes []*MeshObject

	// Points contains waypoints, screens, and player start points.
	Points []*PointEntity

	// Sounds contains ambient sound emitters.
	Sounds []*SoundEmitter

	// Lights contains point and spot lights.
	Lights []*Light

	// Models contains placements of external prop models.
	Models []*ModelPlacement

	// Materials is the room's texture registry, in first-seen order. Mesh
	// objects point into this list; entries are shared, never duplicated.
	Materials []*Material
}

// Material returns the registry entry for the given texture set, adding one
// if the set has not been seen before. A set with no textures at all has no
// material; in that case Material returns nil.
func (room *Room) Material(diffuse, lightmap, alpha string) *Material {
	if diffuse == "" && lightmap == "" && alpha == "" {
		return nil
	}
	for _, mat := range room.Materials {
		if mat.Diffuse == diffuse && mat.Lightmap == lightmap && mat.Alpha == alpha {
			return mat
		}
	}
	mat := &Material{Diffuse: diffuse, Lightmap: lightmap, Alpha: alpha}
	room.Materials = append(room.Materials, mat)
	return mat
}

////////////////////////////////////////////////////////////////

// MeshObject represents one renderable or collidable piece of room geometry.
type MeshObject struct {
	// Reference is a unique string used to refer to the object, for example
	// from diagnostics. It is not stored in the wire format.
	Reference string

	// Mesh holds the object's vertices and triangles.
	Mesh Mesh

	// Material is the object's entry in the room's texture registry. It is
	// nil when the object has no textures, which the engine renders as an
	// untextured surface.
	Material *Material

	// IsCollision marks the object as an invisible collision brush. Drawn
	// geometry always collides; IsCollision is for geometry that only
	// collides.
	IsCollision bool

	// IsTrigger marks a collision brush as a trigger volume. A trigger is by
	// definition a collision brush; encoding normalizes IsCollision to true
	// whenever IsTrigger is set.
	IsTrigger bool

	// TriggerName is the event name fired when the player enters a trigger
	// volume. Brushes sharing a name form a single multi-brush trigger box.
	TriggerName string

	// ModelName, when non-empty, routes the object through the model payload
	// boundary at encode time instead of the plain mesh sections. See the
	// xmodel sub-package.
	ModelName string

	// Transform positions the object within the room. The wire format stores
	// no mesh transforms; encoding bakes the transform into the vertices,
	// and decoded meshes carry the identity. Objects with a ModelName are
	// the exception: they keep their placement transform, which encoding
	// writes back to the model record instead of baking.
	Transform Transform
}

// NewMeshObject returns a MeshObject with a fresh reference and an identity
// transform.
func NewMeshObject() *MeshObject {
	return &MeshObject{
		Reference: GenerateReference(),
		Transform: IdentityTransform(),
	}
}

// Visible reports whether the object is drawn geometry, as opposed to an
// invisible collision or trigger brush.
func (obj *MeshObject) Visible() bool {
	return !obj.IsCollision && !obj.IsTrigger
}

////////////////////////////////////////////////////////////////

// PointKind indicates the subtype of a PointEntity.
type PointKind uint8

const (
	// KindWaypoint is a node of the NPC navigation graph.
	KindWaypoint PointKind = iota

	// KindScreen is an interactable computer screen displaying an image.
	KindScreen

	// KindPlayerStart is the point, with facing, where the player spawns.
	KindPlayerStart
)

// String returns a human-readable name for the kind.
func (kind PointKind) String() string {
	switch kind {
	case KindWaypoint:
		return "Waypoint"
	case KindScreen:
		return "Screen"
	case KindPlayerStart:
		return "PlayerStart"
	}
	return "Invalid"
}

// PointEntity represents a located, non-mesh object in the room.
type PointEntity struct {
	// Reference is a unique string used to refer to the entity. It is not
	// stored in the wire format.
	Reference string

	// Kind indicates the entity's subtype.
	Kind PointKind

	// Position is the entity's location in room space.
	Position mgl32.Vec3

	// Rotation holds pitch, yaw, and roll in degrees. Only KindPlayerStart
	// carries a rotation.
	Rotation mgl32.Vec3

	// Image is the picture shown on a screen entity. Only KindScreen carries
	// an image; the field is ignored for other kinds.
	Image string
}

// NewWaypoint returns a waypoint entity at the given position.
func NewWaypoint(position mgl32.Vec3) *PointEntity {
	return &PointEntity{
		Reference: GenerateReference(),
		Kind:      KindWaypoint,
		Position:  position,
	}
}

// NewScreen returns a screen entity at the given position, displaying the
// given image.
func NewScreen(position mgl32.Vec3, image string) *PointEntity {
	return &PointEntity{
		Reference: GenerateReference(),
		Kind:      KindScreen,
		Position:  position,
		Image:     image,
	}
}

// NewPlayerStart returns a player start point at the given position, facing
// per the given pitch, yaw, and roll in degrees.
func NewPlayerStart(position, rotation mgl32.Vec3) *PointEntity {
	return &PointEntity{
		Reference: GenerateReference(),
		Kind:      KindPlayerStart,
		Position:  position,
		Rotation:  rotation,
	}
}

////////////////////////////////////////////////////////////////

// SoundEmitter represents an ambient sound source. The sound itself is not
// embedded; Sound is an index resolved against a sound registry by the
// engine and by the encoder.
type SoundEmitter struct {
	// Reference is a unique string used to refer to the emitter. It is not
	// stored in the wire format.
	Reference string

	// Position is the emitter's location in room space.
	Position mgl32.Vec3

	// Sound is the engine sound index to play.
	Sound uint32

	// Range is the audible distance of the emitter.
	Range float32
}

// NewSoundEmitter returns a sound emitter at the given position playing the
// given engine sound index.
func NewSoundEmitter(position mgl32.Vec3, sound uint32, distance float32) *SoundEmitter {
	return &SoundEmitter{
		Reference: GenerateReference(),
		Position:  position,
		Sound:     sound,
		Range:     distance,
	}
}

////////////////////////////////////////////////////////////////

// LightKind indicates the subtype of a Light.
type LightKind uint8

const (
	// LightPoint is an omnidirectional light.
	LightPoint LightKind = iota

	// LightSpot is a directed cone light.
	LightSpot
)

// String returns a human-readable name for the kind.
func (kind LightKind) String() string {
	switch kind {
	case LightPoint:
		return "Point"
	case LightSpot:
		return "Spot"
	}
	return "Invalid"
}

// Light represents a point or spot light.
type Light struct {
	// Reference is a unique string used to refer to the light. It is not
	// stored in the wire format.
	Reference string

	// Kind indicates the light's subtype.
	Kind LightKind

	// Position is the light's location in room space.
	Position mgl32.Vec3

	// Color is the light's color.
	Color Color3

	// Range is the light's cutoff distance.
	Range float32

	// Intensity is the light's editor-side energy. The wire format stores
	// intensity divided by the luminance factor, so a decoded value is an
	// approximation of the original; see Approximate.
	Intensity float32

	// Approximate reports that Intensity was reconstructed from the wire
	// format's scaled-down value rather than set directly.
	Approximate bool

	// Rotation holds pitch, yaw, and roll in degrees. Only LightSpot carries
	// a rotation.
	Rotation mgl32.Vec3

	// Inner and Outer are the spot cone angles in degrees, with the inner
	// cone at full brightness. Only LightSpot carries cone angles.
	Inner, Outer uint32
}

// NewPointLight returns an omnidirectional light.
func NewPointLight(position mgl32.Vec3, color Color3, distance, intensity float32) *Light {
	return &Light{
		Reference: GenerateReference(),
		Kind:      LightPoint,
		Position:  position,
		Color:     color,
		Range:     distance,
		Intensity: intensity,
	}
}

// NewSpotLight returns a cone light facing per the given pitch, yaw, and
// roll in degrees, with inner and outer cone angles in degrees.
func NewSpotLight(position mgl32.Vec3, color Color3, distance, intensity float32, rotation mgl32.Vec3, inner, outer uint32) *Light {
	return &Light{
		Reference: GenerateReference(),
		Kind:      LightSpot,
		Position:  position,
		Color:     color,
		Range:     distance,
		Intensity: intensity,
		Rotation:  rotation,
		Inner:     inner,
		Outer:     outer,
	}
}

////////////////////////////////////////////////////////////////

// ModelPlacement represents one placement of an external prop model. The
// wire format stores the model's file name and a raw transform; the payload
// itself lives outside the room file.
type ModelPlacement struct {
	// Reference is a unique string used to refer to the placement. It is not
	// stored in the wire format.
	Reference string

	// Path is the model's file name, used as the payload key.
	Path string

	// Position is the placement's location in room space.
	Position mgl32.Vec3

	// Rotation holds pitch, yaw, and roll in degrees, as stored on the wire.
	Rotation mgl32.Vec3

	// Scale holds the placement's per-axis scale.
	Scale mgl32.Vec3
}

// NewModelPlacement returns a placement of the named model with unit scale.
func NewModelPlacement(path string, position mgl32.Vec3) *ModelPlacement {
	return &ModelPlacement{
		Reference: GenerateReference(),
		Path:      path,
		Position:  position,
		Scale:     mgl32.Vec3{1, 1, 1},
	}
}

////////////////////////////////////////////////////////////////

// Material is one entry in a room's texture registry: up to three texture
// file names making up one surface appearance. Any field may be empty.
type Material struct {
	// Diffuse is the base color texture.
	Diffuse string

	// Lightmap is the baked lighting texture.
	Lightmap string

	// Alpha is the transparency mask texture.
	Alpha string
}

// String returns the material's texture file names separated by commas.
func (mat *Material) String() string {
	return mat.Diffuse + ", " + mat.Lightmap + ", " + mat.Alpha
}
