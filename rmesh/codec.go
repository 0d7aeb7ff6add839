package rmesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scpcbapi/roommesh"
	"github.com/scpcbapi/roommesh/errors"
	"github.com/scpcbapi/roommesh/xmodel"
	"golang.org/x/crypto/blake2b"
)

// luminanceFactor converts between a light's Intensity and the scaled-down
// intensity the wire format stores.
const luminanceFactor = 50

// roomCodec converts between a formatModel and a roommesh.Room.
type roomCodec struct {
	models xmodel.Source
	codec  xmodel.Codec
	sink   xmodel.Sink
	sounds roommesh.SoundRegistry
}

// validTriangles checks that every triangle of m refers to vertices that
// exist.
func validTriangles(m *roommesh.Mesh, ref string) error {
	n := len(m.Vertices)
	for i, tri := range m.Triangles {
		for _, index := range tri {
			if int(index) >= n {
				return FaceIndexError{Ref: ref, Triangle: i, Index: index, Count: n}
			}
		}
	}
	return nil
}

// Decode converts a formatModel into a Room.
//
// Fatal errors relate to the content of the model rather than the stream it
// came from, so they are returned as FormatError without an offset.
func (c roomCodec) Decode(f *formatModel) (room *roommesh.Room, warn, err error) {
	if f == nil {
		return nil, nil, errors.New("nil format model")
	}

	var warns errors.Errors
	room = &roommesh.Room{}

	for i, obj := range f.Objects {
		var mesh roommesh.Mesh
		for _, v := range obj.Vertices {
			mesh.Vertices = append(mesh.Vertices, roommesh.Vertex{
				Position:   v.Position,
				UV:         v.UV,
				LightmapUV: v.LightmapUV,
				Color:      v.Color,
			})
		}
		mesh.Triangles = append(mesh.Triangles, obj.Triangles...)
		if err := validTriangles(&mesh, ""); err != nil {
			return nil, warns.Return(), FormatError{Section: sectionObjects, Record: i, Cause: err}
		}
		mesh.RecomputeNormals()

		m := roommesh.NewMeshObject()
		m.Mesh = mesh
		m.Material = decodeMaterial(room, obj)
		room.Meshes = append(room.Meshes, m)
	}

	for i, col := range f.Collisions {
		m, err := decodeCollision(col)
		if err != nil {
			return nil, warns.Return(), FormatError{Section: sectionCollisions, Record: i, Cause: err}
		}
		m.IsCollision = true
		room.Meshes = append(room.Meshes, m)
	}

	for i, trig := range f.Triggers {
		for _, b := range trig.Brushes {
			m, err := decodeCollision(b)
			if err != nil {
				return nil, warns.Return(), FormatError{Section: sectionTriggers, Record: i, Cause: err}
			}
			m.IsCollision = true
			m.IsTrigger = true
			m.TriggerName = trig.Name
			room.Meshes = append(room.Meshes, m)
		}
	}

	for i, p := range f.Points {
		switch p := p.(type) {
		case *pointScreen:
			room.Points = append(room.Points, roommesh.NewScreen(p.Position, p.Image))
		case *pointWaypoint:
			room.Points = append(room.Points, roommesh.NewWaypoint(p.Position))
		case *pointSpotlight:
			light := roommesh.NewSpotLight(p.Position, p.Color, p.Range, p.Intensity*luminanceFactor, p.Angle, p.Inner, p.Outer)
			light.Approximate = true
			room.Lights = append(room.Lights, light)
		case *pointLight:
			light := roommesh.NewPointLight(p.Position, p.Color, p.Range, p.Intensity*luminanceFactor)
			light.Approximate = true
			room.Lights = append(room.Lights, light)
		case *pointSound:
			room.Sounds = append(room.Sounds, roommesh.NewSoundEmitter(p.Position, p.Sound, p.Range))
		case *pointPlayerStart:
			room.Points = append(room.Points, roommesh.NewPlayerStart(p.Position, p.Angle))
		case *pointModel:
			if c.models != nil && c.codec != nil {
				m, err := c.decodeModel(p)
				if err != nil {
					return nil, warns.Return(), FormatError{Section: sectionPoints, Record: i, Cause: err}
				}
				room.Meshes = append(room.Meshes, m)
				continue
			}
			placement := roommesh.NewModelPlacement(p.Path, p.Position)
			placement.Rotation = p.Rotation
			placement.Scale = p.Scale
			room.Models = append(room.Models, placement)
		default:
			return nil, warns.Return(), FormatError{Section: sectionPoints, Record: i, Cause: ClassError(p.Class())}
		}
	}

	return room, warns.Return(), nil
}

// decodeMaterial interns the textures of a drawn mesh record into the room's
// registry. Slots are mapped by layer; the first slot found per layer wins.
func decodeMaterial(room *roommesh.Room, obj *fileObject) *roommesh.Material {
	var diffuse, lightmap, alpha string
	for i := range obj.Textures {
		t := &obj.Textures[i]
		if t.Empty() {
			continue
		}
		switch t.Layer {
		case layerDiffuse:
			if diffuse == "" {
				diffuse = t.Name
			}
		case layerLightmap:
			if lightmap == "" {
				lightmap = t.Name
			}
		case layerAlpha:
			if alpha == "" {
				alpha = t.Name
			}
		}
	}
	return room.Material(diffuse, lightmap, alpha)
}

// decodeCollision builds a mesh object from a position-only record. Normals
// are left zero; collision geometry is never drawn.
func decodeCollision(col *fileCollision) (*roommesh.MeshObject, error) {
	var mesh roommesh.Mesh
	for _, pos := range col.Vertices {
		mesh.Vertices = append(mesh.Vertices, roommesh.Vertex{Position: pos})
	}
	mesh.Triangles = append(mesh.Triangles, col.Triangles...)
	if err := validTriangles(&mesh, ""); err != nil {
		return nil, err
	}
	m := roommesh.NewMeshObject()
	m.Mesh = mesh
	return m, nil
}

// decodeModel loads and decodes the payload of a model record, attaching the
// record's transform to the resulting mesh object.
func (c roomCodec) decodeModel(p *pointModel) (*roommesh.MeshObject, error) {
	data, err := c.models.ReadModel(p.Path)
	if err != nil {
		return nil, ModelError{Path: p.Path, Cause: err}
	}
	mesh, err := c.codec.Decode(data)
	if err != nil {
		return nil, ModelError{Path: p.Path, Cause: err}
	}
	m := roommesh.NewMeshObject()
	m.Mesh = *mesh
	m.ModelName = p.Path
	m.Transform = roommesh.Transform{
		Position: p.Position,
		Rotation: mgl32.Vec3{
			mgl32.DegToRad(p.Rotation.X()),
			mgl32.DegToRad(p.Rotation.Y()),
			mgl32.DegToRad(p.Rotation.Z()),
		},
		Scale: p.Scale,
	}
	return m, nil
}

// Encode converts a Room into a formatModel.
//
// The model is assembled completely before anything is emitted: a fatal
// error means no output was produced, on the stream or on the model sink.
func (c roomCodec) Encode(room *roommesh.Room) (f *formatModel, warn, err error) {
	if room == nil {
		return nil, nil, errors.New("nil room")
	}

	var warns errors.Errors
	f = &formatModel{Trailer: true}

	var modelMeshes []*roommesh.MeshObject
	triggerIndex := map[string]*fileTrigger{}

	for i, obj := range room.Meshes {
		if obj == nil {
			return nil, warns.Return(), fmt.Errorf("mesh object #%d is nil", i)
		}
		if err := validTriangles(&obj.Mesh, obj.Reference); err != nil {
			return nil, warns.Return(), err
		}
		if obj.ModelName != "" {
			modelMeshes = append(modelMeshes, obj)
			continue
		}
		mesh := obj.Mesh.Transformed(obj.Transform)
		switch {
		case obj.IsTrigger:
			g := triggerIndex[obj.TriggerName]
			if g == nil {
				g = &fileTrigger{Name: obj.TriggerName}
				triggerIndex[obj.TriggerName] = g
				f.Triggers = append(f.Triggers, g)
			}
			g.Brushes = append(g.Brushes, encodeCollision(&mesh))
		case obj.IsCollision:
			f.Collisions = append(f.Collisions, encodeCollision(&mesh))
		default:
			if obj.Material == nil {
				warns = append(warns, MissingMaterialWarning{Ref: obj.Reference, Index: i})
			}
			f.Objects = append(f.Objects, encodeObject(&mesh, obj.Material))
		}
	}

	if len(f.Triggers) > 0 {
		f.Signature = sigTriggerBox
	} else {
		f.Signature = sigRoomMesh
	}

	for i, p := range room.Points {
		if p == nil {
			return nil, warns.Return(), fmt.Errorf("point entity #%d is nil", i)
		}
		switch p.Kind {
		case roommesh.KindWaypoint:
			f.Points = append(f.Points, &pointWaypoint{Position: p.Position})
		case roommesh.KindScreen:
			if p.Image == "" {
				warns = append(warns, MissingScreenImageWarning{Ref: p.Reference, Index: i})
			}
			f.Points = append(f.Points, &pointScreen{Position: p.Position, Image: p.Image})
		case roommesh.KindPlayerStart:
			f.Points = append(f.Points, &pointPlayerStart{Position: p.Position, Angle: p.Rotation})
		default:
			return nil, warns.Return(), fmt.Errorf("point entity #%d (%s): invalid kind %d", i, p.Reference, p.Kind)
		}
	}

	for i, snd := range room.Sounds {
		if snd == nil {
			return nil, warns.Return(), fmt.Errorf("sound emitter #%d is nil", i)
		}
		if c.sounds != nil {
			if _, ok := c.sounds.Resolve(snd.Sound); !ok {
				return nil, warns.Return(), UnknownSoundError{ID: snd.Sound, Ref: snd.Reference}
			}
		}
		f.Points = append(f.Points, &pointSound{Position: snd.Position, Sound: snd.Sound, Range: snd.Range})
	}

	for i, light := range room.Lights {
		if light == nil {
			return nil, warns.Return(), fmt.Errorf("light #%d is nil", i)
		}
		switch light.Kind {
		case roommesh.LightPoint:
			f.Points = append(f.Points, &pointLight{
				Position:  light.Position,
				Range:     light.Range,
				Color:     light.Color,
				Intensity: light.Intensity / luminanceFactor,
			})
		case roommesh.LightSpot:
			f.Points = append(f.Points, &pointSpotlight{
				pointLight: pointLight{
					Position:  light.Position,
					Range:     light.Range,
					Color:     light.Color,
					Intensity: light.Intensity / luminanceFactor,
				},
				Angle: light.Rotation,
				Inner: light.Inner,
				Outer: light.Outer,
			})
		default:
			return nil, warns.Return(), fmt.Errorf("light #%d (%s): invalid kind %d", i, light.Reference, light.Kind)
		}
	}

	for i, placement := range room.Models {
		if placement == nil {
			return nil, warns.Return(), fmt.Errorf("model placement #%d is nil", i)
		}
		if placement.Path == "" {
			return nil, warns.Return(), fmt.Errorf("model placement #%d (%s): empty path", i, placement.Reference)
		}
		f.Points = append(f.Points, &pointModel{
			Path:     placement.Path,
			Position: placement.Position,
			Rotation: placement.Rotation,
			Scale:    placement.Scale,
		})
	}

	// Model-backed meshes become model records. Payloads are encoded and
	// checked first; they reach the sink only after every record is known to
	// be encodable.
	type modelPayload struct {
		name string
		data []byte
	}
	var payloads []modelPayload
	sums := map[string][blake2b.Size256]byte{}

	for _, obj := range modelMeshes {
		if c.codec != nil && c.sink != nil {
			data, err := c.codec.Encode(&obj.Mesh)
			if err != nil {
				return nil, warns.Return(), ModelError{Path: obj.ModelName, Cause: err}
			}
			sum := blake2b.Sum256(data)
			if prev, ok := sums[obj.ModelName]; ok {
				if prev != sum {
					return nil, warns.Return(), ModelError{Path: obj.ModelName, Cause: ErrModelConflict}
				}
			} else {
				sums[obj.ModelName] = sum
				payloads = append(payloads, modelPayload{name: obj.ModelName, data: data})
			}
		}
		f.Points = append(f.Points, &pointModel{
			Path:     obj.ModelName,
			Position: obj.Transform.Position,
			Rotation: mgl32.Vec3{
				mgl32.RadToDeg(obj.Transform.Rotation.X()),
				mgl32.RadToDeg(obj.Transform.Rotation.Y()),
				mgl32.RadToDeg(obj.Transform.Rotation.Z()),
			},
			Scale: obj.Transform.Scale,
		})
	}

	for _, p := range payloads {
		if err := c.sink.WriteModel(p.name, p.data); err != nil {
			return nil, warns.Return(), ModelError{Path: p.name, Cause: err}
		}
	}

	return f, warns.Return(), nil
}

// encodeObject builds a drawn mesh record. The transform is expected to be
// baked into the mesh already.
func encodeObject(mesh *roommesh.Mesh, mat *roommesh.Material) *fileObject {
	obj := &fileObject{Textures: encodeTextures(mat)}
	for _, v := range mesh.Vertices {
		obj.Vertices = append(obj.Vertices, fileVertex{
			Position:   v.Position,
			UV:         v.UV,
			LightmapUV: v.LightmapUV,
			Color:      v.Color,
		})
	}
	obj.Triangles = append(obj.Triangles, mesh.Triangles...)
	return obj
}

// encodeTextures maps a material onto the record's two texture slots. The
// first slot holds the lightmap, the second the alpha or diffuse map, with
// alpha preferred. Unused slots take the padding form the engine's own
// tooling writes: the diffuse layer with an empty name.
func encodeTextures(mat *roommesh.Material) [2]fileTexture {
	slots := [2]fileTexture{
		{Layer: layerDiffuse},
		{Layer: layerDiffuse},
	}
	if mat == nil {
		return slots
	}
	if mat.Lightmap != "" {
		slots[0] = fileTexture{Layer: layerLightmap, Name: mat.Lightmap}
	}
	switch {
	case mat.Alpha != "":
		slots[1] = fileTexture{Layer: layerAlpha, Name: mat.Alpha}
	case mat.Diffuse != "":
		slots[1] = fileTexture{Layer: layerDiffuse, Name: mat.Diffuse}
	}
	return slots
}

// encodeCollision builds a position-only record from a mesh.
func encodeCollision(mesh *roommesh.Mesh) *fileCollision {
	col := new(fileCollision)
	for _, v := range mesh.Vertices {
		col.Vertices = append(col.Vertices, v.Position)
	}
	col.Triangles = append(col.Triangles, mesh.Triangles...)
	return col
}
