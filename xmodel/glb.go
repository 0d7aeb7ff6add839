package xmodel

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/scpcbapi/roommesh"
)

// GLB converts meshes to and from the glTF binary form.
//
// Decoding concatenates every primitive of every mesh in the document into
// one mesh; node transforms are ignored. Encoding produces a document with a
// single mesh holding a single primitive.
type GLB struct{}

// Decode implements Codec.
func (GLB) Decode(data []byte) (*roommesh.Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, err
	}

	mesh := new(roommesh.Mesh)
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			if err := appendPrimitive(mesh, doc, prim); err != nil {
				return nil, fmt.Errorf("mesh %d, primitive %d: %w", mi, pi, err)
			}
		}
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func appendPrimitive(mesh *roommesh.Mesh, doc *gltf.Document, prim *gltf.Primitive) error {
	base := uint32(len(mesh.Vertices))

	attr, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return errors.New("primitive has no position attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[attr], nil)
	if err != nil {
		return err
	}

	var normals [][3]float32
	if attr, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[attr], nil); err != nil {
			return err
		}
	}
	var uvs [][2]float32
	if attr, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[attr], nil); err != nil {
			return err
		}
	}
	var luvs [][2]float32
	if attr, ok := prim.Attributes[gltf.TEXCOORD_1]; ok {
		if luvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[attr], nil); err != nil {
			return err
		}
	}
	var colors [][4]uint8
	if attr, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if colors, err = modeler.ReadColor(doc, doc.Accessors[attr], nil); err != nil {
			return err
		}
	}

	for i, pos := range positions {
		// Untinted geometry is white; a black default would render the
		// prop invisible in-game.
		v := roommesh.Vertex{
			Position: mgl32.Vec3{pos[0], pos[1], pos[2]},
			Color:    roommesh.White,
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2{uvs[i][0], uvs[i][1]}
		}
		if i < len(luvs) {
			v.LightmapUV = mgl32.Vec2{luvs[i][0], luvs[i][1]}
		}
		if i < len(colors) {
			v.Color = roommesh.Color3{R: colors[i][0], G: colors[i][1], B: colors[i][2]}
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	if prim.Indices == nil {
		// Non-indexed geometry: consecutive vertex triples form triangles.
		for i := 0; i+2 < len(positions); i += 3 {
			mesh.Triangles = append(mesh.Triangles, roommesh.Triangle{
				base + uint32(i),
				base + uint32(i) + 1,
				base + uint32(i) + 2,
			})
		}
		return nil
	}

	indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
	if err != nil {
		return err
	}
	for i := 0; i+2 < len(indices); i += 3 {
		mesh.Triangles = append(mesh.Triangles, roommesh.Triangle{
			base + indices[i],
			base + indices[i+1],
			base + indices[i+2],
		})
	}
	return nil
}

// Encode implements Codec.
func (GLB) Encode(mesh *roommesh.Mesh) ([]byte, error) {
	if mesh == nil {
		return nil, errors.New("nil mesh")
	}
	if len(mesh.Vertices) == 0 {
		return nil, errors.New("empty mesh")
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	// The format requires unit normals. A mesh that never had its normals
	// computed gets them derived from a copy here.
	src := mesh
	hasNormals := false
	for i := range mesh.Vertices {
		if mesh.Vertices[i].Normal != (mgl32.Vec3{}) {
			hasNormals = true
			break
		}
	}
	if !hasNormals {
		m := mesh.Copy()
		m.RecomputeNormals()
		src = &m
	}

	positions := make([][3]float32, len(src.Vertices))
	normals := make([][3]float32, len(src.Vertices))
	uvs := make([][2]float32, len(src.Vertices))
	luvs := make([][2]float32, len(src.Vertices))
	colors := make([][3]uint8, len(src.Vertices))
	for i, v := range src.Vertices {
		positions[i] = [3]float32{v.Position.X(), v.Position.Y(), v.Position.Z()}
		normals[i] = [3]float32{v.Normal.X(), v.Normal.Y(), v.Normal.Z()}
		uvs[i] = [2]float32{v.UV.X(), v.UV.Y()}
		luvs[i] = [2]float32{v.LightmapUV.X(), v.LightmapUV.Y()}
		colors[i] = [3]uint8{v.Color.R, v.Color.G, v.Color.B}
	}
	indices := make([]uint32, 0, len(src.Triangles)*3)
	for _, tri := range src.Triangles {
		indices = append(indices, tri[0], tri[1], tri[2])
	}

	doc := gltf.NewDocument()
	prim := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: map[string]int{
			gltf.POSITION:   modeler.WritePosition(doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
			gltf.TEXCOORD_1: modeler.WriteTextureCoord(doc, luvs),
			gltf.COLOR_0:    modeler.WriteColor(doc, colors),
		},
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Primitives: []*gltf.Primitive{prim}})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(len(doc.Meshes) - 1)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)

	var buf bytes.Buffer
	if err := gltf.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
