package roommesh

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a single mesh vertex.
type Vertex struct {
	// Position is the vertex location in room space.
	Position mgl32.Vec3

	// Normal is the vertex normal. The wire format does not store normals;
	// they are derived data, regenerated by Mesh.RecomputeNormals.
	Normal mgl32.Vec3

	// UV is the diffuse texture coordinate.
	UV mgl32.Vec2

	// LightmapUV is the baked lighting texture coordinate.
	LightmapUV mgl32.Vec2

	// Color is the vertex color.
	Color Color3
}

// Triangle indexes three vertices of a mesh, in winding order.
type Triangle [3]uint32

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle
}

// Validate checks that every triangle indexes a vertex that exists.
func (m *Mesh) Validate() error {
	for i, tri := range m.Triangles {
		for _, index := range tri {
			if int(index) >= len(m.Vertices) {
				return fmt.Errorf("triangle %d: vertex index %d out of range [0, %d)", i, index, len(m.Vertices))
			}
		}
	}
	return nil
}

// Copy returns a deep copy of the mesh.
func (m *Mesh) Copy() Mesh {
	c := Mesh{
		Vertices:  make([]Vertex, len(m.Vertices)),
		Triangles: make([]Triangle, len(m.Triangles)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Triangles, m.Triangles)
	return c
}

// RecomputeNormals rewrites every vertex normal as the normalized sum of the
// normals of adjacent triangles, weighted by triangle area. Triangles with
// out-of-range indices are skipped.
func (m *Mesh) RecomputeNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = mgl32.Vec3{}
	}
	for _, tri := range m.Triangles {
		if int(tri[0]) >= len(m.Vertices) || int(tri[1]) >= len(m.Vertices) || int(tri[2]) >= len(m.Vertices) {
			continue
		}
		a := m.Vertices[tri[0]].Position
		b := m.Vertices[tri[1]].Position
		c := m.Vertices[tri[2]].Position
		// Cross product length is twice the triangle area, which weights the
		// accumulated normal.
		face := b.Sub(a).Cross(c.Sub(a))
		for _, index := range tri {
			m.Vertices[index].Normal = m.Vertices[index].Normal.Add(face)
		}
	}
	for i := range m.Vertices {
		n := m.Vertices[i].Normal
		length := math32.Sqrt(n.X()*n.X() + n.Y()*n.Y() + n.Z()*n.Z())
		if length == 0 {
			continue
		}
		m.Vertices[i].Normal = n.Mul(1 / length)
	}
}

// Transformed returns a copy of the mesh with the given transform applied to
// every vertex position. Normals are regenerated from the transformed
// positions.
func (m *Mesh) Transformed(t Transform) Mesh {
	c := m.Copy()
	if t.IsIdentity() {
		return c
	}
	mat := t.Matrix()
	for i := range c.Vertices {
		p := c.Vertices[i].Position
		c.Vertices[i].Position = mgl32.TransformCoordinate(p, mat)
	}
	c.RecomputeNormals()
	return c
}

////////////////////////////////////////////////////////////////

// Transform places an object within a room: a translation, an XYZ Euler
// rotation in radians, and a per-axis scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// IdentityTransform returns the transform that leaves geometry unchanged.
func IdentityTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// IsIdentity reports whether the transform leaves geometry unchanged.
func (t Transform) IsIdentity() bool {
	return t == IdentityTransform()
}

// Matrix returns the transform as a single matrix, applying scale first,
// then rotation about X, Y, and Z in that order, then translation.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	m = m.Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z()))
	m = m.Mul4(mgl32.HomogRotate3DY(t.Rotation.Y()))
	m = m.Mul4(mgl32.HomogRotate3DX(t.Rotation.X()))
	m = m.Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
	return m
}

////////////////////////////////////////////////////////////////

// Color3 is an 8-bit RGB color.
type Color3 struct {
	R, G, B uint8
}

// White is the default vertex color.
var White = Color3{255, 255, 255}

// String returns the color's components separated by commas.
func (c Color3) String() string {
	return fmt.Sprintf("%d, %d, %d", c.R, c.G, c.B)
}
