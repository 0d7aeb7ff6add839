package roommesh_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scpcbapi/roommesh"
)

func quadMesh() roommesh.Mesh {
	return roommesh.Mesh{
		Vertices: []roommesh.Vertex{
			{Position: mgl32.Vec3{0, 0, 0}},
			{Position: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec3{1, 1, 0}},
			{Position: mgl32.Vec3{0, 1, 0}},
		},
		Triangles: []roommesh.Triangle{
			{0, 1, 2},
			{0, 2, 3},
		},
	}
}

func TestMeshValidate(t *testing.T) {
	m := quadMesh()
	if err := m.Validate(); err != nil {
		t.Errorf("expected valid mesh, got: %s", err)
	}

	m.Triangles = append(m.Triangles, roommesh.Triangle{0, 1, 4})
	if err := m.Validate(); err == nil {
		t.Error("expected error for out-of-range vertex index")
	}
}

func TestRecomputeNormals(t *testing.T) {
	m := quadMesh()
	m.RecomputeNormals()
	want := mgl32.Vec3{0, 0, 1}
	for i, v := range m.Vertices {
		if !v.Normal.ApproxEqual(want) {
			t.Errorf("vertex %d: expected normal %v, got %v", i, want, v.Normal)
		}
	}
}

func TestRecomputeNormalsUnreferenced(t *testing.T) {
	m := quadMesh()
	m.Vertices = append(m.Vertices, roommesh.Vertex{Position: mgl32.Vec3{5, 5, 5}})
	m.RecomputeNormals()
	if n := m.Vertices[4].Normal; n != (mgl32.Vec3{}) {
		t.Errorf("expected zero normal on unreferenced vertex, got %v", n)
	}
}

func TestMeshCopy(t *testing.T) {
	m := quadMesh()
	c := m.Copy()
	c.Vertices[0].Position = mgl32.Vec3{9, 9, 9}
	c.Triangles[0][0] = 3
	if m.Vertices[0].Position == c.Vertices[0].Position {
		t.Error("copy shares vertex storage with original")
	}
	if m.Triangles[0][0] == c.Triangles[0][0] {
		t.Error("copy shares triangle storage with original")
	}
}

func TestMeshTransformed(t *testing.T) {
	m := quadMesh()

	id := m.Transformed(roommesh.IdentityTransform())
	for i := range m.Vertices {
		if id.Vertices[i].Position != m.Vertices[i].Position {
			t.Fatal("identity transform changed vertex positions")
		}
	}

	tr := roommesh.IdentityTransform()
	tr.Position = mgl32.Vec3{10, 0, -2}
	moved := m.Transformed(tr)
	want := mgl32.Vec3{10, 0, -2}
	if !moved.Vertices[0].Position.ApproxEqual(want) {
		t.Errorf("expected position %v, got %v", want, moved.Vertices[0].Position)
	}
	if m.Vertices[0].Position != (mgl32.Vec3{0, 0, 0}) {
		t.Error("Transformed mutated the original mesh")
	}

	sc := roommesh.IdentityTransform()
	sc.Scale = mgl32.Vec3{2, 2, 2}
	scaled := m.Transformed(sc)
	if !scaled.Vertices[2].Position.ApproxEqual(mgl32.Vec3{2, 2, 0}) {
		t.Errorf("expected scaled position {2 2 0}, got %v", scaled.Vertices[2].Position)
	}
}

func TestTransformIsIdentity(t *testing.T) {
	if !roommesh.IdentityTransform().IsIdentity() {
		t.Error("expected IdentityTransform to be identity")
	}

	var zero roommesh.Transform
	if zero.IsIdentity() {
		t.Error("zero transform has zero scale and is not identity")
	}

	tr := roommesh.IdentityTransform()
	tr.Rotation = mgl32.Vec3{0, 1, 0}
	if tr.IsIdentity() {
		t.Error("rotated transform is not identity")
	}
}

func TestColor3String(t *testing.T) {
	c := roommesh.Color3{R: 255, G: 0, B: 128}
	if c.String() != "255, 0, 128" {
		t.Errorf("unexpected result from String: %q", c.String())
	}
}
