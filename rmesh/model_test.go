package rmesh

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/anaminus/parse"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scpcbapi/roommesh"
)

// app builds a little-endian byte stream. Strings are written with their
// length prefix, byte values raw, int and uint32 values as uint32, and
// float32 values as float32. Byte slices are spliced in as-is.
func app(bs ...interface{}) []byte {
	var buf bytes.Buffer
	var n [4]byte
	for _, b := range bs {
		switch b := b.(type) {
		case string:
			binary.LittleEndian.PutUint32(n[:], uint32(len(b)))
			buf.Write(n[:])
			buf.WriteString(b)
		case []byte:
			buf.Write(b)
		case byte:
			buf.WriteByte(b)
		case int:
			binary.LittleEndian.PutUint32(n[:], uint32(b))
			buf.Write(n[:])
		case uint32:
			binary.LittleEndian.PutUint32(n[:], b)
			buf.Write(n[:])
		case float32:
			binary.LittleEndian.PutUint32(n[:], math.Float32bits(b))
			buf.Write(n[:])
		default:
			panic("unhandled type in app")
		}
	}
	return buf.Bytes()
}

// pos emits a coordinate triple in wire order.
func pos(x, y, z float32) []byte {
	return app(x, z, y)
}

// vtx emits a full drawn-mesh vertex.
func vtx(x, y, z, u1, v1, u2, v2 float32, r, g, b byte) []byte {
	return app(pos(x, y, z), u1, v1, u2, v2, r, g, b)
}

// tri emits a triangle.
func tri(a, b, c int) []byte {
	return app(a, b, c)
}

// writer accepts a limited number of bytes before returning io.EOF.
type writer int

func (w *writer) Write(b []byte) (n int, err error) {
	if *w <= 0 {
		return 0, io.EOF
	}
	*(*int)(w) -= len(b)
	if *w < 0 {
		return len(b) + *(*int)(w), io.ErrUnexpectedEOF
	}
	return len(b), nil
}

func TestReadString(t *testing.T) {
	var s string
	fr := parse.NewBinaryReader(bytes.NewReader(app("hello")))
	if readString(fr, &s) {
		t.Fatal("unexpected failure:", fr.Err())
	}
	if s != "hello" {
		t.Error("expected hello, got:", s)
	}

	fr = parse.NewBinaryReader(bytes.NewReader(app("")))
	if readString(fr, &s) {
		t.Fatal("unexpected failure:", fr.Err())
	}
	if s != "" {
		t.Error("expected empty string, got:", s)
	}

	fr = parse.NewBinaryReader(bytes.NewReader(app(uint32(maxStringLen + 1))))
	if !readString(fr, &s) {
		t.Fatal("expected failure (length limit)")
	}
	if _, ok := fr.Err().(StringLengthError); !ok {
		t.Error("expected StringLengthError, got:", fr.Err())
	}

	fr = parse.NewBinaryReader(bytes.NewReader(app(uint32(10), []byte("short"))))
	if !readString(fr, &s) {
		t.Fatal("expected failure (short string)")
	}
}

func TestWriteString(t *testing.T) {
	var buf bytes.Buffer
	fw := parse.NewBinaryWriter(&buf)
	if writeString(fw, "hello") {
		t.Fatal("unexpected failure:", fw.Err())
	}
	if !bytes.Equal(buf.Bytes(), app("hello")) {
		t.Error("unexpected stream:", buf.Bytes())
	}
}

func TestPositionOrder(t *testing.T) {
	// The wire stores x, z, y.
	b := app(float32(1), float32(2), float32(3))
	var v mgl32.Vec3
	fr := parse.NewBinaryReader(bytes.NewReader(b))
	if readPosition(fr, &v) {
		t.Fatal("unexpected failure:", fr.Err())
	}
	if v != (mgl32.Vec3{1, 3, 2}) {
		t.Error("expected [1 3 2], got:", v)
	}

	var buf bytes.Buffer
	fw := parse.NewBinaryWriter(&buf)
	if writePosition(fw, v) {
		t.Fatal("unexpected failure:", fw.Err())
	}
	if !bytes.Equal(buf.Bytes(), b) {
		t.Error("write did not mirror read:", buf.Bytes())
	}
}

func TestColorString(t *testing.T) {
	var c roommesh.Color3
	fr := parse.NewBinaryReader(bytes.NewReader(app("255 128 0")))
	if readColorString(fr, &c) {
		t.Fatal("unexpected failure:", fr.Err())
	}
	if c != (roommesh.Color3{R: 255, G: 128, B: 0}) {
		t.Error("unexpected color:", c)
	}

	fr = parse.NewBinaryReader(bytes.NewReader(app("255 128")))
	if !readColorString(fr, &c) {
		t.Error("expected failure (two fields)")
	}
	fr = parse.NewBinaryReader(bytes.NewReader(app("r g b")))
	if !readColorString(fr, &c) {
		t.Error("expected failure (non-numeric)")
	}
	fr = parse.NewBinaryReader(bytes.NewReader(app("1 2 300")))
	if !readColorString(fr, &c) {
		t.Error("expected failure (out of range)")
	}

	var buf bytes.Buffer
	fw := parse.NewBinaryWriter(&buf)
	if writeColorString(fw, roommesh.Color3{R: 255, G: 128, B: 0}) {
		t.Fatal("unexpected failure:", fw.Err())
	}
	if !bytes.Equal(buf.Bytes(), app("255 128 0")) {
		t.Error("unexpected stream:", buf.Bytes())
	}
}

func TestAngleString(t *testing.T) {
	var v mgl32.Vec3
	fr := parse.NewBinaryReader(bytes.NewReader(app("90 -45 10")))
	if readAngleString(fr, &v) {
		t.Fatal("unexpected failure:", fr.Err())
	}
	if v != (mgl32.Vec3{90, -45, 10}) {
		t.Error("unexpected angle:", v)
	}

	fr = parse.NewBinaryReader(bytes.NewReader(app("90 45")))
	if !readAngleString(fr, &v) {
		t.Error("expected failure (two fields)")
	}
	fr = parse.NewBinaryReader(bytes.NewReader(app("9.5 0 0")))
	if !readAngleString(fr, &v) {
		t.Error("expected failure (non-integer)")
	}

	// Writing rounds to whole degrees.
	var buf bytes.Buffer
	fw := parse.NewBinaryWriter(&buf)
	if writeAngleString(fw, mgl32.Vec3{90.4, -45.4, 9.6}) {
		t.Fatal("unexpected failure:", fw.Err())
	}
	if !bytes.Equal(buf.Bytes(), app("90 -45 10")) {
		t.Error("unexpected stream:", string(buf.Bytes()[4:]))
	}
}

func TestFileTexture(t *testing.T) {
	var tex fileTexture

	// The bare empty form: a zero layer with no name record at all.
	fr := parse.NewBinaryReader(bytes.NewReader(app(byte(0))))
	if tex.readFrom(fr) {
		t.Fatal("unexpected failure:", fr.Err())
	}
	if tex.Layer != layerNone || tex.Name != "" {
		t.Error("unexpected slot:", tex)
	}
	if !tex.Empty() {
		t.Error("expected empty slot")
	}
	var buf bytes.Buffer
	fw := parse.NewBinaryWriter(&buf)
	if tex.writeTo(fw) {
		t.Fatal("unexpected failure:", fw.Err())
	}
	if !bytes.Equal(buf.Bytes(), app(byte(0))) {
		t.Error("unexpected stream:", buf.Bytes())
	}

	// The padding form: a diffuse layer with an empty name.
	fr = parse.NewBinaryReader(bytes.NewReader(app(byte(layerDiffuse), "")))
	if tex.readFrom(fr) {
		t.Fatal("unexpected failure:", fr.Err())
	}
	if tex.Layer != layerDiffuse || tex.Name != "" {
		t.Error("unexpected slot:", tex)
	}
	if !tex.Empty() {
		t.Error("expected empty slot")
	}
	buf.Reset()
	fw = parse.NewBinaryWriter(&buf)
	if tex.writeTo(fw) {
		t.Fatal("unexpected failure:", fw.Err())
	}
	if !bytes.Equal(buf.Bytes(), app(byte(layerDiffuse), "")) {
		t.Error("unexpected stream:", buf.Bytes())
	}

	// A named slot.
	fr = parse.NewBinaryReader(bytes.NewReader(app(byte(layerLightmap), "room_lm1.png")))
	if tex.readFrom(fr) {
		t.Fatal("unexpected failure:", fr.Err())
	}
	if tex.Layer != layerLightmap || tex.Name != "room_lm1.png" {
		t.Error("unexpected slot:", tex)
	}
	if tex.Empty() {
		t.Error("expected non-empty slot")
	}

	// An unknown layer.
	fr = parse.NewBinaryReader(bytes.NewReader(app(byte(9), "x")))
	if !tex.readFrom(fr) {
		t.Fatal("expected failure (layer)")
	}
	if err, ok := fr.Err().(LayerError); !ok {
		t.Error("expected LayerError, got:", fr.Err())
	} else if uint8(err) != 9 {
		t.Error("expected layer 9, got:", uint8(err))
	}
}

func TestFormatModelWriteTo(t *testing.T) {
	f := &formatModel{
		Signature: sigTriggerBox,
		Objects: []*fileObject{{
			Textures: [2]fileTexture{
				{Layer: layerLightmap, Name: "room_lm1.png"},
				{Layer: layerDiffuse, Name: "wall.jpg"},
			},
			Vertices: []fileVertex{
				{Position: mgl32.Vec3{0, 0, 0}, UV: mgl32.Vec2{0, 0}, LightmapUV: mgl32.Vec2{0, 1}, Color: roommesh.White},
				{Position: mgl32.Vec3{1, 0, 0}, UV: mgl32.Vec2{1, 0}, LightmapUV: mgl32.Vec2{1, 1}, Color: roommesh.White},
				{Position: mgl32.Vec3{1, 1, 0}, UV: mgl32.Vec2{1, 1}, LightmapUV: mgl32.Vec2{1, 0}, Color: roommesh.White},
			},
			Triangles: []roommesh.Triangle{{0, 1, 2}},
		}},
		Collisions: []*fileCollision{{
			Vertices:  []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
			Triangles: []roommesh.Triangle{{0, 1, 2}},
		}},
		Triggers: []*fileTrigger{{
			Brushes: []*fileCollision{{
				Vertices:  []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
				Triangles: []roommesh.Triangle{{0, 1, 2}},
			}},
			Name: "intro_door",
		}},
		Points: []filePoint{
			&pointWaypoint{Position: mgl32.Vec3{4, 5, 6}},
		},
		Trailer: true,
	}

	want := app(
		sigTriggerBox,
		// Objects.
		1,
		byte(layerLightmap), "room_lm1.png",
		byte(layerDiffuse), "wall.jpg",
		3,
		vtx(0, 0, 0, 0, 0, 0, 1, 255, 255, 255),
		vtx(1, 0, 0, 1, 0, 1, 1, 255, 255, 255),
		vtx(1, 1, 0, 1, 1, 1, 0, 255, 255, 255),
		1, tri(0, 1, 2),
		// Collisions.
		1,
		3, pos(0, 0, 0), pos(1, 0, 0), pos(1, 1, 0),
		1, tri(0, 1, 2),
		// Triggers.
		1,
		1,
		3, pos(0, 0, 0), pos(1, 0, 0), pos(1, 1, 0),
		1, tri(0, 1, 2),
		"intro_door",
		// Points.
		1,
		"waypoint", pos(4, 5, 6),
		// Trailer.
		"EOF",
	)

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if n != int64(len(want)) {
		t.Errorf("expected %d bytes written, got %d", len(want), n)
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("unexpected stream:\nwant % x\ngot  % x", want, buf.Bytes())
	}

	// Without the trigger signature the trigger section stays off the wire.
	f.Signature = sigRoomMesh
	buf.Reset()
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("intro_door")) {
		t.Error("trigger section written under plain signature")
	}
}

func TestFormatModelWriteToLimit(t *testing.T) {
	f := &formatModel{Signature: sigRoomMesh, Trailer: true}
	w := writer(10)
	if _, err := f.WriteTo(&w); err == nil {
		t.Error("expected error (short writer)")
	}
}
