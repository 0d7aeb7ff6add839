package rmesh

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scpcbapi/roommesh"
	"github.com/scpcbapi/roommesh/errors"
)

// testFile builds a stream holding every record the format knows.
func testFile() []byte {
	return app(
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
		3, pos(0, 0, 0), pos(0, 0, 1), pos(0, 1, 1),
		1, tri(0, 1, 2),
		// Triggers.
		1,
		1,
		3, pos(2, 0, 0), pos(2, 0, 2), pos(2, 2, 2),
		1, tri(0, 1, 2),
		"intro_door",
		// Points.
		7,
		"screen", pos(1, 2, 3), "scr_monitor.jpg",
		"waypoint", pos(4, 5, 6),
		"light", pos(7, 8, 9), float32(12), "255 128 0", float32(2),
		"spotlight", pos(1, 1, 1), float32(8), "0 255 0", float32(1.5), "45 90 0", 10, 35,
		"soundemitter", pos(0, 4, 0), 3, float32(20),
		"playerstart", pos(0, 1, 0), "0 180 0",
		"model", "props/chair.b3d", pos(5, 0, 5), float32(0), float32(90), float32(0), float32(1), float32(1), float32(1),
		// Trailer.
		"EOF",
	)
}

func TestDecoderDecode(t *testing.T) {
	room, warn, err := Decoder{}.Decode(bytes.NewReader(testFile()))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if warn != nil {
		t.Error("unexpected warning:", warn)
	}

	if len(room.Meshes) != 3 {
		t.Fatal("expected 3 meshes, got:", len(room.Meshes))
	}

	drawn := room.Meshes[0]
	if !drawn.Visible() {
		t.Error("expected visible mesh")
	}
	if drawn.Reference == "" {
		t.Error("expected generated reference")
	}
	if drawn.Material == nil {
		t.Fatal("expected material")
	}
	if drawn.Material.Lightmap != "room_lm1.png" || drawn.Material.Diffuse != "wall.jpg" || drawn.Material.Alpha != "" {
		t.Error("unexpected material:", drawn.Material)
	}
	if len(room.Materials) != 1 || room.Materials[0] != drawn.Material {
		t.Error("material not interned")
	}
	if len(drawn.Mesh.Vertices) != 3 || len(drawn.Mesh.Triangles) != 1 {
		t.Fatal("unexpected drawn mesh size")
	}
	if v := drawn.Mesh.Vertices[1].Position; v != (mgl32.Vec3{1, 0, 0}) {
		t.Error("unexpected vertex position:", v)
	}
	if uv := drawn.Mesh.Vertices[2].LightmapUV; uv != (mgl32.Vec2{1, 0}) {
		t.Error("unexpected lightmap UV:", uv)
	}
	if drawn.Mesh.Vertices[0].Normal == (mgl32.Vec3{}) {
		t.Error("expected computed normals")
	}
	if !drawn.Transform.IsIdentity() {
		t.Error("expected identity transform")
	}

	col := room.Meshes[1]
	if !col.IsCollision || col.IsTrigger {
		t.Error("expected plain collision mesh")
	}
	if col.Material != nil {
		t.Error("unexpected collision material")
	}

	trig := room.Meshes[2]
	if !trig.IsTrigger || !trig.IsCollision {
		t.Error("expected trigger brush")
	}
	if trig.TriggerName != "intro_door" {
		t.Error("unexpected trigger name:", trig.TriggerName)
	}

	if len(room.Points) != 3 {
		t.Fatal("expected 3 point entities, got:", len(room.Points))
	}
	screen := room.Points[0]
	if screen.Kind != roommesh.KindScreen || screen.Image != "scr_monitor.jpg" || screen.Position != (mgl32.Vec3{1, 2, 3}) {
		t.Error("unexpected screen:", screen)
	}
	if wp := room.Points[1]; wp.Kind != roommesh.KindWaypoint || wp.Position != (mgl32.Vec3{4, 5, 6}) {
		t.Error("unexpected waypoint:", wp)
	}
	start := room.Points[2]
	if start.Kind != roommesh.KindPlayerStart || start.Rotation != (mgl32.Vec3{0, 180, 0}) {
		t.Error("unexpected player start:", start)
	}

	if len(room.Lights) != 2 {
		t.Fatal("expected 2 lights, got:", len(room.Lights))
	}
	light := room.Lights[0]
	if light.Kind != roommesh.LightPoint {
		t.Error("expected point light")
	}
	if light.Range != 12 || light.Color != (roommesh.Color3{R: 255, G: 128}) {
		t.Error("unexpected light:", light)
	}
	if light.Intensity != 2*luminanceFactor {
		t.Error("unexpected intensity:", light.Intensity)
	}
	if !light.Approximate {
		t.Error("expected approximate intensity")
	}
	spot := room.Lights[1]
	if spot.Kind != roommesh.LightSpot {
		t.Error("expected spot light")
	}
	if spot.Rotation != (mgl32.Vec3{45, 90, 0}) || spot.Inner != 10 || spot.Outer != 35 {
		t.Error("unexpected spot light:", spot)
	}
	if spot.Intensity != 1.5*luminanceFactor {
		t.Error("unexpected spot intensity:", spot.Intensity)
	}

	if len(room.Sounds) != 1 {
		t.Fatal("expected 1 sound emitter, got:", len(room.Sounds))
	}
	snd := room.Sounds[0]
	if snd.Sound != 3 || snd.Range != 20 || snd.Position != (mgl32.Vec3{0, 4, 0}) {
		t.Error("unexpected sound emitter:", snd)
	}

	// Without a model source, model records stay placements.
	if len(room.Models) != 1 {
		t.Fatal("expected 1 model placement, got:", len(room.Models))
	}
	m := room.Models[0]
	if m.Path != "props/chair.b3d" {
		t.Error("unexpected model path:", m.Path)
	}
	if m.Position != (mgl32.Vec3{5, 0, 5}) || m.Rotation != (mgl32.Vec3{0, 90, 0}) || m.Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Error("unexpected model transform:", m.Position, m.Rotation, m.Scale)
	}
}

func TestDecoderNilReader(t *testing.T) {
	if _, _, err := (Decoder{}).Decode(nil); err == nil {
		t.Error("expected error (nil reader)")
	}
	if _, _, err := (Decoder{}).Stats(nil); err == nil {
		t.Error("expected error (nil reader)")
	}
	if _, err := (Decoder{}).Dump(nil, nil); err == nil {
		t.Error("expected error (nil reader)")
	}
	var buf bytes.Buffer
	if _, err := (Decoder{}).Dump(nil, &buf); err == nil {
		t.Error("expected error (nil writer)")
	}
}

func TestDecoderSignature(t *testing.T) {
	_, _, err := Decoder{}.Decode(bytes.NewReader(app("RoomMash")))
	if err == nil {
		t.Fatal("expected error (bad signature)")
	}
	var verr VersionError
	if !errors.As(err, &verr) {
		t.Fatal("expected VersionError, got:", err)
	}
	if string(verr) != "RoomMash" {
		t.Error("unexpected signature:", string(verr))
	}

	_, _, err = Decoder{}.Decode(bytes.NewReader(nil))
	if !errors.Is(err, ErrTruncated) {
		t.Error("expected ErrTruncated, got:", err)
	}
	var derr DataError
	if !errors.As(err, &derr) {
		t.Error("expected DataError, got:", err)
	}
}

func TestDecoderTruncated(t *testing.T) {
	// Cut the stream in the middle of the first object record.
	_, _, err := Decoder{}.Decode(bytes.NewReader(app(sigRoomMesh, 1, byte(0))))
	if !errors.Is(err, ErrTruncated) {
		t.Fatal("expected ErrTruncated, got:", err)
	}
	var ferr FormatError
	if !errors.As(err, &ferr) {
		t.Fatal("expected FormatError, got:", err)
	}
	if ferr.Section != sectionObjects || ferr.Record != 0 {
		t.Error("unexpected error location:", ferr.Section, ferr.Record)
	}
}

func TestDecoderTrailer(t *testing.T) {
	empty := app(sigRoomMesh, 0, 0, 0)

	// The marker closes the file cleanly.
	_, warn, err := Decoder{}.Decode(bytes.NewReader(app(empty, "EOF")))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if warn != nil {
		t.Error("unexpected warning:", warn)
	}

	// A missing marker is only a warning.
	_, warn, err = Decoder{}.Decode(bytes.NewReader(empty))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if !errors.Is(warn, ErrNoTrailer) {
		t.Error("expected ErrNoTrailer warning, got:", warn)
	}

	// Anything else after the point section is fatal.
	_, _, err = Decoder{}.Decode(bytes.NewReader(app(empty, "JUNK")))
	if !errors.Is(err, ErrTrailingData) {
		t.Error("expected ErrTrailingData, got:", err)
	}
	_, _, err = Decoder{}.Decode(bytes.NewReader(app(empty, "EOF", byte(0))))
	if !errors.Is(err, ErrTrailingData) {
		t.Error("expected ErrTrailingData (bytes after marker), got:", err)
	}
}

func TestDecoderUnknownClass(t *testing.T) {
	_, _, err := Decoder{}.Decode(bytes.NewReader(app(sigRoomMesh, 0, 0, 1, "door", "EOF")))
	if err == nil {
		t.Fatal("expected error (unknown class)")
	}
	var cerr ClassError
	if !errors.As(err, &cerr) {
		t.Fatal("expected ClassError, got:", err)
	}
	if string(cerr) != "door" {
		t.Error("unexpected class:", string(cerr))
	}
	var ferr FormatError
	if !errors.As(err, &ferr) {
		t.Fatal("expected FormatError, got:", err)
	}
	if ferr.Section != sectionPoints || ferr.Record != 0 {
		t.Error("unexpected error location:", ferr.Section, ferr.Record)
	}
}

func TestDecoderFaceIndex(t *testing.T) {
	_, _, err := Decoder{}.Decode(bytes.NewReader(app(
		sigRoomMesh,
		1,
		byte(0), byte(0),
		1, vtx(0, 0, 0, 0, 0, 0, 0, 0, 0, 0),
		1, tri(0, 1, 2),
		0, 0,
		"EOF",
	)))
	if err == nil {
		t.Fatal("expected error (face index)")
	}
	var fierr FaceIndexError
	if !errors.As(err, &fierr) {
		t.Fatal("expected FaceIndexError, got:", err)
	}
	if fierr.Index != 1 || fierr.Count != 1 {
		t.Error("unexpected face index error:", fierr)
	}
}

func TestDecoderStats(t *testing.T) {
	stats, warn, err := Decoder{}.Stats(bytes.NewReader(testFile()))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if warn != nil {
		t.Error("unexpected warning:", warn)
	}
	if stats.Signature != sigTriggerBox {
		t.Error("unexpected signature:", stats.Signature)
	}
	if stats.Objects != 1 || stats.Vertices != 3 || stats.Triangles != 1 {
		t.Error("unexpected object stats:", stats.Objects, stats.Vertices, stats.Triangles)
	}
	if stats.Collisions != 1 || stats.Triggers != 1 || stats.TriggerBrushes != 1 {
		t.Error("unexpected brush stats:", stats.Collisions, stats.Triggers, stats.TriggerBrushes)
	}
	if len(stats.Points) != 7 {
		t.Error("unexpected point classes:", stats.Points)
	}
	for _, class := range []string{
		classScreen, classWaypoint, classLight, classSpotlight,
		classSoundEmitter, classPlayerStart, classModel,
	} {
		if stats.Points[class] != 1 {
			t.Errorf("expected 1 %s point, got: %d", class, stats.Points[class])
		}
	}
	if len(stats.Sounds) != 1 || stats.Sounds[0] != 3 {
		t.Error("unexpected sounds:", stats.Sounds)
	}
	want := []string{"room_lm1.png", "wall.jpg"}
	if len(stats.Textures) != len(want) {
		t.Fatal("unexpected textures:", stats.Textures)
	}
	for i, name := range want {
		if stats.Textures[i] != name {
			t.Error("unexpected texture:", stats.Textures[i])
		}
	}
	if !stats.Trailer {
		t.Error("expected trailer")
	}
}

func TestDecoderDump(t *testing.T) {
	var buf bytes.Buffer
	warn, err := Decoder{}.Dump(&buf, bytes.NewReader(testFile()))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if warn != nil {
		t.Error("unexpected warning:", warn)
	}
	out := buf.String()
	for _, want := range []string{
		`Signature: "RoomMesh.HasTriggerBox"`,
		"Object 0 {",
		`Texture 0: layer 2 (lightmap) (len:12) "room_lm1.png"`,
		"Collision 0 {",
		`Name: (len:10) "intro_door"`,
		"Point 0: screen {",
		"Point 3: spotlight {",
		"Inner: 10",
		`Path: (len:15) "props/chair.b3d"`,
		"Trailer: true",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDecoderModelLoading(t *testing.T) {
	models := memModels{}
	payload, err := rawCodec{}.Encode(&roommesh.Mesh{
		Vertices: []roommesh.Vertex{{Position: mgl32.Vec3{1, 2, 3}}},
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	models["chair.b3d"] = payload

	file := app(sigRoomMesh, 0, 0, 1,
		"model", "chair.b3d", pos(5, 0, 5),
		float32(0), float32(90), float32(0),
		float32(2), float32(2), float32(2),
		"EOF",
	)

	room, warn, err := Decoder{Models: models, Codec: rawCodec{}}.Decode(bytes.NewReader(file))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if warn != nil {
		t.Error("unexpected warning:", warn)
	}
	if len(room.Models) != 0 {
		t.Error("expected no placements, got:", len(room.Models))
	}
	if len(room.Meshes) != 1 {
		t.Fatal("expected 1 mesh, got:", len(room.Meshes))
	}
	m := room.Meshes[0]
	if m.ModelName != "chair.b3d" {
		t.Error("unexpected model name:", m.ModelName)
	}
	if m.Transform.Position != (mgl32.Vec3{5, 0, 5}) {
		t.Error("unexpected position:", m.Transform.Position)
	}
	if !mgl32.FloatEqualThreshold(m.Transform.Rotation.Y(), mgl32.DegToRad(90), 1e-5) {
		t.Error("unexpected rotation:", m.Transform.Rotation)
	}
	if m.Transform.Scale != (mgl32.Vec3{2, 2, 2}) {
		t.Error("unexpected scale:", m.Transform.Scale)
	}
	if len(m.Mesh.Vertices) != 1 || m.Mesh.Vertices[0].Position != (mgl32.Vec3{1, 2, 3}) {
		t.Error("unexpected payload mesh")
	}

	// A payload that cannot be resolved is fatal.
	file = app(sigRoomMesh, 0, 0, 1,
		"model", "missing.b3d", pos(0, 0, 0),
		float32(0), float32(0), float32(0),
		float32(1), float32(1), float32(1),
		"EOF",
	)
	_, _, err = Decoder{Models: models, Codec: rawCodec{}}.Decode(bytes.NewReader(file))
	if err == nil {
		t.Fatal("expected error (missing payload)")
	}
	var merr ModelError
	if !errors.As(err, &merr) {
		t.Fatal("expected ModelError, got:", err)
	}
	if merr.Path != "missing.b3d" {
		t.Error("unexpected path:", merr.Path)
	}
}
