package rmesh

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/anaminus/parse"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scpcbapi/roommesh"
)

////////////////////////////////////////////////////////////////

// maxStringLen bounds the length prefix of a string record. The format's
// strings are file names, class names, and short number lists; a prefix
// beyond this limit means the stream is not positioned at a string.
const maxStringLen = 1 << 20

func readString(f *parse.BinaryReader, data *string) (failed bool) {
	if f.Err() != nil {
		return true
	}

	var length uint32
	if f.Number(&length) {
		return true
	}
	if length > maxStringLen {
		return f.Add(0, StringLengthError(length))
	}

	s := make([]byte, length)
	if f.Bytes(s) {
		return true
	}

	*data = string(s)

	return false
}

func writeString(f *parse.BinaryWriter, data string) (failed bool) {
	if f.Err() != nil {
		return true
	}

	if f.Number(uint32(len(data))) {
		return true
	}

	return f.Bytes([]byte(data))
}

// readPosition reads a coordinate triple. The wire stores positions in
// x, z, y order.
func readPosition(f *parse.BinaryReader, data *mgl32.Vec3) (failed bool) {
	if f.Err() != nil {
		return true
	}
	var x, z, y float32
	if f.Number(&x) {
		return true
	}
	if f.Number(&z) {
		return true
	}
	if f.Number(&y) {
		return true
	}
	*data = mgl32.Vec3{x, y, z}
	return false
}

func writePosition(f *parse.BinaryWriter, data mgl32.Vec3) (failed bool) {
	if f.Err() != nil {
		return true
	}
	if f.Number(data.X()) {
		return true
	}
	if f.Number(data.Z()) {
		return true
	}
	return f.Number(data.Y())
}

// readVec3 reads a raw float triple with no axis swap. Model records store
// their rotation and scale this way.
func readVec3(f *parse.BinaryReader, data *mgl32.Vec3) (failed bool) {
	if f.Err() != nil {
		return true
	}
	var x, y, z float32
	if f.Number(&x) {
		return true
	}
	if f.Number(&y) {
		return true
	}
	if f.Number(&z) {
		return true
	}
	*data = mgl32.Vec3{x, y, z}
	return false
}

func writeVec3(f *parse.BinaryWriter, data mgl32.Vec3) (failed bool) {
	if f.Err() != nil {
		return true
	}
	if f.Number(data.X()) {
		return true
	}
	if f.Number(data.Y()) {
		return true
	}
	return f.Number(data.Z())
}

func readUV(f *parse.BinaryReader, data *mgl32.Vec2) (failed bool) {
	if f.Err() != nil {
		return true
	}
	var u, v float32
	if f.Number(&u) {
		return true
	}
	if f.Number(&v) {
		return true
	}
	*data = mgl32.Vec2{u, v}
	return false
}

func writeUV(f *parse.BinaryWriter, data mgl32.Vec2) (failed bool) {
	if f.Err() != nil {
		return true
	}
	if f.Number(data.X()) {
		return true
	}
	return f.Number(data.Y())
}

// Colors appear in two wire forms: three raw bytes on vertices, and an
// "R G B" string record on lights.
func readColor(f *parse.BinaryReader, data *roommesh.Color3) (failed bool) {
	var rgb [3]byte
	if f.Bytes(rgb[:]) {
		return true
	}
	*data = roommesh.Color3{R: rgb[0], G: rgb[1], B: rgb[2]}
	return false
}

func writeColor(f *parse.BinaryWriter, data roommesh.Color3) (failed bool) {
	return f.Bytes([]byte{data.R, data.G, data.B})
}

func readColorString(f *parse.BinaryReader, data *roommesh.Color3) (failed bool) {
	var s string
	if readString(f, &s) {
		return true
	}
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return f.Add(0, fmt.Errorf("invalid color string %q", s))
	}
	var rgb [3]uint8
	for i, field := range fields {
		n, err := strconv.ParseUint(field, 10, 8)
		if err != nil {
			return f.Add(0, fmt.Errorf("invalid color string %q", s))
		}
		rgb[i] = uint8(n)
	}
	*data = roommesh.Color3{R: rgb[0], G: rgb[1], B: rgb[2]}
	return false
}

func writeColorString(f *parse.BinaryWriter, data roommesh.Color3) (failed bool) {
	s := strconv.Itoa(int(data.R)) + " " + strconv.Itoa(int(data.G)) + " " + strconv.Itoa(int(data.B))
	return writeString(f, s)
}

// Angles appear on the wire as a "P Y R" string of whole degrees.
func readAngleString(f *parse.BinaryReader, data *mgl32.Vec3) (failed bool) {
	var s string
	if readString(f, &s) {
		return true
	}
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return f.Add(0, fmt.Errorf("invalid angle string %q", s))
	}
	var pyr [3]float32
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return f.Add(0, fmt.Errorf("invalid angle string %q", s))
		}
		pyr[i] = float32(n)
	}
	*data = mgl32.Vec3{pyr[0], pyr[1], pyr[2]}
	return false
}

func writeAngleString(f *parse.BinaryWriter, data mgl32.Vec3) (failed bool) {
	s := strconv.Itoa(int(math32.Round(data.X()))) + " " +
		strconv.Itoa(int(math32.Round(data.Y()))) + " " +
		strconv.Itoa(int(math32.Round(data.Z())))
	return writeString(f, s)
}

func readTriangle(f *parse.BinaryReader, data *roommesh.Triangle) (failed bool) {
	if f.Err() != nil {
		return true
	}
	if f.Number(&data[0]) {
		return true
	}
	if f.Number(&data[1]) {
		return true
	}
	return f.Number(&data[2])
}

func writeTriangle(f *parse.BinaryWriter, data roommesh.Triangle) (failed bool) {
	if f.Err() != nil {
		return true
	}
	if f.Number(data[0]) {
		return true
	}
	if f.Number(data[1]) {
		return true
	}
	return f.Number(data[2])
}

////////////////////////////////////////////////////////////////

// formatModel models the .rmesh wire format directly. It can be used to
// control exactly how a file is encoded.
type formatModel struct {
	// Signature is the file signature. sigTriggerBox signals the presence of
	// the trigger section.
	Signature string

	// Objects is the drawn mesh section.
	Objects []*fileObject

	// Collisions is the invisible collision section.
	Collisions []*fileCollision

	// Triggers is the trigger box section. It appears on the wire only under
	// sigTriggerBox.
	Triggers []*fileTrigger

	// Points is the point entity section.
	Points []filePoint

	// Trailer indicates whether the "EOF" marker record follows the point
	// section. Writers always emit it; the engine never reads it.
	Trailer bool
}

// WriteTo serializes the model to w.
func (f *formatModel) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)

	if writeString(fw, f.Signature) {
		return fw.End()
	}

	if fw.Number(uint32(len(f.Objects))) {
		return fw.End()
	}
	for _, obj := range f.Objects {
		if obj.writeTo(fw) {
			return fw.End()
		}
	}

	if fw.Number(uint32(len(f.Collisions))) {
		return fw.End()
	}
	for _, col := range f.Collisions {
		if col.writeTo(fw) {
			return fw.End()
		}
	}

	if f.Signature == sigTriggerBox {
		if fw.Number(uint32(len(f.Triggers))) {
			return fw.End()
		}
		for _, trig := range f.Triggers {
			if trig.writeTo(fw) {
				return fw.End()
			}
		}
	}

	if fw.Number(uint32(len(f.Points))) {
		return fw.End()
	}
	for _, p := range f.Points {
		if writeString(fw, p.Class()) {
			return fw.End()
		}
		if p.writeTo(fw) {
			return fw.End()
		}
	}

	if f.Trailer {
		if writeString(fw, eofMarker) {
			return fw.End()
		}
	}

	return fw.End()
}

////////////////////////////////////////////////////////////////

// fileTexture is one texture slot of a drawn mesh record. A slot is unused
// when Layer is layerNone or Name is empty; the layerNone form carries no
// name on the wire at all.
type fileTexture struct {
	// Layer is the slot's blend layer.
	Layer uint8

	// Name is the texture file name.
	Name string
}

// Empty returns whether the slot holds no usable texture.
func (t *fileTexture) Empty() bool {
	return t.Layer == layerNone || t.Name == ""
}

func (t *fileTexture) readFrom(fr *parse.BinaryReader) (failed bool) {
	if fr.Number(&t.Layer) {
		return true
	}
	if t.Layer == layerNone {
		t.Name = ""
		return false
	}
	if t.Layer > layerAlpha {
		return fr.Add(0, LayerError(t.Layer))
	}
	return readString(fr, &t.Name)
}

func (t *fileTexture) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if fw.Number(t.Layer) {
		return true
	}
	if t.Layer == layerNone {
		return false
	}
	return writeString(fw, t.Name)
}

////////////////////////////////////////////////////////////////

// fileVertex is one vertex of a drawn mesh record.
type fileVertex struct {
	Position   mgl32.Vec3
	UV         mgl32.Vec2
	LightmapUV mgl32.Vec2
	Color      roommesh.Color3
}

func (v *fileVertex) readFrom(fr *parse.BinaryReader) (failed bool) {
	if readPosition(fr, &v.Position) {
		return true
	}
	if readUV(fr, &v.UV) {
		return true
	}
	if readUV(fr, &v.LightmapUV) {
		return true
	}
	return readColor(fr, &v.Color)
}

func (v *fileVertex) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if writePosition(fw, v.Position) {
		return true
	}
	if writeUV(fw, v.UV) {
		return true
	}
	if writeUV(fw, v.LightmapUV) {
		return true
	}
	return writeColor(fw, v.Color)
}

////////////////////////////////////////////////////////////////

// fileObject is one drawn mesh record: two texture slots, vertices, and
// triangles.
type fileObject struct {
	Textures  [2]fileTexture
	Vertices  []fileVertex
	Triangles []roommesh.Triangle
}

func (obj *fileObject) readFrom(fr *parse.BinaryReader) (failed bool) {
	for i := range obj.Textures {
		if obj.Textures[i].readFrom(fr) {
			return true
		}
	}

	var count uint32
	if fr.Number(&count) {
		return true
	}
	for i := uint32(0); i < count; i++ {
		var v fileVertex
		if v.readFrom(fr) {
			return true
		}
		obj.Vertices = append(obj.Vertices, v)
	}

	if fr.Number(&count) {
		return true
	}
	for i := uint32(0); i < count; i++ {
		var tri roommesh.Triangle
		if readTriangle(fr, &tri) {
			return true
		}
		obj.Triangles = append(obj.Triangles, tri)
	}

	return false
}

func (obj *fileObject) writeTo(fw *parse.BinaryWriter) (failed bool) {
	for i := range obj.Textures {
		if obj.Textures[i].writeTo(fw) {
			return true
		}
	}

	if fw.Number(uint32(len(obj.Vertices))) {
		return true
	}
	for i := range obj.Vertices {
		if obj.Vertices[i].writeTo(fw) {
			return true
		}
	}

	if fw.Number(uint32(len(obj.Triangles))) {
		return true
	}
	for _, tri := range obj.Triangles {
		if writeTriangle(fw, tri) {
			return true
		}
	}

	return false
}

////////////////////////////////////////////////////////////////

// fileCollision is one invisible collision record: position-only vertices
// and triangles. Trigger boxes reuse the layout for their brushes.
type fileCollision struct {
	Vertices  []mgl32.Vec3
	Triangles []roommesh.Triangle
}

func (col *fileCollision) readFrom(fr *parse.BinaryReader) (failed bool) {
	var count uint32
	if fr.Number(&count) {
		return true
	}
	for i := uint32(0); i < count; i++ {
		var v mgl32.Vec3
		if readPosition(fr, &v) {
			return true
		}
		col.Vertices = append(col.Vertices, v)
	}

	if fr.Number(&count) {
		return true
	}
	for i := uint32(0); i < count; i++ {
		var tri roommesh.Triangle
		if readTriangle(fr, &tri) {
			return true
		}
		col.Triangles = append(col.Triangles, tri)
	}

	return false
}

func (col *fileCollision) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if fw.Number(uint32(len(col.Vertices))) {
		return true
	}
	for _, v := range col.Vertices {
		if writePosition(fw, v) {
			return true
		}
	}

	if fw.Number(uint32(len(col.Triangles))) {
		return true
	}
	for _, tri := range col.Triangles {
		if writeTriangle(fw, tri) {
			return true
		}
	}

	return false
}

////////////////////////////////////////////////////////////////

// fileTrigger is one trigger box record: collision brushes and the event
// name fired when the player enters them.
type fileTrigger struct {
	Brushes []*fileCollision
	Name    string
}

func (t *fileTrigger) readFrom(fr *parse.BinaryReader) (failed bool) {
	var count uint32
	if fr.Number(&count) {
		return true
	}
	for i := uint32(0); i < count; i++ {
		b := new(fileCollision)
		if b.readFrom(fr) {
			return true
		}
		t.Brushes = append(t.Brushes, b)
	}
	return readString(fr, &t.Name)
}

func (t *fileTrigger) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if fw.Number(uint32(len(t.Brushes))) {
		return true
	}
	for _, b := range t.Brushes {
		if b.writeTo(fw) {
			return true
		}
	}
	return writeString(fw, t.Name)
}

////////////////////////////////////////////////////////////////

// filePoint is one record of the point entity section. The wire tags each
// record with a class name; the class determines the payload layout.
type filePoint interface {
	// Class returns the class name tagging the record.
	Class() string

	// readFrom processes the record payload following the class name.
	readFrom(fr *parse.BinaryReader) (failed bool)

	// writeTo writes the record payload following the class name.
	writeTo(fw *parse.BinaryWriter) (failed bool)
}

// pointGenerator is a function that initializes a type implementing
// filePoint.
type pointGenerator func() filePoint

// pointGenerators returns a function that generates a point record of the
// given class.
func pointGenerators(class string) pointGenerator {
	switch class {
	case classScreen:
		return newPointScreen
	case classWaypoint:
		return newPointWaypoint
	case classLight:
		return newPointLight
	case classSpotlight:
		return newPointSpotlight
	case classSoundEmitter:
		return newPointSound
	case classPlayerStart:
		return newPointPlayerStart
	case classModel:
		return newPointModel
	default:
		return nil
	}
}

////////////////////////////////////////////////////////////////

// pointScreen is an interactable screen displaying an image.
type pointScreen struct {
	Position mgl32.Vec3
	Image    string
}

func newPointScreen() filePoint {
	return new(pointScreen)
}

func (pointScreen) Class() string {
	return classScreen
}

func (p *pointScreen) readFrom(fr *parse.BinaryReader) (failed bool) {
	if readPosition(fr, &p.Position) {
		return true
	}
	return readString(fr, &p.Image)
}

func (p *pointScreen) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if writePosition(fw, p.Position) {
		return true
	}
	return writeString(fw, p.Image)
}

////////////////////////////////////////////////////////////////

// pointWaypoint is a node of the NPC navigation graph.
type pointWaypoint struct {
	Position mgl32.Vec3
}

func newPointWaypoint() filePoint {
	return new(pointWaypoint)
}

func (pointWaypoint) Class() string {
	return classWaypoint
}

func (p *pointWaypoint) readFrom(fr *parse.BinaryReader) (failed bool) {
	return readPosition(fr, &p.Position)
}

func (p *pointWaypoint) writeTo(fw *parse.BinaryWriter) (failed bool) {
	return writePosition(fw, p.Position)
}

////////////////////////////////////////////////////////////////

// pointLight is an omnidirectional light.
type pointLight struct {
	Position  mgl32.Vec3
	Range     float32
	Color     roommesh.Color3
	Intensity float32
}

func newPointLight() filePoint {
	return new(pointLight)
}

func (pointLight) Class() string {
	return classLight
}

func (p *pointLight) readFrom(fr *parse.BinaryReader) (failed bool) {
	if readPosition(fr, &p.Position) {
		return true
	}
	if fr.Number(&p.Range) {
		return true
	}
	if readColorString(fr, &p.Color) {
		return true
	}
	return fr.Number(&p.Intensity)
}

func (p *pointLight) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if writePosition(fw, p.Position) {
		return true
	}
	if fw.Number(p.Range) {
		return true
	}
	if writeColorString(fw, p.Color) {
		return true
	}
	return fw.Number(p.Intensity)
}

////////////////////////////////////////////////////////////////

// pointSpotlight is a cone light: the light payload followed by a facing
// angle and the cone angles in whole degrees.
type pointSpotlight struct {
	pointLight
	Angle mgl32.Vec3
	Inner uint32
	Outer uint32
}

func newPointSpotlight() filePoint {
	return new(pointSpotlight)
}

func (pointSpotlight) Class() string {
	return classSpotlight
}

func (p *pointSpotlight) readFrom(fr *parse.BinaryReader) (failed bool) {
	if p.pointLight.readFrom(fr) {
		return true
	}
	if readAngleString(fr, &p.Angle) {
		return true
	}
	if fr.Number(&p.Inner) {
		return true
	}
	return fr.Number(&p.Outer)
}

func (p *pointSpotlight) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if p.pointLight.writeTo(fw) {
		return true
	}
	if writeAngleString(fw, p.Angle) {
		return true
	}
	if fw.Number(p.Inner) {
		return true
	}
	return fw.Number(p.Outer)
}

////////////////////////////////////////////////////////////////

// pointSound is an ambient sound emitter.
type pointSound struct {
	Position mgl32.Vec3
	Sound    uint32
	Range    float32
}

func newPointSound() filePoint {
	return new(pointSound)
}

func (pointSound) Class() string {
	return classSoundEmitter
}

func (p *pointSound) readFrom(fr *parse.BinaryReader) (failed bool) {
	if readPosition(fr, &p.Position) {
		return true
	}
	if fr.Number(&p.Sound) {
		return true
	}
	return fr.Number(&p.Range)
}

func (p *pointSound) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if writePosition(fw, p.Position) {
		return true
	}
	if fw.Number(p.Sound) {
		return true
	}
	return fw.Number(p.Range)
}

////////////////////////////////////////////////////////////////

// pointPlayerStart is the point, with facing, where the player spawns.
type pointPlayerStart struct {
	Position mgl32.Vec3
	Angle    mgl32.Vec3
}

func newPointPlayerStart() filePoint {
	return new(pointPlayerStart)
}

func (pointPlayerStart) Class() string {
	return classPlayerStart
}

func (p *pointPlayerStart) readFrom(fr *parse.BinaryReader) (failed bool) {
	if readPosition(fr, &p.Position) {
		return true
	}
	return readAngleString(fr, &p.Angle)
}

func (p *pointPlayerStart) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if writePosition(fw, p.Position) {
		return true
	}
	return writeAngleString(fw, p.Angle)
}

////////////////////////////////////////////////////////////////

// pointModel is a placement of an external prop model: path first, then
// position, then raw rotation and scale triples. Rotation is pitch, yaw,
// and roll in degrees.
type pointModel struct {
	Path     string
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

func newPointModel() filePoint {
	return new(pointModel)
}

func (pointModel) Class() string {
	return classModel
}

func (p *pointModel) readFrom(fr *parse.BinaryReader) (failed bool) {
	if readString(fr, &p.Path) {
		return true
	}
	if readPosition(fr, &p.Position) {
		return true
	}
	if readVec3(fr, &p.Rotation) {
		return true
	}
	return readVec3(fr, &p.Scale)
}

func (p *pointModel) writeTo(fw *parse.BinaryWriter) (failed bool) {
	if writeString(fw, p.Path) {
		return true
	}
	if writePosition(fw, p.Position) {
		return true
	}
	if writeVec3(fw, p.Rotation) {
		return true
	}
	return writeVec3(fw, p.Scale)
}
