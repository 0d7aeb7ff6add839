package rmesh

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/anaminus/parse"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scpcbapi/roommesh"
	"github.com/scpcbapi/roommesh/errors"
	"github.com/scpcbapi/roommesh/xmodel"
)

// Decoder decodes a stream of bytes into a roommesh.Room.
type Decoder struct {
	// Models resolves the external payloads named by model records. When
	// Models and Codec are both set, each model record is loaded, decoded,
	// and attached to the room as a mesh object. Otherwise, model records
	// are retained as ModelPlacement values.
	Models xmodel.Source

	// Codec decodes loaded model payloads into meshes.
	Codec xmodel.Codec
}

// Decode decodes data from r into a Room structure.
//
// Returns any warnings that occurred while decoding. Warnings are problems
// that do not prevent the stream from being decoded.
func (d Decoder) Decode(r io.Reader) (room *roommesh.Room, warn, err error) {
	if r == nil {
		return nil, nil, errors.New("nil reader")
	}

	f, warn, err := d.decode(r)
	if err != nil {
		return nil, warn, err
	}

	codec := roomCodec{models: d.Models, codec: d.Codec}
	room, w, err := codec.Decode(f)
	warn = errors.Union(warn, w)
	if err != nil {
		return nil, warn, err
	}

	return room, warn, nil
}

// DecoderStats summarizes the content of a stream without building a Room
// out of it.
type DecoderStats struct {
	// Signature is the file signature.
	Signature string `json:"signature"`
	// Objects is the number of drawn mesh records.
	Objects int `json:"objects"`
	// Vertices is the vertex count over all drawn mesh records.
	Vertices int `json:"vertices"`
	// Triangles is the triangle count over all drawn mesh records.
	Triangles int `json:"triangles"`
	// Collisions is the number of invisible collision records.
	Collisions int `json:"collisions"`
	// Triggers is the number of trigger boxes.
	Triggers int `json:"triggers"`
	// TriggerBrushes is the brush count over all trigger boxes.
	TriggerBrushes int `json:"trigger_brushes"`
	// Points counts point records by class.
	Points map[string]int `json:"points"`
	// Sounds lists the engine sound indices referenced by emitters, sorted,
	// without duplicates.
	Sounds []uint32 `json:"sounds"`
	// Textures lists the texture names referenced by drawn meshes, sorted,
	// without duplicates.
	Textures []string `json:"textures"`
	// Trailer indicates whether the file ends with the "EOF" marker.
	Trailer bool `json:"trailer"`
}

// Stats decodes the stream from r just enough to summarize its content.
//
// Returns any warnings that occurred while decoding.
func (d Decoder) Stats(r io.Reader) (stats *DecoderStats, warn, err error) {
	if r == nil {
		return nil, nil, errors.New("nil reader")
	}

	f, warn, err := d.decode(r)
	if err != nil {
		return nil, warn, err
	}

	stats = &DecoderStats{
		Signature:  f.Signature,
		Objects:    len(f.Objects),
		Collisions: len(f.Collisions),
		Triggers:   len(f.Triggers),
		Points:     map[string]int{},
		Trailer:    f.Trailer,
	}
	seen := map[string]struct{}{}
	for _, obj := range f.Objects {
		stats.Vertices += len(obj.Vertices)
		stats.Triangles += len(obj.Triangles)
		for i := range obj.Textures {
			t := &obj.Textures[i]
			if t.Empty() {
				continue
			}
			if _, ok := seen[t.Name]; ok {
				continue
			}
			seen[t.Name] = struct{}{}
			stats.Textures = append(stats.Textures, t.Name)
		}
	}
	for _, trig := range f.Triggers {
		stats.TriggerBrushes += len(trig.Brushes)
	}
	sounds := map[uint32]struct{}{}
	for _, p := range f.Points {
		stats.Points[p.Class()]++
		snd, ok := p.(*pointSound)
		if !ok {
			continue
		}
		if _, ok := sounds[snd.Sound]; ok {
			continue
		}
		sounds[snd.Sound] = struct{}{}
		stats.Sounds = append(stats.Sounds, snd.Sound)
	}
	sort.Strings(stats.Textures)
	sort.Slice(stats.Sounds, func(i, j int) bool { return stats.Sounds[i] < stats.Sounds[j] })

	return stats, warn, nil
}

// Dump writes to w a readable representation of the file decoded from r.
// Geometry arrays are summarized by their lengths.
//
// Returns any warnings that occurred while decoding.
func (d Decoder) Dump(w io.Writer, r io.Reader) (warn, err error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	if w == nil {
		return nil, errors.New("nil writer")
	}

	f, warn, err := d.decode(r)
	if err != nil {
		return warn, err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Signature: %s", strconv.Quote(f.Signature))

	dumpNewline(bw, 0)
	fmt.Fprintf(bw, "Objects: %d {", len(f.Objects))
	for i, obj := range f.Objects {
		dumpNewline(bw, 1)
		fmt.Fprintf(bw, "Object %d {", i)
		for j := range obj.Textures {
			dumpTexture(bw, 2, j, &obj.Textures[j])
		}
		dumpNewline(bw, 2)
		fmt.Fprintf(bw, "Vertices: %d", len(obj.Vertices))
		dumpNewline(bw, 2)
		fmt.Fprintf(bw, "Triangles: %d", len(obj.Triangles))
		dumpNewline(bw, 1)
		bw.WriteString("}")
	}
	dumpNewline(bw, 0)
	bw.WriteString("}")

	dumpNewline(bw, 0)
	fmt.Fprintf(bw, "Collisions: %d {", len(f.Collisions))
	for i, col := range f.Collisions {
		dumpNewline(bw, 1)
		fmt.Fprintf(bw, "Collision %d {", i)
		dumpNewline(bw, 2)
		fmt.Fprintf(bw, "Vertices: %d", len(col.Vertices))
		dumpNewline(bw, 2)
		fmt.Fprintf(bw, "Triangles: %d", len(col.Triangles))
		dumpNewline(bw, 1)
		bw.WriteString("}")
	}
	dumpNewline(bw, 0)
	bw.WriteString("}")

	if f.Signature == sigTriggerBox {
		dumpNewline(bw, 0)
		fmt.Fprintf(bw, "Triggers: %d {", len(f.Triggers))
		for i, trig := range f.Triggers {
			dumpNewline(bw, 1)
			fmt.Fprintf(bw, "Trigger %d {", i)
			dumpNewline(bw, 2)
			bw.WriteString("Name: ")
			dumpString(bw, trig.Name)
			for j, b := range trig.Brushes {
				dumpNewline(bw, 2)
				fmt.Fprintf(bw, "Brush %d {", j)
				dumpNewline(bw, 3)
				fmt.Fprintf(bw, "Vertices: %d", len(b.Vertices))
				dumpNewline(bw, 3)
				fmt.Fprintf(bw, "Triangles: %d", len(b.Triangles))
				dumpNewline(bw, 2)
				bw.WriteString("}")
			}
			dumpNewline(bw, 1)
			bw.WriteString("}")
		}
		dumpNewline(bw, 0)
		bw.WriteString("}")
	}

	dumpNewline(bw, 0)
	fmt.Fprintf(bw, "Points: %d {", len(f.Points))
	for i, p := range f.Points {
		dumpNewline(bw, 1)
		fmt.Fprintf(bw, "Point %d: %s {", i, p.Class())
		dumpPoint(bw, 2, p)
		dumpNewline(bw, 1)
		bw.WriteString("}")
	}
	dumpNewline(bw, 0)
	bw.WriteString("}")

	dumpNewline(bw, 0)
	fmt.Fprintf(bw, "Trailer: %t", f.Trailer)
	dumpNewline(bw, 0)

	if e := bw.Flush(); e != nil {
		return warn, e
	}
	return warn, nil
}

func dumpNewline(w *bufio.Writer, indent int) {
	w.WriteByte('\n')
	for i := 0; i < indent; i++ {
		w.WriteByte('\t')
	}
}

func dumpString(w *bufio.Writer, s string) {
	fmt.Fprintf(w, "(len:%d) %s", len(s), strconv.Quote(s))
}

func dumpVec(w *bufio.Writer, indent int, name string, v mgl32.Vec3) {
	dumpNewline(w, indent)
	fmt.Fprintf(w, "%s: %g, %g, %g", name, v.X(), v.Y(), v.Z())
}

func dumpTexture(w *bufio.Writer, indent, i int, t *fileTexture) {
	dumpNewline(w, indent)
	fmt.Fprintf(w, "Texture %d: layer %d (%s)", i, t.Layer, layerName(t.Layer))
	if t.Layer != layerNone {
		w.WriteByte(' ')
		dumpString(w, t.Name)
	}
}

func dumpPoint(w *bufio.Writer, indent int, p filePoint) {
	switch p := p.(type) {
	case *pointScreen:
		dumpVec(w, indent, "Position", p.Position)
		dumpNewline(w, indent)
		w.WriteString("Image: ")
		dumpString(w, p.Image)
	case *pointWaypoint:
		dumpVec(w, indent, "Position", p.Position)
	case *pointLight:
		dumpVec(w, indent, "Position", p.Position)
		dumpNewline(w, indent)
		fmt.Fprintf(w, "Range: %g", p.Range)
		dumpNewline(w, indent)
		fmt.Fprintf(w, "Color: %s", p.Color)
		dumpNewline(w, indent)
		fmt.Fprintf(w, "Intensity: %g", p.Intensity)
	case *pointSpotlight:
		dumpPoint(w, indent, &p.pointLight)
		dumpVec(w, indent, "Angle", p.Angle)
		dumpNewline(w, indent)
		fmt.Fprintf(w, "Inner: %d", p.Inner)
		dumpNewline(w, indent)
		fmt.Fprintf(w, "Outer: %d", p.Outer)
	case *pointSound:
		dumpVec(w, indent, "Position", p.Position)
		dumpNewline(w, indent)
		fmt.Fprintf(w, "Sound: %d", p.Sound)
		dumpNewline(w, indent)
		fmt.Fprintf(w, "Range: %g", p.Range)
	case *pointPlayerStart:
		dumpVec(w, indent, "Position", p.Position)
		dumpVec(w, indent, "Angle", p.Angle)
	case *pointModel:
		dumpNewline(w, indent)
		w.WriteString("Path: ")
		dumpString(w, p.Path)
		dumpVec(w, indent, "Position", p.Position)
		dumpVec(w, indent, "Rotation", p.Rotation)
		dumpVec(w, indent, "Scale", p.Scale)
	}
}

// decodeError wraps the reader's sticky error, if any, with the section and
// the current offset. A stream that ends while records remain is reported as
// ErrTruncated.
func decodeError(fr *parse.BinaryReader, sec section, record int, err error) error {
	fr.Add(0, err)
	err = fr.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = ErrTruncated
	}
	return DataError{Offset: fr.N(), Cause: FormatError{Section: sec, Record: record, Cause: err}}
}

// decode parses the format.
func (d Decoder) decode(r io.Reader) (f *formatModel, warn, err error) {
	f = &formatModel{}
	br := bufio.NewReader(r)
	fr := parse.NewBinaryReader(br)

	if readString(fr, &f.Signature) {
		return f, nil, decodeError(fr, sectionHeader, -1, nil)
	}
	switch f.Signature {
	case sigRoomMesh, sigTriggerBox:
	default:
		return f, nil, decodeError(fr, sectionHeader, -1, VersionError(f.Signature))
	}

	var count uint32
	if fr.Number(&count) {
		return f, nil, decodeError(fr, sectionObjects, -1, nil)
	}
	for i := uint32(0); i < count; i++ {
		obj := new(fileObject)
		if obj.readFrom(fr) {
			return f, nil, decodeError(fr, sectionObjects, int(i), nil)
		}
		f.Objects = append(f.Objects, obj)
	}

	if fr.Number(&count) {
		return f, nil, decodeError(fr, sectionCollisions, -1, nil)
	}
	for i := uint32(0); i < count; i++ {
		col := new(fileCollision)
		if col.readFrom(fr) {
			return f, nil, decodeError(fr, sectionCollisions, int(i), nil)
		}
		f.Collisions = append(f.Collisions, col)
	}

	if f.Signature == sigTriggerBox {
		if fr.Number(&count) {
			return f, nil, decodeError(fr, sectionTriggers, -1, nil)
		}
		for i := uint32(0); i < count; i++ {
			trig := new(fileTrigger)
			if trig.readFrom(fr) {
				return f, nil, decodeError(fr, sectionTriggers, int(i), nil)
			}
			f.Triggers = append(f.Triggers, trig)
		}
	}

	if fr.Number(&count) {
		return f, nil, decodeError(fr, sectionPoints, -1, nil)
	}
	for i := uint32(0); i < count; i++ {
		var class string
		if readString(fr, &class) {
			return f, nil, decodeError(fr, sectionPoints, int(i), nil)
		}
		newPoint := pointGenerators(class)
		if newPoint == nil {
			return f, nil, decodeError(fr, sectionPoints, int(i), ClassError(class))
		}
		p := newPoint()
		if p.readFrom(fr) {
			return f, nil, decodeError(fr, sectionPoints, int(i), nil)
		}
		f.Points = append(f.Points, p)
	}

	// The trailer is optional on read: files written by old tooling end at
	// the point section, which is reported as a warning. Content other than
	// the marker is fatal.
	switch _, perr := br.Peek(1); perr {
	case io.EOF:
		return f, ErrNoTrailer, nil
	case nil:
	default:
		return f, nil, decodeError(fr, sectionTrailer, -1, perr)
	}
	var trailer string
	if readString(fr, &trailer) {
		return f, nil, decodeError(fr, sectionTrailer, -1, nil)
	}
	if trailer != eofMarker {
		return f, nil, decodeError(fr, sectionTrailer, -1, ErrTrailingData)
	}
	switch _, perr := br.Peek(1); perr {
	case io.EOF:
	case nil:
		return f, nil, decodeError(fr, sectionTrailer, -1, ErrTrailingData)
	default:
		return f, nil, decodeError(fr, sectionTrailer, -1, perr)
	}
	f.Trailer = true

	return f, nil, nil
}
