package rmesh

import (
	"io"

	"github.com/scpcbapi/roommesh"
	"github.com/scpcbapi/roommesh/errors"
	"github.com/scpcbapi/roommesh/xmodel"
)

// Encoder encodes a roommesh.Room into a stream of bytes.
type Encoder struct {
	// Sounds validates the sound indices referenced by the room's emitters.
	// A nil registry disables the check. Otherwise, an emitter whose index
	// is not registered is a fatal error; the engine crashes when it loads a
	// room referencing a sound it does not know.
	Sounds roommesh.SoundRegistry

	// Models receives the payloads of meshes routed through the model
	// boundary. When Models or Codec is nil, model-backed meshes are written
	// as records only, and their payloads are expected to exist already.
	Models xmodel.Sink

	// Codec encodes model-backed meshes into payloads.
	Codec xmodel.Codec
}

// Encode encodes room, writing the result to w.
//
// Returns any warnings that occurred while encoding. Nothing reaches w or
// the model sink until the entire room has been converted.
func (e Encoder) Encode(w io.Writer, room *roommesh.Room) (warn, err error) {
	if w == nil {
		return nil, errors.New("nil writer")
	}
	if room == nil {
		return nil, errors.New("nil room")
	}

	codec := roomCodec{codec: e.Codec, sink: e.Models, sounds: e.Sounds}
	f, warn, err := codec.Encode(room)
	if err != nil {
		return warn, err
	}

	n, err := f.WriteTo(w)
	if err != nil {
		return warn, DataError{Offset: n, Cause: err}
	}

	return warn, nil
}
