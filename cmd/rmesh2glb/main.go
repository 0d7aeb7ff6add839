// The rmesh2glb command exports the geometry of a RoomMesh room file as a
// binary glTF (GLB) file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scpcbapi/roommesh"
	"github.com/scpcbapi/roommesh/internal/logger"
	"github.com/scpcbapi/roommesh/rmesh"
	"github.com/scpcbapi/roommesh/xmodel"
)

const usage = `usage: rmesh2glb [options] [INPUT] [OUTPUT]

Reads a RoomMesh file from INPUT, merges its drawn geometry into a single
mesh, and writes it to OUTPUT as a binary glTF (GLB) file.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Logs are written
to stderr.

Options:
`

var (
	modelsDir  = flag.String("models", "", "load GLB model payloads referenced by the room from this directory")
	collisions = flag.Bool("collisions", false, "include invisible collision and trigger brushes")
	logLevel   = flag.String("log", "info", "log level (debug, info, warn, error)")
	logFile    = flag.String("logfile", "", "duplicate logs into this rotating file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	logger.Init(*logLevel, *logFile)
	defer logger.Sync()

	if err := run(flag.Args()); err != nil {
		logger.Log.Error("export failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(args []string) error {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout
	if len(args) >= 1 && args[0] != "-" {
		in, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer in.Close()
		input = in
	}
	if len(args) >= 2 && args[1] != "-" {
		out, err := os.Create(args[1])
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer out.Close()
		output = out
	}

	dec := rmesh.Decoder{}
	if *modelsDir != "" {
		dec.Models = xmodel.Dir(*modelsDir)
		dec.Codec = xmodel.GLB{}
	}
	room, warn, err := dec.Decode(input)
	if warn != nil {
		logger.Log.Warn("decode warning", zap.Error(warn))
	}
	if err != nil {
		return errors.Wrap(err, "decode")
	}

	merged := new(roommesh.Mesh)
	var skipped int
	for _, obj := range room.Meshes {
		if !obj.Visible() && !*collisions {
			skipped++
			continue
		}
		mesh := obj.Mesh.Transformed(obj.Transform)
		base := uint32(len(merged.Vertices))
		merged.Vertices = append(merged.Vertices, mesh.Vertices...)
		for _, tri := range mesh.Triangles {
			merged.Triangles = append(merged.Triangles, roommesh.Triangle{
				base + tri[0], base + tri[1], base + tri[2],
			})
		}
	}
	if skipped > 0 {
		logger.Log.Debug("skipped invisible brushes", zap.Int("count", skipped))
	}
	if len(room.Models) > 0 {
		logger.Log.Warn("skipped unresolved model placements", zap.Int("count", len(room.Models)))
	}
	if len(merged.Vertices) == 0 {
		return errors.New("room has no drawn geometry")
	}
	logger.Log.Info("merged geometry",
		zap.Int("vertices", len(merged.Vertices)),
		zap.Int("triangles", len(merged.Triangles)))

	data, err := xmodel.GLB{}.Encode(merged)
	if err != nil {
		return errors.Wrap(err, "encode glb")
	}
	_, err = output.Write(data)
	return errors.Wrap(err, "write output")
}
