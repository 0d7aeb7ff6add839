// The rmesh-stat command displays stats for a RoomMesh room file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scpcbapi/roommesh/internal/logger"
	"github.com/scpcbapi/roommesh/internal/registry"
	"github.com/scpcbapi/roommesh/rmesh"
)

const usage = `usage: rmesh-stat [options] [INPUT] [OUTPUT]

Reads a RoomMesh file from INPUT, and writes to OUTPUT statistics for the
file as JSON.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Logs are written
to stderr.

Options:
`

var (
	soundsPath    = flag.String("sounds", "", "check emitters against this YAML sound manifest")
	materialsPath = flag.String("materials", "", "check textures against this YAML material manifest")
	logLevel      = flag.String("log", "info", "log level (debug, info, warn, error)")
	logFile       = flag.String("logfile", "", "duplicate logs into this rotating file")
)

type Stats struct {
	// Binary format data.
	Format *rmesh.DecoderStats

	// Sound indices the file references but the manifest lacks.
	UnknownSounds []uint32 `json:",omitempty"`

	// Texture names the file references but the manifest lacks.
	UnknownTextures []string `json:",omitempty"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	logger.Init(*logLevel, *logFile)
	defer logger.Sync()

	if err := run(flag.Args()); err != nil {
		logger.Log.Error("stat failed", zap.Error(err))
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

	var stats Stats
	format, warn, err := rmesh.Decoder{}.Stats(input)
	if warn != nil {
		logger.Log.Warn("decode warning", zap.Error(warn))
	}
	if err != nil {
		return errors.Wrap(err, "decode")
	}
	stats.Format = format

	if *soundsPath != "" {
		reg, err := registry.LoadSounds(*soundsPath)
		if err != nil {
			return err
		}
		for _, id := range format.Sounds {
			if _, ok := reg.Resolve(id); !ok {
				stats.UnknownSounds = append(stats.UnknownSounds, id)
			}
		}
		logger.Log.Debug("checked sound manifest",
			zap.Int("referenced", len(format.Sounds)),
			zap.Int("unknown", len(stats.UnknownSounds)))
	}
	if *materialsPath != "" {
		mats, err := registry.LoadMaterials(*materialsPath)
		if err != nil {
			return err
		}
		for _, name := range format.Textures {
			if !mats.Has(name) {
				stats.UnknownTextures = append(stats.UnknownTextures, name)
			}
		}
		logger.Log.Debug("checked material manifest",
			zap.Int("referenced", len(format.Textures)),
			zap.Int("unknown", len(stats.UnknownTextures)))
	}

	je := json.NewEncoder(output)
	je.SetEscapeHTML(false)
	je.SetIndent("", "\t")
	return errors.Wrap(je.Encode(&stats), "write stats")
}
