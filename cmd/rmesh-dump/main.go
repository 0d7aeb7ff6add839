// The rmesh-dump command writes a readable dump of a RoomMesh room file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scpcbapi/roommesh/internal/logger"
	"github.com/scpcbapi/roommesh/rmesh"
)

const usage = `usage: rmesh-dump [options] [INPUT] [OUTPUT]

Reads a RoomMesh file from INPUT, and writes to OUTPUT a human-readable
representation of its content. Geometry arrays are summarized by their
lengths; point entities are written in full.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Logs are written
to stderr.

Options:
`

var (
	logLevel = flag.String("log", "info", "log level (debug, info, warn, error)")
	logFile  = flag.String("logfile", "", "duplicate logs into this rotating file")
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
		logger.Log.Error("dump failed", zap.Error(err))
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

	warn, err := rmesh.Decoder{}.Dump(output, input)
	if warn != nil {
		logger.Log.Warn("decode warning", zap.Error(warn))
	}
	return errors.Wrap(err, "dump")
}
