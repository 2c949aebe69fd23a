// vsctl encodes, decodes and describes proto.VertexSet messages from the
// command line.
//
//	vsctl encode [--unpacked] [--format hex|base64] 1 2 3
//	vsctl decode [--format hex|base64|raw] [--delimited] [--input file] [DATA]
//	vsctl schema [--proto-dir dir]
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	name  string
	usage string
	run   func(env *env, args []string) error
}

var commands = []command{
	{name: "encode", usage: "encode ids given as arguments", run: runEncode},
	{name: "decode", usage: "decode a VertexSet and print its contents", run: runDecode},
	{name: "schema", usage: "print the loaded message schemas", run: runSchema},
}

// env carries what every command needs.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	logger *zap.Logger
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("vsctl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(stderr)
	logLevel := flagSet.String("log-level", "warn", "log level (debug, info, warn, error)")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	logger, err := newLogger(*logLevel, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return errors.New("missing command")
	}
	for _, c := range commands {
		if c.name == rest[0] {
			e := &env{stdin: stdin, stdout: stdout, logger: logger.Named(c.name)}
			return c.run(e, rest[1:])
		}
	}
	printHelp(stderr, flagSet)
	return errors.Newf("unknown command %q", rest[0])
}

func newLogger(level string, out io.Writer) (*zap.Logger, error) {
	atomicLevel := zap.NewAtomicLevel()
	if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "invalid --log-level %q", level)
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(out), atomicLevel)
	return zap.New(core), nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: vsctl [flags] <command> [command flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}
