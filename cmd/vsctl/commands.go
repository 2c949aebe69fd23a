package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/biggraph/entities"
	"github.com/biggraph/entities/registry"
	"github.com/biggraph/entities/wire"
)

const (
	formatHex    = "hex"
	formatBase64 = "base64"
	formatRaw    = "raw"
)

func runEncode(e *env, args []string) error {
	flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	unpacked := flagSet.Bool("unpacked", false, "write one tag per id instead of a packed run")
	format := flagSet.String("format", formatHex, "output format (hex, base64, raw)")
	delimited := flagSet.Bool("delimited", false, "prefix the message with its varint length")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	b := entities.NewBuilder()
	for _, arg := range flagSet.Args() {
		id, err := strconv.ParseInt(arg, 0, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid id %q", arg)
		}
		b.Append(id)
	}
	v := b.Build()

	opts := entities.MarshalOptions{Unpacked: *unpacked}
	var out []byte
	if *delimited {
		out = wire.AppendVarint(out, uint64(opts.Size(v)))
	}
	out, err := opts.MarshalAppend(out, v)
	if err != nil {
		return err
	}
	e.logger.Debug("encoded vertex set",
		zap.Int("ids", v.Len()),
		zap.Bool("unpacked", *unpacked),
		zap.Int("bytes", len(out)))

	switch *format {
	case formatHex:
		_, err = fmt.Fprintln(e.stdout, hex.EncodeToString(out))
	case formatBase64:
		_, err = fmt.Fprintln(e.stdout, base64.StdEncoding.EncodeToString(out))
	case formatRaw:
		_, err = e.stdout.Write(out)
	default:
		return errors.Newf("unknown format %q", *format)
	}
	return err
}

func runDecode(e *env, args []string) error {
	cfg := wire.CurrentConfig()
	flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	format := flagSet.String("format", formatHex, "input format (hex, base64, raw)")
	input := flagSet.StringP("input", "i", "", "read input from this file instead of the argument or stdin")
	delimited := flagSet.Bool("delimited", false, "input is a stream of length-prefixed messages")
	discard := flagSet.Bool("discard-unknown", cfg.DiscardUnknownFields, "drop fields VertexSet does not define")
	strict := flagSet.Bool("strict", cfg.StrictWireType, "reject ids sent with an unexpected wire type")
	maxSize := flagSet.Int("max-size", cfg.MaxMessageSize, "reject messages longer than this many bytes (0 = unlimited, or 4 MiB per message with --delimited)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	raw, err := readInput(e, *input, flagSet.Args())
	if err != nil {
		return err
	}
	data, err := decodeFormat(*format, raw)
	if err != nil {
		return err
	}

	opts := entities.UnmarshalOptions{DiscardUnknown: *discard, StrictWireType: *strict, MaxSize: *maxSize}
	if !*delimited {
		v, err := opts.Unmarshal(data)
		if err != nil {
			e.logger.Error("decode failed", zap.Int("offset", wire.Offset(err)), zap.Error(err))
			return err
		}
		return printVertexSet(e.stdout, v)
	}

	r := bytes.NewReader(data)
	for i := 0; ; i++ {
		v, err := opts.ReadDelimited(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			e.logger.Error("decode failed", zap.Int("message", i), zap.Error(err))
			return errors.Wrapf(err, "message %d", i)
		}
		if i > 0 {
			fmt.Fprintln(e.stdout)
		}
		if err := printVertexSet(e.stdout, v); err != nil {
			return err
		}
	}
}

func readInput(e *env, path string, args []string) ([]byte, error) {
	switch {
	case path != "":
		data, err := os.ReadFile(path)
		return data, errors.Wrap(err, "failed to read input")
	case len(args) > 1:
		return nil, errors.Newf("unexpected argument: %s", args[1])
	case len(args) == 1:
		return []byte(args[0]), nil
	default:
		data, err := io.ReadAll(bufio.NewReader(e.stdin))
		return data, errors.Wrap(err, "failed to read stdin")
	}
}

func decodeFormat(format string, raw []byte) ([]byte, error) {
	switch format {
	case formatHex:
		data, err := hex.DecodeString(strings.Join(strings.Fields(string(raw)), ""))
		return data, errors.Wrap(err, "invalid hex input")
	case formatBase64:
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
		return data, errors.Wrap(err, "invalid base64 input")
	case formatRaw:
		return raw, nil
	default:
		return nil, errors.Newf("unknown format %q", format)
	}
}

func printVertexSet(w io.Writer, v *entities.VertexSet) error {
	name, _ := entities.FieldName(1)
	fmt.Fprintf(w, "%s (%d bytes, hash %016x)\n", entities.FullName, v.SerializedSize(), v.Hash())
	for i, id := range v.All() {
		fmt.Fprintf(w, "  %s[%d] = %d\n", name, i, id)
	}

	unknown := v.UnknownFields()
	for _, n := range unknown.Numbers() {
		for _, value := range unknown.Get(n) {
			fmt.Fprintf(w, "  unknown %d (%s) = %s\n", n, value.Type, formatUnknown(value))
		}
	}
	return nil
}

func formatUnknown(value wire.UnknownValue) string {
	d := wire.NewDecoder(value.Raw)
	switch value.Type {
	case wire.WireVarint:
		if n, err := d.DecodeVarint(); err == nil {
			return strconv.FormatUint(n, 10)
		}
	case wire.WireFixed32:
		if n, err := wire.NewFixedDecoder(d).DecodeFixed32(); err == nil {
			return fmt.Sprintf("0x%08x", n)
		}
	case wire.WireFixed64:
		if n, err := wire.NewFixedDecoder(d).DecodeFixed64(); err == nil {
			return fmt.Sprintf("0x%016x", n)
		}
	case wire.WireBytes:
		if b, err := d.DecodeBytes(); err == nil {
			return fmt.Sprintf("%q", b)
		}
	}
	return hex.EncodeToString(value.Raw)
}

func runSchema(e *env, args []string) error {
	flagSet := pflag.NewFlagSet("schema", pflag.ContinueOnError)
	protoDir := flagSet.String("proto-dir", "", "load every .proto file below this directory instead of the embedded entities.proto")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	r := registry.NewRegistry()
	if *protoDir == "" {
		var err error
		if r, err = registry.Default(); err != nil {
			return err
		}
	} else if err := r.LoadDir(*protoDir); err != nil {
		return err
	}
	e.logger.Debug("schemas loaded", zap.Strings("files", r.ListFiles()))

	for _, name := range r.ListMessages() {
		msg, err := r.GetMessage(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "message %s\n", msg.FullName)
		for _, f := range msg.Fields {
			typeName := string(f.Type.PrimitiveType)
			if typeName == "" {
				typeName = f.Type.MessageType
			}
			fmt.Fprintf(e.stdout, "  %s %s %s = %d\n", f.Label, typeName, f.Name, f.Number)
		}
	}
	return nil
}
