// Command baiji checks, fingerprints and converts data with baiji schemas.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/codec"
	"github.com/reoring/baiji/generic"
	"github.com/reoring/baiji/schema"
	"github.com/reoring/baiji/source/yamlsrc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

const usageText = `baiji CLI

Usage:
  baiji check -writer W -reader R
  baiji compat [-level BACKWARD] NEW OLD...
  baiji encode -schema S [-in value.json] [-o out.bin] [-id N]
  baiji decode -schema S [-reader R] [-in data.bin] [-framed]
  baiji fingerprint -schema S [-canonical]

Common flags:
  -config baiji.yaml   decoder limits, parse strictness and log level
  -v                   debug logging on stderr

Schema files ending in .yaml or .yml are read as YAML.`

type command func(e *env, args []string) error

var commands = map[string]command{
	"check":       checkCmd,
	"compat":      compatCmd,
	"encode":      encodeCmd,
	"decode":      decodeCmd,
	"fingerprint": fingerprintCmd,
}

var (
	errUsage        = errors.New("usage")
	errIncompatible = errors.New("schemas are incompatible")
)

// env carries the process streams and what the common flags configure.
type env struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	logger         *zap.Logger
	cfg            config
	parseOpt       baiji.ParseOpt
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, usageText)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintln(stderr, usageText)
		return 2
	}
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr, logger: zap.NewNop()}
	err := cmd(e, args[1:])
	_ = e.logger.Sync()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	case errors.Is(err, errIncompatible):
		return 1
	}
	printError(stderr, err)
	return 1
}

func printError(w io.Writer, err error) {
	iss, ok := baiji.AsIssues(err)
	if !ok {
		fmt.Fprintf(w, "baiji: %v\n", err)
		return
	}
	for _, it := range iss {
		fmt.Fprintf(w, "baiji: %s at %s", it.Code, it.Path)
		if it.Offset >= 0 {
			fmt.Fprintf(w, " (offset %d)", it.Offset)
		}
		if it.Hint != "" {
			fmt.Fprintf(w, ": %s", it.Hint)
		} else if it.Message != "" {
			fmt.Fprintf(w, ": %s", it.Message)
		}
		fmt.Fprintln(w)
	}
}

// flags creates a flag set with the common flags.
func (e *env) flags(name string) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	cfgPath := fs.String("config", "", "YAML config file")
	verbose := fs.Bool("v", false, "debug logging")
	return fs, cfgPath, verbose
}

// parse parses args and applies the common flags.
func (e *env) parse(fs *flag.FlagSet, args []string, cfgPath *string, verbose *bool) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(zapcore.AddSync(e.stderr), cfg.Log.Level, *verbose)
	if err != nil {
		return err
	}
	opt, err := cfg.parseOpt(logger)
	if err != nil {
		return err
	}
	e.cfg, e.logger, e.parseOpt = cfg, logger.With(zap.String("cmd", fs.Name())), opt
	return nil
}

func (e *env) readSchema(path string) (schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	driver := baiji.JSONDriver()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		driver = yamlsrc.New()
	}
	s, err := schema.ParseWith(driver, data, e.parseOpt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.logger.Debug("schema loaded", zap.String("path", path), zap.String("driver", driver.Name()),
		zap.String("fingerprint", fmt.Sprintf("%016x", schema.Fingerprint64(s))))
	return s, nil
}

func (e *env) open(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return e.stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func (e *env) create(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return e.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func required(fs *flag.FlagSet, names ...string) error {
	for _, n := range names {
		if fs.Lookup(n).Value.String() == "" {
			fmt.Fprintf(fs.Output(), "%s: -%s is required\n", fs.Name(), n)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func checkCmd(e *env, args []string) error {
	fs, cfgPath, verbose := e.flags("check")
	writerPath := fs.String("writer", "", "writer schema file")
	readerPath := fs.String("reader", "", "reader schema file")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, "writer", "reader"); err != nil {
		return err
	}
	w, err := e.readSchema(*writerPath)
	if err != nil {
		return err
	}
	r, err := e.readSchema(*readerPath)
	if err != nil {
		return err
	}
	if err := schema.Resolve(w, r); err != nil {
		fmt.Fprintln(e.stdout, "incompatible")
		printError(e.stdout, err)
		return errIncompatible
	}
	fmt.Fprintf(e.stdout, "compatible (%s)\n", schema.Classify(w, r))
	return nil
}

func compatCmd(e *env, args []string) error {
	fs, cfgPath, verbose := e.flags("compat")
	levelName := fs.String("level", string(schema.CompatBackward), "compatibility level")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(fs.Output(), "compat: the new schema file is required")
		return errUsage
	}
	level, err := schema.ParseCompatibility(*levelName)
	if err != nil {
		return err
	}
	next, err := e.readSchema(fs.Arg(0))
	if err != nil {
		return err
	}
	history := make([]schema.Schema, 0, fs.NArg()-1)
	for _, p := range fs.Args()[1:] {
		s, err := e.readSchema(p)
		if err != nil {
			return err
		}
		history = append(history, s)
	}
	if err := schema.CheckCompatibility(history, next, level); err != nil {
		fmt.Fprintf(e.stdout, "incompatible under %s\n", level)
		printError(e.stdout, err)
		return errIncompatible
	}
	fmt.Fprintf(e.stdout, "compatible under %s\n", level)
	return nil
}

// encodeCmd encodes every JSON value of the input, one after another.
func encodeCmd(e *env, args []string) error {
	fs, cfgPath, verbose := e.flags("encode")
	schemaPath := fs.String("schema", "", "schema file")
	in := fs.String("in", "", "JSON input (default stdin)")
	out := fs.String("o", "", "binary output (default stdout)")
	id := fs.Uint("id", 0, "write a schema-ID frame header with this id before each value")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, "schema"); err != nil {
		return err
	}
	s, err := e.readSchema(*schemaPath)
	if err != nil {
		return err
	}
	c, err := codec.New(s, codec.WithLogger(e.logger))
	if err != nil {
		return err
	}
	r, closeIn, err := e.open(*in)
	if err != nil {
		return err
	}
	defer closeIn()
	w, closeOut, err := e.create(*out)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	ctx := context.Background()
	dec := json.NewDecoder(r)
	dec.UseNumber()
	n := 0
	for {
		var v any
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			_ = closeOut()
			return fmt.Errorf("value %d: %w", n, err)
		}
		datum, err := generic.FromJSON(s, v)
		if err != nil {
			_ = closeOut()
			return err
		}
		if *id > 0 {
			if _, err := bw.Write(codec.EncodeSchemaID(uint32(*id))); err != nil {
				_ = closeOut()
				return err
			}
		}
		if err := c.Encode(ctx, bw, datum); err != nil {
			_ = closeOut()
			return err
		}
		n++
	}
	if err := bw.Flush(); err != nil {
		_ = closeOut()
		return err
	}
	e.logger.Debug("encoded", zap.Int("values", n))
	return closeOut()
}

// decodeCmd prints every value of the input as a JSON line.
func decodeCmd(e *env, args []string) error {
	fs, cfgPath, verbose := e.flags("decode")
	schemaPath := fs.String("schema", "", "writer schema file")
	readerPath := fs.String("reader", "", "reader schema file (default: the writer schema)")
	in := fs.String("in", "", "binary input (default stdin)")
	framed := fs.Bool("framed", false, "input is a single value behind a schema-ID frame header")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, "schema"); err != nil {
		return err
	}
	w, err := e.readSchema(*schemaPath)
	if err != nil {
		return err
	}
	r := w
	if *readerPath != "" {
		if r, err = e.readSchema(*readerPath); err != nil {
			return err
		}
	}
	c, err := codec.NewResolving(w, r, codec.WithLogger(e.logger), codec.WithDecoderOptions(e.cfg.decoderOptions()...))
	if err != nil {
		return err
	}
	src, closeIn, err := e.open(*in)
	if err != nil {
		return err
	}
	defer closeIn()

	ctx := context.Background()
	enc := json.NewEncoder(e.stdout)
	emit := func(v any) error {
		doc, err := generic.ToJSON(r, v)
		if err != nil {
			return err
		}
		return enc.Encode(doc)
	}
	if !*framed {
		return c.DecodeEach(ctx, src, emit)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	id, body, err := codec.DecodeSchemaID(data)
	if err != nil {
		return err
	}
	e.logger.Debug("frame header", zap.Uint32("schema_id", id))
	v, err := c.Unmarshal(ctx, body)
	if err != nil {
		return err
	}
	return emit(v)
}

func fingerprintCmd(e *env, args []string) error {
	fs, cfgPath, verbose := e.flags("fingerprint")
	schemaPath := fs.String("schema", "", "schema file")
	canonical := fs.Bool("canonical", false, "also print the canonical form")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, "schema"); err != nil {
		return err
	}
	s, err := e.readSchema(*schemaPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%016x\n", schema.Fingerprint64(s))
	if *canonical {
		fmt.Fprintln(e.stdout, schema.Canonical(s))
	}
	return nil
}
