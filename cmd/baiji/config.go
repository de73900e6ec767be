package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/binary"
)

// config is the optional -config file.
//
//	decoder:
//	  maxBytesLength: 1048576
//	  maxBlockItems: 65536
//	parse:
//	  duplicateKeys: warn
//	  maxDepth: 64
//	log:
//	  level: debug
type config struct {
	Decoder struct {
		MaxBytesLength int64 `yaml:"maxBytesLength"`
		MaxBlockItems  int64 `yaml:"maxBlockItems"`
	} `yaml:"decoder"`
	Parse struct {
		DuplicateKeys string `yaml:"duplicateKeys"`
		MaxDepth      int    `yaml:"maxDepth"`
		MaxBytes      int64  `yaml:"maxBytes"`
	} `yaml:"parse"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func (c config) decoderOptions() []binary.Option {
	var opts []binary.Option
	if c.Decoder.MaxBytesLength != 0 {
		opts = append(opts, binary.WithMaxBytesLength(c.Decoder.MaxBytesLength))
	}
	if c.Decoder.MaxBlockItems != 0 {
		opts = append(opts, binary.WithMaxBlockItems(c.Decoder.MaxBlockItems))
	}
	return opts
}

func (c config) parseOpt(logger *zap.Logger) (baiji.ParseOpt, error) {
	opt := baiji.DefaultParseOpt()
	switch strings.ToLower(c.Parse.DuplicateKeys) {
	case "", "error":
	case "warn":
		opt.Strictness.OnDuplicateKey = baiji.Warn
	case "ignore":
		opt.Strictness.OnDuplicateKey = baiji.Ignore
	default:
		return opt, fmt.Errorf("parse.duplicateKeys: unknown value %q", c.Parse.DuplicateKeys)
	}
	if c.Parse.MaxDepth != 0 {
		opt.MaxDepth = c.Parse.MaxDepth
	}
	opt.MaxBytes = c.Parse.MaxBytes
	opt.OnWarning = func(it baiji.Issue) {
		logger.Warn("schema document warning", zap.String("path", it.Path), zap.String("code", it.Code), zap.String("hint", it.Hint))
	}
	return opt, nil
}

// newLogger writes JSON lines to w. verbose forces the debug level.
func newLogger(w zapcore.WriteSyncer, level string, verbose bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, lvl)
	return zap.New(core), nil
}
