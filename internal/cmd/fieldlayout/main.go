// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Command fieldlayout prints the scratch layout a parameter list would get.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"honnef.co/go/dynfield"
	"honnef.co/go/dynfield/mem"
	"honnef.co/go/dynfield/schema"
)

type paramDoc struct {
	Name   string    `yaml:"name"`
	Type   string    `yaml:"type"`
	Count  *int      `yaml:"count"`
	Ints   []int32   `yaml:"ints"`
	Floats []float32 `yaml:"floats"`
}

type document struct {
	Parameters []paramDoc `yaml:"parameters"`
}

func parseParameters(data []byte) ([]schema.Parameter, error) {
	var doc document
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, err
	}
	params := make([]schema.Parameter, len(doc.Parameters))
	for i, d := range doc.Parameters {
		// Unknown types stay zero and are rejected when laying out.
		typ, _ := schema.ParseParamType(d.Type)
		var count int
		if d.Count != nil {
			count = *d.Count
		} else {
			// Without an explicit count, the values determine it.
			switch typ {
			case schema.ParamColor:
				count = len(d.Floats) / 4
			case schema.ParamFloat:
				count = len(d.Floats)
			default:
				count = len(d.Ints)
			}
			count = max(count, 1)
		}
		params[i] = schema.Parameter{
			Name:   d.Name,
			Type:   typ,
			Count:  count,
			Ints:   d.Ints,
			Floats: d.Floats,
		}
	}
	return params, nil
}

// layout lays out params in a region of the given capacity and writes the
// resulting fields to w.
func layout(params []schema.Parameter, capacity int, strict bool, w io.Writer, log zerolog.Logger) error {
	l := mem.NewScratch(capacity).Plan()
	s, report, err := schema.Build(params, &l, schema.BuildOptions{Strict: strict})
	for _, r := range report.Rejected {
		log.Warn().Str("parameter", r.Parameter).Err(r.Err).Msg("rejected")
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tCOUNT\tOFFSET\tSIZE\tALIGN")
	for f := range s.Fields() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", f.Name, f.Type, f.Count, f.Offset, f.Size, f.Align)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "used %d of %d bytes\n", s.Used(), capacity)
	return err
}

func main() {
	var (
		configPath string
		capacity   int
		strict     bool
		verbose    bool
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] [-config <file>] [-capacity <bytes>] [-strict] <parameters.yaml>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&configPath, "config", "", "Path to configuration `file`")
	flag.IntVar(&capacity, "capacity", 0, "Scratch capacity in `bytes`, overriding the configuration")
	flag.BoolVar(&strict, "strict", false, "Reject the whole list if any parameter is invalid")
	flag.BoolVar(&verbose, "v", false, "Be verbose")
	flag.Parse()

	if len(flag.Args()) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	dief := func(err error, msg string) {
		log.Error().Err(err).Msg(msg)
		os.Exit(1)
	}

	cfg := dynfield.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = dynfield.LoadConfig(configPath)
		if err != nil {
			dief(err, "couldn't load configuration")
		}
	}
	if capacity != 0 {
		cfg.ScratchSize = capacity
	}
	cfg.Strict = cfg.Strict || strict
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		dief(err, "invalid configuration")
	}
	lvl, _ := cfg.Level()
	log = log.Level(lvl)

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		dief(err, "couldn't read parameters")
	}
	params, err := parseParameters(data)
	if err != nil {
		dief(err, "couldn't parse parameters")
	}
	log.Debug().Int("parameters", len(params)).Int("capacity", cfg.ScratchSize).Msg("laying out")

	if err := layout(params, cfg.ScratchSize, cfg.Strict, os.Stdout, log); err != nil {
		if errors.Is(err, mem.ErrScratchSpaceExhausted) {
			dief(err, "parameters don't fit")
		}
		dief(err, "couldn't lay out parameters")
	}
}
