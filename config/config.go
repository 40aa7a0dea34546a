// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads experiment files.
//
// An experiment file is TOML:
//
//	experiment = "redis_contention"
//	root = "redis_multi/pair_0"
//	run_file = "redis.out"
//	schema = "clients_<int>_threads_<int>_pipeline_<int>"
//
//	[layout]
//	marker = "Totals"
//	columns = { throughput = 1, avg_latency = 4, p99 = 6 }
//
//	[[objective]]
//	metric = "throughput"
//
//	[[objective]]
//	metric = "p99"
//	direction = "minimize"
//
//	[output]
//	json = "aggregated_results.json"
//	csv = "throughput_flat.csv"
//	plots = "plots"
//
// Every field is optional.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/pareto"
	"golang.org/x/benchfront/runfmt"
	"golang.org/x/benchfront/runkey"
)

// Config is an experiment description.
type Config struct {
	Experiment string `toml:"experiment"`
	// Root is the directory holding one subdirectory per run.
	Root string `toml:"root"`
	// DataSource labels the input in exported metadata. It
	// defaults to Root.
	DataSource string `toml:"data_source"`
	// RunFile is the name of the output file in each run directory.
	RunFile string `toml:"run_file"`
	// Schema is the run identifier template.
	Schema string `toml:"schema"`

	Layout     Layout      `toml:"layout"`
	Objectives []Objective `toml:"objective"`
	Output     Output      `toml:"output"`

	// ParallelThreshold is the row count above which the frontier
	// is computed in parallel. Negative disables parallelism.
	ParallelThreshold int `toml:"parallel_threshold"`
}

// Layout describes the summary line of a run's output.
type Layout struct {
	Marker string `toml:"marker"`
	// Columns maps metric names to field offsets from the marker.
	// If empty, the memtier layout is used.
	Columns map[string]int `toml:"columns"`
}

// An Objective is one Pareto objective.
type Objective struct {
	Metric string `toml:"metric"`
	// Direction is "maximize" or "minimize". It defaults to the
	// metric's natural direction.
	Direction string `toml:"direction"`
}

// Output names the files to produce. Empty names are skipped.
type Output struct {
	// Dir is the local directory outputs are written to when
	// Bucket is empty.
	Dir   string `toml:"dir"`
	JSON  string `toml:"json"`
	CSV   string `toml:"csv"`
	Text  string `toml:"text"`
	HTML  string `toml:"html"`
	Plots string `toml:"plots"`

	// DBDriver and DBDSN, if set, also save the rows to a SQL
	// database ("sqlite3" or "mysql").
	DBDriver string `toml:"db_driver"`
	DBDSN    string `toml:"db_dsn"`

	// Bucket, if set, writes outputs to this Google Cloud Storage
	// bucket, under Prefix, instead of Dir.
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
}

// DefaultSchema is the identifier template of the Redis contention
// experiments.
const DefaultSchema = "clients_<int>_threads_<int>_pipeline_<int>"

// DefaultParallelThreshold is the default for
// Config.ParallelThreshold.
const DefaultParallelThreshold = 2048

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Experiment: "redis_contention",
		RunFile:    "redis.out",
		Schema:     DefaultSchema,
		Layout:     Layout{Marker: runfmt.DefaultLayout.Marker},
		Output: Output{
			Dir:   ".",
			JSON:  "aggregated_results.json",
			CSV:   "throughput_flat.csv",
			Plots: "plots",
		},
		ParallelThreshold: DefaultParallelThreshold,
	}
}

// Load reads the experiment file at path over the defaults. Keys the
// file sets that Config does not know are an error.
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("loading %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}

// Validate checks that c can be turned into a key schema, a layout,
// and a set of objectives, and that the layout extracts every
// objective metric.
func (c *Config) Validate() error {
	if _, err := c.KeySchema(); err != nil {
		return err
	}
	l, err := c.RunLayout()
	if err != nil {
		return err
	}
	objs, err := c.ParetoObjectives()
	if err != nil {
		return err
	}
	// An objective the layout never extracts would drop every row.
	have := make(map[metric.Metric]bool)
	for _, m := range l.Metrics() {
		have[m] = true
	}
	for _, o := range objs {
		if !have[o.Metric] {
			return fmt.Errorf("objective %s: metric is not extracted by layout", o.Metric.Info().Column)
		}
	}
	if (c.Output.DBDriver == "") != (c.Output.DBDSN == "") {
		return fmt.Errorf("output: db_driver and db_dsn must be set together")
	}
	return nil
}

// KeySchema parses c.Schema.
func (c *Config) KeySchema() (*runkey.Schema, error) {
	s, err := runkey.ParseSchema(c.Schema)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return s, nil
}

// RunLayout returns the summary line layout.
func (c *Config) RunLayout() (*runfmt.Layout, error) {
	l := runfmt.Layout{Marker: c.Layout.Marker}
	if len(c.Layout.Columns) == 0 {
		l.Columns = append([]runfmt.Column(nil), runfmt.DefaultLayout.Columns...)
	}
	for name, field := range c.Layout.Columns {
		m, err := metric.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		l.Columns = append(l.Columns, runfmt.Column{Metric: m, Field: field})
	}
	sort.Slice(l.Columns, func(i, j int) bool { return l.Columns[i].Metric < l.Columns[j].Metric })
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return &l, nil
}

// ParetoObjectives returns the configured objectives, or
// pareto.Default if there are none.
func (c *Config) ParetoObjectives() (pareto.Objectives, error) {
	if len(c.Objectives) == 0 {
		return pareto.Default(), nil
	}
	var objs pareto.Objectives
	for _, o := range c.Objectives {
		m, err := metric.Parse(o.Metric)
		if err != nil {
			return nil, fmt.Errorf("objective: %w", err)
		}
		dir := m.Info().Dir
		if o.Direction != "" {
			if dir, err = metric.ParseDirection(o.Direction); err != nil {
				return nil, fmt.Errorf("objective %s: %w", o.Metric, err)
			}
		}
		objs = append(objs, pareto.Objective{Metric: m, Dir: dir})
	}
	if err := objs.Validate(); err != nil {
		return nil, fmt.Errorf("objectives: %w", err)
	}
	return objs, nil
}

// DataSourceLabel returns the label for exported metadata.
func (c *Config) DataSourceLabel() string {
	if c.DataSource != "" {
		return c.DataSource
	}
	return c.Root
}
