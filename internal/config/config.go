// Package config defines the configuration model for csvload runs.
//
// A Config is assembled in layers: built-in defaults, then an optional
// JSON or YAML file, then a .env file, then CSVLOAD_* environment variables.
// Command-line flags are applied last by cmd/csvload.
//
// Example (YAML):
//
//	database:
//	  kind: postgres
//	  host: db.internal
//	  user: loader
//	  database: warehouse
//	csv:
//	  sample_size: 5000
//	  types: { zip: object }
//	table:
//	  if_exists: append
//	  primary_key: customer_id
//	  indexes: [email]
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"csvload/internal/etlerr"

	"gopkg.in/yaml.v3"
)

// Config is the full run configuration.
type Config struct {
	Database   Database   `json:"database" yaml:"database"`
	CSV        CSV        `json:"csv" yaml:"csv"`
	Table      Table      `json:"table" yaml:"table"`
	DeadLetter DeadLetter `json:"dead_letter" yaml:"dead_letter"`
	Metrics    Metrics    `json:"metrics" yaml:"metrics"`
	Runtime    Runtime    `json:"runtime" yaml:"runtime"`
}

// Database selects the target engine. DSN wins over the discrete fields.
type Database struct {
	Kind         string `json:"kind" yaml:"kind"`
	DSN          string `json:"dsn" yaml:"dsn"`
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	User         string `json:"user" yaml:"user"`
	Password     string `json:"password" yaml:"password"`
	Name         string `json:"name" yaml:"name"`
	Charset      string `json:"charset" yaml:"charset"`
	MaxOpenConns int    `json:"max_open_conns" yaml:"max_open_conns"`

	// Options carries backend-specific connection parameters, passed
	// through as DSN query parameters (e.g. sslmode, encrypt, parseTime).
	Options Options `json:"options" yaml:"options"`
}

// CSV controls structural analysis and type inference.
type CSV struct {
	// Encoding, Delimiter and NoHeader override detection when set.
	Encoding  string `json:"encoding" yaml:"encoding"`
	Delimiter string `json:"delimiter" yaml:"delimiter"`
	NoHeader  bool   `json:"no_header" yaml:"no_header"`
	KeepSpace bool   `json:"keep_space" yaml:"keep_space"`

	SampleSize          int     `json:"sample_size" yaml:"sample_size"`
	EncodingSampleBytes int     `json:"encoding_sample_bytes" yaml:"encoding_sample_bytes"`
	SampleLines         int     `json:"sample_lines" yaml:"sample_lines"`
	MinConfidence       float64 `json:"min_confidence" yaml:"min_confidence"`
	SubSample           int     `json:"sub_sample" yaml:"sub_sample"`

	// Types declares storage tags per source column, e.g. {"zip": "object"}.
	Types map[string]string `json:"types" yaml:"types"`
}

// Table controls the target table.
type Table struct {
	// Name overrides the table name derived from the file name.
	Name       string   `json:"name" yaml:"name"`
	IfExists   string   `json:"if_exists" yaml:"if_exists"`
	PrimaryKey string   `json:"primary_key" yaml:"primary_key"`
	Indexes    []string `json:"indexes" yaml:"indexes"`
}

// DeadLetter controls where failed rows are written.
type DeadLetter struct {
	Dir string `json:"dir" yaml:"dir"`
}

// Metrics selects an optional metrics backend: "none", "prometheus" or
// "datadog".
type Metrics struct {
	Backend        string   `json:"backend" yaml:"backend"`
	Job            string   `json:"job" yaml:"job"`
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string   `json:"namespace" yaml:"namespace"`
	Tags           []string `json:"tags" yaml:"tags"`
}

// Runtime controls batching and file-level parallelism.
type Runtime struct {
	ChunkSize int  `json:"chunk_size" yaml:"chunk_size"`
	Parallel  int  `json:"parallel" yaml:"parallel"`
	DryRun    bool `json:"dry_run" yaml:"dry_run"`
	Verbose   bool `json:"verbose" yaml:"verbose"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Database: Database{
			Kind:    "mysql",
			Host:    "localhost",
			Port:    3306,
			Charset: "utf8mb4",
		},
		CSV: CSV{
			SampleSize:          1000,
			EncodingSampleBytes: 10000,
			SampleLines:         5,
			MinConfidence:       0.7,
			SubSample:           10,
		},
		Table:      Table{IfExists: "fail"},
		DeadLetter: DeadLetter{Dir: "errors"},
		Metrics:    Metrics{Backend: "none", Job: "csvload"},
		Runtime:    Runtime{ChunkSize: 10000, Parallel: 1},
	}
}

// Load builds a Config from defaults, the file at path (optional), the
// given .env files (".env" when none are given) and the process
// environment. A missing config file or .env file is not an error.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	dotenv, err := readDotEnv(envFiles)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("config: file %s not found, using defaults", path)
		return nil
	}
	if err != nil {
		return etlerr.Wrap(etlerr.KindConfig, err, "read config file", map[string]any{"path": path})
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return etlerr.New(etlerr.KindConfig, "unsupported config file extension", map[string]any{"path": path, "ext": ext})
	}
	if err != nil {
		return etlerr.Wrap(etlerr.KindConfig, err, "decode config file", map[string]any{"path": path})
	}
	log.Printf("config: loaded %s", path)
	return nil
}

// Options is a small helper to fetch typed values from free-form maps. It
// performs minimal coercion and returns def when a key is absent or of an
// unexpected type. JSON numbers decode as float64 and YAML integers as int;
// Int accepts both.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings. Non-string elements are skipped.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Params flattens scalar options into string connection parameters.
// Nested maps and arrays are skipped.
func (o Options) Params() map[string]string {
	if len(o) == 0 {
		return nil
	}
	out := make(map[string]string, len(o))
	for k, v := range o {
		switch x := v.(type) {
		case string:
			out[k] = x
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(x)
		}
	}
	return out
}

// UnmarshalJSON decodes a missing or null object to an empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
