// Package config defines the configuration model of a crash analysis run.
//
// A run is described by one YAML (or JSON) document whose top-level keys are
// upper case:
//
//	INPUT:
//	  Primary_Person: data/Primary_Person_use.csv
//	  Units: data/Units_use.csv
//	  Damages: data/Damages_use.csv
//	  Charges: data/Charges_use.csv
//	OUTPUT:
//	  analysis_1_output: out/analysis_1
//	LOGGING:
//	  namespace: car_crash
//	  level: INFO
//	  formatter: text
//	  path: logs/run.log
//	  mode: a
//	SINK:
//	  kind: csv
//	  dsn: .
//	  options: { compression: lz4 }
//	METRICS:
//	  backend: none
//	RUNTIME:
//	  parallelism: 4
//	  analyses: [1, 3, 8]
//	DEDUP:
//	  Units: { keys: [CRASH_ID, UNIT_NBR], policy: most-complete }
//
// Free-form sections (PARSER, SINK.options) are decoded into Options and read
// with its typed getters.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level document.
type Config struct {
	// Input maps a dataset name (Primary_Person, Units, Damages, Charges) to a
	// file path or http(s) URL.
	Input map[string]string `yaml:"INPUT" json:"INPUT"`

	// Output maps an analysis output key (analysis_N_output) to a sink
	// destination.
	Output map[string]string `yaml:"OUTPUT" json:"OUTPUT"`

	Logging Logging `yaml:"LOGGING" json:"LOGGING"`

	// Parser is passed to the CSV loader. Keys: comma (string), trim_space
	// (bool), normalize_headers (bool), truthy and falsy (string lists).
	// http_timeout_seconds, http_retries and http_insecure_skip_verify apply
	// to http(s) INPUT locations.
	Parser Options `yaml:"PARSER" json:"PARSER"`

	Sink    Sink    `yaml:"SINK" json:"SINK"`
	Metrics Metrics `yaml:"METRICS" json:"METRICS"`
	Runtime Runtime `yaml:"RUNTIME" json:"RUNTIME"`

	// Dedup collapses duplicate rows of a dataset right after it is loaded,
	// keyed by dataset name.
	Dedup map[string]Dedup `yaml:"DEDUP" json:"DEDUP"`
}

// Dedup names the key columns of a dataset and how to pick one row among
// duplicates: keep-first (default), keep-last or most-complete. Prefer adds
// weight to columns when scoring most-complete.
type Dedup struct {
	Keys   []string `yaml:"keys" json:"keys"`
	Policy string   `yaml:"policy" json:"policy"`
	Prefer []string `yaml:"prefer" json:"prefer"`
}

// Logging configures the process logger.
type Logging struct {
	Namespace string `yaml:"namespace" json:"namespace"`
	Level     string `yaml:"level" json:"level"`
	// Formatter is "text" or "json".
	Formatter string `yaml:"formatter" json:"formatter"`
	// Path, when set, sends logs to a file instead of stderr.
	Path string `yaml:"path" json:"path"`
	// Mode is "a" (append) or "w" (truncate).
	Mode string `yaml:"mode" json:"mode"`
}

// Sink selects where result tables are written.
type Sink struct {
	// Kind selects the storage backend: csv, sqlite, postgres, mssql, mysql.
	Kind string `yaml:"kind" json:"kind"`

	// DSN is the connection string. For csv it is the base directory that
	// destinations are resolved against.
	DSN string `yaml:"dsn" json:"dsn"`

	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// Replace drops and recreates destination tables. Nil means true.
	Replace *bool `yaml:"replace" json:"replace"`

	// Options is a backend-specific bag, e.g. compression: lz4 for csv.
	Options Options `yaml:"options" json:"options"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is none, pushgateway or datadog.
	Backend        string   `yaml:"backend" json:"backend"`
	Job            string   `yaml:"job" json:"job"`
	PushgatewayURL string   `yaml:"pushgateway_url" json:"pushgateway_url"`
	DatadogAddr    string   `yaml:"datadog_addr" json:"datadog_addr"`
	Namespace      string   `yaml:"namespace" json:"namespace"`
	Tags           []string `yaml:"tags" json:"tags"`
}

// Runtime controls execution.
type Runtime struct {
	// Parallelism bounds concurrently running analyses.
	Parallelism int `yaml:"parallelism" json:"parallelism"`
	// Analyses selects a subset by ID. Empty runs all of them.
	Analyses []int `yaml:"analyses" json:"analyses"`
}

// Defaults applied by Load.
const (
	DefaultSinkKind  = "csv"
	DefaultBatchSize = 5000
	DefaultJob       = "carcrash"
	DefaultLevel     = "INFO"
)

// ReplaceTables reports whether sinks overwrite existing destinations.
func (s Sink) ReplaceTables() bool { return s.Replace == nil || *s.Replace }

// getenv is swapped in tests.
var getenv = os.Getenv

// Load reads the file at path. Files ending in .json are decoded as JSON,
// everything else as YAML. Defaults and environment overrides are applied;
// call Validate or Check afterwards.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(b, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a document already in memory.
func Parse(b []byte, isJSON bool) (Config, error) {
	var cfg Config
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Parser == nil {
		c.Parser = Options{}
	}
	if c.Sink.Options == nil {
		c.Sink.Options = Options{}
	}
	if c.Sink.Kind == "" {
		c.Sink.Kind = DefaultSinkKind
	}
	if c.Sink.Kind == DefaultSinkKind && c.Sink.DSN == "" {
		c.Sink.DSN = "."
	}
	if c.Sink.BatchSize == 0 {
		c.Sink.BatchSize = DefaultBatchSize
	}
	if c.Metrics.Backend == "" {
		c.Metrics.Backend = "none"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = DefaultJob
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLevel
	}
	if c.Logging.Mode == "" {
		c.Logging.Mode = "a"
	}
	if c.Runtime.Parallelism == 0 {
		c.Runtime.Parallelism = 1
	}
}

// applyEnv lets the environment override secrets and deployment-specific
// endpoints.
func (c *Config) applyEnv() {
	if v := getenv("CARCRASH_SINK_DSN"); v != "" {
		c.Sink.DSN = v
	}
	if v := getenv("METRICS_BACKEND"); v != "" {
		c.Metrics.Backend = v
	}
	if v := getenv("PUSHGATEWAY_URL"); v != "" {
		c.Metrics.PushgatewayURL = v
	}
}

// Options is a small helper to fetch typed values from free-form maps. It
// performs only minimal type coercion and returns the provided default when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int; both are accepted.
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

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or the value is not an array.
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

// UnmarshalJSON decodes a missing or null object to a non-nil, empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
