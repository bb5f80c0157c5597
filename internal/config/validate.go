package config

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "SINK.kind",
// "OUTPUT.analysis_9_output"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ConfigurationError collects the error-severity issues of a Config.
type ConfigurationError struct {
	Issues []Issue
}

func (e *ConfigurationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		msgs[i] = iss.Path + ": " + iss.Message
	}
	return fmt.Sprintf("invalid configuration (%d error(s)): %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Datasets read by the analyses, and optional extras that are accepted but
// unused.
var (
	CoreDatasets  = []string{"Primary_Person", "Units", "Damages", "Charges"}
	ExtraDatasets = []string{"Endorse", "Restrict"}
)

// AnalysisCount is the highest valid analysis ID.
const AnalysisCount = 8

var (
	outputKey   = regexp.MustCompile(`^analysis_(\d+)_output$`)
	levels      = []string{"DEBUG", "INFO", "WARN", "WARNING", "ERROR"}
	sinkKinds   = []string{"csv", "sqlite", "postgres", "mssql", "mysql"}
	metricKinds = []string{"none", "pushgateway", "datadog"}
	dedupKinds  = []string{"keep-first", "keep-last", "most-complete"}
)

// Validate performs static checks and returns every finding. It does not
// mutate cfg.
func Validate(cfg Config) []Issue {
	var issues []Issue
	issues = append(issues, validateInput(cfg.Input)...)
	issues = append(issues, validateOutput(cfg.Output)...)
	issues = append(issues, validateLogging(cfg.Logging)...)
	issues = append(issues, validateParser(cfg.Parser)...)
	issues = append(issues, validateSink(cfg.Sink)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateRuntime(cfg.Runtime)...)
	issues = append(issues, validateDedup(cfg.Dedup, cfg.Input)...)
	return issues
}

// Check returns a *ConfigurationError holding the error-severity issues, or
// nil when there are none.
func (c Config) Check() error {
	var errs []Issue
	for _, iss := range Validate(c) {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &ConfigurationError{Issues: errs}
}

func validateInput(in map[string]string) []Issue {
	var issues []Issue
	if len(in) == 0 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "INPUT",
			Message:  "INPUT must name at least one dataset",
		}}
	}
	for _, name := range CoreDatasets {
		if _, ok := in[name]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "INPUT." + name,
				Message:  "dataset not configured; analyses reading it will fail",
			})
		}
	}
	for _, name := range sortedKeys(in) {
		path := "INPUT." + name
		if strings.TrimSpace(in[name]) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "dataset location must not be empty",
			})
		}
		switch {
		case slices.Contains(CoreDatasets, name):
		case slices.Contains(ExtraDatasets, name):
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  "dataset is not read by any analysis",
			})
		default:
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("unknown dataset %q", name),
			})
		}
	}
	return issues
}

func validateOutput(out map[string]string) []Issue {
	var issues []Issue
	for _, key := range sortedKeys(out) {
		path := "OUTPUT." + key
		m := outputKey.FindStringSubmatch(key)
		if m == nil {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  "key does not look like analysis_N_output; it is ignored",
			})
			continue
		}
		if id, _ := strconv.Atoi(m[1]); id < 1 || id > AnalysisCount {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("no analysis %d (have 1-%d); it is ignored", id, AnalysisCount),
			})
		}
		if strings.TrimSpace(out[key]) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "destination must not be empty",
			})
		}
	}
	return issues
}

func validateLogging(l Logging) []Issue {
	var issues []Issue
	if !slices.Contains(levels, strings.ToUpper(l.Level)) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "LOGGING.level",
			Message:  fmt.Sprintf("unknown level %q; want one of %s", l.Level, strings.Join(levels, ", ")),
		})
	}
	if l.Mode != "a" && l.Mode != "w" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "LOGGING.mode",
			Message:  fmt.Sprintf("mode %q must be a (append) or w (truncate)", l.Mode),
		})
	}
	switch l.Formatter {
	case "", "text", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "LOGGING.formatter",
			Message:  fmt.Sprintf("unsupported formatter %q; text is used", l.Formatter),
		})
	}
	return issues
}

func validateParser(p Options) []Issue {
	var issues []Issue
	if s := p.String("comma", ""); utf8.RuneCountInString(s) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "PARSER.comma",
			Message:  fmt.Sprintf("comma %q is longer than one character; only the first is used", s),
		})
	}
	if (len(p.StringSlice("truthy")) == 0) != (len(p.StringSlice("falsy")) == 0) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "PARSER",
			Message:  "truthy and falsy must both be set for boolean inference; it is disabled",
		})
	}
	return issues
}

func validateSink(s Sink) []Issue {
	var issues []Issue
	if !slices.Contains(sinkKinds, s.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "SINK.kind",
			Message:  fmt.Sprintf("unknown sink kind %q; want one of %s", s.Kind, strings.Join(sinkKinds, ", ")),
		})
	}
	if s.Kind != "csv" && strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "SINK.dsn",
			Message:  "dsn must not be empty for database sinks",
		})
	}
	if s.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "SINK.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	switch c := s.Options.String("compression", ""); c {
	case "", "none":
	case "lz4":
		if s.Kind != "csv" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "SINK.options.compression",
				Message:  "compression only applies to the csv sink",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "SINK.options.compression",
			Message:  fmt.Sprintf("unknown compression %q; want none or lz4", c),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	if !slices.Contains(metricKinds, m.Backend) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "METRICS.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want one of %s", m.Backend, strings.Join(metricKinds, ", ")),
		})
	}
	if m.Backend == "pushgateway" && strings.TrimSpace(m.PushgatewayURL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "METRICS.pushgateway_url",
			Message:  "pushgateway backend requires pushgateway_url (or PUSHGATEWAY_URL)",
		})
	}
	if m.Backend == "datadog" && strings.TrimSpace(m.DatadogAddr) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "METRICS.datadog_addr",
			Message:  "datadog backend requires datadog_addr",
		})
	}
	return issues
}

func validateRuntime(r Runtime) []Issue {
	var issues []Issue
	if r.Parallelism < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "RUNTIME.parallelism",
			Message:  "parallelism must not be negative",
		})
	}
	for i, id := range r.Analyses {
		if id < 1 || id > AnalysisCount {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("RUNTIME.analyses[%d]", i),
				Message:  fmt.Sprintf("no analysis %d (have 1-%d)", id, AnalysisCount),
			})
		}
	}
	return issues
}

func validateDedup(d map[string]Dedup, in map[string]string) []Issue {
	var issues []Issue
	for _, name := range slices.Sorted(maps.Keys(d)) {
		path := "DEDUP." + name
		if _, ok := in[name]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  "dataset is not in INPUT; rule is ignored",
			})
		}
		if p := strings.ToLower(strings.TrimSpace(d[name].Policy)); p != "" && !slices.Contains(dedupKinds, p) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".policy",
				Message:  fmt.Sprintf("unknown policy %q (want one of %s)", d[name].Policy, strings.Join(dedupKinds, ", ")),
			})
		}
		if slices.ContainsFunc(d[name].Keys, func(k string) bool { return strings.TrimSpace(k) == "" }) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".keys",
				Message:  "key column names must not be empty",
			})
		}
	}
	return issues
}

func sortedKeys(m map[string]string) []string { return slices.Sorted(maps.Keys(m)) }
