package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional configuration file read from the working directory
const FileName = "critpath.toml"

// EnvPrefix prefixes the environment variables overriding the file
const EnvPrefix = "CRITPATH_"

// Config holds all configuration for the application
type Config struct {
	Scenario   string `koanf:"scenario"`
	Fixture    string `koanf:"fixture"`
	Worker     string `koanf:"worker"`
	Algorithm  string `koanf:"algorithm"`
	Start      int64  `koanf:"start"`
	End        int64  `koanf:"end"`
	JSON       bool   `koanf:"json"`
	Verify     bool   `koanf:"verify"`
	WebMode    bool   `koanf:"web"`
	Port       int    `koanf:"port"`
	Watch      bool   `koanf:"watch"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
	LogJSON    bool   `koanf:"log-json"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"scenario":  "",
		"fixture":   "",
		"worker":    "",
		"algorithm": "bounded",
		"start":     int64(0),
		"end":       int64(-1),
		"json":      false,
		"verify":    false,
		"web":       false,
		"port":      8080,
		"watch":     false,
		"verbosity": "",
		"verbose":   0,
		"log-json":  false,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFrom(FileName, f)
}

// LoadFrom is Load with an explicit configuration file path
func LoadFrom(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The file is optional
	_ = k.Load(file.Provider(path), toml.Parser())

	// CRITPATH_LOG_JSON=1 sets log-json
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects option combinations that cannot run
func (c *Config) Validate() error {
	switch {
	case c.Scenario != "" && c.Fixture != "":
		return fmt.Errorf("--scenario and --fixture are mutually exclusive")
	case c.Verify && c.Fixture == "":
		return fmt.Errorf("--verify needs --fixture")
	case c.Watch && c.Scenario == "":
		return fmt.Errorf("--watch needs --scenario")
	case c.Algorithm != "bounded" && c.Algorithm != "unbounded":
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.End >= 0 && c.End < c.Start:
		return fmt.Errorf("end %d before start %d", c.End, c.Start)
	}
	return nil
}

// Flags declares the command line flags Load understands
func Flags(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("scenario", "", "Scenario file (.toml, .json, .yaml) to build the graph from")
	f.String("fixture", "", "Built-in reference scenario to use instead of a file")
	f.String("worker", "", "Worker (host/key) whose critical path is computed")
	f.String("algorithm", "bounded", "Critical path algorithm: bounded or unbounded")
	f.Int64("start", 0, "Start of the span on the worker's lifeline")
	f.Int64("end", -1, "End of the span, negative for the end of the lifeline")
	f.Bool("json", false, "Print the critical path as JSON")
	f.Bool("verify", false, "Compare against the fixture's expected critical paths")
	f.Bool("web", false, "Start web server instead of printing to console")
	f.Int("port", 8080, "Port for web server (only used with --web)")
	f.Bool("watch", false, "Re-run the analysis when the scenario file changes")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("log-json", false, "Write logs as JSON")
	return f
}

// Helper to use map as a provider
type mapProvider map[string]interface{}

func (p mapProvider) Read() (map[string]interface{}, error) {
	return p, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
