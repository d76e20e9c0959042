package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read as configuration.
// Nested keys are separated by a double underscore:
// LEAPXMLA_SERVER__PORT sets server.port.
const EnvPrefix = "LEAPXMLA_"

// searchDepth bounds the upward search for a config file.
const searchDepth = 10

var configNames = []string{"leapxmla.yaml", "leapxmla.yml"}

// flagKeys maps command-line flags to config keys. Flags not listed here
// are command options, not configuration.
var flagKeys = map[string]string{
	"host":        "server.host",
	"port":        "server.port",
	"watch":       "server.watch_catalog",
	"catalog":     "catalog.path",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"verbose":     "verbose",
	"environment": "environment",
}

// Loaded is the result of a configuration load.
type Loaded struct {
	*Config

	// File is the config file that was read, if any.
	File string

	// Root is the directory relative paths were resolved against.
	Root string
}

func defaults() map[string]any {
	return map[string]any{
		"server.host":             DefaultHost,
		"server.port":             DefaultPort,
		"server.session_timeout":  DefaultSessionTimeout.String(),
		"server.shutdown_timeout": DefaultShutdownTimeout.String(),
		"server.watch_catalog":    false,
		"catalog.path":            DefaultCatalogFile,
		"log.level":               DefaultLogLevel,
		"log.format":              DefaultLogFormat,
		"verbose":                 false,
	}
}

// Load reads configuration from defaults, the config file, environment
// variables and flags, in increasing order of precedence. Only flags that
// were explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	k := koanf.New(".")
	out := &Loaded{Root: cwd, File: locate(cfgFile, cwd)}

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if out.File != "" {
		if err := k.Load(file.Provider(out.File), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", out.File, err)
		}
		if abs, err := filepath.Abs(out.File); err == nil {
			out.Root = filepath.Dir(abs)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey(flags)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	out.Config = &cfg

	if err := out.finish(flags); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// finish applies the environment overlay and resolves paths and ${VAR}
// references once every layer has been merged.
func (l *Loaded) finish(flags *pflag.FlagSet) error {
	cfg := l.Config

	// A --catalog path is relative to the working directory, any other
	// source to the config file.
	if f := lookupChanged(flags, "catalog"); f != nil {
		abs, err := filepath.Abs(f.Value.String())
		if err != nil {
			return fmt.Errorf("failed to resolve --catalog: %w", err)
		}
		cfg.Catalog.Path = abs
	} else {
		cfg.Catalog.Path = under(l.Root, cfg.Catalog.Path)
	}

	if cfg.Environment != "" {
		overlay, ok := cfg.Environments[cfg.Environment]
		if !ok {
			return fmt.Errorf("environment %q is not defined in environments", cfg.Environment)
		}
		cfg.Target = MergeTargetConfig(cfg.Target, overlay.Target)
	}

	if t := cfg.Target; t != nil {
		expandTargetEnvVars(t)
		if t.Path != ":memory:" {
			t.Path = under(l.Root, t.Path)
		}
	}
	cfg.Server.SessionSecret = expandEnvVars(cfg.Server.SessionSecret)
	return nil
}

// envKey turns LEAPXMLA_SERVER__SESSION_TIMEOUT into server.session_timeout.
func envKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "__", ".")
}

func flagKey(flags *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}
}

func lookupChanged(flags *pflag.FlagSet, name string) *pflag.Flag {
	if flags == nil {
		return nil
	}
	if f := flags.Lookup(name); f != nil && f.Changed {
		return f
	}
	return nil
}

// locate returns the config file to read. An explicit path wins;
// otherwise dir and its parents are searched.
func locate(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	for range searchDepth {
		for _, name := range configNames {
			if p := filepath.Join(dir, name); fileExists(p) {
				return p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
	return ""
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// under joins a relative path onto root. Empty and absolute paths are
// returned unchanged.
func under(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
