package config

import (
	"maps"
	"os"
	"regexp"
)

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${VAR} references. References to unset or
// empty variables are left in place.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		if v := os.Getenv(ref[2 : len(ref)-1]); v != "" {
			return v
		}
		return ref
	})
}

// expandTargetEnvVars expands references in the connection fields, where
// secrets usually live.
func expandTargetEnvVars(t *TargetConfig) {
	for _, field := range []*string{&t.Password, &t.User, &t.Host, &t.Database, &t.Path} {
		*field = expandEnvVars(*field)
	}
}

// MergeTargetConfig overlays the non-zero fields of override on base.
// Option and param maps are unioned. Neither input is modified.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	switch {
	case base == nil:
		return override
	case override == nil:
		return base
	}

	merged := *base
	for dst, src := range map[*string]string{
		&merged.Type:     override.Type,
		&merged.Path:     override.Path,
		&merged.Host:     override.Host,
		&merged.Database: override.Database,
		&merged.User:     override.User,
		&merged.Password: override.Password,
		&merged.Schema:   override.Schema,
	} {
		if src != "" {
			*dst = src
		}
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	merged.Options = union(base.Options, override.Options)
	merged.Params = union(base.Params, override.Params)
	return &merged
}

func union[M ~map[K]V, K comparable, V any](a, b M) M {
	out := make(M, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}
