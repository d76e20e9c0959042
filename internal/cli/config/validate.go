package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/leapstack-labs/leapxmla/pkg/adapter"
)

// Validate checks if the configuration is valid. It does not touch the
// filesystem; see ValidateCatalog.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range 1..65535", c.Server.Port))
	}
	if c.Server.SessionTimeout < time.Second {
		errs = append(errs, fmt.Errorf("server.session_timeout %s must be at least 1s", c.Server.SessionTimeout))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", c.Server.ShutdownTimeout))
	}
	if c.Target != nil {
		if err := ValidateTarget(c.Target); err != nil {
			errs = append(errs, fmt.Errorf("invalid target configuration: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ValidateTarget checks that the target names a registered adapter.
// Matching is case-insensitive; Type is normalized to lower case.
func ValidateTarget(t *TargetConfig) error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	t.Type = strings.ToLower(t.Type)
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	return nil
}

// ValidateCatalog checks that the catalog file exists.
func (c *Config) ValidateCatalog() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if _, err := os.Stat(c.Catalog.Path); os.IsNotExist(err) {
		return fmt.Errorf("catalog file does not exist: %s\nHint: Create the file or use --catalog to specify a different path", c.Catalog.Path)
	}
	return nil
}
