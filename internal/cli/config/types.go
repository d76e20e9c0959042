// Package config provides configuration management for the leapxmla CLI.
//
// Values are layered: defaults, then leapxmla.yaml, then LEAPXMLA_
// environment variables, then command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Server       ServerConfig         `koanf:"server"`
	Catalog      CatalogConfig        `koanf:"catalog"`
	Target       *TargetConfig        `koanf:"target"`
	DataSource   DataSourceConfig     `koanf:"datasource"`
	Log          LogConfig            `koanf:"log"`
	Verbose      bool                 `koanf:"verbose"`
	Environment  string               `koanf:"environment"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// ServerConfig configures the XMLA HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	SessionSecret   string        `koanf:"session_secret"`
	CookieName      string        `koanf:"cookie_name"`
	WatchCatalog    bool          `koanf:"watch_catalog"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// CatalogConfig locates the catalog file.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// DataSourceConfig describes the single row of DISCOVER_DATASOURCES.
type DataSourceConfig struct {
	Name          string   `koanf:"name"`
	Description   string   `koanf:"description"`
	URL           string   `koanf:"url"`
	Info          string   `koanf:"info"`
	ProviderName  string   `koanf:"provider_name"`
	ProviderTypes []string `koanf:"provider_type"`
	AuthMode      string   `koanf:"auth_mode"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultSessionTimeout  = 2 * time.Hour
	DefaultShutdownTimeout = 5 * time.Second
	DefaultCatalogFile     = "catalog.yaml"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// CoreDataSource converts the configured data source for the catalog
// backend.
func (d DataSourceConfig) CoreDataSource() core.DataSource {
	return core.DataSource{
		Name:          d.Name,
		Description:   d.Description,
		URL:           d.URL,
		Info:          d.Info,
		ProviderName:  d.ProviderName,
		ProviderTypes: d.ProviderTypes,
		AuthMode:      d.AuthMode,
	}
}
