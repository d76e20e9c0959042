package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/leapxmla/internal/cli/config"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Category    string // "server", "catalog", "target", "datasource", "log"
}

// getConfigSchema returns the configuration schema definition.
// This is based on internal/cli/config/types.go.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "server.host", Type: "string", Default: config.DefaultHost, Description: "Address to listen on", Category: "server"},
		{Name: "server.port", Type: "int", Default: strconv.Itoa(config.DefaultPort), Description: "Port to listen on", Category: "server"},
		{Name: "server.session_timeout", Type: "duration", Default: config.DefaultSessionTimeout.String(), Description: "Idle time before a session expires", Category: "server"},
		{Name: "server.session_secret", Type: "string", Description: "Key that signs session cookies; random per process when unset", Category: "server"},
		{Name: "server.cookie_name", Type: "string", Default: "leapxmla", Description: "Name of the session cookie", Category: "server"},
		{Name: "server.watch_catalog", Type: "bool", Default: "false", Description: "Reload the catalog file when it changes", Category: "server"},
		{Name: "server.shutdown_timeout", Type: "duration", Default: config.DefaultShutdownTimeout.String(), Description: "Grace period for in-flight requests on shutdown", Category: "server"},

		{Name: "catalog.path", Type: "string", Default: config.DefaultCatalogFile, Description: "Catalog file, relative to the config file", Category: "catalog"},

		{Name: "target.type", Type: "string", Description: "Member database: duckdb, postgres, sqlite", Category: "target"},
		{Name: "target.path", Type: "string", Description: "Database file (DuckDB, SQLite)", Category: "target"},
		{Name: "target.host", Type: "string", Description: "Database host (PostgreSQL)", Category: "target"},
		{Name: "target.port", Type: "int", Description: "Database port (PostgreSQL)", Category: "target"},
		{Name: "target.database", Type: "string", Description: "Database name", Category: "target"},
		{Name: "target.user", Type: "string", Description: "Database username", Category: "target"},
		{Name: "target.password", Type: "string", Description: "Database password", Category: "target"},
		{Name: "target.schema", Type: "string", Description: "Schema member queries run in", Category: "target"},
		{Name: "target.options", Type: "map[string]string", Description: "Additional driver-specific options", Category: "target"},
		{Name: "target.params", Type: "map[string]any", Description: "Adapter-specific settings such as DuckDB extensions", Category: "target"},

		{Name: "datasource.name", Type: "string", Description: "DataSourceName reported by DISCOVER_DATASOURCES", Category: "datasource"},
		{Name: "datasource.description", Type: "string", Description: "DataSourceDescription", Category: "datasource"},
		{Name: "datasource.url", Type: "string", Description: "URL clients connect to", Category: "datasource"},
		{Name: "datasource.info", Type: "string", Description: "DataSourceInfo", Category: "datasource"},
		{Name: "datasource.provider_name", Type: "string", Description: "ProviderName", Category: "datasource"},
		{Name: "datasource.provider_type", Type: "[]string", Description: "ProviderType values", Category: "datasource"},
		{Name: "datasource.auth_mode", Type: "string", Description: "AuthenticationMode", Category: "datasource"},

		{Name: "log.level", Type: "string", Default: config.DefaultLogLevel, Description: "debug, info, warn or error", Category: "log"},
		{Name: "log.format", Type: "string", Default: config.DefaultLogFormat, Description: "text or json", Category: "log"},
	}
}

var configSections = []struct {
	category string
	title    string
	intro    string
}{
	{"server", "Server", "HTTP server and session settings."},
	{"catalog", "Catalog", "The catalog file defining cubes, dimensions and measures."},
	{"target", "Target", "Optional database that level members are read from."},
	{"datasource", "Data Source", "The row returned by DISCOVER_DATASOURCES."},
	{"log", "Logging", "Process logs are written to stderr."},
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating configuration docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "leapxmla configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("leapxmla reads `leapxmla.yaml` from the working directory or the nearest parent. " +
		"Environment variables prefixed with `" + config.EnvPrefix + "` override the file, and flags override both.")

	fields := getConfigSchema()
	for _, sec := range configSections {
		w.Header(2, sec.title)
		w.Paragraph(sec.intro)

		var rows [][]string
		for _, f := range fields {
			if f.Category != sec.category {
				continue
			}
			defVal := "-"
			if f.Default != "" {
				defVal = InlineCode(f.Default)
			}
			rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
		}
		w.Table([]string{"Field", "Type", "Default", "Description"}, rows)
	}

	w.Header(2, "Environments")
	w.Paragraph("Entries under `environments` override the target when selected with `--environment` or `" +
		config.EnvPrefix + "ENVIRONMENT`. Fields left empty keep the base target's value.")

	w.Header(2, "Full Configuration Example")
	w.CodeBlock("yaml", `# leapxmla.yaml
server:
  port: 8080
  session_timeout: 30m
  session_secret: ${LEAPXMLA_COOKIE_KEY}
  watch_catalog: true

catalog:
  path: catalog.yaml

target:
  type: duckdb
  path: ./data/foodmart.duckdb

environments:
  prod:
    target:
      type: postgres
      host: warehouse.example.com
      port: 5432
      user: olap
      password: ${POSTGRES_PASSWORD}
      database: foodmart

datasource:
  name: FoodMart
  provider_name: leapxmla
  provider_type: [MDP]
  auth_mode: Unauthenticated

log:
  level: info
  format: json`)

	w.Header(2, "Environment Variables")
	w.Paragraph("Use `${VAR_NAME}` inside target fields and `server.session_secret` to read secrets from the environment.")

	return os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600)
}
