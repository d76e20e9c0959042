// Package adapter provides the database adapter contract used to source
// hierarchy members from SQL tables, plus a registry of implementations.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves from init functions.
package adapter

import "github.com/leapstack-labs/leapxmla/pkg/core"

// Type aliases for the adapter types defined in pkg/core.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter
)
