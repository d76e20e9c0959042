// Package core defines the shared language of the leapxmla system.
//
// This package contains:
//   - The OLAP metadata contract (Catalog, Schema, Cube, Dimension, Hierarchy,
//     Level, Member, Measure, NamedSet) consumed by the rowset engine
//   - Connection and ConnectionFactory, plus the Extra vendor hook
//   - The SQL Adapter contract used to source dimension members
//   - Configuration types shared between the CLI and backends (TargetConfig)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
