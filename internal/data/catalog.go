// Package data embeds the default degree requirements catalog.
// The catalog is maintained manually and updated each academic year.
package data

import _ "embed"

// DefaultCatalog is the built-in requirements catalog used when no catalog
// path is configured.
//
//go:embed degree_requirements.json
var DefaultCatalog []byte
