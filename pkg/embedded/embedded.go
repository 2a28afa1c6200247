// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
//   - scenarios/default.yaml - the built-in scenario catalog
//
//go:embed scenarios
var Files embed.FS

// DefaultScenarioPath is the catalog's path inside Files
const DefaultScenarioPath = "scenarios/default.yaml"
