// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/shopper/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "shopper <version> (<commit>, built <date>)".
func String() string {
	return fmt.Sprintf("shopper %s (%s, built %s)", Version, Commit, Date)
}
