// Package version holds build information stamped in by the linker.
package version

// Set with -ldflags "-X github.com/dkoosis/pqs/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)
