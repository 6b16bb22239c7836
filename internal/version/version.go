// Package version holds build information injected via -ldflags.
package version

// Set at build time with -ldflags "-X github.com/philecms/philekit/internal/version.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent returns the identifier used in outgoing requests and logs
func UserAgent() string {
	return "philekit/" + Version
}
