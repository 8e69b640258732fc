// Package version provides build-time version information for the application.
package version

// Set with -ldflags "-X issuereport/internal/version.Version=..." at build time.
var (
	// Version is the application version (e.g., git tag or "dev")
	Version = "dev"
	// Commit is the git commit hash
	Commit = "dev"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Info is the build information reported by /v1/version and the admin CLI
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
}

// Get returns the build information for service
func Get(service string) Info {
	return Info{
		Service:   service,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}
}

// String formats the build information on one line
func (i Info) String() string {
	return i.Service + " " + i.Version + " (commit " + i.Commit + ", built " + i.BuildTime + ")"
}
