package version

import (
	"runtime"
	"time"
)

// Populated at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info describes the running build.
type Info struct {
	Version     string    `json:"version"`
	GitCommit   string    `json:"git_commit"`
	BuildTime   string    `json:"build_time"`
	GoVersion   string    `json:"go_version"`
	Platform    string    `json:"platform"`
	Environment string    `json:"environment"`
	SchemaRev   int       `json:"schema_revision,omitempty"`
	ServerTime  time.Time `json:"server_time"`
}

// Get assembles build info plus the deployment environment and the applied
// database schema revision.
func Get(env string, schemaRev int) Info {
	return Info{
		Version:     Version,
		GitCommit:   GitCommit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		Environment: env,
		SchemaRev:   schemaRev,
		ServerTime:  time.Now().UTC(),
	}
}
