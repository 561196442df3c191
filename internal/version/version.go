package version

import (
	"fmt"
	"runtime"
)

// Name identifies the engine in logs and outgoing requests
const Name = "perso-wars"

// Repository is advertised in the Discord user agent
const Repository = "https://github.com/latoulicious/perso-wars"

// Overridden at build time with -ldflags "-X .../internal/version.GitCommit=..."
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info describes the running binary
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Get() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short is the version with the abbreviated commit, e.g. 0.1.0+1a2b3c4
func (i Info) Short() string {
	if i.GitCommit == "" || i.GitCommit == "unknown" {
		return i.Version
	}
	commit := i.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return i.Version + "+" + commit
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (built %s, %s, %s)", i.Name, i.Short(), i.BuildTime, i.GoVersion, i.Platform)
}

// UserAgent follows the format Discord expects from bots using its REST API
func UserAgent() string {
	return fmt.Sprintf("DiscordBot (%s, %s) %s", Repository, Version, Name)
}
