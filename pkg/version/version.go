package version

import (
	"runtime"
	"runtime/debug"
	"time"
)

const unknown = "unknown"

var (
	// Version is the release version, injected at build time via -ldflags.
	Version = "dev"
	// GitCommit is the source revision, injected at build time.
	GitCommit = unknown
	// BuildDate is the RFC3339 build timestamp, injected at build time.
	BuildDate = unknown
	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string     `json:"version" yaml:"version"`
	GitCommit string     `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string     `json:"buildDate" yaml:"buildDate"`
	GoVersion string     `json:"goVersion" yaml:"goVersion"`
	Platform  string     `json:"platform" yaml:"platform"`
	Modified  bool       `json:"modified,omitempty" yaml:"modified,omitempty"`
	BuildTime *time.Time `json:"buildTime,omitempty" yaml:"buildTime,omitempty"`
}

// GetBuildInfo returns the build metadata. Values not injected via -ldflags
// are taken from the VCS stamp the Go toolchain embeds, when present.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
		Platform:  Platform,
	}

	if bi, ok := readBuildInfo(); ok && bi != nil {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == unknown {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == unknown {
					info.BuildDate = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if t, err := time.Parse(time.RFC3339, info.BuildDate); err == nil {
		info.BuildTime = &t
	}
	return info
}
