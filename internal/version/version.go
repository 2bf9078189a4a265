package version

import (
	"runtime"
	rdebug "runtime/debug"
	"strings"
)

// set with -ldflags at build time
var (
	GitCommit  string
	GitBranch  string
	BuildDate  string
	AppVersion string
	GoVersion  = runtime.Version()
	SSHVersion = depVersion("golang.org/x/crypto")
)

type Version struct {
	GitCommit  string `json:"git_commit"`
	GitBranch  string `json:"git_branch"`
	BuildDate  string `json:"build_date"`
	AppVersion string `json:"app_version"`
	GoVersion  string `json:"go_version"`
	SSHVersion string `json:"ssh_version"`
}

func Current() Version {
	return Version{
		GitCommit:  GitCommit,
		GitBranch:  GitBranch,
		BuildDate:  BuildDate,
		AppVersion: AppVersion,
		GoVersion:  GoVersion,
		SSHVersion: SSHVersion,
	}
}

func depVersion(path string) string {
	buildInfo, ok := rdebug.ReadBuildInfo()
	if !ok {
		return ""
	}

	for _, d := range buildInfo.Deps {
		if strings.HasPrefix(d.Path, path) {
			return d.Version
		}
	}

	return ""
}
