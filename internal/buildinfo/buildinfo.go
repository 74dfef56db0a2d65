// Package buildinfo holds build-time metadata injected via -ldflags, e.g.
//
//	-X github.com/garyellow/degree-planner/internal/buildinfo.Version=v1.4.0
package buildinfo

import "strings"

var (
	// Version is the release tag.
	Version = ""
	// Commit is the git commit SHA.
	Commit = ""
	// BuildDate is the RFC3339 build timestamp.
	BuildDate = ""
)

// Release returns the label reported to Sentry and /readyz: the version,
// else the commit, else "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}

// Summary renders the release with whatever commit and date are known, for
// --version output and the startup log.
func Summary() string {
	var extra []string
	if Version != "" && Commit != "" {
		extra = append(extra, Commit)
	}
	if BuildDate != "" {
		extra = append(extra, "built "+BuildDate)
	}
	if len(extra) == 0 {
		return Release()
	}
	return Release() + " (" + strings.Join(extra, ", ") + ")"
}
