package version

import (
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Set via -ldflags "-X dumbserve/internal/version.Version=... -X ...GitCommit=...".
var (
	App       = "dumbserve"
	Version   string
	GitCommit string
	BuildTime string
)

// Get returns the version, "dev" for unstamped builds.
func Get() string {
	if Version != "" {
		return Version
	}
	return "dev"
}

// Commit returns the git commit hash, "unknown" for unstamped builds.
func Commit() string {
	if GitCommit != "" {
		return GitCommit
	}
	return "unknown"
}

// SourceTreeURL links to the source tree at commit: <base>/tree/<commit>.
func SourceTreeURL(base, commit string) (string, error) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse("tree/" + url.PathEscape(commit))
	if err != nil {
		return "", err
	}
	return u.ResolveReference(ref).String(), nil
}

// Print writes the version banner.
func Print(w io.Writer) {
	fmt.Fprintf(w, "%s version %s\n", App, Get())
	if GitCommit != "" {
		fmt.Fprintf(w, "Git commit: %s\n", GitCommit)
	}
	if BuildTime != "" {
		fmt.Fprintf(w, "Build time: %s\n", BuildTime)
	}
}
