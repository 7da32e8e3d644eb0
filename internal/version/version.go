// Package version holds the sessionshell build version. Version, GitCommit
// and BuildDate are set at build time with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Build information that can be set at compile time via -ldflags
var (
	// Version is the semantic version of the application
	Version = "0.1.0"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// Info is the build information shown by "sessionshell version".
type Info struct {
	Version   string `yaml:"version"`
	GitCommit string `yaml:"commit"`
	BuildDate string `yaml:"built"`
	GoVersion string `yaml:"go"`
	Platform  string `yaml:"platform"`

	semver *semver.Version
}

// Get returns the build information. It fails only when Version is not a
// semantic version.
func Get() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	return &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		semver:    sv,
	}, nil
}

// Base returns major.minor.patch without prerelease or build metadata.
func (i *Info) Base() string {
	return fmt.Sprintf("%d.%d.%d", i.semver.Major(), i.semver.Minor(), i.semver.Patch())
}

// Prerelease reports whether the version carries a prerelease tag.
func (i *Info) Prerelease() bool {
	return i.semver.Prerelease() != ""
}

// Development reports whether the binary was built without build-time injection.
func (i *Info) Development() bool {
	return i.GitCommit == "unknown" || i.BuildDate == "unknown"
}

// Satisfies checks the version against a constraint such as ">= 0.1, < 1".
func (i *Info) Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint '%s': %w", constraint, err)
	}
	return c.Check(i.semver), nil
}

// Short returns the one-line version string.
func Short() string {
	info, err := Get()
	if err != nil {
		return fmt.Sprintf("sessionshell v%s (invalid version)", Version)
	}

	parts := []string{fmt.Sprintf("sessionshell v%s", info.Version)}
	if info.GitCommit != "unknown" && info.GitCommit != "" {
		commit := info.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		parts = append(parts, "commit "+commit)
	}
	if info.BuildDate != "unknown" && info.BuildDate != "" {
		parts = append(parts, "built "+info.BuildDate)
	}
	return strings.Join(parts, ", ")
}

// Compare compares two version strings: -1 if v1 < v2, 0 if equal, 1 if v1 > v2.
func Compare(v1, v2 string) (int, error) {
	sv1, err := semver.NewVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1 '%s': %w", v1, err)
	}
	sv2, err := semver.NewVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2 '%s': %w", v2, err)
	}
	return sv1.Compare(sv2), nil
}

// BuildTime parses BuildDate.
func BuildTime() (time.Time, error) {
	if BuildDate == "unknown" || BuildDate == "" {
		return time.Time{}, fmt.Errorf("build date not available")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, BuildDate); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse build date '%s'", BuildDate)
}
