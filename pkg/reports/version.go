package reports

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const versionLogPrefix = "reports:version"

// UpdateAvailable reports whether latest is a newer release than installed.
// An empty latest means no release information and is never newer.
func UpdateAvailable(installed, latest string) (bool, error) {
	if latest == "" {
		return false, nil
	}
	cur, err := semver.NewVersion(installed)
	if err != nil {
		return false, fmt.Errorf("%s - invalid installed version %q: %w", versionLogPrefix, installed, err)
	}
	next, err := semver.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("%s - invalid latest version %q: %w", versionLogPrefix, latest, err)
	}
	return next.GreaterThan(cur), nil
}

// VersionLine describes the installed version for the general report.
func VersionLine(installed, latest string) string {
	if installed == "" {
		return "unknown"
	}
	newer, err := UpdateAvailable(installed, latest)
	switch {
	case err != nil:
		return installed
	case newer:
		return fmt.Sprintf("%s (update available: %s)", installed, latest)
	case latest != "":
		return fmt.Sprintf("%s (up to date)", installed)
	default:
		return installed
	}
}
