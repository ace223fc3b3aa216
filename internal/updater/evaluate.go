package updater

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/codewing/plugin-updater/pkg/manifest"
	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

func parseVersion(v string) (*semver.Version, bool) {
	version, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return nil, false
	}
	return version, true
}

// isNewer reports whether remote is strictly greater than local.
func isNewer(local, remote string) bool {
	l, ok := parseVersion(local)
	if !ok {
		return false
	}
	r, ok := parseVersion(remote)
	if !ok {
		return false
	}
	return l.LessThan(r)
}

// satisfies reports whether the available version meets the required minimum.
// An empty requirement is always met.
func satisfies(required, available string) bool {
	if strings.TrimSpace(required) == "" {
		return true
	}
	req, ok := parseVersion(required)
	if !ok {
		return false
	}
	avail, ok := parseVersion(available)
	if !ok {
		return false
	}
	return !avail.LessThan(req)
}

func sanitizeText(s string) string {
	s = textPolicy.Sanitize(s)
	s = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// EvaluateUpdate decides whether remote is a newer release that the host and runtime can install.
func EvaluateUpdate(local LocalPlugin, remote *manifest.Manifest, platform Platform) (*UpdateCandidate, bool) {
	if remote == nil || platform == nil {
		return nil, false
	}
	if !isNewer(local.CurrentVersion, remote.Version) {
		return nil, false
	}
	if !satisfies(remote.Requires, platform.HostVersion()) {
		return nil, false
	}
	if !satisfies(remote.RequiresPHP, platform.RuntimeVersion()) {
		return nil, false
	}
	return &UpdateCandidate{
		Slug:       local.Slug,
		Plugin:     local.PluginFile,
		NewVersion: sanitizeText(remote.Version),
		Tested:     sanitizeText(remote.Tested),
		Package:    escapeURL(remote.DownloadURL),
	}, true
}
