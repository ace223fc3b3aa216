package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v59/github"
)

func getOwnerRepo(fullRepo string) (string, string) {
	owner, repo, found := strings.Cut(fullRepo, "/")
	if !found {
		return "", ""
	}

	return owner, repo
}

func getLatestGitHubRelease(ctx context.Context, ghClient *github.Client, fullRepo string) (*github.RepositoryRelease, error) {
	owner, repo := getOwnerRepo(fullRepo)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q", fullRepo)
	}
	release, _, err := ghClient.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if release.GetDraft() {
		return nil, fmt.Errorf("release is a draft")
	}
	if _, err := semver.NewVersion(release.GetTagName()); err != nil {
		return nil, fmt.Errorf("release is not a valid semver version: %w", err)
	}
	return release, nil
}

// findPackageAsset picks the installable zip of a release, preferring an asset named after the slug.
func findPackageAsset(assets []*github.ReleaseAsset, slug string) *github.ReleaseAsset {
	var fallback *github.ReleaseAsset
	for _, asset := range assets {
		fn := strings.ToLower(asset.GetName())
		if !strings.HasSuffix(fn, ".zip") {
			continue
		}
		if strings.HasPrefix(fn, strings.ToLower(slug)) {
			return asset
		}
		if fallback == nil {
			fallback = asset
		}
	}
	return fallback
}

func releaseVersion(tag string) string {
	return strings.TrimPrefix(strings.TrimPrefix(tag, "v"), "V")
}
