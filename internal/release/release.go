package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/codewing/plugin-updater/pkg/manifest"
	"github.com/google/go-github/v59/github"
)

const lastUpdatedLayout = "2006-01-02 15:04:05"

// Definition describes a plugin whose manifest is generated from its GitHub releases.
type Definition struct {
	Slug          string
	Name          string
	Repo          string
	Author        string
	AuthorProfile string
	Requires      string
	RequiresPHP   string
	Tested        string
	Description   string
	Installation  string
	Banners       *manifest.Banners
}

func (d *Definition) BuildManifest(ctx context.Context, ghClient *github.Client) (*manifest.Manifest, error) {
	release, err := getLatestGitHubRelease(ctx, ghClient, d.Repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release of %s: %w", d.Repo, err)
	}
	asset := findPackageAsset(release.Assets, d.Slug)
	if asset == nil {
		return nil, fmt.Errorf("release %s of %s has no zip package", release.GetTagName(), d.Repo)
	}
	m := &manifest.Manifest{
		Name:          d.Name,
		Slug:          d.Slug,
		Version:       releaseVersion(release.GetTagName()),
		Tested:        d.Tested,
		Requires:      d.Requires,
		RequiresPHP:   d.RequiresPHP,
		DownloadURL:   asset.GetBrowserDownloadURL(),
		Author:        d.Author,
		AuthorProfile: d.AuthorProfile,
		Sections: manifest.Sections{
			Description:  d.Description,
			Installation: d.Installation,
			Changelog:    release.GetBody(),
		},
		Banners: d.Banners,
	}
	if publishedAt := release.GetPublishedAt(); !publishedAt.IsZero() {
		m.LastUpdated = publishedAt.UTC().Format(lastUpdatedLayout)
	}
	return m, nil
}

type Definitions []*Definition

func (l Definitions) Find(slug string) *Definition {
	for _, d := range l {
		if d.Slug == strings.ToLower(slug) {
			return d
		}
	}
	return nil
}
