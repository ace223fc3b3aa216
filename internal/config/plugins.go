package config

import "github.com/codewing/plugin-updater/internal/release"

var Plugins = release.Definitions{
	{
		Slug:          "codewing-updater",
		Name:          "CodeWing Updater",
		Repo:          "codewing/codewing-updater",
		Author:        "CodeWing",
		AuthorProfile: "https://codewing.example",
		Requires:      "5.0",
		RequiresPHP:   "7.4",
		Tested:        "6.6",
		Description:   "This plugin automates updates from a custom server for CodeWing.",
		Installation:  "Upload the plugin archive on the Plugins screen and activate it.",
	},
}
