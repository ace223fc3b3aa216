package updater

const (
	ActionPluginInformation = "plugin_information"
	UpgradeActionUpdate     = "update"
	UpgradeTypePlugin       = "plugin"
)

// LocalPlugin identifies the installed plugin that updates itself.
type LocalPlugin struct {
	Slug           string
	PluginFile     string
	CurrentVersion string
}

type UpdateCandidate struct {
	Slug       string `json:"slug"`
	Plugin     string `json:"plugin"`
	NewVersion string `json:"new_version"`
	Tested     string `json:"tested"`
	Package    string `json:"package"`
}

// UpdateTransient is the host's update state. Checked maps plugin files to installed versions.
type UpdateTransient struct {
	LastChecked int64                       `json:"last_checked"`
	Checked     map[string]string           `json:"checked"`
	Response    map[string]*UpdateCandidate `json:"response"`
}

type PluginQuery struct {
	Slug string `json:"slug"`
}

type PluginDetails struct {
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Version       string            `json:"version"`
	Tested        string            `json:"tested"`
	Requires      string            `json:"requires"`
	Author        string            `json:"author"`
	AuthorProfile string            `json:"author_profile"`
	DownloadLink  string            `json:"download_link"`
	Trunk         string            `json:"trunk"`
	RequiresPHP   string            `json:"requires_php"`
	LastUpdated   string            `json:"last_updated"`
	Sections      map[string]string `json:"sections"`
	Banners       map[string]string `json:"banners,omitempty"`
}

type UpgradeEvent struct {
	Action  string   `json:"action"`
	Type    string   `json:"type"`
	Plugins []string `json:"plugins,omitempty"`
}
