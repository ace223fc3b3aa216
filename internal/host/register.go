package host

import (
	"context"

	"github.com/codewing/plugin-updater/internal/updater"
)

const pluginsAPIPriority = 20

// Register wires the checker into the host hooks.
func Register(hooks *Hooks, checker *updater.Checker) {
	hooks.AddUpdateTransientFilter(DefaultPriority, checker.CheckForUpdates)
	hooks.AddPluginsAPIFilter(pluginsAPIPriority, func(ctx context.Context, result *updater.PluginDetails, action string, query *updater.PluginQuery) *updater.PluginDetails {
		details, ok := checker.DescribePlugin(ctx, action, query)
		if !ok {
			return result
		}
		return details
	})
	hooks.AddUpgradeCompleteAction(DefaultPriority, checker.OnUpdateComplete)
}
