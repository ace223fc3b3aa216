package host

import (
	"context"
	"sort"
	"sync"

	"github.com/codewing/plugin-updater/internal/updater"
)

const DefaultPriority = 10

type (
	UpdateTransientFilter func(ctx context.Context, t *updater.UpdateTransient) *updater.UpdateTransient
	// PluginsAPIFilter receives the result of the previous filter and returns the next one.
	PluginsAPIFilter      func(ctx context.Context, result *updater.PluginDetails, action string, query *updater.PluginQuery) *updater.PluginDetails
	UpgradeCompleteAction func(ctx context.Context, event *updater.UpgradeEvent)
)

type hook[T any] struct {
	priority int
	fn       T
}

type hookList[T any] []hook[T]

func (l hookList[T]) add(priority int, fn T) hookList[T] {
	l = append(l, hook[T]{priority: priority, fn: fn})
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].priority < l[j].priority
	})
	return l
}

func (l hookList[T]) funcs() []T {
	ret := make([]T, len(l))
	for i, h := range l {
		ret[i] = h.fn
	}
	return ret
}

// Hooks is the callback surface the host CMS exposes to plugins.
// Hooks run in ascending priority order; equal priorities run in registration order.
type Hooks struct {
	mu              sync.RWMutex
	updateTransient hookList[UpdateTransientFilter]
	pluginsAPI      hookList[PluginsAPIFilter]
	upgradeComplete hookList[UpgradeCompleteAction]
}

func NewHooks() *Hooks {
	return &Hooks{}
}

func (h *Hooks) AddUpdateTransientFilter(priority int, fn UpdateTransientFilter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updateTransient = h.updateTransient.add(priority, fn)
}

func (h *Hooks) AddPluginsAPIFilter(priority int, fn PluginsAPIFilter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pluginsAPI = h.pluginsAPI.add(priority, fn)
}

func (h *Hooks) AddUpgradeCompleteAction(priority int, fn UpgradeCompleteAction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.upgradeComplete = h.upgradeComplete.add(priority, fn)
}

func (h *Hooks) ApplyUpdateTransient(ctx context.Context, t *updater.UpdateTransient) *updater.UpdateTransient {
	h.mu.RLock()
	filters := h.updateTransient.funcs()
	h.mu.RUnlock()
	for _, f := range filters {
		t = f(ctx, t)
	}
	return t
}

// ApplyPluginsAPI runs the plugin information filters. A nil result means no filter answered the query.
func (h *Hooks) ApplyPluginsAPI(ctx context.Context, action string, query *updater.PluginQuery) *updater.PluginDetails {
	h.mu.RLock()
	filters := h.pluginsAPI.funcs()
	h.mu.RUnlock()
	var result *updater.PluginDetails
	for _, f := range filters {
		result = f(ctx, result, action, query)
	}
	return result
}

func (h *Hooks) DoUpgradeComplete(ctx context.Context, event *updater.UpgradeEvent) {
	h.mu.RLock()
	actions := h.upgradeComplete.funcs()
	h.mu.RUnlock()
	for _, a := range actions {
		a(ctx, event)
	}
}
