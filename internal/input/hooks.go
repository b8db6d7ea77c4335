package input

import (
	"sort"
	"sync"

	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/logging"
)

// Hook allows interception of input handling.
type Hook interface {
	// PreKeyEvent is called with the resolved keycode before dispatch.
	// Return true to consume the event.
	PreKeyEvent(ev *key.Event, kc key.Keycode) bool

	// PostKeyEvent is called after a key event was dispatched.
	PostKeyEvent(ev *key.Event, kc key.Keycode)

	// PreAction is called before a custom action runs.
	// Return true to consume the action.
	PreAction(action key.Action, pressed bool) bool
}

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHighest runs before all other hooks.
	HookPriorityHighest HookPriority = -1000
	// HookPriorityHigh runs early in the hook chain.
	HookPriorityHigh HookPriority = -100
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
	// HookPriorityLow runs late in the hook chain.
	HookPriorityLow HookPriority = 100
)

// HookID uniquely identifies a registered hook.
type HookID uint64

// HookRegistration holds metadata about a registered hook.
type HookRegistration struct {
	ID       HookID
	Name     string
	Priority HookPriority
	Hook     Hook
}

// HookManager runs hooks in priority order.
type HookManager struct {
	mu      sync.RWMutex
	hooks   []HookRegistration
	nextID  HookID
	sorted  bool
	enabled bool
}

// NewHookManager creates a new hook manager.
func NewHookManager() *HookManager {
	return &HookManager{enabled: true, sorted: true}
}

// Register adds a hook with default priority.
func (m *HookManager) Register(hook Hook) HookID {
	return m.RegisterWithOptions(hook, "", HookPriorityNormal)
}

// RegisterWithOptions adds a hook with a name and priority.
func (m *HookManager) RegisterWithOptions(hook Hook, name string, priority HookPriority) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.hooks = append(m.hooks, HookRegistration{
		ID:       m.nextID,
		Name:     name,
		Priority: priority,
		Hook:     hook,
	})
	m.sorted = false
	return m.nextID
}

// Unregister removes a hook by ID.
func (m *HookManager) Unregister(id HookID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.hooks {
		if m.hooks[i].ID == id {
			m.hooks = append(m.hooks[:i], m.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// UnregisterByName removes the first hook registered under name.
func (m *HookManager) UnregisterByName(name string) bool {
	m.mu.RLock()
	var id HookID
	for _, reg := range m.hooks {
		if reg.Name == name {
			id = reg.ID
			break
		}
	}
	m.mu.RUnlock()

	if id == 0 {
		return false
	}
	return m.Unregister(id)
}

// SetEnabled enables or disables all hooks.
func (m *HookManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Count returns the number of registered hooks.
func (m *HookManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks)
}

// List returns all hook registrations in execution order.
func (m *HookManager) List() []HookRegistration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSorted()

	result := make([]HookRegistration, len(m.hooks))
	copy(result, m.hooks)
	return result
}

// snapshot returns the hooks in priority order, or nil when disabled.
func (m *HookManager) snapshot() []Hook {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || len(m.hooks) == 0 {
		return nil
	}
	m.ensureSorted()

	hooks := make([]Hook, len(m.hooks))
	for i := range m.hooks {
		hooks[i] = m.hooks[i].Hook
	}
	return hooks
}

// ensureSorted sorts hooks by priority if needed.
func (m *HookManager) ensureSorted() {
	if m.sorted {
		return
	}
	sort.SliceStable(m.hooks, func(i, j int) bool {
		return m.hooks[i].Priority < m.hooks[j].Priority
	})
	m.sorted = true
}

// RunPreKeyEvent runs PreKeyEvent hooks until one consumes the event.
func (m *HookManager) RunPreKeyEvent(ev *key.Event, kc key.Keycode) bool {
	for _, hook := range m.snapshot() {
		if hook.PreKeyEvent(ev, kc) {
			return true
		}
	}
	return false
}

// RunPostKeyEvent runs every PostKeyEvent hook.
func (m *HookManager) RunPostKeyEvent(ev *key.Event, kc key.Keycode) {
	for _, hook := range m.snapshot() {
		hook.PostKeyEvent(ev, kc)
	}
}

// RunPreAction runs PreAction hooks until one consumes the action.
func (m *HookManager) RunPreAction(action key.Action, pressed bool) bool {
	for _, hook := range m.snapshot() {
		if hook.PreAction(action, pressed) {
			return true
		}
	}
	return false
}

// BaseHook provides a no-op Hook. Embed it to implement only some methods.
type BaseHook struct{}

// PreKeyEvent does not consume events.
func (BaseHook) PreKeyEvent(*key.Event, key.Keycode) bool { return false }

// PostKeyEvent is a no-op.
func (BaseHook) PostKeyEvent(*key.Event, key.Keycode) {}

// PreAction does not consume actions.
func (BaseHook) PreAction(key.Action, bool) bool { return false }

// FuncHook wraps functions into a Hook.
type FuncHook struct {
	PreKeyEventFunc  func(*key.Event, key.Keycode) bool
	PostKeyEventFunc func(*key.Event, key.Keycode)
	PreActionFunc    func(key.Action, bool) bool
}

// PreKeyEvent calls PreKeyEventFunc if set.
func (h FuncHook) PreKeyEvent(ev *key.Event, kc key.Keycode) bool {
	if h.PreKeyEventFunc != nil {
		return h.PreKeyEventFunc(ev, kc)
	}
	return false
}

// PostKeyEvent calls PostKeyEventFunc if set.
func (h FuncHook) PostKeyEvent(ev *key.Event, kc key.Keycode) {
	if h.PostKeyEventFunc != nil {
		h.PostKeyEventFunc(ev, kc)
	}
}

// PreAction calls PreActionFunc if set.
func (h FuncHook) PreAction(action key.Action, pressed bool) bool {
	if h.PreActionFunc != nil {
		return h.PreActionFunc(action, pressed)
	}
	return false
}

// LoggingHook logs every event and action at debug level.
type LoggingHook struct {
	BaseHook
	Logger *logging.Logger
}

// PreKeyEvent logs the event and its keycode.
func (h LoggingHook) PreKeyEvent(ev *key.Event, kc key.Keycode) bool {
	if h.Logger != nil {
		h.Logger.Debug("key event", "event", ev.String(), "keycode", kc.String())
	}
	return false
}

// PreAction logs the action.
func (h LoggingHook) PreAction(action key.Action, pressed bool) bool {
	if h.Logger != nil {
		h.Logger.Debug("action", "action", action.String(), "pressed", pressed)
	}
	return false
}
