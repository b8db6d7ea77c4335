package luahook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/input"
	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/logging"
)

// DefaultTimeout bounds a single handler call. Handlers run inside the
// event turn, so anything slower delays every key.
const DefaultTimeout = 20 * time.Millisecond

// Handler names looked up in the script.
const (
	fnOnKey    = "on_key"
	fnAfterKey = "after_key"
	fnOnAction = "on_action"
)

// Config configures a Hook.
type Config struct {
	// Timeout bounds each handler call. Default: DefaultTimeout
	Timeout time.Duration
}

// Hook adapts a Lua script to input.Hook.
type Hook struct {
	mu     sync.Mutex
	L      *lua.LState
	name   string
	out    hid.Reporter
	closed bool

	timeout time.Duration
	logger  *logging.Logger

	onKey    *lua.LFunction
	afterKey *lua.LFunction
	onAction *lua.LFunction

	calls    atomic.Int64
	failures atomic.Int64
}

var _ input.Hook = (*Hook)(nil)

// Load reads and runs the script at path.
func Load(path string, out hid.Reporter, cfg Config, logger *logging.Logger) (*Hook, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, &ScriptError{Name: path, Err: err}
	}
	return New(filepath.Base(path), string(code), out, cfg, logger)
}

// New runs code and binds the handlers it defines. Keys the script taps
// are sent to out.
func New(name, code string, out hid.Reporter, cfg Config, logger *logging.Logger) (*Hook, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	h := &Hook{
		L:       lua.NewState(lua.Options{SkipOpenLibs: true}),
		name:    name,
		out:     out,
		timeout: cfg.Timeout,
		logger:  logging.OrDiscard(logger).WithComponent("lua").WithField("script", name),
	}
	openSafeLibraries(h.L)
	h.installAPI()

	// Top-level code may set up tables, so it gets a longer budget.
	ctx, cancel := context.WithTimeout(context.Background(), 50*cfg.Timeout)
	defer cancel()
	h.L.SetContext(ctx)
	err := h.L.DoString(code)
	h.L.RemoveContext()
	if err != nil {
		h.L.Close()
		return nil, &ScriptError{Name: name, Err: err}
	}

	h.onKey = h.function(fnOnKey)
	h.afterKey = h.function(fnAfterKey)
	h.onAction = h.function(fnOnAction)
	if h.onKey == nil && h.afterKey == nil && h.onAction == nil {
		h.L.Close()
		return nil, &ScriptError{Name: name, Err: ErrNoHandlers}
	}
	return h, nil
}

// openSafeLibraries opens the libraries a hook may use and removes the
// base functions that load code from disk or strings.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (h *Hook) function(name string) *lua.LFunction {
	fn, _ := h.L.GetGlobal(name).(*lua.LFunction)
	return fn
}

// Name returns the script name.
func (h *Hook) Name() string { return h.name }

// Calls returns the number of handler calls made.
func (h *Hook) Calls() int64 { return h.calls.Load() }

// Failures returns the number of handler calls that raised an error or
// ran out of time.
func (h *Hook) Failures() int64 { return h.failures.Load() }

// PreKeyEvent implements input.Hook.
func (h *Hook) PreKeyEvent(ev *key.Event, kc key.Keycode) bool {
	return h.call(h.onKey, h.event(ev, kc))
}

// PostKeyEvent implements input.Hook.
func (h *Hook) PostKeyEvent(ev *key.Event, kc key.Keycode) {
	h.call(h.afterKey, h.event(ev, kc))
}

// PreAction implements input.Hook.
func (h *Hook) PreAction(action key.Action, pressed bool) bool {
	return h.call(h.onAction, lua.LString(action.String()), lua.LBool(pressed))
}

// event builds the table passed to key handlers.
func (h *Hook) event(ev *key.Event, kc key.Keycode) *lua.LTable {
	t := h.L.NewTable()
	t.RawSetString("row", lua.LNumber(ev.Pos.Row))
	t.RawSetString("col", lua.LNumber(ev.Pos.Col))
	t.RawSetString("pressed", lua.LBool(ev.Pressed))
	t.RawSetString("keycode", lua.LString(kc.String()))
	t.RawSetString("kind", lua.LString(kc.Kind().String()))
	return t
}

// call runs fn and reports whether it returned true. Errors are logged
// and treat the event as not consumed.
func (h *Hook) call(fn *lua.LFunction, args ...lua.LValue) bool {
	if fn == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.calls.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	if err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		h.failures.Add(1)
		h.logger.Warn("handler failed", "err", err)
		return false
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	return lua.LVAsBool(ret)
}

// Close releases the Lua state. Later calls do nothing.
func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	h.L.Close()
	return nil
}

// installAPI registers the kw table and routes print to the logger.
func (h *Hook) installAPI() {
	api := h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"tap":     h.luaCode(func(c key.Code) { h.out.Tap(c) }),
		"press":   h.luaCode(func(c key.Code) { h.out.Press(c) }),
		"release": h.luaCode(func(c key.Code) { h.out.Release(c) }),
		"type":    h.luaType,
		"log":     h.luaLog,
	})
	h.L.SetGlobal("kw", api)
	h.L.SetGlobal("print", h.L.NewFunction(h.luaLog))
}

// luaCode wraps fn as a Lua function taking a key name.
func (h *Hook) luaCode(fn func(key.Code)) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		code, ok := key.CodeFromName(name)
		if !ok {
			L.ArgError(1, fmt.Sprintf("unknown key %q", name))
			return 0
		}
		if h.out != nil {
			fn(code)
		}
		return 0
	}
}

func (h *Hook) luaType(L *lua.LState) int {
	text := L.CheckString(1)
	if h.out == nil {
		return 0
	}
	for _, r := range text {
		h.out.TypeUnicode(r)
	}
	return 0
}

func (h *Hook) luaLog(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	h.logger.Info(strings.Join(parts, " "))
	return 0
}
