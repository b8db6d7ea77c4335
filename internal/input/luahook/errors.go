package luahook

import "errors"

var (
	// ErrNoHandlers is returned when a script defines none of the handlers.
	ErrNoHandlers = errors.New("script defines no handlers")

	// ErrClosed is returned by calls on a closed hook.
	ErrClosed = errors.New("hook closed")
)

// ScriptError reports a script that failed to load.
type ScriptError struct {
	Name string
	Err  error
}

func (e *ScriptError) Error() string {
	return "lua script " + e.Name + ": " + e.Err.Error()
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
