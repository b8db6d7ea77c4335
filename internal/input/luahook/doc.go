// Package luahook runs a user Lua script as a dispatcher hook.
//
// The script defines any of three global functions:
//
//	function on_key(ev)             -- before a key is dispatched
//	function after_key(ev)          -- after a key was dispatched
//	function on_action(name, down)  -- before a custom action runs
//
// ev is a table with row, col, pressed, keycode and kind fields. Returning
// true from on_key or on_action consumes the event.
//
// The kw table exposes the keyboard to the script:
//
//	kw.tap("ESC")      kw.press("LSFT")    kw.release("LSFT")
//	kw.type("€")       kw.log("message")
//
// Scripts run in a restricted state: only the base, table, string and math
// libraries are opened, and every call is cut off after Config.Timeout.
package luahook
