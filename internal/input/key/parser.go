package key

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec        = errors.New("empty keycode specification")
	ErrInvalidSpec      = errors.New("invalid keycode specification")
	ErrUnmatchedBracket = errors.New("unmatched bracket in keycode specification")
	ErrUnknownLayerName = errors.New("unknown layer name")
)

// LayerResolver maps a layer name used in LT/MO/TG to its id.
type LayerResolver func(name string) (int, bool)

// ParseKeycode parses a layout-file keycode specification.
//
// Supported formats:
//   - Plain keys: "A", "KC_A", "ESC", "pgdn"
//   - Markers: "_______", "TRNS" (transparent), "XXXXXXX", "NO" (none)
//   - Shifted aliases: "EXLM", "TILD", "PIPE"
//   - Modified keys: "LALT(F4)", "LCTL|LSFT(T)"
//   - Dual role: "MT(LCTL,ESC)", "LT(NAV,SCLN)"
//   - Layers: "MO(ACCENT)", "TG(NAV)"
//   - Unicode: "X(20AC)", "XP(00E1,00C1)"
//   - Custom actions: "LOWER", "QWERTY", "BACKLIT"
//
// Layer names are resolved through layers; a nil resolver accepts only
// numeric layer ids.
func ParseKeycode(spec string, layers LayerResolver) (Keycode, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Keycode{}, ErrEmptySpec
	}

	// Function-call notation
	if open := strings.IndexByte(spec, '('); open >= 0 {
		if !strings.HasSuffix(spec, ")") || strings.Count(spec, "(") != strings.Count(spec, ")") {
			return Keycode{}, fmt.Errorf("%w: %q", ErrUnmatchedBracket, spec)
		}
		fn := strings.ToUpper(strings.TrimSpace(spec[:open]))
		args := splitArgs(spec[open+1 : len(spec)-1])
		return parseCall(fn, args, layers)
	}
	if strings.ContainsRune(spec, ')') {
		return Keycode{}, fmt.Errorf("%w: %q", ErrUnmatchedBracket, spec)
	}

	return parseName(spec)
}

// parseName parses a bare name: marker, action, code or shifted alias.
func parseName(spec string) (Keycode, error) {
	upper := normalizeName(spec)
	switch upper {
	case "_______", "TRNS", "TRANSPARENT", "_":
		return Transparent(), nil
	case "XXXXXXX", "NO":
		return None(), nil
	}

	if a, ok := ActionFromName(upper); ok {
		return Custom(a), nil
	}
	if c, ok := CodeFromName(upper); ok {
		return Plain(c), nil
	}
	if c, ok := shiftedFromName(upper); ok {
		return Modified(ModLShift, c), nil
	}
	return Keycode{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, spec)
}

// parseCall parses FN(arg, ...) notation.
func parseCall(fn string, args []string, layers LayerResolver) (Keycode, error) {
	switch fn {
	case "MT":
		if len(args) != 2 {
			return Keycode{}, fmt.Errorf("%w: MT takes 2 arguments, got %d", ErrInvalidSpec, len(args))
		}
		mods := ParseModifiers(args[0])
		if mods.IsEmpty() {
			return Keycode{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, args[0])
		}
		code, err := parseTapCode(args[1])
		if err != nil {
			return Keycode{}, err
		}
		return ModTap(mods, code), nil

	case "LT":
		if len(args) != 2 {
			return Keycode{}, fmt.Errorf("%w: LT takes 2 arguments, got %d", ErrInvalidSpec, len(args))
		}
		id, err := resolveLayer(args[0], layers)
		if err != nil {
			return Keycode{}, err
		}
		code, err := parseTapCode(args[1])
		if err != nil {
			return Keycode{}, err
		}
		return LayerTap(id, code), nil

	case "MO", "TG":
		if len(args) != 1 {
			return Keycode{}, fmt.Errorf("%w: %s takes 1 argument, got %d", ErrInvalidSpec, fn, len(args))
		}
		id, err := resolveLayer(args[0], layers)
		if err != nil {
			return Keycode{}, err
		}
		if fn == "MO" {
			return LayerMomentary(id), nil
		}
		return LayerToggle(id), nil

	case "X":
		if len(args) != 1 {
			return Keycode{}, fmt.Errorf("%w: X takes 1 argument, got %d", ErrInvalidSpec, len(args))
		}
		r, err := parseCodePoint(args[0])
		if err != nil {
			return Keycode{}, err
		}
		return Unicode(r), nil

	case "XP":
		if len(args) != 2 {
			return Keycode{}, fmt.Errorf("%w: XP takes 2 arguments, got %d", ErrInvalidSpec, len(args))
		}
		lower, err := parseCodePoint(args[0])
		if err != nil {
			return Keycode{}, err
		}
		upper, err := parseCodePoint(args[1])
		if err != nil {
			return Keycode{}, err
		}
		return UnicodePair(lower, upper), nil
	}

	// Anything else is a modifier wrapper: LALT(F4), LCTL|LSFT(T), LCTL(EXLM)
	mods := ParseModifiers(fn)
	if mods.IsEmpty() {
		return Keycode{}, fmt.Errorf("%w: unknown function %q", ErrInvalidSpec, fn)
	}
	if len(args) != 1 {
		return Keycode{}, fmt.Errorf("%w: %s takes 1 argument, got %d", ErrInvalidSpec, fn, len(args))
	}
	inner, err := ParseKeycode(args[0], layers)
	if err != nil {
		return Keycode{}, err
	}
	if inner.Kind() != KindPlain {
		return Keycode{}, fmt.Errorf("%w: %s wraps non-plain key %q", ErrInvalidSpec, fn, args[0])
	}
	return Modified(mods.With(inner.Mods()), inner.Code()), nil
}

// parseTapCode parses the tap half of a dual-role key. Only plain,
// unmodified codes can be tapped.
func parseTapCode(s string) (Code, error) {
	c, ok := CodeFromName(s)
	if !ok {
		return CodeNone, fmt.Errorf("%w: unknown tap key %q", ErrInvalidSpec, s)
	}
	return c, nil
}

// resolveLayer resolves a layer name or numeric id.
func resolveLayer(s string, layers LayerResolver) (int, error) {
	s = strings.TrimSpace(s)
	if layers != nil {
		if id, ok := layers(s); ok {
			return id, nil
		}
	}
	if id, err := strconv.Atoi(s); err == nil && id >= 0 {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayerName, s)
}

// parseCodePoint parses a hexadecimal code point with optional U+ or 0x prefix.
func parseCodePoint(s string) (rune, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "U+")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || v > 0x10FFFF {
		return 0, fmt.Errorf("%w: bad code point %q", ErrInvalidSpec, s)
	}
	return rune(v), nil
}

// splitArgs splits a comma separated argument list at the top nesting level.
func splitArgs(s string) []string {
	var args []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" || len(args) > 0 {
		args = append(args, rest)
	}
	return args
}

// MustParseKeycode parses a keycode specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParseKeycode(spec string, layers LayerResolver) Keycode {
	kc, err := ParseKeycode(spec, layers)
	if err != nil {
		panic("invalid keycode specification: " + spec + ": " + err.Error())
	}
	return kc
}
