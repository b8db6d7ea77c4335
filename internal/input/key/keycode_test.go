package key

import (
	"testing"
	"time"
)

func TestKeycodeZeroValueIsTransparent(t *testing.T) {
	var k Keycode
	if !k.IsTransparent() {
		t.Error("zero Keycode should be transparent")
	}
	if !k.Equals(Transparent()) {
		t.Error("zero Keycode should equal Transparent()")
	}
}

func TestKeycodePredicates(t *testing.T) {
	tests := []struct {
		name        string
		kc          Keycode
		dualRole    bool
		targetLayer bool
	}{
		{"plain", Plain(CodeA), false, false},
		{"modtap", ModTap(ModLCtrl, CodeEscape), true, false},
		{"layertap", LayerTap(5, CodeSemicolon), true, true},
		{"momentary", LayerMomentary(6), false, true},
		{"toggle", LayerToggle(5), false, true},
		{"custom", Custom(ActionLower), false, false},
		{"unicode", UnicodePair('á', 'Á'), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kc.IsDualRole(); got != tt.dualRole {
				t.Errorf("IsDualRole() = %v, want %v", got, tt.dualRole)
			}
			if got := tt.kc.TargetsLayer(); got != tt.targetLayer {
				t.Errorf("TargetsLayer() = %v, want %v", got, tt.targetLayer)
			}
		})
	}
}

func TestKeycodeRune(t *testing.T) {
	kc := UnicodePair('ñ', 'Ñ')
	if kc.Rune(false) != 'ñ' {
		t.Errorf("Rune(false) = %q", kc.Rune(false))
	}
	if kc.Rune(true) != 'Ñ' {
		t.Errorf("Rune(true) = %q", kc.Rune(true))
	}
	euro := Unicode('€')
	if euro.Rune(true) != '€' || euro.Rune(false) != '€' {
		t.Error("Unicode should emit the same rune under both shift states")
	}
}

func TestKeycodeFormat(t *testing.T) {
	names := func(id int) string {
		switch id {
		case 5:
			return "NAV"
		case 6:
			return "ACCENT"
		}
		return ""
	}

	tests := []struct {
		kc   Keycode
		want string
	}{
		{Transparent(), "_______"},
		{None(), "XXXXXXX"},
		{Plain(CodeA), "A"},
		{Modified(ModLAlt, CodeF4), "LALT(F4)"},
		{ModTap(ModLCtrl, CodeEscape), "MT(LCTL,ESC)"},
		{LayerTap(5, CodeSemicolon), "LT(NAV,SCLN)"},
		{LayerMomentary(6), "MO(ACCENT)"},
		{LayerToggle(7), "TG(7)"},
		{Custom(ActionBacklit), "BACKLIT"},
		{Unicode(0x20AC), "X(20AC)"},
		{UnicodePair(0xE1, 0xC1), "XP(00E1,00C1)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kc.Format(names); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventString(t *testing.T) {
	now := time.Now()
	if got := Press(2, 3, now).String(); got != "press 2,3" {
		t.Errorf("Press.String() = %q", got)
	}
	ev := Release(0, 11, now)
	if got := ev.String(); got != "release 0,11" {
		t.Errorf("Release.String() = %q", got)
	}
	if ev.Pressed || ev.Pos != (Pos{Row: 0, Col: 11}) || !ev.Time.Equal(now) {
		t.Errorf("Release fields = %+v", ev)
	}
}
