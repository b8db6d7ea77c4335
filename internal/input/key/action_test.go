package key

import "testing"

func TestActionNames(t *testing.T) {
	for _, a := range Actions() {
		got, ok := ActionFromName(a.String())
		if !ok || got != a {
			t.Errorf("ActionFromName(%q) = %v, %v; want %v", a.String(), got, ok, a)
		}
	}
}

func TestActionValid(t *testing.T) {
	if ActionNone.Valid() {
		t.Error("ActionNone should not be valid")
	}
	if !ActionLower.Valid() {
		t.Error("ActionLower should be valid")
	}
	if Action(200).Valid() {
		t.Error("out of range action should not be valid")
	}
	if got := Action(200).String(); got != "Action(200)" {
		t.Errorf("String() = %q", got)
	}
}

func TestActionFromNameUnknown(t *testing.T) {
	for _, name := range []string{"", "NONE", "bogus"} {
		if _, ok := ActionFromName(name); ok {
			t.Errorf("ActionFromName(%q) should fail", name)
		}
	}
	if a, ok := ActionFromName(" lower "); !ok || a != ActionLower {
		t.Errorf("ActionFromName(lower) = %v, %v", a, ok)
	}
}
