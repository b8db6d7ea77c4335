package keymap

// Layer ids of the built-in layout.
const (
	Qwerty = iota
	Hack
	Lower
	Raise
	Adjust
	Accent
	Nav
	Mgr
)

// Dimensions of the built-in layout.
const (
	Rows = 5
	Cols = 12
)

// Shorthands used by the layout tables.
const (
	____ = "_______"
	xxxx = "XXXXXXX"

	cEsc = "MT(LCTL,ESC)"
	sEnt = "MT(RSFT,ENT)"
	nScl = "LT(NAV,SCLN)"
	lAcc = "MO(ACCENT)"
	xAcc = "LT(ACCENT,F20)"
	xMgr = "LT(MGR,F19)"
	aF4  = "LALT(F4)"
	eur  = "X(20AC)"
	shss = "X(00DF)"
)

// Accented vowels: lower case, upper case.
const (
	accAA = "XP(00E1,00C1)"
	accAU = "XP(00E4,00C4)"
	accEA = "XP(00E9,00C9)"
	accIA = "XP(00ED,00CD)"
	accOA = "XP(00F3,00D3)"
	accOU = "XP(00F6,00D6)"
	accOJ = "XP(0151,0150)"
	accUA = "XP(00FA,00DA)"
	accUU = "XP(00FC,00DC)"
	accUJ = "XP(0171,0170)"
)

// Default returns the built-in 5x12 layout. The space bar spans columns 5
// and 6 of the bottom row.
func Default() *Keymap {
	return &Keymap{
		Name:    "preonic",
		Rows:    Rows,
		Cols:    Cols,
		Default: "QWERTY",
		Source:  "builtin",
		Layers: []LayerSpec{
			{Name: "QWERTY", Base: true, Keys: qwerty()},
			{Name: "HACK", Base: true, Keys: hack()},
			{Name: "LOWER", Keys: lower()},
			{Name: "RAISE", Keys: raise()},
			{Name: "ADJUST", Keys: adjust()},
			{Name: "ACCENT", Keys: accent()},
			{Name: "NAV", Keys: nav()},
			{Name: "MGR", Keys: mgr()},
		},
	}
}

func qwerty() [][]string {
	return [][]string{
		{"ESC", "1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "DEL"},
		{"TAB", "Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P", "BSPC"},
		{"LCTL", "A", "S", "D", "F", "G", "H", "J", "K", "L", "SCLN", "QUOT"},
		{"LSFT", "Z", "X", "C", "V", "B", "N", "M", "COMM", "DOT", "SLSH", "ENT"},
		{"GRV", "LGUI", xAcc, "LALT", "LOWER", "SPC", "SPC", "RAISE", "LEFT", "DOWN", "UP", "RGHT"},
	}
}

func hack() [][]string {
	return [][]string{
		{"GRV", "1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "DEL"},
		{"TAB", "Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P", "BSPC"},
		{cEsc, "A", "S", "D", "F", "G", "H", "J", "K", "L", nScl, "QUOT"},
		{"LSFT", "Z", "X", "C", "V", "B", "N", "M", "COMM", "DOT", "SLSH", sEnt},
		{xMgr, "LGUI", xAcc, "LALT", "LOWER", "SPC", "SPC", "RAISE", lAcc, "RALT", "RGUI", xMgr},
	}
}

func lower() [][]string {
	return [][]string{
		{"ESC", "INS", "DEL", "HOME", "END", xxxx, "NLCK", "PSLS", "PAST", xxxx, xxxx, "INS"},
		{"TILD", "F9", "F10", "F11", "F12", "PGUP", "P5", "P6", "P7", "P8", "P9", "DEL"},
		{"LCTL", "F5", "F6", "F7", "F8", "PGDN", "P0", "P1", "P2", "P3", "P4", "PIPE"},
		{"LSFT", "F1", "F2", "F3", "F4", xxxx, "PPLS", "PMNS", "EQL", "PDOT", "PENT", "RSFT"},
		{"CAPS", "LGUI", ____, ____, ____, ____, ____, ____, "MUTE", "VOLD", "VOLU", "RCTL"},
	}
}

func raise() [][]string {
	return [][]string{
		{"ESC", ____, ____, ____, ____, ____, ____, ____, ____, ____, ____, "INS"},
		{"GRV", ____, ____, eur, ____, ____, "ASTR", "LPRN", "RPRN", "LBRC", "RBRC", "DEL"},
		{"LCTL", "EXLM", "AT", "HASH", "DLR", "PERC", "CIRC", "LCBR", "RCBR", "MINS", "EQL", "BSLS"},
		{"LSFT", ____, ____, ____, ____, "PIPE", "AMPR", "UNDS", "PLUS", xxxx, "DLR", ____},
		{____, ____, ____, ____, ____, ____, ____, ____, "MUTE", "VOLD", "VOLU", ____},
	}
}

// adjust drops the firmware-only keys (reset, terminal, MIDI and music
// voice controls) and puts BACKLIT on an unused cell.
func adjust() [][]string {
	return [][]string{
		{"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12"},
		{____, xxxx, "DEBUG", xxxx, xxxx, "BACKLIT", ____, "UC_M_LN", "UC_M_OS", "UC_M_WC", ____, "DEL"},
		{____, ____, xxxx, "AU_ON", "AU_OFF", "AG_NORM", "AG_SWAP", "QWERTY", "HACK", ____, ____, ____},
		{____, xxxx, xxxx, "MU_ON", "MU_OFF", xxxx, xxxx, ____, ____, ____, ____, ____},
		{____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____},
	}
}

func accent() [][]string {
	return [][]string{
		{____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____},
		{____, ____, eur, accEA, ____, ____, ____, accUA, accIA, accOA, ____, ____},
		{____, accAA, shss, ____, ____, ____, accUJ, accUU, accOJ, accOU, ____, ____},
		{"LSFT", accAU, ____, ____, ____, ____, ____, ____, ____, ____, ____, "RSFT"},
		{____, ____, ____, ____, ____, "F20", "F20", ____, ____, ____, ____, ____},
	}
}

func nav() [][]string {
	return [][]string{
		{____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____},
		{____, ____, ____, ____, ____, ____, ____, "HOME", "UP", "END", ____, ____},
		{"LCTL", ____, ____, ____, ____, ____, "PGUP", "LEFT", "DOWN", "RGHT", nScl, ____},
		{"LSFT", ____, ____, ____, ____, ____, "PGDN", ____, ____, ____, ____, ____},
		{____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____},
	}
}

func mgr() [][]string {
	return [][]string{
		{aF4, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____},
		{____, "BTN1", "MS_U", "BTN2", "WH_U", "ACL0", ____, ____, ____, ____, ____, ____},
		{"LCTL", "MS_L", "MS_D", "MS_R", "WH_D", "ACL1", ____, ____, ____, ____, ____, "RCTL"},
		{"LSFT", ____, ____, ____, ____, "ACL2", ____, ____, ____, ____, ____, "RSFT"},
		{____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____, ____},
	}
}
