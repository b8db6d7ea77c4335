package audio

// MIDI note numbers used by the built-in songs.
const (
	noteG5  = 79
	noteB5  = 83
	noteC6  = 84
	noteDS6 = 87
	noteE6  = 88
	noteG6  = 91
	noteB6  = 95
)

// SongQwerty confirms selection of the QWERTY default layer.
var SongQwerty = []Note{
	{noteE6, 10}, {noteE6, 10}, {Rest, 10}, {noteE6, 10},
	{Rest, 10}, {noteC6, 10}, {noteE6, 10}, {Rest, 10},
	{noteG6, 10}, {Rest, 30},
	{noteG5, 10}, {Rest, 30},
}

// SongHack confirms selection of the HACK default layer.
var SongHack = []Note{
	{noteB5, 20}, {noteB6, 8}, {noteDS6, 20}, {noteB6, 8},
}

// songs maps song names used in configuration to their notes.
var songs = map[string][]Note{
	"qwerty": SongQwerty,
	"hack":   SongHack,
}

// Song returns the named built-in song.
func Song(name string) ([]Note, bool) {
	s, ok := songs[name]
	return s, ok
}

// SongNames returns the names of the built-in songs.
func SongNames() []string {
	return []string{"hack", "qwerty"}
}
