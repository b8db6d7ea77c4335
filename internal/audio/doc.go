// Package audio provides the tone collaborator used for confirmation songs,
// music mode and the ambient sequencer.
//
// Tone is the narrow interface the engine calls. MIDITone drives a MIDI
// output port through gomidi; Gate switches any Tone on and off at
// runtime; Silent discards everything; Recorder captures calls for tests
// and replays.
package audio
