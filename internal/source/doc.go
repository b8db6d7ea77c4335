// Package source provides the physical event sources that feed the engine:
// an interactive terminal simulator, a MIDI grid controller and replayable
// event scripts.
//
// Every source delivers Events on a caller-owned channel from Run and
// returns when its context is cancelled or its input ends. Sources never
// close the output channel.
package source
