// Package muse implements the ambient sequencer: a generative note stream
// driven by the periodic scan, tuned by the rotary encoder and switched by
// the dip switches.
//
// Modulator owns the sequencer State. Clock is the deterministic pulse
// source indexing Scale.
package muse
