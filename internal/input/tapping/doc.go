// Package tapping resolves dual-role keys (mod-tap and layer-tap) into a
// tap or a hold.
//
// Each pressed dual-role key moves through Idle, Pressed and then exactly
// one of Tap or Hold before returning to Idle. The Resolver never sleeps:
// on press it asks a Timer to deliver OnHoldTimeout after the tapping term
// and otherwise waits for OnRelease or for another key to be pressed.
//
// Resolution rules:
//   - Release before the tapping term: tap (tap code pressed and released).
//   - Timeout, or release at or after the term: hold.
//   - Another key pressed while pending: hold, so the other key is read on
//     the layer and with the modifiers the dual-role key provides.
//
// Timeouts that arrive after release, or before the term has elapsed for
// the current press, are ignored.
package tapping
