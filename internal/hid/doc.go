// Package hid turns resolved key actions into USB HID output.
//
// Keyboard writes 8-byte boot-protocol keyboard reports (modifier byte,
// reserved byte, six key slots) and 4-byte mouse reports to io.Writers,
// typically the gadget devices /dev/hidg0 and /dev/hidg1. Unicode code
// points are typed through the host's input method, selected by
// UnicodeMode. Recorder captures the same calls as text for tests and
// replays.
package hid
