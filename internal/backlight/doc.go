// Package backlight implements the indicator collaborator: a stepped
// backlight brightness and an auxiliary indicator signal.
//
// Backlight keeps the state and forwards changes to an optional Device,
// such as a sysfs LED brightness file. Nop discards everything.
package backlight
