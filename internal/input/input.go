// Package input is the host-facing button surface: hosts report
// discrete press/release events for the eight DMG buttons, and the
// package folds them into the bitmask the joypad register expects.
package input

import "github.com/hearthcore/dmgcore/internal/joypad"

// Button identifies one of the eight DMG inputs.
type Button int

const (
	Right Button = iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

func (b Button) mask() byte {
	switch b {
	case Right:
		return joypad.Right
	case Left:
		return joypad.Left
	case Up:
		return joypad.Up
	case Down:
		return joypad.Down
	case A:
		return joypad.A
	case B:
		return joypad.B
	case Select:
		return joypad.Select
	case Start:
		return joypad.Start
	default:
		return 0
	}
}

// Kind distinguishes a press from a release; there is no "hold"
// event, SetPressed is idempotent so hosts may resend Press every
// frame a key is held without effect on interrupt delivery.
type Kind int

const (
	Press Kind = iota
	Release
)

// Event is a single host-reported button transition.
type Event struct {
	Kind   Kind
	Button Button
}

// State tracks the cumulative pressed-button mask a host has reported
// and is the thing that actually gets handed to the joypad register.
type State struct {
	mask byte
}

// Apply folds an event into the current mask and returns it.
func (s *State) Apply(e Event) byte {
	switch e.Kind {
	case Press:
		s.mask |= e.Button.mask()
	case Release:
		s.mask &^= e.Button.mask()
	}
	return s.mask
}

// Mask returns the current pressed-button bitmask.
func (s *State) Mask() byte { return s.mask }

// Reset clears all buttons, as on a hard reset or focus loss.
func (s *State) Reset() { s.mask = 0 }
