// Package emu wires the CPU, Bus, and peripherals into the single
// top-level value a host drives: load a cartridge, step it forward,
// and pull frames/serial output back out.
package emu

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/hearthcore/dmgcore/internal/bus"
	"github.com/hearthcore/dmgcore/internal/cart"
	"github.com/hearthcore/dmgcore/internal/cpu"
	"github.com/hearthcore/dmgcore/internal/input"
)

//go:embed bootrom.bin
var defaultBootROM []byte

const (
	frameWidth  = 160
	frameHeight = 144
)

// Machine owns the CPU and Bus and is the entire emulator from a
// host's point of view: no other package holds mutable core state.
type Machine struct {
	cfg Config

	cpu *cpu.CPU
	bus *bus.Bus

	input input.State
	fb    []byte // 160*144*3, reused across frames

	paused bool
}

// New creates an empty Machine: no cartridge loaded yet. LoadCartridge
// or LoadROMFromFile must run before Step/RunFrame.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, fb: make([]byte, frameWidth*frameHeight*3)}
}

// NewMachine constructs a Machine from a cartridge ROM image. The
// embedded boot ROM runs first unless cfg.SkipBootROM is set, in
// which case the register file starts in typical post-boot state.
func NewMachine(cfg Config, rom []byte) (*Machine, error) {
	m := New(cfg)
	if err := m.LoadCartridge(rom, nil); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadCartridge wires a fresh Bus/CPU around rom, replacing any
// previously loaded cartridge. A non-nil boot overrides the embedded
// default boot ROM; cfg.SkipBootROM skips the overlay entirely.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	if _, err := cart.ParseHeader(rom); err != nil {
		return fmt.Errorf("emu: load cartridge: %w", err)
	}

	b := bus.New(rom)
	c := cpu.New(b)

	if m.cfg.SkipBootROM {
		c.ResetNoBoot()
	} else {
		if boot == nil {
			boot = defaultBootROM
		}
		b.SetBootROM(boot)
	}

	m.cpu = c
	m.bus = b
	m.input = input.State{}
	return nil
}

// LoadROMFromFile is a convenience helper for scripted/CI callers (and
// the blargg test harness) that only have a path, grounded on the
// teacher's file-oriented loader of the same name.
func (m *Machine) LoadROMFromFile(path string) error {
	rom, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("emu: read ROM: %w", err)
	}
	return m.LoadCartridge(rom, nil)
}

// SetSerialWriter routes the cartridge's serial port output (used by
// Blargg-style test ROMs to report pass/fail) to w.
func (m *Machine) SetSerialWriter(w io.Writer) { m.bus.SetSerialWriter(w) }

// SetPaused toggles the debugger pause hook. While paused, Step returns
// at once without advancing, so RunFrame and RunUntil make no progress
// and return only when ctx is canceled.
func (m *Machine) SetPaused(p bool) { m.paused = p }
func (m *Machine) Paused() bool     { return m.paused }

// Apply folds one host input event into the pressed-button state.
func (m *Machine) Apply(e input.Event) {
	m.bus.SetJoypadState(m.input.Apply(e))
}

// DrainWatchpoints passes through the bus's write-address debugger
// buffer.
func (m *Machine) DrainWatchpoints() []uint16 { return m.bus.DrainWatchpoints() }

// CPU exposes the CPU for tooling (debugger register dumps, tests).
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the bus for tooling.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// SaveBattery returns a copy of the loaded cartridge's external RAM,
// or (nil, false) if the cartridge has no battery-backed RAM.
func (m *Machine) SaveBattery() ([]byte, bool) {
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return nil, false
	}
	ram := bb.SaveRAM()
	if ram == nil {
		return nil, false
	}
	return ram, true
}

// LoadBattery restores a previously saved external-RAM image, if the
// loaded cartridge supports it. It reports whether the cartridge
// accepted it.
func (m *Machine) LoadBattery(data []byte) bool {
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}

// Step executes one CPU instruction (or services one interrupt) and
// returns the cycles consumed. A non-nil error means the CPU fetched
// one of the eleven opcodes the SM83 never defines.
func (m *Machine) Step() (int, error) {
	if m.paused {
		return 0, nil
	}
	return m.cpu.Step()
}

// RunFrame steps the machine until the PPU completes a frame or ctx is
// canceled, whichever comes first. It returns the frame (see Frame)
// and any fatal CPU error.
func (m *Machine) RunFrame(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if _, err := m.Step(); err != nil {
			return nil, err
		}
		if fb, ready := m.Frame(); ready {
			return fb, nil
		}
	}
}

// RunUntil steps the machine until ctx is canceled, discarding
// intermediate frames; used by headless/CI drivers that only care
// about final state (serial output, a CRC of the last frame).
func (m *Machine) RunUntil(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if _, err := m.Step(); err != nil {
			return err
		}
	}
}

// StepFrameNoRender advances roughly one frame's worth of cycles
// without checking Frame's ready flag, for callers (the Blargg
// harness) that only care about serial output and don't want to
// decode RGB every frame.
func (m *Machine) StepFrameNoRender() error {
	const cyclesPerFrame = 70224
	spent := 0
	for spent < cyclesPerFrame {
		cycles, err := m.cpu.Step()
		if err != nil {
			return err
		}
		spent += cycles
	}
	return nil
}

// Frame returns the most recently completed frame as packed RGB
// (160*144*3 bytes, one DMG shade mapped to the classic four-tone
// grey-green ramp per byte triple) and whether a frame has completed
// since the last call. The returned slice is reused across calls;
// callers that need a stable copy must clone it.
func (m *Machine) Frame() ([]byte, bool) {
	shades, ready := m.bus.PPU().Framebuffer()
	if !ready {
		return nil, false
	}
	for y := 0; y < frameHeight; y++ {
		for x := 0; x < frameWidth; x++ {
			rgb := shadeRGB[shades[y][x]]
			i := (y*frameWidth + x) * 3
			m.fb[i+0], m.fb[i+1], m.fb[i+2] = rgb[0], rgb[1], rgb[2]
		}
	}
	return m.fb, true
}

// shadeRGB maps the PPU's 2-bit DMG shade index to the classic
// light-to-dark green-grey palette real hardware displays.
var shadeRGB = [4][3]byte{
	{0xE0, 0xF0, 0xE7},
	{0x8B, 0xAC, 0x8B},
	{0x30, 0x62, 0x30},
	{0x0F, 0x18, 0x0F},
}
