// Package bus implements the DMG memory-mapped address space: a
// single decode-then-delegate switch fanning out to the cartridge,
// PPU, timer, joypad, serial port, OAM DMA engine, work/high RAM, and
// the interrupt flag/enable registers.
package bus

import (
	"github.com/hearthcore/dmgcore/internal/cart"
	"github.com/hearthcore/dmgcore/internal/dma"
	"github.com/hearthcore/dmgcore/internal/interrupt"
	"github.com/hearthcore/dmgcore/internal/joypad"
	"github.com/hearthcore/dmgcore/internal/ppu"
	"github.com/hearthcore/dmgcore/internal/serial"
	"github.com/hearthcore/dmgcore/internal/timer"
)

// watchpointCap bounds the write-address buffer a debugger hook can
// drain; a host that never drains it still can't leak memory.
const watchpointCap = 256

// Bus wires the CPU-visible address space to the cartridge, PPU, and
// the timer/joypad/serial/DMA peripherals. Pure synchronous,
// single-threaded: every access is a decode by address range followed
// immediately by delegation.
type Bus struct {
	cart cart.Cartridge
	ppu  *ppu.PPU

	timer  *timer.Timer
	joypad *joypad.Joypad
	serial *serial.Port
	dma    *dma.DMA

	wram [0x2000]byte // 0xC000-0xDFFF; echo at 0xE000-0xFDFF mirrors 0xC000-0xDDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	ie  byte // 0xFFFF
	ifr interrupt.Set

	bootROM     []byte
	bootEnabled bool

	watchpoints []uint16
}

// New constructs a Bus with a cartridge selected from the ROM header.
func New(rom []byte) *Bus {
	return NewWithCartridge(cart.New(rom))
}

// NewWithCartridge wires a caller-supplied cartridge implementation,
// useful for tests that want a bare ROMOnly or a fixed-RAM MBC.
func NewWithCartridge(c cart.Cartridge) *Bus {
	b := &Bus{
		cart:   c,
		timer:  timer.New(),
		joypad: joypad.New(),
		serial: serial.New(),
		dma:    dma.New(),
	}
	b.ppu = ppu.New(func(bit int) { b.ifr.Request(interrupt.Bit(bit)) })
	return b
}

// PPU exposes the PPU for read-only rendering helpers (host blitting,
// debugger inspection) without widening the Bus's own surface.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Cart exposes the cartridge so a caller can reach BatteryBacked.
func (b *Bus) Cart() cart.Cartridge { return b.cart }

// SetBootROM maps a 256-byte boot ROM at 0x0000-0x00FF until the next
// write to 0xFF50 disables the overlay.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, 0x100)
		copy(b.bootROM, data[:0x100])
		b.bootEnabled = true
	}
}

// SetJoypadState replaces the full set of currently pressed buttons,
// using the joypad package's Button bitmask constants.
func (b *Bus) SetJoypadState(mask byte) {
	b.joypad.SetPressed(mask, &b.ifr)
}

// SetSerialWriter configures the sink that receives bytes transferred
// out through the serial port; nil discards them.
func (b *Bus) SetSerialWriter(w interface{ Write([]byte) (int, error) }) {
	b.serial.SetSink(w)
}

// DrainWatchpoints returns every address written since the last
// drain, in write order, and empties the buffer.
func (b *Bus) DrainWatchpoints() []uint16 {
	out := b.watchpoints
	b.watchpoints = nil
	return out
}

func (b *Bus) recordWrite(addr uint16) {
	b.watchpoints = append(b.watchpoints, addr)
	if len(b.watchpoints) > watchpointCap {
		b.watchpoints = b.watchpoints[len(b.watchpoints)-watchpointCap:]
	}
}

// InterruptFlag returns the CPU-visible value at 0xFF0F.
func (b *Bus) InterruptFlag() byte { return 0xE0 | byte(b.ifr&interrupt.Mask) }

// InterruptEnable returns the value at 0xFFFF.
func (b *Bus) InterruptEnable() byte { return b.ie }

// Pending returns the raw interrupt mask the CPU consults before
// every fetch (IE & IF, independent of the master-enable flag, which
// the CPU itself tracks).
func (b *Bus) Pending() interrupt.Set {
	return interrupt.Set(b.ie) & b.ifr & interrupt.Mask
}

// ClearInterrupt clears a single serviced interrupt's IF bit.
func (b *Bus) ClearInterrupt(bit interrupt.Bit) { b.ifr.Clear(bit) }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return b.ppu.CPURead(addr)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0 // unmapped OAM-adjacent region
	case addr == 0xFF00:
		return b.joypad.ReadP1()
	case addr == 0xFF01:
		return b.serial.ReadSB()
	case addr == 0xFF02:
		return b.serial.ReadSC()
	case addr == 0xFF04:
		return b.timer.DIV()
	case addr == 0xFF05:
		return b.timer.TIMA()
	case addr == 0xFF06:
		return b.timer.TMA()
	case addr == 0xFF07:
		return b.timer.TAC()
	case addr == 0xFF0F:
		return b.InterruptFlag()
	case addr == 0xFF10, addr == 0xFF11, addr == 0xFF12, addr == 0xFF13, addr == 0xFF14:
		return 0 // APU channel 1: dead register, modelled per spec non-goal
	case addr >= 0xFF16 && addr <= 0xFF1E:
		return 0 // APU channels 2/3 control
	case addr >= 0xFF20 && addr <= 0xFF26:
		return 0 // APU channel 4 + master control/panning
	case addr >= 0xFF30 && addr <= 0xFF3F:
		return 0 // wave RAM
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF46:
		return b.dma.SourceRegister()
	case addr == 0xFF50:
		return 0xFF
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.ie
	case addr >= 0xFF00 && addr <= 0xFFFF:
		return 0xFF // unmapped IO: reads float high
	}
	panic("bus: unmapped address in Read")
}

func (b *Bus) Write(addr uint16, value byte) {
	b.recordWrite(addr)
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// unmapped; write discarded
	case addr == 0xFF00:
		b.joypad.WriteP1(value, &b.ifr)
	case addr == 0xFF01:
		b.serial.WriteSB(value)
	case addr == 0xFF02:
		b.serial.WriteSC(value, &b.ifr)
	case addr == 0xFF04:
		b.timer.WriteDIV(&b.ifr)
	case addr == 0xFF05:
		b.timer.WriteTIMA(value)
	case addr == 0xFF06:
		b.timer.WriteTMA(value)
	case addr == 0xFF07:
		b.timer.WriteTAC(value, &b.ifr)
	case addr == 0xFF0F:
		b.ifr = interrupt.Set(value) & interrupt.Mask
	case addr == 0xFF10, addr == 0xFF11, addr == 0xFF12, addr == 0xFF13, addr == 0xFF14:
		// APU channel 1: discarded
	case addr >= 0xFF16 && addr <= 0xFF1E:
		// APU channels 2/3: discarded
	case addr >= 0xFF20 && addr <= 0xFF26:
		// APU channel 4 + master control/panning: discarded
	case addr >= 0xFF30 && addr <= 0xFF3F:
		// wave RAM: discarded
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.dma.Start(value)
	case addr == 0xFF50:
		b.bootEnabled = false
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		b.ie = value
	case addr >= 0xFF00 && addr <= 0xFFFF:
		// unmapped IO: write silently dropped
	default:
		panic("bus: unmapped address in Write")
	}
}

// Tick advances every cycle-driven peripheral (timer, PPU, OAM DMA)
// by the given number of machine cycles, in the order real hardware's
// clock tree fans them out.
func (b *Bus) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		b.timer.Tick(1, &b.ifr)
		b.ppu.Tick(1)
		b.dma.Tick(1, b, b.ppu)
	}
}
