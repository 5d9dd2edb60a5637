// Package ppu models the DMG picture processing unit: VRAM/OAM
// storage, LCDC/STAT/scroll/palette registers, the scanline mode
// state machine, and BG/window/sprite composition into a framebuffer.
package ppu

// InterruptRequester requests IF bits (0:VBlank, 1:STAT).
type InterruptRequester func(bit int)

const (
	dotsOAM    = 80
	dotsTotal  = 456
	linesTotal = 154
	visLines   = 144
)

// LineRegs is a per-line snapshot of the registers that affect
// rendering, captured at the moment mode 3 begins. Callers that want
// to inspect what a given scanline was rendered with (tests, a
// debugger) use PPU.LineRegs instead of racing the live registers.
type LineRegs struct {
	SCX, SCY, WX, WY, LCDC, BGP, OBP0, OBP1 byte
	WinLine                                 byte
}

// PPU models VRAM/OAM, LCDC/STAT regs, LY/LYC, timing, and rendering.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	lcdc byte // FF40
	stat byte // FF41
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	dot int

	winLine  int // -1 until the window engages for the current frame
	lineRegs [visLines]LineRegs
	fb       [visLines][160]byte // 2-bit DMG shade indices, post-palette
	fbReady  bool

	req InterruptRequester
}

func New(req InterruptRequester) *PPU {
	return &PPU{req: req, winLine: -1}
}

// CPURead returns bytes for VRAM, OAM, and PPU IO registers.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO registers.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return
		}
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if (p.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			p.ly = 0
			p.dot = 0
			p.winLine = -1
			p.setMode(0)
			p.updateLYC()
		} else if (p.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			p.ly = 0
			p.dot = 0
			p.winLine = -1
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		p.ly = 0
		p.dot = 0
		p.updateLYC()
		if (p.lcdc & 0x80) != 0 {
			p.setMode(2)
		}
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

// WriteOAM writes directly into OAM, bypassing the mode2/3 CPU-access
// restriction — used by the DMA engine, which drives OAM at the
// hardware level rather than through the CPU bus.
func (p *PPU) WriteOAM(offset byte, v byte) {
	if int(offset) < len(p.oam) {
		p.oam[offset] = v
	}
}

// Tick advances PPU state by the given number of dots (= CPU cycles).
func (p *PPU) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		if (p.lcdc & 0x80) == 0 {
			continue
		}
		p.dot++

		var mode byte
		if p.ly >= visLines {
			mode = 1
		} else {
			switch {
			case p.dot < dotsOAM:
				mode = 2
			case p.dot < dotsOAM+172:
				mode = 3
			default:
				mode = 0
			}
		}
		p.setMode(mode)

		if p.dot >= dotsTotal {
			if p.ly < visLines {
				p.renderLine(p.ly)
			}
			p.dot = 0
			p.ly++
			if p.ly == visLines {
				p.fbReady = true
				if p.req != nil {
					p.req(0)
				}
				if (p.stat & (1 << 4)) != 0 {
					if p.req != nil {
						p.req(1)
					}
				}
			} else if p.ly >= linesTotal {
				p.ly = 0
				p.winLine = -1
			}
			p.updateLYC()
			if p.ly >= visLines {
				p.setMode(1)
			} else {
				p.setMode(2)
			}
		}
	}
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0:
		if (p.stat&(1<<3)) != 0 && p.req != nil {
			p.req(1)
		}
	case 2:
		if (p.stat&(1<<5)) != 0 && p.req != nil {
			p.req(1)
		}
	case 3:
		p.captureLineRegs()
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if (p.stat&(1<<6)) != 0 && p.req != nil {
			p.req(1)
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// windowVisible reports whether the window layer is engaged for the
// current line: enabled, BG/window priority on, WY reached, and WX
// within the displayable range.
func (p *PPU) windowVisible() bool {
	return (p.lcdc&0x20) != 0 && (p.lcdc&0x01) != 0 && p.ly >= p.wy && p.wx <= 166
}

func (p *PPU) captureLineRegs() {
	if int(p.ly) >= visLines {
		return
	}
	if p.windowVisible() {
		p.winLine++
	}
	wl := p.winLine
	if wl < 0 {
		wl = 0
	}
	p.lineRegs[p.ly] = LineRegs{
		SCX: p.scx, SCY: p.scy, WX: p.wx, WY: p.wy,
		LCDC: p.lcdc, BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
		WinLine: byte(wl),
	}
}

// LineRegs returns the register snapshot captured for scanline ly.
func (p *PPU) LineRegs(ly int) LineRegs {
	if ly < 0 || ly >= visLines {
		return LineRegs{}
	}
	return p.lineRegs[ly]
}

func (p *PPU) renderLine(ly byte) {
	lr := p.lineRegs[ly]

	var bgci [160]byte
	if lr.LCDC&0x01 != 0 {
		mapBase := uint16(0x9800)
		if lr.LCDC&0x08 != 0 {
			mapBase = 0x9C00
		}
		bgci = RenderBGScanlineUsingFetcher(p, mapBase, lr.LCDC&0x10 != 0, lr.SCX, lr.SCY, ly)
	}

	if p.windowEngagedForLine(lr, ly) {
		winMapBase := uint16(0x9800)
		if lr.LCDC&0x40 != 0 {
			winMapBase = 0x9C00
		}
		wxStart := int(lr.WX) - 7
		wci := RenderWindowScanlineUsingFetcher(p, winMapBase, lr.LCDC&0x10 != 0, wxStart, lr.WinLine)
		for x := wxStart; x < 160; x++ {
			if x < 0 {
				continue
			}
			bgci[x] = wci[x]
		}
	}

	var shades [160]byte
	for x := 0; x < 160; x++ {
		shades[x] = applyPalette(lr.BGP, bgci[x])
	}

	if lr.LCDC&0x02 != 0 {
		tall := lr.LCDC&0x04 != 0
		sprites := gatherSprites(p.oam[:], ly, tall)
		sci, owner := composeSpriteLineDetailed(p, sprites, ly, bgci)
		for x := 0; x < 160; x++ {
			if sci[x] == 0 {
				continue
			}
			pal := lr.OBP0
			if owner[x] != nil && owner[x].Attr&0x10 != 0 {
				pal = lr.OBP1
			}
			shades[x] = applyPalette(pal, sci[x])
		}
	}

	p.fb[ly] = shades
}

// windowEngagedForLine re-derives visibility from the line's own
// captured registers rather than the live ones, so mid-scanline LCDC
// writes don't retroactively change an already-rendered line.
func (p *PPU) windowEngagedForLine(lr LineRegs, ly byte) bool {
	return lr.LCDC&0x20 != 0 && lr.LCDC&0x01 != 0 && ly >= lr.WY && lr.WX <= 166
}

func applyPalette(pal byte, ci byte) byte {
	return (pal >> (ci * 2)) & 0x03
}

// Framebuffer returns the most recently completed frame (144 rows of
// 160 2-bit DMG shade indices) and whether a frame has completed
// since the last call.
func (p *PPU) Framebuffer() ([visLines][160]byte, bool) {
	ready := p.fbReady
	p.fbReady = false
	return p.fb, ready
}

func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }

// Read implements VRAMReader for the fetcher/scanline helpers: raw
// VRAM bytes without the CPU-side mode-3 block, since the PPU itself
// always has access to its own memory.
func (p *PPU) Read(addr uint16) byte {
	if addr < 0x8000 || addr > 0x9FFF {
		return 0xFF
	}
	return p.vram[addr-0x8000]
}
