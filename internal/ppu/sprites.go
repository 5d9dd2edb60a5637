package ppu

import "sort"

// Sprite is one OAM entry resolved to screen-space coordinates: X and
// Y are already the raw OAM byte minus its 8/16 pixel offset, so X==0
// means the sprite's left edge sits at screen column 0.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	Height   byte // 0 means 8 (single-tile mode)
	OAMIndex int
}

// gatherSprites walks the 40 OAM entries and returns those visible on
// scanline ly, sorted so the highest-display-priority sprite (lowest
// X, ties broken by lowest OAM index) comes first — the order
// ComposeSpriteLine expects.
func gatherSprites(oam []byte, ly byte, tall bool) []Sprite {
	height := 8
	if tall {
		height = 16
	}
	var out []Sprite
	for i := 0; i < 40; i++ {
		base := i * 4
		rawY := int(oam[base+0])
		rawX := int(oam[base+1])
		tile := oam[base+2]
		attr := oam[base+3]

		y := rawY - 16
		x := rawX - 8
		if int(ly) < y || int(ly) >= y+height {
			continue
		}
		out = append(out, Sprite{X: x, Y: y, Tile: tile, Attr: attr, Height: byte(height), OAMIndex: i})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].OAMIndex < out[j].OAMIndex
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

// ComposeSpriteLine draws the given (pre-sorted, highest priority
// first) sprite candidates onto a 160-pixel line of object color
// indices (0 = transparent). Sprites earlier in the slice win ties;
// a sprite with its BG-priority bit set yields to any non-zero BG
// color already at that pixel.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, useObp1Default bool) [160]byte {
	_ = useObp1Default // reserved: per-pixel palette is resolved by the caller, not here
	ci, _ := composeSpriteLineDetailed(mem, sprites, ly, bgci)
	return ci
}

// composeSpriteLineDetailed is ComposeSpriteLine's implementation,
// additionally reporting which sprite contributed each drawn pixel so
// the renderer can pick OBP0 vs OBP1 per pixel.
func composeSpriteLineDetailed(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte) ([160]byte, [160]*Sprite) {
	var out [160]byte
	var owner [160]*Sprite

	for i := range sprites {
		s := &sprites[i]
		height := int(s.Height)
		if height == 0 {
			height = 8
		}
		row := int(ly) - s.Y
		if row < 0 || row >= height {
			continue
		}
		if s.Attr&0x40 != 0 {
			row = height - 1 - row
		}

		tile := s.Tile
		if height == 16 {
			tile &^= 0x01
			if row >= 8 {
				tile |= 0x01
				row -= 8
			}
		}

		base := 0x8000 + uint16(tile)*16 + uint16(row)*2
		lo := mem.Read(base)
		hi := mem.Read(base + 1)

		for px := 0; px < 8; px++ {
			col := px
			if s.Attr&0x20 != 0 {
				col = 7 - px
			}
			bit := 7 - byte(col)
			ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if ci == 0 {
				continue
			}
			sx := s.X + px
			if sx < 0 || sx >= 160 {
				continue
			}
			if owner[sx] != nil {
				continue
			}
			if s.Attr&0x80 != 0 && bgci[sx] != 0 {
				continue
			}
			out[sx] = ci
			owner[sx] = s
		}
	}
	return out, owner
}
