// Package serial models the DMG serial port as a write-only console
// tap: no serial clock is simulated, but writes with the transfer-start
// bit set complete immediately, raise the SERIAL interrupt, and (if a
// sink is configured) emit the transferred byte — the mechanism test
// ROMs such as Blargg's use to report pass/fail over "serial".
package serial

import (
	"io"

	"github.com/hearthcore/dmgcore/internal/interrupt"
)

type Port struct {
	sb   byte // FF01 data
	sc   byte // FF02 control; bit7 start, bit0 clock source
	sink io.Writer
}

func New() *Port { return &Port{} }

// SetSink configures where transferred bytes are written; nil
// discards them.
func (p *Port) SetSink(w io.Writer) { p.sink = w }

func (p *Port) ReadSB() byte { return p.sb }
func (p *Port) WriteSB(v byte) { p.sb = v }

// ReadSC returns the control register; bits 1-6 read back as 1.
func (p *Port) ReadSC() byte { return 0x7E | (p.sc & 0x81) }

// WriteSC sets the control register. Setting bit 7 starts (and, in
// this model, immediately completes) a transfer.
func (p *Port) WriteSC(v byte, irq *interrupt.Set) {
	p.sc = v & 0x81
	if p.sc&0x80 != 0 {
		if p.sink != nil {
			_, _ = p.sink.Write([]byte{p.sb})
		}
		irq.Request(interrupt.Serial)
		p.sc &^= 0x80
	}
}
