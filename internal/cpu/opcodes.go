package cpu

import "github.com/hearthcore/dmgcore/internal/registers"

// opcodeFunc executes one decoded instruction and returns its cycle
// cost. Built once by init() from the opcode byte's (x,y,z,p,q)
// fields, the standard SM83/Z80 decomposition, instead of a single
// giant hand-written switch.
type opcodeFunc func(c *CPU) int

var opTable [256]opcodeFunc

var r8ByIndex = [8]registers.R8{
	registers.RB, registers.RC, registers.RD, registers.RE,
	registers.RH, registers.RL, registers.RHLInd, registers.RA,
}

var rpByIndex = [4]registers.RP{
	registers.RPBC, registers.RPDE, registers.RPHL, registers.RPSP,
}

var rpStackByIndex = [4]registers.RPStack{
	registers.RPSBC, registers.RPSDE, registers.RPSHL, registers.RPSAF,
}

var condByIndex = [4]registers.Cond{
	registers.CondNZ, registers.CondZ, registers.CondNC, registers.CondC,
}

// illegalOpcodes are the eleven SM83 byte values with no defined
// instruction. Fetching one is a fatal error, surfaced through Step.
var illegalOpcodes = map[byte]bool{
	0xD3: true, 0xDB: true, 0xDD: true,
	0xE3: true, 0xE4: true, 0xEB: true, 0xEC: true, 0xED: true,
	0xF4: true, 0xFC: true, 0xFD: true,
}

func init() {
	for i := 0; i < 256; i++ {
		op := byte(i)
		if illegalOpcodes[op] {
			continue
		}
		x := op >> 6
		y := (op >> 3) & 7
		z := op & 7
		p := y / 2
		q := y % 2
		opTable[i] = decodeMain(x, y, z, p, q)
	}
	for i := 0; i < 256; i++ {
		op := byte(i)
		x := op >> 6
		y := (op >> 3) & 7
		z := op & 7
		cbTable[i] = decodeCB(x, y, z)
	}
}

func decodeMain(x, y, z, p, q byte) opcodeFunc {
	switch x {
	case 0:
		return decodeX0(y, z, p, q)
	case 1:
		if y == 6 && z == 6 {
			return opHALT
		}
		dst, src := r8ByIndex[y], r8ByIndex[z]
		return func(c *CPU) int { return opLD_r8_r8(c, dst, src) }
	case 2:
		src := r8ByIndex[z]
		return func(c *CPU) int { return opALU_r8(c, y, src) }
	default:
		return decodeX3(y, z, p, q)
	}
}

func decodeX0(y, z, p, q byte) opcodeFunc {
	switch z {
	case 0:
		switch y {
		case 0:
			return opNOP
		case 1:
			return opLD_a16_SP
		case 2:
			return opSTOP
		case 3:
			return opJR_d
		default:
			cond := condByIndex[y-4]
			return func(c *CPU) int { return opJR_cc(c, cond) }
		}
	case 1:
		rp := rpByIndex[p]
		if q == 0 {
			return func(c *CPU) int { return opLD_rp_d16(c, rp) }
		}
		return func(c *CPU) int { return opADD_HL_rp(c, rp) }
	case 2:
		if q == 0 {
			return func(c *CPU) int { return opLD_indRP_A(c, p) }
		}
		return func(c *CPU) int { return opLD_A_indRP(c, p) }
	case 3:
		rp := rpByIndex[p]
		if q == 0 {
			return func(c *CPU) int { return opINC_rp(c, rp) }
		}
		return func(c *CPU) int { return opDEC_rp(c, rp) }
	case 4:
		r := r8ByIndex[y]
		return func(c *CPU) int { return opINC_r8(c, r) }
	case 5:
		r := r8ByIndex[y]
		return func(c *CPU) int { return opDEC_r8(c, r) }
	case 6:
		r := r8ByIndex[y]
		return func(c *CPU) int { return opLD_r8_d8(c, r) }
	default: // z == 7
		switch y {
		case 0:
			return opRLCA
		case 1:
			return opRRCA
		case 2:
			return opRLA
		case 3:
			return opRRA
		case 4:
			return opDAA
		case 5:
			return opCPL
		case 6:
			return opSCF
		default:
			return opCCF
		}
	}
}

func decodeX3(y, z, p, q byte) opcodeFunc {
	switch z {
	case 0:
		switch y {
		case 0, 1, 2, 3:
			cond := condByIndex[y]
			return func(c *CPU) int { return opRET_cc(c, cond) }
		case 4:
			return opLDH_a8_A
		case 5:
			return opADD_SP_d8
		case 6:
			return opLDH_A_a8
		default:
			return opLD_HL_SPd8
		}
	case 1:
		if q == 0 {
			rps := rpStackByIndex[p]
			return func(c *CPU) int { return opPOP_rp2(c, rps) }
		}
		switch p {
		case 0:
			return opRET
		case 1:
			return opRETI
		case 2:
			return opJP_HL
		default:
			return opLD_SP_HL
		}
	case 2:
		switch y {
		case 0, 1, 2, 3:
			cond := condByIndex[y]
			return func(c *CPU) int { return opJP_cc_a16(c, cond) }
		case 4:
			return opLD_indC_A
		case 5:
			return opLD_a16_A
		case 6:
			return opLD_A_indC
		default:
			return opLD_A_a16
		}
	case 3:
		switch y {
		case 0:
			return opJP_a16
		case 1:
			return opCBPrefix
		case 6:
			return opDI
		default: // y == 7
			return opEI
		}
	case 4:
		cond := condByIndex[y]
		return func(c *CPU) int { return opCALL_cc(c, cond) }
	case 5:
		if q == 0 {
			rps := rpStackByIndex[p]
			return func(c *CPU) int { return opPUSH_rp2(c, rps) }
		}
		return opCALL_a16
	case 6:
		return func(c *CPU) int { return opALU_d8(c, y) }
	default: // z == 7
		target := uint16(y) * 8
		return func(c *CPU) int { return opRST(c, target) }
	}
}

// --- control flow / misc ---

func opNOP(c *CPU) int { return 4 }

func opSTOP(c *CPU) int {
	c.fetch8() // STOP's mandatory second byte, conventionally 0x00
	c.stopped = true
	return 4
}

func opHALT(c *CPU) int {
	if !c.IME && c.bus.Pending() != 0 {
		c.haltBug = true
	} else {
		c.halted = true
	}
	return 4
}

func opDI(c *CPU) int { c.IME = false; c.eiPending = false; return 4 }
func opEI(c *CPU) int { c.eiPending = true; return 4 }

func opJP_a16(c *CPU) int { c.PC = c.fetch16(); return 16 }
func opJP_HL(c *CPU) int  { c.PC = c.HL(); return 4 }

func opJP_cc_a16(c *CPU, cond registers.Cond) int {
	addr := c.fetch16()
	if c.Test(cond) {
		c.PC = addr
		return 16
	}
	return 12
}

func opJR_d(c *CPU) int {
	off := int8(c.fetch8())
	c.PC = uint16(int32(c.PC) + int32(off))
	return 12
}

func opJR_cc(c *CPU, cond registers.Cond) int {
	off := int8(c.fetch8())
	if c.Test(cond) {
		c.PC = uint16(int32(c.PC) + int32(off))
		return 12
	}
	return 8
}

func opCALL_a16(c *CPU) int {
	addr := c.fetch16()
	c.push16(c.PC)
	c.PC = addr
	return 24
}

func opCALL_cc(c *CPU, cond registers.Cond) int {
	addr := c.fetch16()
	if c.Test(cond) {
		c.push16(c.PC)
		c.PC = addr
		return 24
	}
	return 12
}

func opRET(c *CPU) int { c.PC = c.pop16(); return 16 }

func opRET_cc(c *CPU, cond registers.Cond) int {
	if c.Test(cond) {
		c.PC = c.pop16()
		return 20
	}
	return 8
}

func opRETI(c *CPU) int {
	c.PC = c.pop16()
	c.IME = true
	return 16
}

func opRST(c *CPU, target uint16) int {
	c.push16(c.PC)
	c.PC = target
	return 16
}

// --- 8-bit loads ---

func opLD_r8_r8(c *CPU, dst, src registers.R8) int {
	v := c.getR8(src)
	c.setR8(dst, v)
	if dst == registers.RHLInd || src == registers.RHLInd {
		return 8
	}
	return 4
}

func opLD_r8_d8(c *CPU, dst registers.R8) int {
	v := c.fetch8()
	c.setR8(dst, v)
	if dst == registers.RHLInd {
		return 12
	}
	return 8
}

func opLD_indRP_A(c *CPU, p byte) int {
	switch p {
	case 0:
		c.write8(c.BC(), c.A)
	case 1:
		c.write8(c.DE(), c.A)
	case 2:
		c.write8(c.HLInc(), c.A)
	default:
		c.write8(c.HLDec(), c.A)
	}
	return 8
}

func opLD_A_indRP(c *CPU, p byte) int {
	switch p {
	case 0:
		c.A = c.read8(c.BC())
	case 1:
		c.A = c.read8(c.DE())
	case 2:
		c.A = c.read8(c.HLInc())
	default:
		c.A = c.read8(c.HLDec())
	}
	return 8
}

func opLD_a16_A(c *CPU) int { c.write8(c.fetch16(), c.A); return 16 }
func opLD_A_a16(c *CPU) int { c.A = c.read8(c.fetch16()); return 16 }

func opLDH_a8_A(c *CPU) int {
	addr := 0xFF00 + uint16(c.fetch8())
	c.write8(addr, c.A)
	return 12
}

func opLDH_A_a8(c *CPU) int {
	addr := 0xFF00 + uint16(c.fetch8())
	c.A = c.read8(addr)
	return 12
}

func opLD_indC_A(c *CPU) int { c.write8(0xFF00+uint16(c.RegC), c.A); return 8 }
func opLD_A_indC(c *CPU) int { c.A = c.read8(0xFF00 + uint16(c.RegC)); return 8 }

// --- 16-bit loads / stack ---

func opLD_rp_d16(c *CPU, rp registers.RP) int { c.SetRP(rp, c.fetch16()); return 12 }

func opLD_a16_SP(c *CPU) int {
	addr := c.fetch16()
	c.write16(addr, c.SP)
	return 20
}

func opLD_SP_HL(c *CPU) int { c.SP = c.HL(); return 8 }

func opPUSH_rp2(c *CPU, rp registers.RPStack) int { c.push16(c.GetRPStack(rp)); return 16 }
func opPOP_rp2(c *CPU, rp registers.RPStack) int  { c.SetRPStack(rp, c.pop16()); return 12 }

// addSPOffset computes SP + a signed 8-bit displacement and the flags
// ADD SP,e8 and LD HL,SP+e8 share: the low byte of SP plus the
// displacement's unsigned byte pattern, not the signed sum.
func addSPOffset(sp uint16, off int8) (res uint16, h, cy bool) {
	low := byte(sp)
	sum := uint16(low) + uint16(byte(off))
	h = (low&0x0F)+(byte(off)&0x0F) > 0x0F
	cy = sum > 0xFF
	res = uint16(int32(sp) + int32(off))
	return
}

func opLD_HL_SPd8(c *CPU) int {
	off := int8(c.fetch8())
	res, h, cy := addSPOffset(c.SP, off)
	c.SetHL(res)
	c.SetFlags(false, false, h, cy)
	return 12
}

func opADD_SP_d8(c *CPU) int {
	off := int8(c.fetch8())
	res, h, cy := addSPOffset(c.SP, off)
	c.SP = res
	c.SetFlags(false, false, h, cy)
	return 16
}

// --- 8-bit INC/DEC ---

func opINC_r8(c *CPU, r registers.R8) int {
	old := c.getR8(r)
	v := old + 1
	c.setR8(r, v)
	c.SetFlags(v == 0, false, old&0x0F == 0x0F, c.C())
	if r == registers.RHLInd {
		return 12
	}
	return 4
}

func opDEC_r8(c *CPU, r registers.R8) int {
	old := c.getR8(r)
	v := old - 1
	c.setR8(r, v)
	c.SetFlags(v == 0, true, old&0x0F == 0x00, c.C())
	if r == registers.RHLInd {
		return 12
	}
	return 4
}

// --- 16-bit INC/DEC/ADD ---

func opINC_rp(c *CPU, rp registers.RP) int { c.SetRP(rp, c.GetRP(rp)+1); return 8 }
func opDEC_rp(c *CPU, rp registers.RP) int { c.SetRP(rp, c.GetRP(rp)-1); return 8 }

func opADD_HL_rp(c *CPU, rp registers.RP) int {
	hl := c.HL()
	v := c.GetRP(rp)
	sum := uint32(hl) + uint32(v)
	h := (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF
	c.SetHL(uint16(sum))
	c.SetFlags(c.Z(), false, h, sum > 0xFFFF)
	return 8
}

// --- accumulator rotates (Z always forced false, unlike the CB forms) ---

func opRLCA(c *CPU) int {
	cy := c.A>>7&1 == 1
	c.A = c.A<<1 | c.A>>7
	c.SetFlags(false, false, false, cy)
	return 4
}

func opRRCA(c *CPU) int {
	cy := c.A&1 == 1
	c.A = c.A>>1 | c.A<<7
	c.SetFlags(false, false, false, cy)
	return 4
}

func opRLA(c *CPU) int {
	cin := byte(0)
	if c.C() {
		cin = 1
	}
	cy := c.A>>7&1 == 1
	c.A = c.A<<1 | cin
	c.SetFlags(false, false, false, cy)
	return 4
}

func opRRA(c *CPU) int {
	cin := byte(0)
	if c.C() {
		cin = 0x80
	}
	cy := c.A&1 == 1
	c.A = c.A>>1 | cin
	c.SetFlags(false, false, false, cy)
	return 4
}

// --- misc accumulator/flag ops ---

func opDAA(c *CPU) int {
	a := c.A
	cy := c.C()
	if !c.N() {
		if cy || a > 0x99 {
			a += 0x60
			cy = true
		}
		if c.H() || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if cy {
			a -= 0x60
		}
		if c.H() {
			a -= 0x06
		}
	}
	c.A = a
	c.SetFlags(c.A == 0, c.N(), false, cy)
	return 4
}

func opCPL(c *CPU) int {
	c.A = ^c.A
	c.SetFlags(c.Z(), true, true, c.C())
	return 4
}

func opSCF(c *CPU) int {
	c.SetFlags(c.Z(), false, false, true)
	return 4
}

func opCCF(c *CPU) int {
	c.SetFlags(c.Z(), false, false, !c.C())
	return 4
}

// --- ALU group (x=2 register form, x=3/z=6 immediate form) ---

// aluApply performs ALU operation op (0 ADD,1 ADC,2 SUB,3 SBC,4 AND,
// 5 XOR,6 OR,7 CP) on A and val, writing the result (except for CP)
// and the flags the operation defines.
func aluApply(c *CPU, op byte, val byte) {
	switch op {
	case 0: // ADD
		res, h, cy := addFlags(c.A, val)
		c.A = res
		c.SetFlags(res == 0, false, h, cy)
	case 1: // ADC
		res, h, cy := adcFlags(c.A, val, c.C())
		c.A = res
		c.SetFlags(res == 0, false, h, cy)
	case 2: // SUB
		res, h, cy := subFlags(c.A, val)
		c.A = res
		c.SetFlags(res == 0, true, h, cy)
	case 3: // SBC
		res, h, cy := sbcFlags(c.A, val, c.C())
		c.A = res
		c.SetFlags(res == 0, true, h, cy)
	case 4: // AND
		c.A &= val
		c.SetFlags(c.A == 0, false, true, false)
	case 5: // XOR
		c.A ^= val
		c.SetFlags(c.A == 0, false, false, false)
	case 6: // OR
		c.A |= val
		c.SetFlags(c.A == 0, false, false, false)
	default: // CP: SUB without writeback
		res, h, cy := subFlags(c.A, val)
		c.SetFlags(res == 0, true, h, cy)
	}
}

func opALU_r8(c *CPU, op byte, src registers.R8) int {
	aluApply(c, op, c.getR8(src))
	if src == registers.RHLInd {
		return 8
	}
	return 4
}

func opALU_d8(c *CPU, op byte) int {
	aluApply(c, op, c.fetch8())
	return 8
}

func addFlags(a, b byte) (res byte, h, cy bool) {
	sum := uint16(a) + uint16(b)
	res = byte(sum)
	h = (a&0x0F)+(b&0x0F) > 0x0F
	cy = sum > 0xFF
	return
}

func adcFlags(a, b byte, carryIn bool) (res byte, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	sum := uint16(a) + uint16(b) + uint16(ci)
	res = byte(sum)
	h = (a&0x0F)+(b&0x0F)+ci > 0x0F
	cy = sum > 0xFF
	return
}

func subFlags(a, b byte) (res byte, h, cy bool) {
	diff := int16(a) - int16(b)
	res = byte(diff)
	h = a&0x0F < b&0x0F
	cy = diff < 0
	return
}

func sbcFlags(a, b byte, carryIn bool) (res byte, h, cy bool) {
	ci := int16(0)
	if carryIn {
		ci = 1
	}
	diff := int16(a) - int16(b) - ci
	res = byte(diff)
	h = int16(a&0x0F)-int16(b&0x0F)-ci < 0
	cy = diff < 0
	return
}
