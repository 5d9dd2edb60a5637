package cpu

import "github.com/hearthcore/dmgcore/internal/registers"

var cbTable [256]opcodeFunc

func decodeCB(x, y, z byte) opcodeFunc {
	r := r8ByIndex[z]
	switch x {
	case 0:
		rotOp := y
		return func(c *CPU) int { return opCBRotate(c, rotOp, r) }
	case 1:
		bit := y
		return func(c *CPU) int { return opBIT(c, bit, r) }
	case 2:
		bit := y
		return func(c *CPU) int { return opRES(c, bit, r) }
	default:
		bit := y
		return func(c *CPU) int { return opSET(c, bit, r) }
	}
}

func opCBPrefix(c *CPU) int {
	cb := c.fetch8()
	return cbTable[cb](c)
}

// opCBRotate performs the eight CB-prefixed rotate/shift/swap forms
// (0 RLC,1 RRC,2 RL,3 RR,4 SLA,5 SRA,6 SWAP,7 SRL). Unlike the
// accumulator forms, Z reflects the result.
func opCBRotate(c *CPU, op byte, r registers.R8) int {
	v := c.getR8(r)
	var cy bool
	switch op {
	case 0: // RLC
		cy = v>>7&1 == 1
		v = v<<1 | v>>7
	case 1: // RRC
		cy = v&1 == 1
		v = v>>1 | v<<7
	case 2: // RL
		cin := byte(0)
		if c.C() {
			cin = 1
		}
		cy = v>>7&1 == 1
		v = v<<1 | cin
	case 3: // RR
		cin := byte(0)
		if c.C() {
			cin = 0x80
		}
		cy = v&1 == 1
		v = v>>1 | cin
	case 4: // SLA
		cy = v>>7&1 == 1
		v <<= 1
	case 5: // SRA
		cy = v&1 == 1
		v = v>>1 | v&0x80
	case 6: // SWAP
		v = v<<4 | v>>4
		cy = false
	default: // SRL
		cy = v&1 == 1
		v >>= 1
	}
	c.setR8(r, v)
	c.SetFlags(v == 0, false, false, cy)
	if r == registers.RHLInd {
		return 16
	}
	return 8
}

func opBIT(c *CPU, bit byte, r registers.R8) int {
	v := c.getR8(r)
	set := v>>bit&1 != 0
	c.SetFlags(!set, false, true, c.C())
	if r == registers.RHLInd {
		return 12
	}
	return 8
}

func opRES(c *CPU, bit byte, r registers.R8) int {
	v := c.getR8(r)
	c.setR8(r, v&^(1<<bit))
	if r == registers.RHLInd {
		return 16
	}
	return 8
}

func opSET(c *CPU, bit byte, r registers.R8) int {
	v := c.getR8(r)
	c.setR8(r, v|1<<bit)
	if r == registers.RHLInd {
		return 16
	}
	return 8
}
