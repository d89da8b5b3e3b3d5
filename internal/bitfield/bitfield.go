/*
 * riscv-clic - Pure bit-field codecs for CLIC registers.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package bitfield holds the pure encode/decode functions for every
// WARL/WPRI field used by the CLIC. Every mask and shift used elsewhere in
// the controller derives from the constants in this package so there is one
// source of truth for the bit layout.
package bitfield

// Mode is a RISC-V privilege level.
type Mode uint8

const (
	ModeU Mode = 0
	ModeS Mode = 1
	ModeM Mode = 3
)

// Trig is the trigger polarity/type decoded from intattr[2:1].
type Trig uint8

const (
	PosLevel Trig = 0
	PosEdge  Trig = 1
	NegLevel Trig = 2
	NegEdge  Trig = 3
)

// IsEdge reports whether t is an edge trigger.
func (t Trig) IsEdge() bool {
	return t == PosEdge || t == NegEdge
}

// IsPositive reports whether t fires on line-high.
func (t Trig) IsPositive() bool {
	return t == PosLevel || t == PosEdge
}

const (
	attrModeShift = 6
	attrModeMask  = 0x3
	attrTrigShift = 1
	attrTrigMask  = 0x3
	attrSHVMask   = 0x1
	attrRsvdMask  = 0x38 // bits [5:3] of intattr, between mode and trig, are reserved-zero
)

// Attr is the decoded form of an intattr byte.
type Attr struct {
	Mode Mode
	Trig Trig
	SHV  bool
}

// DecodeAttr decodes a raw intattr byte. Mode 2 is reserved; callers that
// need WARL mode coercion on write use modefilter.CoerceModeOnWrite, not this function, since
// DecodeAttr is also used to read back already-stored (already-coerced)
// bytes.
func DecodeAttr(b uint8) Attr {
	return Attr{
		Mode: Mode((b >> attrModeShift) & attrModeMask),
		Trig: Trig((b >> attrTrigShift) & attrTrigMask),
		SHV:  b&attrSHVMask != 0,
	}
}

// EncodeAttr packs a decoded Attr back into a raw byte, masking the
// reserved low bits to zero.
func EncodeAttr(a Attr) uint8 {
	b := uint8(a.Mode&attrModeMask) << attrModeShift
	b |= uint8(a.Trig&attrTrigMask) << attrTrigShift
	if a.SHV {
		b |= attrSHVMask
	}
	return b
}

// MaskReservedAttr clears the reserved bits of a raw intattr byte (bit 0 is
// SHV and is not reserved; only the gap between trig and mode is). The
// layout is mode:2 at [7:6], trig:2 at [2:1] and shv:1 at [0], leaving the
// gap at bits [5:3] reserved, so those bits are cleared here.
func MaskReservedAttr(b uint8) uint8 {
	const reservedBits = 0x38 // bits [5:3]
	return b &^ reservedBits
}

// maskHigh returns a byte mask with the top n bits set (0 <= n <= 8).
func maskHigh(n int) uint8 {
	if n <= 0 {
		return 0
	}
	if n >= 8 {
		return 0xff
	}
	return uint8(0xff << (8 - n))
}

// maskLow returns a byte mask with the bottom n bits set (0 <= n <= 8).
func maskLow(n int) uint8 {
	if n <= 0 {
		return 0
	}
	if n >= 8 {
		return 0xff
	}
	return uint8(1<<n) - 1
}

func clampBits(n, ctlbits int) int {
	if n < 0 {
		return 0
	}
	if n > ctlbits {
		return ctlbits
	}
	return n
}

// Level extracts the effective interrupt level from a raw intctl byte,
// reading unimplemented low bits as 1 per the WARL rule in spec §4.1.
func Level(ctl uint8, mnlbits, ctlbits int) uint8 {
	nl := clampBits(mnlbits, ctlbits)
	return (ctl & maskHigh(nl)) | maskLow(8-nl)
}

// Priority extracts the arbitration priority from a raw intctl byte. When
// no bits remain for priority (np <= 0) the priority reads as the maximum,
// 0xff, so every such IRQ ties and falls back to IRQ-number tie-break.
func Priority(ctl uint8, mnlbits, ctlbits int) uint8 {
	np := ctlbits - clampBits(mnlbits, ctlbits)
	if np <= 0 {
		return 0xff
	}
	shift := mnlbits
	if shift < 0 {
		shift = 0
	}
	return ((ctl << shift) & maskHigh(np)) | maskLow(8-np)
}

// ReadCtl applies the hardwired-low-bits WARL rule to a raw intctl byte:
// bits below ctlbits are unimplemented and always read as 1.
func ReadCtl(raw uint8, ctlbits int) uint8 {
	return raw | maskLow(8-ctlbits)
}

// EncodePriority builds the total-order sort key used by ActiveSet:
// intcfg (mode<<8 | intctl) in the high bits, irq number in the low 12
// bits. Sorting these keys in descending numeric order yields exactly the
// ordering spec §4.1/§4.3 requires: higher mode beats lower mode, then
// higher ctl, and at equal intcfg the larger irq number produces the
// larger key and so sorts first.
func EncodePriority(intcfg uint16, irq uint16) uint32 {
	key := uint32(intcfg&0x3ff) << 12
	key |= uint32(irq & 0xfff)
	return key
}

// EncodeExccode packs (irq, mode, level) into the CPU-facing exception
// vector per the RISC-V CLIC convention: irq in bits [11:0], mode in bits
// [13:12], level in bits [23:16].
func EncodeExccode(irq uint16, mode Mode, level uint8) uint32 {
	code := uint32(irq & 0xfff)
	code |= uint32(mode&0x3) << 12
	code |= uint32(level) << 16
	return code
}

// DecodeExccode is the inverse of EncodeExccode, used by tests and by
// console inspection.
func DecodeExccode(code uint32) (irq uint16, mode Mode, level uint8) {
	irq = uint16(code & 0xfff)
	mode = Mode((code >> 12) & 0x3)
	level = uint8(code >> 16)
	return
}

// GlobalCfg is the decoded form of the cliccfg register (spec §3, §6).
type GlobalCfg struct {
	MNLBits uint8 // [3:0]
	SNLBits uint8 // [19:16]
	UNLBits uint8 // [27:24]
	NMBits  uint8 // [5:4]
}

const (
	cfgMNLShift = 0
	cfgMNLMask  = 0xf
	cfgNMShift  = 4
	cfgNMMask   = 0x3
	cfgSNLShift = 16
	cfgSNLMask  = 0xf
	cfgUNLShift = 24
	cfgUNLMask  = 0xf
)

// DecodeCliccfg unpacks a raw 32-bit cliccfg value.
func DecodeCliccfg(raw uint32) GlobalCfg {
	return GlobalCfg{
		MNLBits: uint8((raw >> cfgMNLShift) & cfgMNLMask),
		NMBits:  uint8((raw >> cfgNMShift) & cfgNMMask),
		SNLBits: uint8((raw >> cfgSNLShift) & cfgSNLMask),
		UNLBits: uint8((raw >> cfgUNLShift) & cfgUNLMask),
	}
}

// EncodeCliccfg packs a GlobalCfg back into the raw register layout.
func EncodeCliccfg(c GlobalCfg) uint32 {
	raw := uint32(c.MNLBits&cfgMNLMask) << cfgMNLShift
	raw |= uint32(c.NMBits&cfgNMMask) << cfgNMShift
	raw |= uint32(c.SNLBits&cfgSNLMask) << cfgSNLShift
	raw |= uint32(c.UNLBits&cfgUNLMask) << cfgUNLShift
	return raw
}

// Inttrig is the decoded form of a clicinttrig[n] register.
type Inttrig struct {
	TrapEnable bool
	NxtiEnable bool
	IRQN       uint16 // [12:0]
}

const inttrigMask uint32 = 0xC0001FFF

// DecodeInttrig unpacks a raw clicinttrig[n] value, masking reserved bits.
func DecodeInttrig(raw uint32) Inttrig {
	raw &= inttrigMask
	return Inttrig{
		TrapEnable: raw&0x80000000 != 0,
		NxtiEnable: raw&0x40000000 != 0,
		IRQN:       uint16(raw & 0x1fff),
	}
}

// EncodeInttrig packs an Inttrig back to its masked raw form.
func EncodeInttrig(t Inttrig) uint32 {
	var raw uint32
	if t.TrapEnable {
		raw |= 0x80000000
	}
	if t.NxtiEnable {
		raw |= 0x40000000
	}
	raw |= uint32(t.IRQN) & 0x1fff
	return raw & inttrigMask
}

// MaskInttrigWrite masks a raw write value to clicinttrig's legal bits,
// for callers that store the raw form directly instead of round-tripping
// through Inttrig.
func MaskInttrigWrite(raw uint32) uint32 {
	return raw & inttrigMask
}
