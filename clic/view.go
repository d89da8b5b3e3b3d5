/*
 * riscv-clic - Memory-mapped view onto a CLIC instance.
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

package clic

import (
	bf "github.com/rcornwell/riscv-clic/internal/bitfield"
	"github.com/rcornwell/riscv-clic/internal/modefilter"
	"github.com/rcornwell/riscv-clic/internal/regdecoder"
)

// View is one privilege mode's window onto a CLIC's register file (spec
// §4.5, §6). A CLIC with S and U support exposes up to three Views sharing
// one underlying controller; each View only sees and can only mutate the
// IRQs whose effective mode the visibility predicate admits.
type View struct {
	c    *CLIC
	mode Mode
	base uint32
}

func newView(c *CLIC, mode Mode, base uint32) *View {
	return &View{c: c, mode: mode, base: base}
}

// Mode returns the privilege level this view represents.
func (v *View) Mode() Mode { return v.mode }

// Base returns the view's configured MMIO base address.
func (v *View) Base() uint32 { return v.base }

// reachable enforces spec §4.6's rule that a view bound to a given mode is
// only reachable while the hart is actually running at or above that mode:
// code running at U cannot poke the M view's registers even if something
// wired its address onto the bus within reach.
func (v *View) reachable() bool {
	return v.mode <= v.c.priv.CurrentPrivilege()
}

// Read performs a width-byte little-endian read at offset. width must be
// 1, 2, 4, or 8. Per spec §7, a misaligned access or an access from a
// privilege that cannot reach this view is a runtime-recoverable fault: it
// is logged and the read degrades to zero, rather than surfacing as a Go
// error on this hot path.
func (v *View) Read(offset uint32, width int) uint64 {
	if err := regdecoder.CheckAlignment(offset, width); err != nil {
		v.c.log.Warn("misaligned clic access", "offset", offset, "width", width, "mode", modeName(v.mode))
		return 0
	}
	if !v.reachable() {
		v.c.log.Warn("clic access from unreachable privilege", "offset", offset, "mode", modeName(v.mode), "privilege", modeName(v.c.priv.CurrentPrivilege()))
		return 0
	}

	v.c.mu.Lock()
	defer v.c.mu.Unlock()

	var out uint64
	for b := 0; b < width; b++ {
		val := v.readByteLocked(offset + uint32(b))
		out |= uint64(val) << (8 * b)
	}
	return out
}

// Write performs a width-byte little-endian write of value at offset. As
// with Read, a fault degrades to a dropped write rather than a returned
// error.
func (v *View) Write(offset uint32, width int, value uint64) {
	if err := regdecoder.CheckAlignment(offset, width); err != nil {
		v.c.log.Warn("misaligned clic access", "offset", offset, "width", width, "mode", modeName(v.mode))
		return
	}
	if !v.reachable() {
		v.c.log.Warn("clic access from unreachable privilege", "offset", offset, "mode", modeName(v.mode), "privilege", modeName(v.c.priv.CurrentPrivilege()))
		return
	}

	v.c.mu.Lock()
	defer v.c.mu.Unlock()

	for b := 0; b < width; b++ {
		v.writeByteLocked(offset+uint32(b), uint8(value>>(8*b)))
	}
}

// visibleLocked reports whether irq is visible to this view right now.
func (v *View) visibleLocked(irq uint16) bool {
	eff := v.c.effectiveMode(irq)
	return modefilter.Visible(v.mode, eff, v.c.global.NMBits, v.c.supported())
}

func (v *View) readByteLocked(offset uint32) uint8 {
	c := v.c
	target := regdecoder.Decode(offset, c.cfg.NumSources, c.cfg.Version)

	switch target.Kind {
	case regdecoder.KindCliccfg:
		return byteOf(bf.EncodeCliccfg(c.global), target.Byte)

	case regdecoder.KindMintthresh:
		return byteOf(uint32(c.thresh[modeIndex(ModeM)]), target.Byte)

	case regdecoder.KindInttrig:
		return byteOf(bf.EncodeInttrig(c.inttrig[target.TrigIdx]), target.Byte)

	case regdecoder.KindIntIP:
		if !v.visibleLocked(target.IRQ) {
			return 0
		}
		return c.table.Pending(target.IRQ)

	case regdecoder.KindIntIE:
		if !v.visibleLocked(target.IRQ) {
			return 0
		}
		return c.table.Enable(target.IRQ)

	case regdecoder.KindIntAttr:
		if !v.visibleLocked(target.IRQ) {
			return 0
		}
		return c.table.AttrRaw(target.IRQ)

	case regdecoder.KindIntCtl:
		if !v.visibleLocked(target.IRQ) {
			return 0
		}
		return bf.ReadCtl(c.table.CtlRaw(target.IRQ), c.cfg.CtlBits)

	default:
		c.log.Warn("clic access to unmapped offset", "offset", offset, "mode", modeName(v.mode), "fault", target.Fault.String())
		return 0
	}
}

func (v *View) writeByteLocked(offset uint32, b uint8) {
	c := v.c
	target := regdecoder.Decode(offset, c.cfg.NumSources, c.cfg.Version)

	switch target.Kind {
	case regdecoder.KindCliccfg:
		// cliccfg packs mnlbits/nmbits in byte 0 (M-only), snlbits in byte
		// 2, and unlbits in byte 3. Per spec §9's open-question resolution,
		// snlbits and unlbits are independently writable from their own
		// mode's view (S, U) in addition to M; mnlbits/nmbits stay M-only.
		switch target.Byte {
		case 2:
			if v.mode != ModeM && v.mode != ModeS {
				return
			}
		case 3:
			if v.mode != ModeM && v.mode != ModeU {
				return
			}
		default:
			if v.mode != ModeM {
				return
			}
		}
		raw := mergeByte(bf.EncodeCliccfg(c.global), target.Byte, b)
		c.setCliccfgLocked(raw)

	case regdecoder.KindMintthresh:
		if v.mode != ModeM || target.Byte != 0 {
			return
		}
		c.setMintthreshLocked(b)

	case regdecoder.KindInttrig:
		if v.mode != ModeM {
			return
		}
		raw := mergeByte(bf.EncodeInttrig(c.inttrig[target.TrigIdx]), target.Byte, b)
		c.setInttrigLocked(target.TrigIdx, raw)

	case regdecoder.KindIntIP:
		if !v.visibleLocked(target.IRQ) {
			return
		}
		c.setPendingSoftwareLocked(target.IRQ, b&1 != 0)

	case regdecoder.KindIntIE:
		if !v.visibleLocked(target.IRQ) {
			return
		}
		c.setEnableLocked(target.IRQ, b&1 != 0)

	case regdecoder.KindIntAttr:
		if !v.visibleLocked(target.IRQ) {
			return
		}
		c.setAttrLocked(target.IRQ, b)

	case regdecoder.KindIntCtl:
		if !v.visibleLocked(target.IRQ) {
			return
		}
		c.setCtlLocked(target.IRQ, b)

	default:
		c.log.Warn("clic access to unmapped offset", "offset", offset, "mode", modeName(v.mode), "fault", target.Fault.String())
	}
}

func byteOf(v uint32, pos int) uint8 {
	return uint8(v >> (8 * pos))
}

func mergeByte(orig uint32, pos int, b uint8) uint32 {
	shift := uint(8 * pos)
	mask := uint32(0xff) << shift
	return (orig &^ mask) | uint32(b)<<shift
}
