/*
 * riscv-clic - MMIO offset decoding for a CLIC view.
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

// Package regdecoder maps a byte offset within a CLIC view's MMIO region to
// a named register, per spec §4.6/§6. It is a pure decode step: it never
// touches IrqState itself, returning a Target the clic package then reads
// or mutates under its lock.
package regdecoder

import "fmt"

// Offsets within the control region, before the per-IRQ register bank.
const (
	OffCliccfg    = 0x0000
	OffMintthresh = 0x0008
	OffInttrigLo  = 0x0040
	OffInttrigHi  = 0x00BC // last clicinttrig[31]
	PerIRQBase    = 0x1000
)

// RegKind identifies which register an offset decoded to.
type RegKind int

const (
	KindNone RegKind = iota
	KindCliccfg
	KindMintthresh
	KindInttrig
	KindIntIP
	KindIntIE
	KindIntAttr
	KindIntCtl
)

// Fault enumerates the runtime-recoverable error kinds of spec §7. It is
// never returned across the View.Read/View.Write boundary; it exists so
// Decode (and its tests) can report *why* an access degraded to a dropped
// write / zero read.
type Fault int

const (
	FaultNone Fault = iota
	FaultMisaligned
	FaultOutOfRange
	FaultInvalidIRQ
)

func (f Fault) String() string {
	switch f {
	case FaultMisaligned:
		return "MisalignedAccess"
	case FaultOutOfRange:
		return "OutOfRange"
	case FaultInvalidIRQ:
		return "InvalidIrq"
	default:
		return "none"
	}
}

// Target is the decoded destination of one byte-granular MMIO access.
type Target struct {
	Kind    RegKind
	IRQ     uint16 // valid when Kind is one of the per-IRQ kinds
	TrigIdx int    // valid when Kind == KindInttrig
	Byte    int    // byte position (0-3) within a multi-byte register
	Fault   Fault
}

// Decode resolves a single byte offset into a Target. numSources bounds
// the per-IRQ register bank; version controls whether mintthresh decodes
// (v0.8 legacy only, per spec §4.6/§9). cliccfg, mintthresh, and each
// clicinttrig[n] are 32-bit registers spanning 4 consecutive byte offsets;
// Byte reports which of those four bytes this offset addressed so the
// caller can assemble or decompose a multi-byte access.
func Decode(offset uint32, numSources int, version string) Target {
	switch {
	case offset >= OffCliccfg && offset < OffCliccfg+4:
		return Target{Kind: KindCliccfg, Byte: int(offset - OffCliccfg)}

	case offset >= OffMintthresh && offset < OffMintthresh+4:
		if version == "v0.8" {
			return Target{Kind: KindMintthresh, Byte: int(offset - OffMintthresh)}
		}
		return Target{Kind: KindNone, Fault: FaultOutOfRange}

	case offset >= OffInttrigLo && offset < OffInttrigHi+4:
		rel := offset - OffInttrigLo
		return Target{Kind: KindInttrig, TrigIdx: int(rel / 4), Byte: int(rel % 4)}

	case offset >= PerIRQBase:
		rel := offset - PerIRQBase
		irq := rel / 4
		reg := rel % 4
		if irq >= uint32(numSources) {
			return Target{Kind: KindNone, Fault: FaultInvalidIRQ}
		}
		switch reg {
		case 0:
			return Target{Kind: KindIntIP, IRQ: uint16(irq)}
		case 1:
			return Target{Kind: KindIntIE, IRQ: uint16(irq)}
		case 2:
			return Target{Kind: KindIntAttr, IRQ: uint16(irq)}
		default:
			return Target{Kind: KindIntCtl, IRQ: uint16(irq)}
		}

	default:
		return Target{Kind: KindNone, Fault: FaultOutOfRange}
	}
}

// CheckAlignment verifies that width is 1, 2, 4, or 8 and that offset is
// aligned to width. Per spec §4.6, 1/2/4/8-byte accesses decompose into
// byte accesses starting at the low byte; apart from an unsupported width,
// this check only rejects a width that does not evenly divide the access
// start, matching the MisalignedAccess kind.
func CheckAlignment(offset uint32, width int) error {
	switch width {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("regdecoder: unsupported access width %d", width)
	}
	if width > 1 && offset%uint32(width) != 0 {
		return fmt.Errorf("regdecoder: %w at offset %#x width %d", errMisaligned, offset, width)
	}
	return nil
}

var errMisaligned = fmt.Errorf("misaligned access")
