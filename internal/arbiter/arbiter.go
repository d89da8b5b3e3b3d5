/*
 * riscv-clic - Active-set arbitration.
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

// Package arbiter implements the delivery-scan algorithm of spec §4.7: given
// the sorted active set and per-mode floors, it finds the highest-ranked
// ready interrupt. It never mutates irqstate or activeset; the clic package
// passes in already-decoded candidates and applies the returned Result
// itself, so the algorithm here stays a pure scan, mirroring how the teacher's ChanScan only touches the channel
// structures it is handed rather than global state.
package arbiter

import bf "github.com/rcornwell/riscv-clic/internal/bitfield"

// Floor gives the minimum level required to interrupt each mode, i.e.
// max(current in-hart interrupt level for that mode, that mode's
// threshold register).
type Floor struct {
	U, S, M uint8
}

func (f Floor) forMode(m bf.Mode) uint8 {
	switch m {
	case bf.ModeU:
		return f.U
	case bf.ModeS:
		return f.S
	default:
		return f.M
	}
}

// Candidate describes one entry from the active set, already decoded.
type Candidate struct {
	IRQ     uint16
	Mode    bf.Mode
	Level   uint8
	Pending bool
	SHV     bool
	Edge    bool
}

// Result is what the arbiter decided to deliver, if anything.
type Result struct {
	Delivered bool
	Exccode   uint32
	IRQ       uint16
	AutoClear bool // true if the delivered IRQ's pending bit must be cleared
}

// Decode reconstructs mode/level/ctl from an activeset.Entry's intcfg, given
// mnlbits and ctlbits, without importing activeset (keeps this package a
// leaf with no sibling-internal-package dependency beyond bitfield).
func Decode(intcfg uint16, mnlbits, ctlbits int) (mode bf.Mode, level, ctl uint8) {
	mode = bf.Mode((intcfg >> 8) & 0x3)
	ctl = uint8(intcfg & 0xff)
	level = bf.Level(ctl, mnlbits, ctlbits)
	return
}

// Arbitrate scans candidates, already in priority-descending order (as
// produced by activeset.Set.Entries), and returns the first one that is
// both within floor and currently pending. currentPriv is the hart's
// current privilege mode: candidates at a strictly lower mode, or at an
// equal mode but below that mode's floor, terminate the scan immediately
// per spec §4.7 step 3, since nothing lower-ranked can interrupt either.
func Arbitrate(candidates []Candidate, floor Floor, currentPriv bf.Mode) Result {
	for _, c := range candidates {
		if c.Mode < currentPriv {
			break
		}
		if c.Mode == currentPriv && c.Level < floor.forMode(c.Mode) {
			break
		}
		if !c.Pending {
			continue
		}
		return Result{
			Delivered: true,
			Exccode:   bf.EncodeExccode(c.IRQ, c.Mode, c.Level),
			IRQ:       c.IRQ,
			AutoClear: c.SHV && c.Edge,
		}
	}
	return Result{}
}
