/*
 * riscv-clic - External line-level transitions into pending-bit updates.
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

// Package inputdriver translates external GPIO line-level transitions into
// pending-bit updates per spec §4.4. It is a single pure function: the
// owning CLIC holds the lock and decides whether to re-arbitrate.
package inputdriver

import bf "github.com/rcornwell/riscv-clic/internal/bitfield"

// NextPending computes the new intip bit for an IRQ given its trigger
// configuration and the new external line level. line is true for a
// logic-1 line level.
//
//	Trigger    line=1 does     line=0 does
//	PosLevel   intip=1         intip=0
//	PosEdge    intip=1         no-op (retain cur)
//	NegLevel   intip=0         intip=1
//	NegEdge    no-op (retain)  intip=1
func NextPending(trig bf.Trig, line bool, cur bool) bool {
	switch trig {
	case bf.PosLevel:
		return line
	case bf.PosEdge:
		if line {
			return true
		}
		return cur
	case bf.NegLevel:
		return !line
	case bf.NegEdge:
		if !line {
			return true
		}
		return cur
	default:
		return cur
	}
}
