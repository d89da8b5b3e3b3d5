/*
 * riscv-clic - Multi-mode visibility and effective-mode coercion.
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

// Package modefilter implements the visibility predicate and effective-mode
// WARL coercion that overlay S- and U-mode views onto the M-mode register
// file (spec §4.5). It is pure and stateless: every function takes the
// CLIC's supported-mode configuration explicitly rather than reaching into
// shared state.
package modefilter

import bf "github.com/rcornwell/riscv-clic/internal/bitfield"

// Supported records which privilege modes a CLIC instance exposes.
type Supported struct {
	S bool
	U bool
}

// maxNMBits returns the legal range ceiling for cliccfg.nmbits given which
// modes are supported (spec §3: nmbits <= supports_s + supports_u).
func (s Supported) maxNMBits() uint8 {
	n := uint8(0)
	if s.S {
		n++
	}
	if s.U {
		n++
	}
	return n
}

// CoerceNMBits clamps a requested nmbits value to the legal range for this
// configuration, implementing the cliccfg WARL rule from spec §8 scenario
// 6 (an M-only CLIC can never honor a nonzero nmbits).
func CoerceNMBits(requested uint8, s Supported) uint8 {
	max := s.maxNMBits()
	if requested > max {
		return max
	}
	return requested
}

// EffectiveMode computes the effective mode of an IRQ from its raw
// intattr.mode field, per the table in spec §4.5. rawMode 2 is reserved;
// when nmbits permits only M, or nmbits invalidly exceeds what modes are
// supported, the IRQ is pinned to M.
func EffectiveMode(rawMode bf.Mode, nmbits uint8, s Supported) bf.Mode {
	switch nmbits {
	case 0:
		return bf.ModeM
	case 1:
		if !s.S && !s.U {
			return bf.ModeM
		}
		if s.S && !s.U {
			if rawMode <= bf.ModeS {
				return bf.ModeS
			}
			return bf.ModeM
		}
		if s.U && !s.S {
			if rawMode <= bf.ModeS {
				return bf.ModeU
			}
			return bf.ModeM
		}
		// M+S+U with nmbits=1 is a degenerate configuration; fold to the
		// M+S rule since S outranks U when only one bit is available.
		if rawMode <= bf.ModeS {
			return bf.ModeS
		}
		return bf.ModeM
	case 2:
		if s.S && s.U {
			if rawMode == 2 {
				// Reserved encoding: on a fresh decode (not a write-time
				// coercion) we have no "prior stored mode" to retain, so
				// the safest effective mode is M. Write-time retention of
				// the prior mode is handled by CoerceModeOnWrite, which
				// callers use before ever storing a raw byte with mode==2.
				return bf.ModeM
			}
			return rawMode
		}
		return bf.ModeM
	default:
		return bf.ModeM
	}
}

// CoerceModeOnWrite applies the WARL rule for a software write to
// intattr.mode: the reserved encoding (2) is rejected and the previously
// stored raw mode is retained instead (spec §4.1, §7 ReservedMode).
func CoerceModeOnWrite(requested bf.Mode, previous bf.Mode) bf.Mode {
	if requested == 2 {
		return previous
	}
	return requested
}

// Visible implements the visibility predicate of spec §4.5: whether an IRQ
// whose effective mode is effMode is visible to a view accessing at mode
// accessMode, given nmbits and which modes this CLIC supports.
func Visible(accessMode, effMode bf.Mode, nmbits uint8, s Supported) bool {
	if !s.S && !s.U {
		// M-only CLIC.
		return accessMode == bf.ModeM
	}
	switch nmbits {
	case 0:
		return accessMode == bf.ModeM
	case 1:
		return accessMode == bf.ModeM || effMode <= bf.ModeS
	case 2:
		return accessMode >= effMode
	default:
		return accessMode == bf.ModeM
	}
}
