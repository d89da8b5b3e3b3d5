/*
 * riscv-clic - Configuration file parser
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

// Package clicconfig parses a line-oriented configuration file describing
// one or more CLIC instances, in the same hand-rolled-scanner style the
// rest of this codebase uses for its config files rather than a
// struct-tag-driven library.
//
// Configuration file format:
//
//	'#' indicates comment, rest of line is ignored.
//	<line> := 'clic' <ws> <base> <ws> *(<option> <ws>)
//	<base>    ::= '0x' <hex>
//	<option>  ::= 'hart=' <number>
//	            | 'sources=' <number>
//	            | 'ctlbits=' <number>
//	            | 'version=' <string>
//	            | 'smode' | 'umode'
//	            | 'sbase=' <base> | 'ubase=' <base>
//	            | 'shv'
//
// nmbits is a runtime cliccfg field, not a construction-time option; it is
// set after clic.New through the normal MMIO write path, so it has no
// stanza option here.
//
// Example:
//
//	clic 0x02000000 hart=0 sources=4096 ctlbits=4 version=v0.9 smode umode sbase=0x02010000
package clicconfig

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rcornwell/riscv-clic/clic"
)

var lineNumber int

// Load reads every "clic" stanza from r and returns one clic.Config per
// stanza, in file order.
func Load(r io.Reader) ([]clic.Config, error) {
	var configs []clic.Config
	seenHarts := make(map[uint32]bool)

	lineNumber = 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNumber++
		line := stripComment(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] != "clic" {
			return nil, fmt.Errorf("clicconfig: line %d: unknown stanza %q", lineNumber, fields[0])
		}
		cfg, err := parseStanza(fields[1:])
		if err != nil {
			return nil, fmt.Errorf("clicconfig: line %d: %w", lineNumber, err)
		}
		if seenHarts[cfg.HartID] {
			return nil, fmt.Errorf("clicconfig: line %d: duplicate hart id %d", lineNumber, cfg.HartID)
		}
		seenHarts[cfg.HartID] = true
		configs = append(configs, cfg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("clicconfig: %w", err)
	}
	return configs, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// parseStanza fills in a Config with the defaults spec §3 names and
// overlays whatever options this stanza supplies.
func parseStanza(fields []string) (clic.Config, error) {
	if len(fields) == 0 {
		return clic.Config{}, fmt.Errorf("missing base address")
	}

	cfg := clic.Config{
		NumSources: 4096,
		CtlBits:    8,
		Version:    "v0.9",
	}

	base, err := parseHex(fields[0])
	if err != nil {
		return clic.Config{}, fmt.Errorf("base address %q: %w", fields[0], err)
	}
	cfg.MBase = uint32(base)

	for _, tok := range fields[1:] {
		name, value, hasValue := strings.Cut(tok, "=")
		switch strings.ToLower(name) {
		case "hart":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return clic.Config{}, fmt.Errorf("hart=%q: %w", value, err)
			}
			cfg.HartID = uint32(n)

		case "sources":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return clic.Config{}, fmt.Errorf("sources=%q: %w", value, err)
			}
			cfg.NumSources = int(n)

		case "ctlbits":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return clic.Config{}, fmt.Errorf("ctlbits=%q: %w", value, err)
			}
			cfg.CtlBits = int(n)

		case "version":
			if !hasValue {
				return clic.Config{}, fmt.Errorf("version requires a value")
			}
			cfg.Version = value

		case "smode":
			cfg.SupportsS = true

		case "umode":
			cfg.SupportsU = true

		case "shv":
			cfg.ShvEnabled = true

		case "sbase":
			n, err := parseHex(value)
			if err != nil {
				return clic.Config{}, fmt.Errorf("sbase=%q: %w", value, err)
			}
			cfg.SBase = uint32(n)
			cfg.SupportsS = true

		case "ubase":
			n, err := parseHex(value)
			if err != nil {
				return clic.Config{}, fmt.Errorf("ubase=%q: %w", value, err)
			}
			cfg.UBase = uint32(n)
			cfg.SupportsU = true

		default:
			return clic.Config{}, fmt.Errorf("unknown option %q", tok)
		}
	}

	return cfg, nil
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}
