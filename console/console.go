/*
 * riscv-clic - Interactive register inspector.
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

// Package console implements an interactive "clicctl>" register inspector
// over a running clic.CLIC, in the same liner-backed REPL style the
// teacher machine's command/reader and command/parser packages use for its
// operator console. It is a development aid; nothing in package clic
// imports it.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/rcornwell/riscv-clic/clic"
)

type cmd struct {
	name    string
	min     int
	process func(args []string, v *clic.View, c *clic.CLIC) (bool, error)
}

var cmdList = []cmd{
	{name: "show", min: 2, process: show},
	{name: "enable", min: 2, process: setEnable},
	{name: "disable", min: 2, process: setDisable},
	{name: "pending", min: 3, process: setPending},
	{name: "line", min: 2, process: setLine},
	{name: "attr", min: 2, process: setAttr},
	{name: "ctl", min: 2, process: setCtl},
	{name: "threshold", min: 3, process: setThreshold},
	{name: "stats", min: 3, process: stats},
	{name: "quit", min: 1, process: quit},
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	name = strings.ToLower(name)
	var matches []cmd
	for _, c := range cmdList {
		if len(name) < c.min {
			continue
		}
		if strings.HasPrefix(c.name, name) {
			matches = append(matches, c)
		}
	}
	return matches
}

func completeNames(line string) []string {
	var out []string
	for _, c := range cmdList {
		if strings.HasPrefix(c.name, strings.ToLower(line)) {
			out = append(out, c.name)
		}
	}
	return out
}

// Run starts the interactive register inspector against view, blocking
// until the user quits or aborts the prompt (Ctrl-D/Ctrl-C).
func Run(v *clic.View, c *clic.CLIC) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeNames)

	for {
		input, err := line.Prompt("clicctl> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("console: error reading line", "error", err)
			return
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		matches := matchList(fields[0])
		switch len(matches) {
		case 0:
			fmt.Println("unknown command:", fields[0])
			continue
		case 1:
			// fall through
		default:
			fmt.Println("ambiguous command:", fields[0])
			continue
		}

		quit, err := matches[0].process(fields[1:], v, c)
		if err != nil {
			fmt.Println("error:", err)
		}
		if quit {
			return
		}
	}
}

func parseIRQ(args []string) (uint16, []string, error) {
	if len(args) == 0 {
		return 0, nil, errors.New("missing irq number")
	}
	n, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return 0, nil, fmt.Errorf("bad irq number %q: %w", args[0], err)
	}
	return uint16(n), args[1:], nil
}

func show(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	if len(args) == 0 {
		return false, errors.New("usage: show <irq>")
	}
	irq, _, err := parseIRQ(args)
	if err != nil {
		return false, err
	}
	fmt.Printf("irq %d: pending=%v line=%v level=%#x\n", irq, c.Pending(irq), c.Line(irq), c.Level(irq))
	return false, nil
}

func setEnable(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	irq, rest, err := parseIRQ(args)
	if err != nil {
		return false, err
	}
	enable := true
	if len(rest) > 0 && (rest[0] == "0" || rest[0] == "off") {
		enable = false
	}
	v.Write(0x1000+uint32(irq)*4+1, 1, boolByte(enable))
	return false, nil
}

func setDisable(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	irq, _, err := parseIRQ(args)
	if err != nil {
		return false, err
	}
	v.Write(0x1000+uint32(irq)*4+1, 1, boolByte(false))
	return false, nil
}

func setPending(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	irq, rest, err := parseIRQ(args)
	if err != nil {
		return false, err
	}
	if len(rest) == 0 {
		return false, errors.New("usage: pending <irq> <0|1>")
	}
	val := rest[0] == "1"
	v.Write(0x1000+uint32(irq)*4+0, 1, boolByte(val))
	return false, nil
}

func setLine(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	irq, rest, err := parseIRQ(args)
	if err != nil {
		return false, err
	}
	if len(rest) == 0 {
		return false, errors.New("usage: line <irq> <0|1>")
	}
	return false, c.SetLine(irq, rest[0] == "1")
}

func setAttr(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	irq, rest, err := parseIRQ(args)
	if err != nil {
		return false, err
	}
	if len(rest) == 0 {
		return false, errors.New("usage: attr <irq> <hex>")
	}
	raw, err := strconv.ParseUint(rest[0], 0, 8)
	if err != nil {
		return false, err
	}
	v.Write(0x1000+uint32(irq)*4+2, 1, raw)
	return false, nil
}

func setCtl(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	irq, rest, err := parseIRQ(args)
	if err != nil {
		return false, err
	}
	if len(rest) == 0 {
		return false, errors.New("usage: ctl <irq> <hex>")
	}
	raw, err := strconv.ParseUint(rest[0], 0, 8)
	if err != nil {
		return false, err
	}
	v.Write(0x1000+uint32(irq)*4+3, 1, raw)
	return false, nil
}

func setThreshold(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	if len(args) < 2 {
		return false, errors.New("usage: threshold <u|s|m> <hex>")
	}
	raw, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return false, err
	}
	var mode clic.Mode
	switch strings.ToLower(args[0]) {
	case "u":
		mode = clic.ModeU
	case "s":
		mode = clic.ModeS
	case "m":
		mode = clic.ModeM
	default:
		return false, fmt.Errorf("unknown mode %q", args[0])
	}
	c.SetThreshold(mode, uint8(raw))
	return false, nil
}

func stats(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	s := c.Stats()
	fmt.Printf("pending=%d enabled=%d deliveries=%d\n", s.Pending, s.Enabled, s.Deliveries)
	return false, nil
}

func quit(args []string, v *clic.View, c *clic.CLIC) (bool, error) {
	return true, nil
}

func boolByte(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
