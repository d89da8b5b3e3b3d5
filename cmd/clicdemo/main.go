/*
 * riscv-clic - Demo process.
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

package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/riscv-clic/clic"
	"github.com/rcornwell/riscv-clic/config/clicconfig"
	"github.com/rcornwell/riscv-clic/console"
	logger "github.com/rcornwell/riscv-clic/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "clic.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optInteractive := getopt.BoolLong("interactive", 'i', "Start the register inspector console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file io.Writer
	if optLogFile != nil && *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			slog.Error("cannot create log file", "path", *optLogFile, "error", err)
			os.Exit(1)
		}
		file = f
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	debug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	Logger.Info("riscv-clic demo started")

	f, err := os.Open(*optConfig)
	if err != nil {
		Logger.Error("cannot open configuration file", "path", *optConfig, "error", err)
		os.Exit(1)
	}
	configs, err := clicconfig.Load(f)
	f.Close()
	if err != nil {
		Logger.Error("cannot parse configuration file", "error", err)
		os.Exit(1)
	}
	if len(configs) == 0 {
		Logger.Error("configuration file defines no clic stanzas", "path", *optConfig)
		os.Exit(1)
	}

	controllers := make([]*clic.CLIC, 0, len(configs))
	for _, cfg := range configs {
		c, err := clic.New(cfg, clic.StaticPrivilege(clic.ModeM), clic.LineFunc(func(raised bool, exccode uint32) {
			irq, mode, level := clic.DecodeExccode(exccode)
			Logger.Debug("line update", "raised", raised, "irq", irq, "mode", mode, "level", level)
		}), Logger)
		if err != nil {
			Logger.Error("failed to construct clic", "hart", cfg.HartID, "error", err)
			os.Exit(1)
		}
		controllers = append(controllers, c)
		Logger.Info("clic ready", "hart", cfg.HartID, "base", cfg.MBase, "sources", cfg.NumSources)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *optInteractive {
		console.Run(controllers[0].View(clic.ModeM), controllers[0])
		Logger.Info("console exited")
		return
	}

	<-sigChan
	Logger.Info("shutting down")
}
