/*
 * psx-sub000 - Main process.
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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	debughook "github.com/tlbanken/psx-sub000/emu/debug"
	"github.com/tlbanken/psx-sub000/emu/irq"
	"github.com/tlbanken/psx-sub000/emu/system"
	logger "github.com/tlbanken/psx-sub000/util/logger"
)

var Logger *slog.Logger

func main() {
	optBios := getopt.StringLong("bios", 'b', "", "BIOS image path")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Enable breakpoint/hex-dump debug hooks")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optDebug))
	slog.SetDefault(Logger)

	Logger.Info("psx-sub000 started")
	if *optBios == "" {
		Logger.Error("please specify a BIOS image with -bios")
		os.Exit(1)
	}

	image, err := os.ReadFile(*optBios)
	if err != nil {
		Logger.Error("unable to read BIOS image", "path", *optBios, "err", err.Error())
		os.Exit(1)
	}

	machine, err := system.New(image, nil)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	if *optDebug {
		watcher := debughook.New()
		machine.Bus().SetWatcher(watcher)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
loop:
	for {
		select {
		case <-sigChan:
			Logger.Info("got quit signal")
			break loop
		default:
		}

		frameComplete, stepErr := machine.Step()
		if stepErr != nil {
			Logger.Error("fatal emulation error", "err", stepErr.Error())
			exitCode = 1
			break loop
		}
		if frameComplete {
			machine.IRQ().Signal(irq.Vblank)
		}
	}

	Logger.Info("shutting down")
	os.Exit(exitCode)
}
