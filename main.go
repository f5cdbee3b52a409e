// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"os/signal"
	"runtime"

	"github.com/BOXFoundation/tzvm/commands/tzvm"
	root "github.com/BOXFoundation/tzvm/commands/tzvm/root"
	"github.com/BOXFoundation/tzvm/log"
)

var logger = log.NewLogger("main")

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	interruptListener()
	defer root.RootProcess.Close()
	tzvm.Execute()
}

// interruptListener listens for OS Signals such as SIGINT (Ctrl+C) and
// closes the root process, which closes the open database.
func interruptListener() {
	var interruptSignals = []os.Signal{os.Interrupt}

	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		for {
			select {
			case sig := <-interruptChannel:
				logger.Infof("Received signal (%s). Shutting down...", sig)
				root.RootProcess.Close()
				os.Exit(1)
			case <-root.RootProcess.Closed():
				return
			}
		}
	}()
}
