//go:build windows

package main

import "os"

// terminationSignals lists the signals that trigger a graceful shutdown.
// Windows has no SIGTERM delivery; rely on interrupt only.
var terminationSignals = []os.Signal{os.Interrupt}
