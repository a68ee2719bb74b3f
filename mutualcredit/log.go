package mutualcredit

import "github.com/btcsuite/btclog"

// log is the package-level subsystem logger. It defaults to a disabled
// logger so the package is silent until a host process wires one in via
// UseLogger, matching every subsystem logger in the teacher codebase.
var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
