package handler

import "github.com/btcsuite/btclog"

var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// logClosure defers evaluation of a log line's arguments until (and unless)
// the active logger actually formats it, the way peer.go avoids
// spew.Sdump-ing every message at Trace level even when tracing is off.
type logClosure func() string

func (c logClosure) String() string { return c() }

func newLogClosure(c func() string) logClosure { return logClosure(c) }
