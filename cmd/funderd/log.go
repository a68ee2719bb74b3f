package main

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/funderdb"
	"github.com/creditmesh/funderd/handler"
	"github.com/creditmesh/funderd/mutualcredit"
	"github.com/creditmesh/funderd/tokenchannel"
)

// backendLog is the single logging backend every subsystem logger below is
// created from, the way daemon/log.go wires breez-lightninglib's
// subsystemLoggers off one shared btclog.Backend.
var backendLog = btclog.NewBackend(os.Stdout)

var (
	mtcrLog = backendLog.Logger("MTCR")
	tkchLog = backendLog.Logger("TKCH")
	frndLog = backendLog.Logger("FRND")
	fndrLog = backendLog.Logger("FNDR")
	hndlLog = backendLog.Logger("HNDL")
	fdbLog  = backendLog.Logger("FNDB")
)

// useLoggers wires every package's UseLogger the way daemon/log.go's init()
// registers lnwallet.UseLogger, channeldb.UseLogger, and so on off the same
// backend.
func useLoggers(level string) {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		lvl = btclog.LevelInfo
	}

	for _, l := range []btclog.Logger{mtcrLog, tkchLog, frndLog, fndrLog, hndlLog, fdbLog} {
		l.SetLevel(lvl)
	}

	mutualcredit.UseLogger(mtcrLog)
	tokenchannel.UseLogger(tkchLog)
	friend.UseLogger(frndLog)
	funder.UseLogger(fndrLog)
	handler.UseLogger(hndlLog)
	funderdb.UseLogger(fdbLog)
}
