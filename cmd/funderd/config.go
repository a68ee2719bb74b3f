package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename     = "funderd.conf"
	defaultDataDir            = ".funderd"
	defaultMaxOperationsBatch = 100
	defaultLogLevel           = "info"
)

// config holds the knobs the core actually consumes, in the flag-tag style
// of the teacher's CLI entrypoints: only MaxOperationsInBatch, relay listen
// addresses, the friend bootstrap file, log level and the persistence DSN
// are exposed. Wire-transport, TLS and chain-backend flags are
// intentionally absent (spec.md §1 non-goals).
type config struct {
	DataDir string `long:"datadir" description:"Directory to store the local identity key"`

	DSN string `long:"dsn" description:"Postgres DSN for the funderdb mutation log" required:"true"`

	MaxOperationsInBatch int `long:"maxopsperbatch" description:"Maximum operations bundled into one outgoing move-token"`

	OwnedRelays []string `long:"relay" description:"pubkeyhex:address:name triples this node advertises as its own relay (may be repeated)"`

	FriendsFile string `long:"friendsfile" description:"Path to a JSON file bootstrapping friend records on first run"`

	LogLevel string `long:"loglevel" description:"Logging level (trace, debug, info, warn, error, critical)"`
}

// loadConfig parses command-line flags over a set of defaults, the way the
// teacher's CLI entrypoints layer flags over a defaultConfig, minus the
// config-file and net-params machinery this daemon has no use for.
func loadConfig() (*config, error) {
	cfg := config{
		DataDir:              defaultDataDir,
		MaxOperationsInBatch: defaultMaxOperationsBatch,
		LogLevel:             defaultLogLevel,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("unable to create data directory: %w", err)
	}

	return &cfg, nil
}

func (c *config) identityKeyPath() string {
	return filepath.Join(c.DataDir, "identity.key")
}
