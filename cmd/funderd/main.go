package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creditmesh/funderd/ephemeral"
	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/funder"
	"github.com/creditmesh/funderd/funderdb"
	"github.com/creditmesh/funderd/handler"
	flags "github.com/jessevdk/go-flags"
)

// funderdMain is the true entry point, nested the way lndMain is nested
// inside main() so deferred cleanup still runs on a graceful return.
func funderdMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	useLoggers(cfg.LogLevel)
	fndrLog.Infof("funderd starting, datadir=%s", cfg.DataDir)

	signer, err := loadOrCreateSigner(cfg.identityKeyPath())
	if err != nil {
		return err
	}
	fndrLog.Infof("local identity: %s", signer.PublicKey())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := funderdb.Open(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("unable to open funderdb: %w", err)
	}
	defer db.Close(ctx)

	state, err := db.Recover(ctx, signer.PublicKey())
	if err != nil {
		if err != funderdb.ErrNoState {
			return fmt.Errorf("unable to recover funder state: %w", err)
		}
		fndrLog.Info("no recorded mutations found, starting from empty state")
		state = funder.NewState(signer.PublicKey())
	}

	liveness := ephemeral.NewLiveness()
	h := handler.New(state, liveness, signer, handler.Config{
		MaxOperationsInBatch: cfg.MaxOperationsInBatch,
	})

	apply := func(out *handler.Output) error {
		if out == nil || len(out.FunderMutations) == 0 {
			return nil
		}
		return db.AppendMutations(ctx, signer.PublicKey(), out.FunderMutations)
	}

	relays, err := parseOwnedRelays(cfg.OwnedRelays)
	if err != nil {
		return err
	}
	for _, r := range relays {
		out, err := h.Handle(handler.ControlEvent{Command: handler.CmdAddRelay{
			PublicKey: r.PublicKey,
			Address:   r.Address,
			Name:      r.Name,
		}})
		if err != nil {
			return fmt.Errorf("unable to add owned relay %q: %w", r.Name, err)
		}
		if err := apply(out); err != nil {
			return err
		}
	}

	friendCmds, err := loadFriendsFile(cfg.FriendsFile)
	if err != nil {
		return err
	}
	for _, cmd := range friendCmds {
		out, err := h.Handle(handler.ControlEvent{Command: cmd})
		if err != nil {
			if err == funder.ErrFriendExists {
				fndrLog.Debugf("friend %s already on record, skipping bootstrap entry", cmd.Name)
				continue
			}
			return fmt.Errorf("unable to add friend %q: %w", cmd.Name, err)
		}
		if err := apply(out); err != nil {
			return err
		}
	}

	out, err := h.Handle(handler.InitEvent{})
	if err != nil {
		return fmt.Errorf("unable to run init event: %w", err)
	}
	if err := apply(out); err != nil {
		return err
	}

	fndrLog.Infof("funderd ready: %d friends on record", len(state.Friends))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fndrLog.Info("funderd shutting down")
	return nil
}

// parseOwnedRelays turns each --relay flag value (pubkeyhex:address:name)
// into a CmdAddRelay-ready friend.Relay.
func parseOwnedRelays(raw []string) ([]friend.Relay, error) {
	relays := make([]friend.Relay, 0, len(raw))
	for _, entry := range raw {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --relay entry %q, want pubkeyhex:address:name", entry)
		}
		pk, err := parsePublicKey(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid --relay entry %q: %w", entry, err)
		}
		relays = append(relays, friend.Relay{PublicKey: [33]byte(pk), Address: parts[1], Name: parts[2]})
	}
	return relays, nil
}

func main() {
	if err := funderdMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
