package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/creditmesh/funderd/friend"
	"github.com/creditmesh/funderd/handler"
	"github.com/creditmesh/funderd/identity"
	"github.com/creditmesh/funderd/mutualcredit"
)

// friendBootstrap is one entry of the JSON friends file named by
// config.FriendsFile: a one-shot description of a friend record to create
// if the mutation log doesn't already know about it.
type friendBootstrap struct {
	PublicKey      string `json:"public_key"`
	Name           string `json:"name"`
	OpeningBalance int64  `json:"opening_balance"`
	Relays         []struct {
		PublicKey string `json:"public_key"`
		Address   string `json:"address"`
		Name      string `json:"name"`
	} `json:"relays"`
}

// loadFriendsFile parses path and returns one CmdAddFriend per entry, or
// nil if path is empty (no bootstrap file configured).
func loadFriendsFile(path string) ([]handler.CmdAddFriend, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read friends file: %w", err)
	}

	var entries []friendBootstrap
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unable to parse friends file: %w", err)
	}

	cmds := make([]handler.CmdAddFriend, 0, len(entries))
	for _, e := range entries {
		pk, err := parsePublicKey(e.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("friend %q: %w", e.Name, err)
		}

		relays := make([]friend.Relay, 0, len(e.Relays))
		for _, r := range e.Relays {
			relayKey, err := parsePublicKey(r.PublicKey)
			if err != nil {
				return nil, fmt.Errorf("friend %q relay %q: %w", e.Name, r.Name, err)
			}
			relays = append(relays, friend.Relay{
				PublicKey: [33]byte(relayKey),
				Address:   r.Address,
				Name:      r.Name,
			})
		}

		cmds = append(cmds, handler.CmdAddFriend{
			PublicKey: pk,
			Relays:    relays,
			Name:      e.Name,
			Balance:   mutualcredit.BalanceFromInt64(e.OpeningBalance),
		})
	}
	return cmds, nil
}

func parsePublicKey(hexStr string) (identity.PublicKey, error) {
	var pk identity.PublicKey
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return pk, fmt.Errorf("invalid public key hex: %w", err)
	}
	if len(raw) != len(pk) {
		return pk, fmt.Errorf("public key must be %d bytes, got %d", len(pk), len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}
