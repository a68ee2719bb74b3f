package main

import (
	"fmt"
	"os"

	"github.com/creditmesh/funderd/identity"
)

// loadOrCreateSigner reads a raw 32-byte private key from path, or
// generates and persists a fresh one if the file doesn't exist yet — the
// same first-run bootstrap channeldb.Open performs for its own data file.
func loadOrCreateSigner(path string) (*identity.LocalSigner, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		return identity.NewLocalSignerFromBytes(raw)

	case os.IsNotExist(err):
		signer, err := identity.NewLocalSigner()
		if err != nil {
			return nil, fmt.Errorf("unable to generate identity key: %w", err)
		}
		if err := os.WriteFile(path, signer.PrivateKeyBytes(), 0600); err != nil {
			return nil, fmt.Errorf("unable to persist identity key: %w", err)
		}
		return signer, nil

	default:
		return nil, fmt.Errorf("unable to read identity key: %w", err)
	}
}
