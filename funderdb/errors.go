package funderdb

import "github.com/go-errors/errors"

// ErrNoState is returned by Recover when the mutation log is empty: the
// caller must seed a fresh funder.State itself (there is no local identity
// on record to build one from).
var ErrNoState = errors.New("funderdb: no recorded mutations to recover from")
