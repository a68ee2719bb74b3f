package tokenchannel

import "github.com/go-errors/errors"

var (
	// ErrWrongDirection is returned when a builder is requested while the
	// channel holds Outgoing, or when InstallOutgoing is asked to install a
	// move-token other than the one last sent while the channel holds
	// Outgoing.
	ErrWrongDirection = errors.New("token channel holds the wrong direction for this operation")

	// ErrMaxOperationsReached is returned by a builder when appending one
	// more operation would exceed max_operations_in_batch.
	ErrMaxOperationsReached = errors.New("move-token batch is full")

	// ErrNotReadyForReset is returned by ApplyLocalReset when the local
	// and remote reset terms are not yet known to be compatible.
	ErrNotReadyForReset = errors.New("reset terms are not yet compatible")
)
