package friend

import "github.com/go-errors/errors"

// ErrChannelInconsistent is returned by operations that require a Consistent
// channel_status (e.g. building an outbound batch) while the friend's
// channel is Inconsistent.
var ErrChannelInconsistent = errors.New("friend channel is inconsistent")

// ErrChannelConsistent is returned by reset-protocol operations that require
// an Inconsistent channel_status.
var ErrChannelConsistent = errors.New("friend channel is consistent")
