package funder

import "github.com/go-errors/errors"

var (
	// ErrFriendExists is returned by AddFriend when the public key is
	// already known.
	ErrFriendExists = errors.New("friend already exists")

	// ErrFriendNotFound is returned by any mutation naming an unknown
	// friend public key.
	ErrFriendNotFound = errors.New("friend not found")

	// ErrRelayExists is returned by AddRelay when the public key is
	// already an owned relay.
	ErrRelayExists = errors.New("relay already exists")

	// ErrRelayNotFound is returned by RemoveRelay naming an unknown
	// relay.
	ErrRelayNotFound = errors.New("relay not found")
)
