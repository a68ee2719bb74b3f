package mutualcredit

import "github.com/go-errors/errors"

// Typed ledger errors, one per precondition violation named in spec.md §4.1.
// Each is a sentinel *errors.Error the way lnwallet/channel.go exports
// ErrChanClosing, ErrNoWindow and friends; callers compare with ==.
var (
	// ErrInsufficientTrust is returned when applying an operation would
	// push the balance beyond a max-debt bound.
	ErrInsufficientTrust = errors.New("insufficient trust: operation would exceed max debt")

	// ErrCreditCalculationOverflow is returned when a freeze/credit
	// computation overflows a 128-bit magnitude.
	ErrCreditCalculationOverflow = errors.New("credit calculation overflow")

	// ErrRequestAlreadyExists is returned when a RequestSendFunds names a
	// request id already present in either pending map on this channel.
	ErrRequestAlreadyExists = errors.New("request id already exists on this channel")

	// ErrRequestDoesNotExist is returned when a Response or Failure names
	// a request id absent from the matching pending map.
	ErrRequestDoesNotExist = errors.New("request id does not exist on this channel")

	// ErrRequestsAlreadyDisabled is returned when a RequestSendFunds
	// arrives on a side whose requests_status is Closed.
	ErrRequestsAlreadyDisabled = errors.New("requests are disabled on this side of the channel")

	// ErrInvalidRoute is returned when a RequestSendFunds's route is
	// malformed (too short, or this node is not the expected hop).
	ErrInvalidRoute = errors.New("invalid route")

	// ErrSignatureVerificationFailure is returned when a Response or
	// Failure's signature does not verify.
	ErrSignatureVerificationFailure = errors.New("signature verification failure")

	// ErrInvalidFreezeLinks is returned when the freeze_links list length
	// or content is inconsistent with the operation's path index.
	ErrInvalidFreezeLinks = errors.New("invalid freeze links")
)
