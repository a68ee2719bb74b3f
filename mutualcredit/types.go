package mutualcredit

import "lukechampine.com/uint128"

// RequestId identifies a payment request end-to-end along its route. It is
// opaque to the ledger beyond equality and map-key use.
type RequestId [16]byte

// InvoiceId identifies the invoice a RequestSendFunds is paying.
type InvoiceId [32]byte

// RequestsStatus is the open/closed switch a side announces for accepting
// new forwarded requests on a channel.
type RequestsStatus int

const (
	// StatusClosed rejects any new RequestSendFunds on this side.
	StatusClosed RequestsStatus = iota
	// StatusOpen accepts new RequestSendFunds on this side.
	StatusOpen
)

func (s RequestsStatus) String() string {
	if s == StatusOpen {
		return "Open"
	}
	return "Closed"
}

// Ratio is the trust-capacity ratio carried by a FreezeLink, expressed as
// numerator/denominator over the link's shared credits; a zero denominator
// means "unlimited" (the relay imposes no proportional cap on this hop).
type Ratio struct {
	Numerator   uint32
	Denominator uint32
}

// FreezeLink is one entry of a RequestSendFunds's freeze_links list: the
// capacity a single hop along the route reported when the request was built,
// used by every subsequent hop to verify its own freeze computation is
// consistent with what upstream hops already committed to.
type FreezeLink struct {
	SharedCredits uint128.Uint128
	UsableRatio   Ratio
}

// Route is the ordered list of public keys a RequestSendFunds traverses,
// source first and destination last.
type Route [][33]byte

// PendingRequest is the bookkeeping the ledger keeps for one in-flight
// request on this channel, from the moment it is queued until a matching
// Response or Failure settles it.
type PendingRequest struct {
	RequestId    RequestId
	Route        Route
	DestPayment  uint128.Uint128
	InvoiceId    InvoiceId
	FreezeLinks  []FreezeLink
	PathIndex    int
	CreditFreeze uint128.Uint128
}

// Operation is the sum type carried inside a MoveToken, per spec.md §3.
// Every concrete operation implements the marker method so the ledger and
// wire packages can switch on it exhaustively.
type Operation interface {
	isOperation()
}

// EnableRequests announces that the issuing side now accepts new forwarded
// requests.
type EnableRequests struct{}

// DisableRequests announces that the issuing side no longer accepts new
// forwarded requests.
type DisableRequests struct{}

// SetRemoteMaxDebt sets a new upper bound on what the issuing side is
// willing to owe its peer.
type SetRemoteMaxDebt struct {
	Amount uint128.Uint128
}

// RequestSendFunds forwards a payment request along Route, reserving credit
// at the current hop.
type RequestSendFunds struct {
	RequestId   RequestId
	Route       Route
	DestPayment uint128.Uint128
	InvoiceId   InvoiceId
	FreezeLinks []FreezeLink
}

// ResponseSendFunds settles a pending request successfully.
type ResponseSendFunds struct {
	RequestId RequestId
	RandNonce [16]byte
	Signature []byte
}

// FailureSendFunds settles a pending request unsuccessfully, naming the hop
// that reported the failure.
type FailureSendFunds struct {
	RequestId         RequestId
	ReportingPublicKey [33]byte
	RandNonce         [16]byte
	Signature         []byte
}

func (EnableRequests) isOperation()    {}
func (DisableRequests) isOperation()   {}
func (SetRemoteMaxDebt) isOperation()  {}
func (RequestSendFunds) isOperation()  {}
func (ResponseSendFunds) isOperation() {}
func (FailureSendFunds) isOperation()  {}
