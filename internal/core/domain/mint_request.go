package domain

import (
	"fmt"
	"math/big"
	"time"
)

type MintRequestStatus uint8

const (
	MintRequestStatusNone MintRequestStatus = iota
	MintRequestStatusRequested
	MintRequestStatusFulfilled
)

func (s MintRequestStatus) String() string {
	switch s {
	case MintRequestStatusRequested:
		return "REQUESTED"
	case MintRequestStatusFulfilled:
		return "FULFILLED"
	default:
		return "NONE"
	}
}

// MintRequest is a pending claim on a future token, keyed by the request id
// issued by the randomness oracle.
type MintRequest struct {
	RequestId   string
	Requester   string
	Payment     *big.Int
	Fulfilled   bool
	TokenId     uint64
	CreatedAt   int64
	FulfilledAt int64
}

func NewMintRequest(
	requestId, requester string, payment *big.Int,
) (*MintRequest, []Event, error) {
	if len(requestId) == 0 {
		return nil, nil, fmt.Errorf("missing request id")
	}
	if len(requester) == 0 {
		return nil, nil, fmt.Errorf("missing requester")
	}
	if payment == nil {
		payment = big.NewInt(0)
	}

	now := time.Now().Unix()
	request := &MintRequest{
		RequestId: requestId,
		Requester: requester,
		Payment:   new(big.Int).Set(payment),
		CreatedAt: now,
	}
	event := MintRequested{
		MintEvent: MintEvent{
			Id:   requestId,
			Type: EventTypeMintRequested,
		},
		Requester: requester,
		Payment:   payment.String(),
		Timestamp: now,
	}
	return request, []Event{event}, nil
}

func (r *MintRequest) Status() MintRequestStatus {
	if r == nil {
		return MintRequestStatusNone
	}
	if r.Fulfilled {
		return MintRequestStatusFulfilled
	}
	return MintRequestStatusRequested
}
