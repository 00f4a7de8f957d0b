package domain

import "errors"

var (
	ErrInvalidJoinPayload = errors.New("invalid join payload")
	ErrUnknownChannel     = errors.New("unknown channel")
	ErrAlreadyJoined      = errors.New("channel already joined")
	ErrDeliveryFailure    = errors.New("delivery failure")
)
