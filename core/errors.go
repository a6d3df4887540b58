package core

import "errors"

var (
	ErrPaused              = errors.New("engine: paused")
	ErrNotStarted          = errors.New("engine: not started")
	ErrAlreadyStarted      = errors.New("engine: already started")
	ErrReentrant           = errors.New("engine: reentrant call")
	ErrBelowMinBurn        = errors.New("engine: amount below minimum burn")
	ErrAboveMaxBurn        = errors.New("engine: amount above maximum single burn")
	ErrPowerCeiling        = errors.New("engine: total power ceiling exceeded")
	ErrInsufficientBalance = errors.New("engine: insufficient balance")
	ErrInsufficientPool    = errors.New("engine: insufficient pool balance")
	ErrEventActive         = errors.New("engine: normal burns disabled during event")
	ErrEventInactive       = errors.New("engine: event not active")
	ErrNotBound            = errors.New("engine: no binding token bound")
	ErrAlreadyBound        = errors.New("engine: binding token already bound")
	ErrTokenUsed           = errors.New("engine: binding token already used")
	ErrTokenNotHeld        = errors.New("engine: binding token not held by user")
	ErrZeroToken           = errors.New("engine: token id must be nonzero")
	ErrCollaboratorUnset   = errors.New("engine: nft collaborator not configured")
	ErrUnauthorized        = errors.New("engine: unauthorized caller")
	ErrInvalidParam        = errors.New("engine: parameter out of bounds")
	ErrInvalidAmount       = errors.New("engine: invalid amount")
	ErrImportClosed        = errors.New("engine: bulk import only available before start")
)
