package game

import (
	"errors"
	"fmt"
)

// RejectionKind classifies why an action or room request was refused.
type RejectionKind int

const (
	RejectNotFound RejectionKind = iota + 1
	RejectPrecondition
	RejectIllegalMove
)

func (k RejectionKind) String() string {
	switch k {
	case RejectNotFound:
		return "not_found"
	case RejectPrecondition:
		return "precondition"
	case RejectIllegalMove:
		return "illegal_move"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ActionError is a rejection a client can act on. Anything else returned by this
// package is an infrastructure failure.
type ActionError struct {
	Kind    RejectionKind
	Message string
}

func (e *ActionError) Error() string {
	return e.Message
}

func reject(kind RejectionKind, msg string) *ActionError {
	return &ActionError{Kind: kind, Message: msg}
}

var (
	ErrRoomNotFound   = reject(RejectNotFound, "room not found")
	ErrPlayerNotFound = reject(RejectNotFound, "player not found")

	ErrGameNotInProgress  = reject(RejectPrecondition, "game is not in progress")
	ErrGameAlreadyStarted = reject(RejectPrecondition, "game has already started")
	ErrNotYourTurn        = reject(RejectPrecondition, "not your turn")
	ErrAbilityUsed        = reject(RejectPrecondition, "ability already used this turn")
	ErrWrongCharacter     = reject(RejectPrecondition, "ability does not belong to your character")
	ErrAbilitiesDisabled  = reject(RejectPrecondition, "abilities are disabled in this room")
	ErrNotOwner           = reject(RejectPrecondition, "only the room owner can do that")
	ErrNotEnoughPlayers   = reject(RejectPrecondition, "at least 2 players are required to start")
	ErrRoomFull           = reject(RejectPrecondition, "room is full")
	ErrNotInvited         = reject(RejectPrecondition, "player name is not on the room's list")
	ErrNameTaken          = reject(RejectPrecondition, "player name is already seated")

	ErrCardNotInHand    = reject(RejectIllegalMove, "card not in hand")
	ErrIllegalCard      = reject(RejectIllegalMove, "card cannot be played")
	ErrPairNotFound     = reject(RejectIllegalMove, "no undefended attack with that card")
	ErrUndefendedCards  = reject(RejectIllegalMove, "not all attacks have been defended")
	ErrMissingCard      = reject(RejectIllegalMove, "card is required")
	ErrMissingTarget    = reject(RejectIllegalMove, "target player is required")
	ErrUnknownAction    = reject(RejectIllegalMove, "unknown action")
	ErrUnknownAbility   = reject(RejectIllegalMove, "unknown ability")
	ErrTableFull        = reject(RejectIllegalMove, "table is full")
	ErrInvalidRoomInput = reject(RejectIllegalMove, "invalid room settings")
)

// ErrVersionConflict means the room changed between load and save.
var ErrVersionConflict = errors.New("room was modified concurrently")

// AsRejection unwraps err to an ActionError if it is one.
func AsRejection(err error) (*ActionError, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsRejection reports whether err is a client-facing rejection.
func IsRejection(err error) bool {
	_, ok := AsRejection(err)
	return ok
}
