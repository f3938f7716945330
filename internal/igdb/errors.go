package igdb

import (
	"errors"
	"fmt"
)

// Sentinel errors for IGDB API operations.
var (
	ErrNotFound     = errors.New("igdb: not found")
	ErrRateLimited  = errors.New("igdb: rate limited by server")
	ErrBadRequest   = errors.New("igdb: bad request")
	ErrServer       = errors.New("igdb: server error")
	ErrUnauthorized = errors.New("igdb: credential rejected")
	ErrNoCredential = errors.New("igdb: no valid credential available")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // Operation: "search", "getGame", "exchange"
	GameID int64  // If applicable
	Err    error
}

func (e *Error) Error() string {
	if e.GameID != 0 {
		return fmt.Sprintf("igdb %s [%d]: %v", e.Op, e.GameID, e.Err)
	}
	return fmt.Sprintf("igdb %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op string, gameID int64, err error) error {
	return &Error{
		Op:     op,
		GameID: gameID,
		Err:    err,
	}
}
