package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrItemNotFound      = errors.New("schedule item not found")
	ErrDuplicateItem     = errors.New("schedule item already exists")
	ErrStaleRevision     = errors.New("stale schedule item revision")
	ErrItemDeleted       = errors.New("schedule item has been deleted")
	ErrInvalidDate       = errors.New("invalid day date, expected YYYY-MM-DD")
	ErrDayOutsideTrip    = errors.New("day is outside the trip")
	ErrInvalidKind       = errors.New("invalid schedule item kind")
	ErrInvalidField      = errors.New("invalid time field")
	ErrNotTransport      = errors.New("schedule item is not a transport item")
	ErrSegmentOutOfRange = errors.New("transport segment index out of range")
)

// PersistenceOp names the repository call that failed.
type PersistenceOp string

const (
	OpUpsert PersistenceOp = "upsert"
	OpDelete PersistenceOp = "delete"
)

// PersistenceError reports a save that did not reach the store. The
// in-memory itinerary stays authoritative.
type PersistenceError struct {
	ItemID   string        `json:"item_id"`
	Op       PersistenceOp `json:"op"`
	Err      error         `json:"-"`
	Message  string        `json:"message"`
	FailedAt time.Time     `json:"failed_at"`
}

func NewPersistenceError(itemID string, op PersistenceOp, err error) *PersistenceError {
	return &PersistenceError{
		ItemID:   itemID,
		Op:       op,
		Err:      err,
		Message:  err.Error(),
		FailedAt: time.Now().UTC(),
	}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
