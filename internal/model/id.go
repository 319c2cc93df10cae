package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID returns a ULID for an entity created now.
func NewID() string {
	return NewIDAt(time.Now())
}

// NewIDAt returns a ULID whose timestamp is t, so a run's ID sorts with its
// created_at. IDs from one process are strictly increasing within the same
// millisecond.
func NewIDAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
