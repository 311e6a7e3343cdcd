package contact

import (
	"time"

	"github.com/google/uuid"
)

// SystemClock implements Clock with the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator implements IDGenerator with random UUIDs.
type UUIDGenerator struct{}

// NewID returns a fresh v4 UUID.
func (UUIDGenerator) NewID() uuid.UUID { return uuid.New() }
