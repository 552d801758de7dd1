package utils

import (
	"crypto/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	bidIDMu      sync.Mutex
	bidIDEntropy = ulid.Monotonic(rand.Reader, 0)
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateBidID returns a ULID. IDs created by this process sort in creation
// order, including several within the same millisecond.
func GenerateBidID() string {
	bidIDMu.Lock()
	defer bidIDMu.Unlock()
	return ulid.MustNew(ulid.Now(), bidIDEntropy).String()
}
