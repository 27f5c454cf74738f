// ABOUTME: ID generation helpers shared across the orchestrator and bus packages.
// ABOUTME: ULIDs are used wherever sort order matters; UUIDs where it does not.
package core

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID using crypto/rand entropy. ULIDs are
// lexicographically sortable by creation time, which makes them the
// preferred ID for anything that ends up in a log, a checkpoint row, or a
// correlation map where arrival order is meaningful: run IDs, message IDs,
// correlation IDs.
func NewULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewUUID generates a random UUIDv4 string, for identifiers with no
// ordering requirement.
func NewUUID() string {
	return uuid.New().String()
}
