// Package idgen produces identifiers for rooms, students, instances and join codes.
package idgen

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/valyala/fastrand"
)

// Generator produces opaque, collision-resistant identifiers.
type Generator interface {
	NewID() string
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence generates prefix-1, prefix-2, ... and is meant for tests and
// deterministic replays.
type Sequence struct {
	Prefix string
	n      atomic.Uint64
}

func (s *Sequence) NewID() string {
	return s.Prefix + "-" + strconv.FormatUint(s.n.Add(1), 10)
}

// JoinCode returns a random six digit join code.
func JoinCode() string {
	return fmt.Sprintf("%06d", 100000+fastrand.Uint32n(900000))
}
