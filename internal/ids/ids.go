package ids

import (
	"strconv"

	"github.com/google/uuid"
)

// Generator produces book identifiers
type Generator interface {
	NewID() string
}

// UUID generates random (version 4) UUIDs
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence hands out predictable ids for tests: prefix-1, prefix-2, ...
type Sequence struct {
	Prefix string
	n      int
}

func (s *Sequence) NewID() string {
	s.n++
	return s.Prefix + "-" + strconv.Itoa(s.n)
}

