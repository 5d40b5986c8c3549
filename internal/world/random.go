package world

import (
	"hash/fnv"
	"math/rand"
)

// DefaultSeed is used when no seed is configured.
const DefaultSeed = "prototype"

// DeterministicSeedValue hashes a root seed and a subsystem label into a
// stable rand source seed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG returns a seeded random source for one subsystem, so
// randomized behaviors (explode jitter, roam targets) replay identically
// for a given seed.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}
