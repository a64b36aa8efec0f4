package sim

import (
	"hash/fnv"
	"math/rand"
)

// SeedFor derives a machine's RNG seed from the run seed and its ID so each
// machine draws an independent, reproducible stream.
func SeedFor(runSeed int64, machineID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(machineID))
	return runSeed ^ int64(h.Sum64())
}

// NewRand returns the RNG for one machine.
func NewRand(runSeed int64, machineID string) *rand.Rand {
	return rand.New(rand.NewSource(SeedFor(runSeed, machineID)))
}
