package telemetry

import (
	"math"
	"math/rand"
	"time"

	"factory-sim/internal/profile"
)

// Generator samples machine readings from a profile using its own RNG.
type Generator struct {
	profile *profile.Profile
	rng     *rand.Rand
}

// NewGenerator creates a generator. The rng is owned by the generator from here on.
func NewGenerator(p *profile.Profile, rng *rand.Rand) *Generator {
	return &Generator{profile: p, rng: rng}
}

// Generate draws a status, samples the metrics conditioned on it and returns
// the resulting record.
func (g *Generator) Generate(machineID string, ts time.Time) Record {
	sp := g.profile.Pick(g.rng)
	rec := Record{
		Timestamp:   ts,
		MachineID:   machineID,
		Status:      Status(sp.Status),
		Temperature: Round2(sp.Temperature.Sample(g.rng)),
		EnergyKWh:   Round2(sp.Energy.Sample(g.rng)),
		Vibration:   Round2(sp.Vibration.Sample(g.rng)),
		Throughput:  int(math.Round(sp.Throughput.Sample(g.rng))),
	}
	if len(sp.ErrorCodes) > 0 {
		code := sp.ErrorCodes[g.rng.Intn(len(sp.ErrorCodes))]
		rec.ErrorCode = &code
	}
	return rec
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
