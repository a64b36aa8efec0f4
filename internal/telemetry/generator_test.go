package telemetry

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factory-sim/internal/profile"
)

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(profile.BuiltIn()[profile.DefaultName], rand.New(rand.NewSource(seed)))
}

func isRounded(v float64) bool {
	return math.Abs(v*100-math.Round(v*100)) < 1e-6
}

func TestGenerateFillsIdentity(t *testing.T) {
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := newTestGenerator(1).Generate("M1", ts)
	assert.Equal(t, "M1", rec.MachineID)
	assert.True(t, rec.Timestamp.Equal(ts))
}

func TestGenerateStatusInvariants(t *testing.T) {
	g := newTestGenerator(42)
	ts := time.Unix(0, 0)
	seen := map[Status]int{}
	for i := 0; i < 5000; i++ {
		rec := g.Generate("M1", ts)
		seen[rec.Status]++
		assert.True(t, isRounded(rec.Temperature), "temperature %v not rounded", rec.Temperature)
		assert.True(t, isRounded(rec.EnergyKWh), "energy %v not rounded", rec.EnergyKWh)
		assert.True(t, isRounded(rec.Vibration), "vibration %v not rounded", rec.Vibration)

		switch rec.Status {
		case StatusOffline:
			assert.Zero(t, rec.Temperature)
			assert.Zero(t, rec.EnergyKWh)
			assert.Zero(t, rec.Vibration)
			assert.Zero(t, rec.Throughput)
			assert.Nil(t, rec.ErrorCode)
		case StatusFault:
			require.NotNil(t, rec.ErrorCode)
			assert.Contains(t, profile.FaultCodes, *rec.ErrorCode)
			assert.Zero(t, rec.Throughput)
			assert.GreaterOrEqual(t, rec.EnergyKWh, 0.1)
			assert.LessOrEqual(t, rec.EnergyKWh, 0.3)
		case StatusRunning:
			assert.Nil(t, rec.ErrorCode)
			assert.GreaterOrEqual(t, rec.Throughput, 1)
			assert.LessOrEqual(t, rec.Throughput, 5)
			assert.GreaterOrEqual(t, rec.EnergyKWh, 2.0)
			assert.LessOrEqual(t, rec.EnergyKWh, 3.0)
		case StatusIdle:
			assert.Nil(t, rec.ErrorCode)
			assert.Zero(t, rec.Throughput)
			assert.GreaterOrEqual(t, rec.EnergyKWh, 0.5)
			assert.LessOrEqual(t, rec.EnergyKWh, 1.0)
		default:
			t.Fatalf("unexpected status %q", rec.Status)
		}
	}
	assert.Len(t, seen, 4, "all statuses should appear in 5000 draws")
}

func TestGenerateStatusDistribution(t *testing.T) {
	g := newTestGenerator(2024)
	const n = 10000
	counts := map[Status]int{}
	for i := 0; i < n; i++ {
		counts[g.Generate("M1", time.Time{}).Status]++
	}
	want := map[Status]float64{StatusRunning: 0.70, StatusIdle: 0.15, StatusFault: 0.10, StatusOffline: 0.05}
	for st, w := range want {
		assert.InDelta(t, w, float64(counts[st])/n, 0.02, "status %s", st)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, b := newTestGenerator(99), newTestGenerator(99)
	ts := time.Unix(0, 0)
	for i := 0; i < 200; i++ {
		require.Equal(t, a.Generate("M2", ts), b.Generate("M2", ts))
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 65.13, Round2(65.1273))
	assert.Equal(t, 2.0, Round2(1.999))
	assert.Equal(t, 0.0, Round2(0))
}
