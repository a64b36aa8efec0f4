package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ticker wakes every interval until the next wake-up would pass the horizon.
type ticker struct {
	id       string
	interval Minutes
	log      *[]string
	wakes    []Minutes
}

func (p *ticker) ID() string { return p.id }

func (p *ticker) Wake(_ context.Context, es EventScheduler) error {
	now := es.Now()
	p.wakes = append(p.wakes, now)
	if p.log != nil {
		*p.log = append(*p.log, fmt.Sprintf("%s@%d", p.id, now))
	}
	next := now + p.interval
	if next > es.Horizon() {
		return nil
	}
	return es.Schedule(next, p)
}

func TestScheduler_RunToHorizon(t *testing.T) {
	var order []string
	s := NewScheduler(10)
	procs := []*ticker{
		{id: "M1", interval: 5, log: &order},
		{id: "M2", interval: 5, log: &order},
		{id: "M3", interval: 5, log: &order},
	}
	for _, p := range procs {
		require.NoError(t, s.Register(p))
	}
	assert.Equal(t, 3, s.Pending())

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	for _, p := range procs {
		assert.Equal(t, []Minutes{0, 5, 10}, p.wakes, "process %s", p.id)
	}
	assert.Equal(t, []string{
		"M1@0", "M2@0", "M3@0",
		"M1@5", "M2@5", "M3@5",
		"M1@10", "M2@10", "M3@10",
	}, order)
	assert.Equal(t, 9, res.Wakeups)
	assert.Equal(t, Minutes(10), res.Clock)
	assert.Equal(t, StopDrained, res.Reason)
	assert.Zero(t, res.Pending)
}

func TestScheduler_WakeCountPerHorizon(t *testing.T) {
	cases := []struct {
		horizon, interval Minutes
		want              int
	}{
		{horizon: 0, interval: 5, want: 1},
		{horizon: 4, interval: 5, want: 1},
		{horizon: 10, interval: 5, want: 3},
		{horizon: 12, interval: 5, want: 3},
		{horizon: 288, interval: 5, want: 58},
		{horizon: 7, interval: 1, want: 8},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("H%d_I%d", tc.horizon, tc.interval), func(t *testing.T) {
			s := NewScheduler(tc.horizon)
			p := &ticker{id: "M1", interval: tc.interval}
			require.NoError(t, s.Register(p))
			_, err := s.Run(context.Background())
			require.NoError(t, err)
			assert.Len(t, p.wakes, tc.want)
		})
	}
}

// overshooter always reschedules, leaving events beyond the horizon.
type overshooter struct{ wakes int }

func (p *overshooter) ID() string { return "over" }
func (p *overshooter) Wake(_ context.Context, es EventScheduler) error {
	p.wakes++
	return es.Schedule(es.Now()+3, p)
}

func TestScheduler_StopsAtHorizonWithPendingEvents(t *testing.T) {
	s := NewScheduler(10)
	p := &overshooter{}
	require.NoError(t, s.Register(p))

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopHorizon, res.Reason)
	assert.Equal(t, 4, p.wakes) // t=0,3,6,9
	assert.Equal(t, Minutes(9), res.Clock)
	assert.Equal(t, 1, res.Pending)
}

func TestScheduler_MonotonicClock(t *testing.T) {
	var seen []Minutes
	s := NewScheduler(100, WithAdvanceHook(func(m Minutes) { seen = append(seen, m) }))
	for i, iv := range []Minutes{3, 7, 11} {
		require.NoError(t, s.Register(&ticker{id: fmt.Sprintf("p%d", i), interval: iv}))
	}
	_, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
}

type pastScheduler struct{}

func (pastScheduler) ID() string { return "past" }
func (pastScheduler) Wake(_ context.Context, es EventScheduler) error {
	return es.Schedule(es.Now()-1, pastScheduler{})
}

func TestScheduler_TimeTravelIsFatal(t *testing.T) {
	s := NewScheduler(10)
	require.NoError(t, s.Schedule(5, pastScheduler{}))

	_, err := s.Run(context.Background())
	var tte *TimeTravelError
	require.ErrorAs(t, err, &tte)
	assert.Equal(t, Minutes(4), tte.Requested)
}

type failingProcess struct{}

func (failingProcess) ID() string { return "bad" }
func (failingProcess) Wake(context.Context, EventScheduler) error {
	return errors.New("boom")
}

func TestScheduler_WakeErrorAbortsRun(t *testing.T) {
	s := NewScheduler(10)
	require.NoError(t, s.Register(failingProcess{}))
	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wake bad at t=0")
}

// canceller cancels the run from inside its first wake-up.
type canceller struct {
	cancel context.CancelFunc
	wakes  int
}

func (p *canceller) ID() string { return "cancel" }
func (p *canceller) Wake(_ context.Context, es EventScheduler) error {
	p.wakes++
	p.cancel()
	return es.Schedule(es.Now()+1, p)
}

func TestScheduler_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewScheduler(100)
	p := &canceller{cancel: cancel}
	require.NoError(t, s.Register(p))

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Equal(t, 1, p.wakes)
	assert.Equal(t, 1, res.Pending)
}

func TestScheduler_EmptyRun(t *testing.T) {
	res, err := NewScheduler(10).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopDrained, res.Reason)
	assert.Zero(t, res.Wakeups)
}
