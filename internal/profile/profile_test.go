package profile

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInProfilesValidate(t *testing.T) {
	for name, p := range BuiltIn() {
		assert.NoError(t, p.Validate(), "profile %s", name)
		assert.Equal(t, name, p.Name)
	}
	assert.Equal(t, []string{"aging-line", "default", "night-shift"}, Names())
}

func TestDefaultWeights(t *testing.T) {
	p := BuiltIn()[DefaultName]
	want := map[string]float64{"Running": 0.70, "Idle": 0.15, "Fault": 0.10, "Offline": 0.05}
	require.Len(t, p.Statuses, len(want))
	for _, s := range p.Statuses {
		assert.InDelta(t, want[s.Status], s.Weight, 1e-9, s.Status)
	}
}

func TestPickMatchesWeights(t *testing.T) {
	p := BuiltIn()[DefaultName]
	r := rand.New(rand.NewSource(7))
	const n = 10000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		counts[p.Pick(r).Status]++
	}
	for _, s := range p.Statuses {
		got := float64(counts[s.Status]) / n
		assert.InDelta(t, s.Weight, got, 0.02, "status %s frequency", s.Status)
	}
}

func TestPickSkipsZeroWeight(t *testing.T) {
	p := &Profile{Statuses: []StatusProfile{
		{Status: "A", Weight: 1},
		{Status: "B", Weight: 0},
	}}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		require.Equal(t, "A", p.Pick(r).Status)
	}
}

func TestDistSample(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		u := Dist{Kind: KindUniform, Min: 2, Max: 3}.Sample(r)
		assert.GreaterOrEqual(t, u, 2.0)
		assert.Less(t, u, 3.0)

		n := Dist{Kind: KindUniformInt, Min: 1, Max: 5}.Sample(r)
		assert.Contains(t, []float64{1, 2, 3, 4, 5}, n)
	}
	assert.Equal(t, 4.5, Dist{Kind: KindConst, Value: 4.5}.Sample(r))
	assert.Equal(t, 0.0, Dist{}.Sample(r))
}

func TestValidateErrors(t *testing.T) {
	offline := func() StatusProfile { return StatusProfile{Status: StatusOffline, Weight: 1} }
	cases := map[string]*Profile{
		"empty":         {},
		"zero sum":      {Statuses: []StatusProfile{{Status: StatusIdle}}},
		"negative":      {Statuses: []StatusProfile{{Status: StatusIdle, Weight: -1}, {Status: StatusRunning, Weight: 2}}},
		"duplicate":     {Statuses: []StatusProfile{{Status: StatusIdle, Weight: 1}, {Status: StatusIdle, Weight: 1}}},
		"bad kind":      {Statuses: []StatusProfile{{Status: StatusIdle, Weight: 1, Energy: Dist{Kind: "poisson"}}}},
		"inverted":      {Statuses: []StatusProfile{{Status: StatusIdle, Weight: 1, Energy: Dist{Kind: KindUniform, Min: 3, Max: 1}}}},
		"no name":       {Statuses: []StatusProfile{{Weight: 1}}},
		"unknown name":  {Statuses: []StatusProfile{{Status: "Broken", Weight: 1}}},
		"fault no code": {Statuses: []StatusProfile{{Status: StatusFault, Weight: 1}}},
		"fault foreign code": {Statuses: []StatusProfile{
			{Status: StatusFault, Weight: 1, ErrorCodes: []string{"E001", "X9"}},
		}},
		"idle with code": {Statuses: []StatusProfile{{Status: StatusIdle, Weight: 1, ErrorCodes: []string{"E001"}}}},
		"offline code": {Statuses: []StatusProfile{func() StatusProfile {
			s := offline()
			s.ErrorCodes = []string{"E003"}
			return s
		}()}},
		"offline hot": {Statuses: []StatusProfile{func() StatusProfile {
			s := offline()
			s.Temperature = constant(70)
			return s
		}()}},
		"offline sampled": {Statuses: []StatusProfile{func() StatusProfile {
			s := offline()
			s.Throughput = uniformInt(1, 3)
			return s
		}()}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, p.Validate())
		})
	}

	ok := &Profile{Statuses: []StatusProfile{offline(), {Status: StatusFault, Weight: 1, ErrorCodes: []string{"E005"}}}}
	assert.NoError(t, ok.Validate())
}

func TestLoadRejectsStatusRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loose.yaml")
	body := `name: loose
statuses:
  - status: Fault
    weight: 0.5
    temperature: {kind: normal, mean: 90, std_dev: 4}
  - status: Offline
    weight: 0.3
    temperature: {kind: const, value: 70}
    error_codes: [X9]
  - status: Broken
    weight: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	_, err := Resolve(path)
	assert.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	p, err := Load("testdata/press.yaml")
	require.NoError(t, err)
	assert.Equal(t, "press", p.Name)
	require.Len(t, p.Statuses, 2)
	assert.Equal(t, []string{"E002", "E004"}, p.Statuses[1].ErrorCodes)
	assert.Equal(t, KindUniformInt, p.Statuses[0].Throughput.Kind)
}

func TestResolve(t *testing.T) {
	p, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, p.Name)

	p, err = Resolve("testdata/press.yaml")
	require.NoError(t, err)
	assert.Equal(t, "press", p.Name)

	_, err = Resolve("no-such-profile")
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bad\nstatuses: []\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
