// Machine behavior profiles: status weights and per-status metric distributions
package profile

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Distribution kinds understood by Dist.Sample.
const (
	KindNormal     = "normal"
	KindUniform    = "uniform"
	KindUniformInt = "uniform_int"
	KindConst      = "const"
)

// Status names a profile may define.
const (
	StatusRunning = "Running"
	StatusIdle    = "Idle"
	StatusFault   = "Fault"
	StatusOffline = "Offline"
)

var knownStatuses = map[string]bool{
	StatusRunning: true,
	StatusIdle:    true,
	StatusFault:   true,
	StatusOffline: true,
}

// Dist describes how one metric is sampled.
type Dist struct {
	Kind   string  `yaml:"kind"`
	Mean   float64 `yaml:"mean,omitempty"`
	StdDev float64 `yaml:"std_dev,omitempty"`
	Min    float64 `yaml:"min,omitempty"`
	Max    float64 `yaml:"max,omitempty"`
	Value  float64 `yaml:"value,omitempty"`
}

// Sample draws one value from the distribution using r.
func (d Dist) Sample(r *rand.Rand) float64 {
	switch d.Kind {
	case KindNormal:
		return r.NormFloat64()*d.StdDev + d.Mean
	case KindUniform:
		return d.Min + r.Float64()*(d.Max-d.Min)
	case KindUniformInt:
		lo, hi := int(d.Min), int(d.Max)
		return float64(lo + r.Intn(hi-lo+1))
	default:
		return d.Value
	}
}

func (d Dist) isZero() bool {
	return (d.Kind == KindConst || d.Kind == "") && d.Value == 0
}

func (d Dist) validate() error {
	switch d.Kind {
	case KindNormal:
		if d.StdDev < 0 {
			return fmt.Errorf("normal std_dev must be >= 0, got %v", d.StdDev)
		}
	case KindUniform, KindUniformInt:
		if d.Max < d.Min {
			return fmt.Errorf("%s max %v below min %v", d.Kind, d.Max, d.Min)
		}
	case KindConst, "":
	default:
		return fmt.Errorf("unknown distribution kind %q", d.Kind)
	}
	return nil
}

// StatusProfile defines the weight of one status and the metrics it produces.
// Only Fault carries error codes; one of them, chosen uniformly, is attached
// to every Fault record.
type StatusProfile struct {
	Status      string   `yaml:"status"`
	Weight      float64  `yaml:"weight"`
	Temperature Dist     `yaml:"temperature"`
	Energy      Dist     `yaml:"energy"`
	Vibration   Dist     `yaml:"vibration"`
	Throughput  Dist     `yaml:"throughput"`
	ErrorCodes  []string `yaml:"error_codes,omitempty"`
}

// Profile is a named set of status profiles.
type Profile struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Statuses    []StatusProfile `yaml:"statuses"`
}

// Load reads a YAML profile definition from disk.
func Load(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return &p, nil
}

// Resolve returns the built-in profile called name, or loads name as a file path.
func Resolve(name string) (*Profile, error) {
	if name == "" {
		name = DefaultName
	}
	if p, ok := BuiltIn()[name]; ok {
		return p, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	return Load(name)
}

// Validate checks status names, weights and distributions. Fault must list
// error codes drawn from FaultCodes, no other status may list any, and
// Offline must report all-zero metrics.
func (p *Profile) Validate() error {
	if len(p.Statuses) == 0 {
		return errors.New("no statuses defined")
	}
	var total float64
	seen := make(map[string]bool, len(p.Statuses))
	for _, s := range p.Statuses {
		if s.Status == "" {
			return errors.New("status name missing")
		}
		if !knownStatuses[s.Status] {
			return fmt.Errorf("unknown status %q", s.Status)
		}
		if seen[s.Status] {
			return fmt.Errorf("duplicate status %q", s.Status)
		}
		seen[s.Status] = true
		if s.Weight < 0 {
			return fmt.Errorf("status %s: negative weight", s.Status)
		}
		total += s.Weight
		for name, d := range map[string]Dist{
			"temperature": s.Temperature,
			"energy":      s.Energy,
			"vibration":   s.Vibration,
			"throughput":  s.Throughput,
		} {
			if err := d.validate(); err != nil {
				return fmt.Errorf("status %s %s: %w", s.Status, name, err)
			}
			if s.Status == StatusOffline && !d.isZero() {
				return fmt.Errorf("status %s %s must be const 0", s.Status, name)
			}
		}
		if err := s.validateErrorCodes(); err != nil {
			return err
		}
	}
	if total <= 0 {
		return errors.New("status weights sum to zero")
	}
	return nil
}

func (s StatusProfile) validateErrorCodes() error {
	if s.Status != StatusFault {
		if len(s.ErrorCodes) > 0 {
			return fmt.Errorf("status %s: error codes only apply to %s", s.Status, StatusFault)
		}
		return nil
	}
	if len(s.ErrorCodes) == 0 {
		return fmt.Errorf("status %s: error_codes required", s.Status)
	}
	for _, c := range s.ErrorCodes {
		if !slices.Contains(FaultCodes, c) {
			return fmt.Errorf("status %s: unknown error code %q", s.Status, c)
		}
	}
	return nil
}

// Pick draws a status profile according to the configured weights.
func (p *Profile) Pick(r *rand.Rand) *StatusProfile {
	var total float64
	for _, s := range p.Statuses {
		total += s.Weight
	}
	u := r.Float64() * total
	var acc float64
	for i := range p.Statuses {
		acc += p.Statuses[i].Weight
		if u < acc {
			return &p.Statuses[i]
		}
	}
	// floating point slack lands on the last weighted status
	for i := len(p.Statuses) - 1; i >= 0; i-- {
		if p.Statuses[i].Weight > 0 {
			return &p.Statuses[i]
		}
	}
	return &p.Statuses[len(p.Statuses)-1]
}
