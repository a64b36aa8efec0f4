package profile

import "sort"

// DefaultName is the profile used when none is configured.
const DefaultName = "default"

// FaultCodes is the fixed error-code set attached to Fault readings.
var FaultCodes = []string{"E001", "E002", "E003", "E004", "E005"}

func normal(mean, sd float64) Dist   { return Dist{Kind: KindNormal, Mean: mean, StdDev: sd} }
func uniform(lo, hi float64) Dist    { return Dist{Kind: KindUniform, Min: lo, Max: hi} }
func uniformInt(lo, hi float64) Dist { return Dist{Kind: KindUniformInt, Min: lo, Max: hi} }
func constant(v float64) Dist        { return Dist{Kind: KindConst, Value: v} }
func codes() []string                { return append([]string(nil), FaultCodes...) }
func zero() Dist                     { return constant(0) }

// BuiltIn returns the predefined machine profiles keyed by name. Each call
// returns fresh copies.
func BuiltIn() map[string]*Profile {
	return map[string]*Profile{
		DefaultName: {
			Name:        DefaultName,
			Description: "Production line under normal load",
			Statuses: []StatusProfile{
				{Status: StatusRunning, Weight: 0.70, Temperature: normal(65, 3), Energy: uniform(2.0, 3.0), Vibration: normal(150, 10), Throughput: uniformInt(1, 5)},
				{Status: StatusIdle, Weight: 0.15, Temperature: normal(55, 2), Energy: uniform(0.5, 1.0), Vibration: normal(50, 5), Throughput: zero()},
				{Status: StatusFault, Weight: 0.10, Temperature: normal(85, 5), Energy: uniform(0.1, 0.3), Vibration: normal(200, 20), Throughput: zero(), ErrorCodes: codes()},
				{Status: StatusOffline, Weight: 0.05, Temperature: zero(), Energy: zero(), Vibration: zero(), Throughput: zero()},
			},
		},
		"aging-line": {
			Name:        "aging-line",
			Description: "Worn equipment running hot with frequent faults",
			Statuses: []StatusProfile{
				{Status: StatusRunning, Weight: 0.55, Temperature: normal(72, 4), Energy: uniform(2.4, 3.4), Vibration: normal(175, 15), Throughput: uniformInt(1, 4)},
				{Status: StatusIdle, Weight: 0.12, Temperature: normal(58, 3), Energy: uniform(0.6, 1.1), Vibration: normal(60, 8), Throughput: zero()},
				{Status: StatusFault, Weight: 0.25, Temperature: normal(92, 6), Energy: uniform(0.1, 0.4), Vibration: normal(230, 25), Throughput: zero(), ErrorCodes: codes()},
				{Status: StatusOffline, Weight: 0.08, Temperature: zero(), Energy: zero(), Vibration: zero(), Throughput: zero()},
			},
		},
		"night-shift": {
			Name:        "night-shift",
			Description: "Reduced staffing, most machines idle",
			Statuses: []StatusProfile{
				{Status: StatusRunning, Weight: 0.30, Temperature: normal(63, 3), Energy: uniform(1.8, 2.6), Vibration: normal(140, 10), Throughput: uniformInt(1, 3)},
				{Status: StatusIdle, Weight: 0.50, Temperature: normal(52, 2), Energy: uniform(0.4, 0.8), Vibration: normal(45, 5), Throughput: zero()},
				{Status: StatusFault, Weight: 0.05, Temperature: normal(85, 5), Energy: uniform(0.1, 0.3), Vibration: normal(200, 20), Throughput: zero(), ErrorCodes: codes()},
				{Status: StatusOffline, Weight: 0.15, Temperature: zero(), Energy: zero(), Vibration: zero(), Throughput: zero()},
			},
		},
	}
}

// Names returns the built-in profile names in sorted order.
func Names() []string {
	var names []string
	for n := range BuiltIn() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
