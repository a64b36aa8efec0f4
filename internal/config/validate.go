// CUE schema validation code
package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource []byte

// ValidateWithCue validates YAML configuration bytes against the embedded #Config schema.
func ValidateWithCue(filename string, yamlBytes []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile CUE schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	file, err := cueyaml.Extract(filename, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	if err := def.Unify(configVal).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// Validate checks semantic constraints the schema cannot express and that
// also apply to flag overrides.
func (c *SimulationConfig) Validate() error {
	if c.AgentCount <= 0 {
		return fmt.Errorf("agent_count must be > 0, got %d", c.AgentCount)
	}
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must be >= 0, got %d", c.Horizon)
	}
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be > 0, got %d", c.IntervalMinutes)
	}
	if _, _, err := c.Start(); err != nil {
		return err
	}
	switch c.Delivery.Mode {
	case DeliveryAsync, DeliveryBuffered, DeliverySync:
	default:
		return fmt.Errorf("unknown delivery mode %q", c.Delivery.Mode)
	}
	if c.Delivery.Workers <= 0 || c.Delivery.QueueSize <= 0 || c.Delivery.MaxAttempts <= 0 {
		return fmt.Errorf("delivery workers, queue_size and max_attempts must be > 0")
	}
	if c.Delivery.RateLimit < 0 {
		return fmt.Errorf("delivery rate_limit must be >= 0")
	}
	return nil
}
