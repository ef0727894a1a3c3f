package chunk

import "fmt"

// Default chunking parameters.
const (
	DefaultTargetTokens  = 1500
	DefaultOverlapTokens = 200
	DefaultMinTokens     = 100
)

// Config controls how the segmenter splits document text.
type Config struct {
	TargetTokens       int
	OverlapTokens      int
	MinTokens          int
	PreserveBoundaries bool
	SemanticMode       bool
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{
		TargetTokens:       DefaultTargetTokens,
		OverlapTokens:      DefaultOverlapTokens,
		MinTokens:          DefaultMinTokens,
		PreserveBoundaries: true,
		SemanticMode:       true,
	}
}

// Validate checks the config invariants: 0 <= overlap < target and
// min <= target.
func (c Config) Validate() error {
	if c.TargetTokens <= 0 {
		return fmt.Errorf("target tokens must be positive, got %d", c.TargetTokens)
	}
	if c.OverlapTokens < 0 || c.OverlapTokens >= c.TargetTokens {
		return fmt.Errorf("overlap tokens must be in [0, %d), got %d", c.TargetTokens, c.OverlapTokens)
	}
	if c.MinTokens < 0 || c.MinTokens > c.TargetTokens {
		return fmt.Errorf("min tokens must be in [0, %d], got %d", c.TargetTokens, c.MinTokens)
	}
	return nil
}

// WithDefaults fills zero fields with default values.
func (c Config) WithDefaults() Config {
	if c.TargetTokens <= 0 {
		c.TargetTokens = DefaultTargetTokens
	}
	if c.OverlapTokens <= 0 {
		c.OverlapTokens = DefaultOverlapTokens
	}
	if c.MinTokens <= 0 {
		c.MinTokens = DefaultMinTokens
	}
	if c.OverlapTokens >= c.TargetTokens {
		c.OverlapTokens = c.TargetTokens / 4
	}
	if c.MinTokens > c.TargetTokens {
		c.MinTokens = c.TargetTokens
	}
	return c
}
