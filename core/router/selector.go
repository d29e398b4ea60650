// Package router maps a classification to a named downstream compute
// resource. Resource names are opaque; the provider registry resolves them to
// actual endpoints.
package router

import (
	"fmt"

	"github.com/adalundhe/strata/core/classifier"
)

const (
	defaultFastResource     = "fast"
	defaultPowerfulResource = "powerful"
)

// Config names the two resource classes.
type Config struct {
	FastResource     string `yaml:"fast_resource"`
	PowerfulResource string `yaml:"powerful_resource"`
}

// DefaultConfig returns the built-in resource names.
func DefaultConfig() *Config {
	return &Config{
		FastResource:     defaultFastResource,
		PowerfulResource: defaultPowerfulResource,
	}
}

// RoutingDecision records which resource a classification routed to and why.
type RoutingDecision struct {
	Tier         classifier.Tier
	ResourceName string
	Rationale    string
}

// Selector applies the base tier-to-resource rule plus the two overrides:
// structural SQL complexity forces the powerful resource, and an explicit
// urgency signal forces the fast resource regardless of tier. Urgency wins
// when both apply because latency takes precedence over capability.
type Selector struct {
	config *Config
}

// New creates a Selector.
func New(config *Config) *Selector {
	if config == nil {
		config = DefaultConfig()
	}
	return &Selector{config: config}
}

// Select maps a classification to a routing decision. It never fails.
func (s *Selector) Select(c classifier.Classification) RoutingDecision {
	if c.Urgent {
		return RoutingDecision{
			Tier:         c.Tier,
			ResourceName: s.config.FastResource,
			Rationale:    "urgency signal overrides tier routing",
		}
	}

	if c.Structural {
		return RoutingDecision{
			Tier:         c.Tier,
			ResourceName: s.config.PowerfulResource,
			Rationale:    "structural complexity requires the powerful resource",
		}
	}

	if c.Tier == classifier.TierComplex {
		return RoutingDecision{
			Tier:         c.Tier,
			ResourceName: s.config.PowerfulResource,
			Rationale:    fmt.Sprintf("%s tier routes to the powerful resource", c.Tier),
		}
	}

	return RoutingDecision{
		Tier:         c.Tier,
		ResourceName: s.config.FastResource,
		Rationale:    fmt.Sprintf("%s tier routes to the fast resource", c.Tier),
	}
}
