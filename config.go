package rift

import "go.uber.org/zap"

// RuntimeConfig configures a Runtime. The zero value from NewRuntimeConfig
// enables every supported feature and logs nothing.
type RuntimeConfig struct {
	features Features
	logger   *zap.Logger
}

// NewRuntimeConfig returns the default configuration.
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{features: FeaturesAll(), logger: zap.NewNop()}
}

// WithFeatures replaces the feature spec.
func (c *RuntimeConfig) WithFeatures(f Features) *RuntimeConfig {
	ret := *c
	ret.features = f
	return &ret
}

// WithLogger installs a structured logger for runtime events (import
// resolution failures, instantiation rollbacks, compartment teardown).
func (c *RuntimeConfig) WithLogger(log *zap.Logger) *RuntimeConfig {
	ret := *c
	ret.logger = log
	return &ret
}
