package config

import (
	"context"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
)

// Runner drives a single agent invocation and streams runtime events. The
// channel is closed when the invocation ends; the last event before close is
// the terminal one. How the runner plans or executes tools is opaque here.
type Runner interface {
	Run(ctx context.Context, args *converters.RunArgs) (<-chan *converters.Event, error)
}

// RunnerConfig bundles the runner with its invocation settings.
type RunnerConfig struct {
	Runner        Runner
	MaxIterations int                    `json:"max_iterations,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
