// Package model provides Model implementations.
package model

import (
	"context"

	"github.com/artpar/metergate/ports"
)

// Echo is a stand-in model that echoes the prompt back. The inference
// computation itself is an external collaborator; this adapter keeps the
// metering path exercisable end to end without one.
type Echo struct{}

// Infer returns the prompt prefixed with "Echo: ".
func (Echo) Infer(ctx context.Context, prompt string) (string, error) {
	return "Echo: " + prompt, nil
}

// Ensure interface compliance.
var _ ports.Model = Echo{}
