// Package checkpoint defines the graph runtime's resume-state store: writes
// are overwrites keyed by runId, with no read-modify-write across tasks.
package checkpoint

import (
	"context"

	"github.com/nevindra/ragforge"
)

// Store persists and loads Checkpoints keyed by RunID.
type Store interface {
	// Save overwrites any existing checkpoint for cp.RunID.
	Save(ctx context.Context, cp ragforge.Checkpoint) error
	// Load returns the checkpoint for runID, or ok=false if none exists.
	Load(ctx context.Context, runID string) (cp ragforge.Checkpoint, ok bool, err error)
}
