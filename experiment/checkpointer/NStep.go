package checkpointer

import (
	"context"
	"fmt"
)

// Checkpointer decides when to persist the state of a run
type Checkpointer interface {
	// Checkpoint persists r if the Checkpointer is due at epoch
	Checkpoint(ctx context.Context, epoch int, r func() (Record,
		error)) error
}

// nStep implements checkpointing every N epochs
type nStep struct {
	interval int
	store    Store
}

// NewNStep returns a Checkpointer that saves a Record to store every n
// epochs, starting at epoch 0
func NewNStep(n int, store Store) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive, got %v",
			n)
	}
	if store == nil {
		return nil, fmt.Errorf("newNStep: store cannot be nil")
	}
	return &nStep{interval: n, store: store}, nil
}

// Checkpoint builds and saves the Record if epoch is a multiple of the
// interval
func (n *nStep) Checkpoint(ctx context.Context, epoch int,
	r func() (Record, error)) error {
	if epoch%n.interval != 0 {
		return nil
	}

	rec, err := r()
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := n.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
