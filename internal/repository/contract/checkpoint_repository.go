package contract

import (
	"context"

	"welfare-chat-be/pkg/rag/state"
)

// CheckpointRepository persists TurnState between calls, keyed by session id.
// Single-writer-per-session is a property of the surrounding request layer;
// implementations only store and load.
type CheckpointRepository interface {
	Load(ctx context.Context, sessionId string) (*state.TurnState, bool, error)
	Save(ctx context.Context, st *state.TurnState) error
	Delete(ctx context.Context, sessionId string) error
}
