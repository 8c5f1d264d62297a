package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/rag/state"

	"github.com/redis/go-redis/v9"
)

// CheckpointRepository stores serialized TurnState in Redis, one key per
// session. The per-session key is what lets the request layer guarantee a
// single in-flight turn per session.
type CheckpointRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ contract.CheckpointRepository = &CheckpointRepository{}

func NewCheckpointRepository(client *redis.Client, ttl time.Duration) *CheckpointRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CheckpointRepository{
		client: client,
		ttl:    ttl,
	}
}

func key(sessionId string) string {
	return fmt.Sprintf("turn_state:%s", sessionId)
}

func (r *CheckpointRepository) Load(ctx context.Context, sessionId string) (*state.TurnState, bool, error) {
	data, err := r.client.Get(ctx, key(sessionId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checkpoint load: %w", err)
	}

	var st state.TurnState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fmt.Errorf("checkpoint decode: %w", err)
	}
	return &st, true, nil
}

func (r *CheckpointRepository) Save(ctx context.Context, st *state.TurnState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("checkpoint encode: %w", err)
	}
	if err := r.client.Set(ctx, key(st.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("checkpoint save: %w", err)
	}
	return nil
}

func (r *CheckpointRepository) Delete(ctx context.Context, sessionId string) error {
	return r.client.Del(ctx, key(sessionId)).Err()
}
