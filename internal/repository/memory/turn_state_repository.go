package memory

import (
	"context"
	"time"

	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/rag/state"

	"github.com/patrickmn/go-cache"
)

// TurnStateRepository is an in-process checkpoint store for development and
// tests. Entries expire on their own so abandoned sessions do not pile up.
type TurnStateRepository struct {
	cache *cache.Cache
}

var _ contract.CheckpointRepository = &TurnStateRepository{}

func NewTurnStateRepository(ttl time.Duration) *TurnStateRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TurnStateRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *TurnStateRepository) Load(ctx context.Context, sessionId string) (*state.TurnState, bool, error) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*state.TurnState), true, nil
	}
	return nil, false, nil
}

func (r *TurnStateRepository) Save(ctx context.Context, st *state.TurnState) error {
	r.cache.Set(st.SessionID, st, cache.DefaultExpiration)
	return nil
}

func (r *TurnStateRepository) Delete(ctx context.Context, sessionId string) error {
	r.cache.Delete(sessionId)
	return nil
}
