package contract

import (
	"context"

	"welfare-chat-be/pkg/rag/state"
)

// ProfileRepository reads the durable profile overlay for an identity.
// The per-turn pipeline never writes through this contract; persistence is
// owned by the save pipeline.
type ProfileRepository interface {
	FetchProfile(ctx context.Context, profileId int64) (state.Profile, error)
	FetchCollection(ctx context.Context, profileId int64) ([]state.Triple, error)
}

// ProfileWriteRepository is the save pipeline's side of the store: upsert the
// session's extracted fields and append its medical-history triples.
type ProfileWriteRepository interface {
	UpsertProfile(ctx context.Context, profileId int64, profile state.Profile) error
	AppendCollection(ctx context.Context, profileId int64, triples []state.Triple) error
}
