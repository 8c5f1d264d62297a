package service

import (
	"context"
	"fmt"
	"time"

	"welfare-chat-be/internal/pkg/logger"
	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/events"
	pkgNats "welfare-chat-be/pkg/nats"
)

type IPersistService interface {
	Start() error
}

// persistService is the save pipeline: it consumes SESSION_ENDED events and
// moves the session's ephemeral overlays into the durable profile store, then
// retires the checkpoint. It runs out of band so a slow save never blocks a
// turn.
type persistService struct {
	subscriber     *pkgNats.Subscriber
	checkpointRepo contract.CheckpointRepository
	profileWriter  contract.ProfileWriteRepository
	sessionRepo    contract.ChatSessionRepository
	logger         logger.ILogger
}

func NewPersistService(
	subscriber *pkgNats.Subscriber,
	checkpointRepo contract.CheckpointRepository,
	profileWriter contract.ProfileWriteRepository,
	sessionRepo contract.ChatSessionRepository,
	sysLogger logger.ILogger,
) IPersistService {
	return &persistService{
		subscriber:     subscriber,
		checkpointRepo: checkpointRepo,
		profileWriter:  profileWriter,
		sessionRepo:    sessionRepo,
		logger:         sysLogger,
	}
}

func (s *persistService) Start() error {
	subject := fmt.Sprintf("events.%s", events.TypeSessionEnded)
	return s.subscriber.Subscribe(subject, "save-pipeline", s.handleSessionEnded)
}

func (s *persistService) handleSessionEnded(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	sessionId, _ := payload["session_id"].(string)
	if sessionId == "" {
		s.logger.Warn("PERSIST", "SESSION_ENDED without session_id; dropping", payload)
		return nil
	}

	st, found, err := s.checkpointRepo.Load(ctx, sessionId)
	if err != nil {
		return fmt.Errorf("load checkpoint for %s: %w", sessionId, err)
	}
	if !found {
		// Already persisted by an earlier delivery, or the checkpoint expired.
		s.logger.Warn("PERSIST", "no checkpoint for ended session", map[string]interface{}{
			"session_id": sessionId,
		})
		return nil
	}

	if st.ProfileID != nil {
		if err := s.profileWriter.UpsertProfile(ctx, *st.ProfileID, st.EphemeralProfile); err != nil {
			return fmt.Errorf("persist profile for %s: %w", sessionId, err)
		}
		if err := s.profileWriter.AppendCollection(ctx, *st.ProfileID, st.EphemeralCollection); err != nil {
			return fmt.Errorf("persist collection for %s: %w", sessionId, err)
		}
	} else {
		s.logger.Info("PERSIST", "anonymous session; overlays discarded", map[string]interface{}{
			"session_id": sessionId,
		})
	}

	if err := s.sessionRepo.MarkEnded(ctx, sessionId, time.Now().UTC()); err != nil {
		s.logger.Warn("PERSIST", "failed to mark session ended", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}

	if err := s.checkpointRepo.Delete(ctx, sessionId); err != nil {
		s.logger.Warn("PERSIST", "failed to delete checkpoint", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}

	s.logger.Info("PERSIST", "session persisted", map[string]interface{}{
		"session_id": sessionId,
		"profile_id": payload["profile_id"],
	})
	return nil
}
