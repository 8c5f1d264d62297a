package contract

import (
	"context"
	"time"

	"welfare-chat-be/internal/entity"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	FindById(ctx context.Context, id string) (*entity.ChatSession, error)
	MarkEnded(ctx context.Context, id string, endedAt time.Time) error
}

type ChatMessageRepository interface {
	Append(ctx context.Context, message *entity.ChatMessage) error
	ListBySession(ctx context.Context, sessionId string) ([]*entity.ChatMessage, error)
}
