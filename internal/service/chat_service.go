package service

import (
	"context"
	"time"

	"welfare-chat-be/internal/dto"
	"welfare-chat-be/internal/entity"
	"welfare-chat-be/internal/pkg/logger"
	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/events"
	"welfare-chat-be/pkg/llm"
	pkgNats "welfare-chat-be/pkg/nats"
	"welfare-chat-be/pkg/rag/executor"
	"welfare-chat-be/pkg/rag/response"
	"welfare-chat-be/pkg/rag/state"

	"github.com/gofiber/fiber/v2"
)

type IChatService interface {
	Turn(ctx context.Context, req *dto.ChatTurnRequest) (*dto.ChatTurnResponse, error)
	History(ctx context.Context, sessionId string) (*dto.ChatHistoryResponse, error)
}

// chatService is the request-layer wrapper around the per-turn pipeline. It
// rehydrates the session checkpoint, runs the three stages, generates the
// reply, and re-checkpoints. One in-flight turn per session is the caller's
// responsibility; the service itself keeps no per-session locks.
type chatService struct {
	pipeline       *executor.Pipeline
	generator      *response.Generator
	checkpointRepo contract.CheckpointRepository
	sessionRepo    contract.ChatSessionRepository
	messageRepo    contract.ChatMessageRepository
	natsPub        *pkgNats.Publisher
	logger         logger.ILogger
}

func NewChatService(
	pipeline *executor.Pipeline,
	generator *response.Generator,
	checkpointRepo contract.CheckpointRepository,
	sessionRepo contract.ChatSessionRepository,
	messageRepo contract.ChatMessageRepository,
	natsPub *pkgNats.Publisher,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		pipeline:       pipeline,
		generator:      generator,
		checkpointRepo: checkpointRepo,
		sessionRepo:    sessionRepo,
		messageRepo:    messageRepo,
		natsPub:        natsPub,
		logger:         sysLogger,
	}
}

func (s *chatService) Turn(ctx context.Context, req *dto.ChatTurnRequest) (*dto.ChatTurnResponse, error) {
	st, err := s.loadOrInitState(ctx, req)
	if err != nil {
		return nil, err
	}
	if st.EndSession && !req.EndSession {
		return nil, fiber.NewError(fiber.StatusConflict, "session already ended")
	}

	st.UserInput = req.Message
	if req.EndSession {
		st.EndSession = true
	}
	st.Router = toRouterDecision(req.Router)

	firstTurn := st.TurnCount == 0

	report := s.pipeline.Execute(ctx, st)

	if firstTurn {
		s.ensureSessionRow(ctx, st, req.Message)
	}
	history := s.loadHistory(ctx, st.SessionID)
	answer := s.generator.Generate(ctx, st, history)

	s.appendMessage(ctx, st.SessionID, "user", req.Message)
	s.appendMessage(ctx, st.SessionID, "assistant", answer)

	if err := s.checkpointRepo.Save(ctx, st); err != nil {
		s.logger.Error("CHAT", "checkpoint save failed", map[string]interface{}{
			"session_id": st.SessionID,
			"error":      err.Error(),
		})
	}

	if st.EndSession {
		s.publishSessionEnded(ctx, st)
	}

	return s.toTurnResponse(st, answer, report), nil
}

func (s *chatService) History(ctx context.Context, sessionId string) (*dto.ChatHistoryResponse, error) {
	session, err := s.sessionRepo.FindById(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	messages, err := s.messageRepo.ListBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	res := &dto.ChatHistoryResponse{
		SessionId: sessionId,
		Messages:  make([]dto.ChatMessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		res.Messages = append(res.Messages, dto.ChatMessageResponse{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}

// loadOrInitState rehydrates the checkpoint for a known session or starts a
// fresh state. An unknown session id is kept so the lifecycle stage can decide
// whether to reuse or regenerate it.
func (s *chatService) loadOrInitState(ctx context.Context, req *dto.ChatTurnRequest) (*state.TurnState, error) {
	if req.SessionId != "" {
		st, found, err := s.checkpointRepo.Load(ctx, req.SessionId)
		if err != nil {
			return nil, err
		}
		if found {
			if req.ProfileId != nil {
				st.ProfileID = req.ProfileId
			}
			return st, nil
		}
	}
	return &state.TurnState{
		SessionID: req.SessionId,
		ProfileID: req.ProfileId,
	}, nil
}

func toRouterDecision(hint *dto.RouterHint) *state.RouterDecision {
	if hint == nil {
		return nil
	}
	return &state.RouterDecision{
		Category:       hint.Category,
		SaveProfile:    hint.SaveProfile,
		SaveCollection: hint.SaveCollection,
		UseRAG:         hint.UseRAG,
		Reason:         hint.Reason,
	}
}

func (s *chatService) ensureSessionRow(ctx context.Context, st *state.TurnState, firstMessage string) {
	title := firstMessage
	if runes := []rune(title); len(runes) > 40 {
		title = string(runes[:40])
	}
	session := &entity.ChatSession{
		Id:        st.SessionID,
		ProfileId: st.ProfileID,
		Title:     title,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.logger.Warn("CHAT", "session row create failed", map[string]interface{}{
			"session_id": st.SessionID,
			"error":      err.Error(),
		})
	}
}

func (s *chatService) loadHistory(ctx context.Context, sessionId string) []llm.Message {
	rows, err := s.messageRepo.ListBySession(ctx, sessionId)
	if err != nil {
		s.logger.Warn("CHAT", "history load failed; generating without history", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil
	}
	history := make([]llm.Message, 0, len(rows))
	for _, m := range rows {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return history
}

func (s *chatService) appendMessage(ctx context.Context, sessionId, role, content string) {
	msg := &entity.ChatMessage{
		SessionId: sessionId,
		Role:      role,
		Content:   content,
	}
	if err := s.messageRepo.Append(ctx, msg); err != nil {
		s.logger.Warn("CHAT", "message append failed", map[string]interface{}{
			"session_id": sessionId,
			"role":       role,
			"error":      err.Error(),
		})
	}
}

// publishSessionEnded hands the session to the save pipeline. A missing or
// unreachable bus only loses the durable save, never the turn.
func (s *chatService) publishSessionEnded(ctx context.Context, st *state.TurnState) {
	if s.natsPub == nil {
		s.logger.Warn("CHAT", "session ended but event bus unavailable", map[string]interface{}{
			"session_id": st.SessionID,
		})
		return
	}
	event := events.NewSessionEnded(st.SessionID, st.ProfileID, st.EndReasons)
	if err := s.natsPub.Publish(ctx, event); err != nil {
		s.logger.Error("CHAT", "failed to publish SESSION_ENDED", map[string]interface{}{
			"session_id": st.SessionID,
			"error":      err.Error(),
		})
		return
	}
	s.logger.Info("CHAT", "session ended", map[string]interface{}{
		"session_id": st.SessionID,
		"reasons":    st.EndReasons,
	})
}

func (s *chatService) toTurnResponse(st *state.TurnState, answer string, report *executor.Report) *dto.ChatTurnResponse {
	res := &dto.ChatTurnResponse{
		SessionId:  st.SessionID,
		TurnCount:  st.TurnCount,
		Answer:     answer,
		EndSession: st.EndSession,
		EndReasons: st.EndReasons,
		Keywords:   []string{},
		Snippets:   []dto.SnippetResponse{},
		Degraded:   report.Degraded(),
	}
	if st.Retrieval != nil {
		res.UsedRAG = st.Retrieval.UsedRAG
		res.Keywords = st.Retrieval.Keywords
		for i := range st.Retrieval.RAGSnippets {
			sn := &st.Retrieval.RAGSnippets[i]
			res.Snippets = append(res.Snippets, dto.SnippetResponse{
				DocId:   sn.DocID,
				Title:   sn.Title,
				Source:  sn.Source,
				Snippet: sn.Snippet,
				Score:   sn.Score,
				URL:     sn.URL,
			})
		}
	}
	return res
}
