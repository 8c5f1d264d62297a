package response

import (
	"context"
	"fmt"
	"log"
	"strings"

	"welfare-chat-be/pkg/llm"
	"welfare-chat-be/pkg/rag/state"
)

// Generator turns the planner's assembled context into the assistant's reply.
// It lives outside the orchestration core: a generation failure yields a fixed
// apology, never a failed turn.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Generate answers the user's question from the merged context and evidence
// snippets on the turn state.
func (g *Generator) Generate(ctx context.Context, st *state.TurnState, history []llm.Message) string {
	promptText := g.buildPrompt(st)
	fullHistory := append(history, llm.Message{Role: "user", Content: promptText})

	reply, err := g.llmProvider.Chat(ctx, fullHistory)
	if err != nil {
		g.logger.Printf("[GENERATION] LLM generation failed: %v", err)
		return "죄송합니다. 답변을 생성하는 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
	}

	if st.Retrieval != nil {
		g.logger.Printf("[GENERATION] answer generated from %d snippets (used_rag=%v)",
			len(st.Retrieval.RAGSnippets), st.Retrieval.UsedRAG)
	}
	return reply
}

func (g *Generator) buildPrompt(st *state.TurnState) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("너는 의료·복지 정책 상담 챗봇이다. 아래 제공된 사용자 맥락과 근거 자료만 사용해서 답하라.\n")
	prompt.WriteString("근거 자료에 없는 정책 내용을 지어내지 마라. 확실하지 않으면 확인이 필요하다고 말하라.\n")
	prompt.WriteString("</system>\n\n")

	if st.Retrieval != nil && len(st.Retrieval.ProfileCtx) > 0 {
		prompt.WriteString("<user_profile>\n")
		for name, field := range st.Retrieval.ProfileCtx {
			prompt.WriteString(fmt.Sprintf("- %s: %s (confidence %.2f)\n", name, field.Value, field.Confidence))
		}
		prompt.WriteString("</user_profile>\n\n")
	}

	if st.Retrieval != nil && len(st.Retrieval.CollectionCtx) > 0 {
		prompt.WriteString("<medical_history>\n")
		for _, t := range st.Retrieval.CollectionCtx {
			line := fmt.Sprintf("- %s %s %s", t.Subject, t.Predicate, t.Object)
			if t.Code != "" {
				line += fmt.Sprintf(" (%s %s)", t.CodeSystem, t.Code)
			}
			prompt.WriteString(line + "\n")
		}
		prompt.WriteString("</medical_history>\n\n")
	}

	if st.Retrieval != nil && len(st.Retrieval.RAGSnippets) > 0 {
		prompt.WriteString("<reference_material>\n")
		for _, s := range st.Retrieval.RAGSnippets {
			prompt.WriteString(fmt.Sprintf("\n--- %s (%s) ---\n", s.Title, s.Source))
			if s.Snippet != "" {
				prompt.WriteString(s.Snippet + "\n")
			}
			if s.URL != "" {
				prompt.WriteString("출처: " + s.URL + "\n")
			}
		}
		prompt.WriteString("</reference_material>\n\n")
	}

	prompt.WriteString("<question>\n")
	prompt.WriteString(st.UserInput)
	prompt.WriteString("\n</question>")

	return prompt.String()
}
