package dto

// RouterHint is the upstream router's decision for this turn. All fields are
// optional; a missing hint leaves every gate to its default.
type RouterHint struct {
	Category       string `json:"category"`
	SaveProfile    bool   `json:"save_profile"`
	SaveCollection bool   `json:"save_collection"`
	UseRAG         *bool  `json:"use_rag"`
	Reason         string `json:"reason"`
}

type ChatTurnRequest struct {
	SessionId  string      `json:"session_id"`
	ProfileId  *int64      `json:"profile_id"`
	Message    string      `json:"message" validate:"required"`
	EndSession bool        `json:"end_session"`
	Router     *RouterHint `json:"router"`
}

type SnippetResponse struct {
	DocId   string   `json:"doc_id"`
	Title   string   `json:"title"`
	Source  string   `json:"source"`
	Snippet string   `json:"snippet"`
	Score   *float64 `json:"score"`
	URL     string   `json:"url,omitempty"`
}

type ChatTurnResponse struct {
	SessionId  string            `json:"session_id"`
	TurnCount  int               `json:"turn_count"`
	Answer     string            `json:"answer"`
	EndSession bool              `json:"end_session"`
	EndReasons []string          `json:"end_reasons,omitempty"`
	UsedRAG    bool              `json:"used_rag"`
	Keywords   []string          `json:"keywords"`
	Snippets   []SnippetResponse `json:"snippets"`
	Degraded   bool              `json:"degraded"`
}

type ChatMessageResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type ChatHistoryResponse struct {
	SessionId string                `json:"session_id"`
	Messages  []ChatMessageResponse `json:"messages"`
}
