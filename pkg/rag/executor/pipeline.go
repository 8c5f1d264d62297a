package executor

import (
	"context"
	"log"

	"welfare-chat-be/pkg/rag/extract"
	"welfare-chat-be/pkg/rag/planner"
	"welfare-chat-be/pkg/rag/session"
	"welfare-chat-be/pkg/rag/state"
)

// Pipeline runs the three per-turn stages strictly in sequence over one
// TurnState: lifecycle -> extraction -> retrieval planning. Stages degrade
// individually; the pipeline itself cannot fail.
type Pipeline struct {
	controller *session.Controller
	extractor  *extract.Extractor
	planner    *planner.Planner
	logger     *log.Logger
}

// NewPipeline wires the three stages.
func NewPipeline(
	controller *session.Controller,
	extractor *extract.Extractor,
	retrievalPlanner *planner.Planner,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		controller: controller,
		extractor:  extractor,
		planner:    retrievalPlanner,
		logger:     logger,
	}
}

// Report distinguishes a clean turn from a degraded one. A degraded turn is
// still a valid turn: the state carries whatever was computed.
type Report struct {
	ExtractionErr *extract.ExtractionError
	RetrievalErr  *planner.RetrievalError
}

// Degraded reports whether any stage fell back this turn.
func (r *Report) Degraded() bool {
	return r.ExtractionErr != nil || r.RetrievalErr != nil
}

// Execute processes one conversational turn. The returned Report never
// escalates to an error; callers that only need the state may ignore it.
func (p *Pipeline) Execute(ctx context.Context, st *state.TurnState) *Report {
	report := &Report{}

	p.controller.Touch(st)
	p.logger.Printf("[PIPELINE] turn %d session=%s end_session=%v", st.TurnCount, st.SessionID, st.EndSession)

	report.ExtractionErr = p.extractor.Extract(ctx, st)
	report.RetrievalErr = p.planner.Plan(ctx, st)

	if report.Degraded() {
		p.logger.Printf("[PIPELINE] turn %d degraded: extraction=%v retrieval=%v",
			st.TurnCount, report.ExtractionErr, report.RetrievalErr)
	}
	return report
}
