package session

import (
	"fmt"
	"log"
	"strings"
	"time"

	"welfare-chat-be/pkg/rag/state"

	"github.com/google/uuid"
)

// Limits bounds a session's lifetime. IdleTimeout is carried as configuration
// only: idle time can only be observed between calls, and this controller runs
// exactly once per call, so an idle session never reaches it. Enforcement
// belongs to an external scheduler/watchdog.
type Limits struct {
	IdleTimeout time.Duration
	MaxTurns    int
	MaxDuration time.Duration
}

// DefaultLimits returns the documented defaults: 15 minutes idle,
// 128 turns, 2 hours total duration.
func DefaultLimits() Limits {
	return Limits{
		IdleTimeout: 15 * time.Minute,
		MaxTurns:    128,
		MaxDuration: 2 * time.Hour,
	}
}

// Controller owns per-turn session bookkeeping and the termination decision.
// It is the first pipeline stage and has no dependencies beyond a clock.
type Controller struct {
	limits Limits
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the controller's clock. Tests use this to make
// duration-based termination deterministic.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a lifecycle controller with explicit limits.
func NewController(limits Limits, logger *log.Logger, opts ...Option) *Controller {
	c := &Controller{
		limits: limits,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Touch runs once per turn. It synthesizes a session id when absent, heals
// missing or malformed timestamps, increments the turn counter, refreshes
// last-activity, and evaluates the termination predicate. It cannot fail:
// every input gap has a defined re-initialization.
func (c *Controller) Touch(st *state.TurnState) {
	now := c.now().UTC()
	nowISO := now.Format(time.RFC3339Nano)

	if strings.TrimSpace(st.SessionID) == "" {
		st.SessionID = synthesizeSessionID(now)
		c.logger.Printf("[SESSION] session_id generated: %s", st.SessionID)
		st.AppendTrace(fmt.Sprintf("[session] session_id generated: %s", st.SessionID), nil)
	}

	startedAt, ok := parseTimestamp(st.StartedAt)
	if !ok {
		startedAt = now
		st.StartedAt = nowISO
		st.AppendTrace("[session] started_at initialized", nil)
	}
	if _, ok := parseTimestamp(st.LastActivityAt); !ok {
		st.LastActivityAt = nowISO
	}

	// This node is invoked exactly once per turn, so turn == invocation.
	st.TurnCount++
	st.LastActivityAt = nowISO

	elapsed := now.Sub(startedAt)

	// A client-requested end arrives with the flag already set; it stays set.
	var reasons []string
	if st.EndSession {
		reasons = append(reasons, "client_requested")
	}
	if st.TurnCount >= c.limits.MaxTurns {
		reasons = append(reasons, fmt.Sprintf("max_turns(%d) reached", c.limits.MaxTurns))
	}
	if elapsed >= c.limits.MaxDuration {
		reasons = append(reasons, fmt.Sprintf("max_duration(%ds) reached", int(c.limits.MaxDuration.Seconds())))
	}

	st.EndSession = len(reasons) > 0
	st.EndReasons = reasons

	if st.EndSession {
		c.logger.Printf("[SESSION] end_session=true session=%s reasons=%v", st.SessionID, reasons)
		st.AppendTrace("[session] end_session=true", map[string]interface{}{
			"reasons": reasons,
		})
		return
	}

	st.AppendTrace("[session] tick", map[string]interface{}{
		"turn_count":       st.TurnCount,
		"since_start_sec":  int(elapsed.Seconds()),
		"max_turns":        c.limits.MaxTurns,
		"max_duration_sec": int(c.limits.MaxDuration.Seconds()),
		"idle_timeout_sec": int(c.limits.IdleTimeout.Seconds()),
	})
}

// synthesizeSessionID builds a deterministic-per-call id: timestamp plus a
// short random suffix so concurrent first turns never collide.
func synthesizeSessionID(now time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("sess-%s-%s", now.Format("20060102-150405"), suffix)
}

// parseTimestamp accepts RFC3339 with or without sub-second precision.
// Malformed input reads as absent; parse errors never propagate.
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
