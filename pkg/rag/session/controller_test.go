package session

import (
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"welfare-chat-be/pkg/rag/state"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTouchGeneratesSessionID(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	c := NewController(DefaultLimits(), testLogger(), WithClock(fixedClock(now)))

	st := &state.TurnState{}
	c.Touch(st)

	if !strings.HasPrefix(st.SessionID, "sess-20250314-092653-") {
		t.Errorf("session id = %q, want prefix sess-20250314-092653-", st.SessionID)
	}
	if st.StartedAt == "" || st.LastActivityAt == "" {
		t.Errorf("timestamps not initialized: started=%q last=%q", st.StartedAt, st.LastActivityAt)
	}
}

func TestTouchKeepsExistingSessionID(t *testing.T) {
	c := NewController(DefaultLimits(), testLogger())
	st := &state.TurnState{SessionID: "sess-keep-me"}
	c.Touch(st)
	if st.SessionID != "sess-keep-me" {
		t.Errorf("session id changed to %q", st.SessionID)
	}
}

func TestTurnCountMonotonic(t *testing.T) {
	c := NewController(DefaultLimits(), testLogger())
	st := &state.TurnState{}
	for want := 1; want <= 5; want++ {
		c.Touch(st)
		if st.TurnCount != want {
			t.Fatalf("turn %d: TurnCount = %d", want, st.TurnCount)
		}
	}
}

func TestTerminationAtMaxTurns(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxTurns = 3
	c := NewController(limits, testLogger())

	st := &state.TurnState{}
	c.Touch(st)
	c.Touch(st)
	if st.EndSession {
		t.Fatalf("ended early at turn %d", st.TurnCount)
	}

	c.Touch(st)
	if !st.EndSession {
		t.Fatal("not ended at max_turns")
	}
	if len(st.EndReasons) != 1 || !strings.Contains(st.EndReasons[0], "max_turns(3)") {
		t.Errorf("reasons = %v", st.EndReasons)
	}
}

func TestTerminationAtMaxDuration(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxDuration = time.Hour

	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	current := start
	c := NewController(limits, testLogger(), WithClock(func() time.Time { return current }))

	st := &state.TurnState{}
	c.Touch(st)
	if st.EndSession {
		t.Fatal("ended on first turn")
	}

	current = start.Add(61 * time.Minute)
	c.Touch(st)
	if !st.EndSession {
		t.Fatal("not ended after max_duration elapsed")
	}
	if !strings.Contains(strings.Join(st.EndReasons, ","), "max_duration(3600s)") {
		t.Errorf("reasons = %v", st.EndReasons)
	}
}

func TestMalformedStartedAtHealed(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	c := NewController(DefaultLimits(), testLogger(), WithClock(fixedClock(now)))

	st := &state.TurnState{SessionID: "sess-x", StartedAt: "not-a-timestamp"}
	c.Touch(st)

	if _, err := time.Parse(time.RFC3339Nano, st.StartedAt); err != nil {
		t.Errorf("started_at not healed: %q", st.StartedAt)
	}
	if st.EndSession {
		t.Error("healed timestamp must not trigger max_duration")
	}
}

func TestClientRequestedEndIsSticky(t *testing.T) {
	c := NewController(DefaultLimits(), testLogger())
	st := &state.TurnState{SessionID: "sess-x", EndSession: true}
	c.Touch(st)

	if !st.EndSession {
		t.Fatal("client-requested end was cleared")
	}
	if !strings.Contains(strings.Join(st.EndReasons, ","), "client_requested") {
		t.Errorf("reasons = %v", st.EndReasons)
	}
}

func TestTouchAppendsTrace(t *testing.T) {
	c := NewController(DefaultLimits(), testLogger())
	st := &state.TurnState{}
	c.Touch(st)
	if len(st.Trace) == 0 {
		t.Fatal("no trace entries written")
	}
}
