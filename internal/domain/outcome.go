package domain

import "time"

// Outcome is the terminal state of one candidate's qualification run.
type Outcome string

const (
	OutcomeNotified           Outcome = "notified"
	OutcomeSkipped            Outcome = "skipped"
	OutcomeStoredWithoutNotif Outcome = "stored_without_notify"
	OutcomePersistFailed      Outcome = "persist_failed"
)

// OutcomeEvent is one append-only audit row describing how a candidate
// left the qualification state machine.
type OutcomeEvent struct {
	Cycle        uint64
	Chain        string
	TokenAddress string
	TokenSymbol  string
	Outcome      Outcome
	Reason       string // skip reason, empty for notified
	At           time.Time
}
