// Package exchange implements the two halves of the work exchange
// protocol: the producer half (build → address → store → request
// validation → authorize feedback) and the validator half (retrieve →
// validate → normalize score → submit response). The registry and the
// reasoning engines are external collaborators; everything persisted
// locally before a failed external call is retained, so each step is
// safely retryable.
package exchange

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/workproof/workproof/internal/model"
	"github.com/workproof/workproof/internal/registry"
)

// Exchange state constants
const (
	StateBuilt              = "BUILT"
	StateAddressed          = "ADDRESSED"
	StateSubmitted          = "SUBMITTED"
	StateRetrieved          = "RETRIEVED"
	StateValidated          = "VALIDATED"
	StateScoreSubmitted     = "SCORE_SUBMITTED"
	StateFeedbackAuthorized = "FEEDBACK_AUTHORIZED"
	StateAborted            = "ABORTED"
)

// transitions is the legal successor of each non-terminal state. The
// protocol is a straight line; StateAborted is reachable from anywhere.
var transitions = map[string]string{
	StateBuilt:          StateAddressed,
	StateAddressed:      StateSubmitted,
	StateSubmitted:      StateRetrieved,
	StateRetrieved:      StateValidated,
	StateValidated:      StateScoreSubmitted,
	StateScoreSubmitted: StateFeedbackAuthorized,
}

// Exchange tracks one producer→validator→feedback cycle over a single
// artifact. Each protocol half holds its own Exchange; the content hash
// is the cross-reference between them.
type Exchange struct {
	ID      string
	Hash    model.ContentHash
	State   string
	Receipt registry.Receipt
	Record  *model.ValidationRecord
}

// NewExchange creates an exchange in the initial state for a freshly
// built package.
func NewExchange() *Exchange {
	return &Exchange{ID: uuid.New().String(), State: StateBuilt}
}

// ResumeExchange reconstructs an exchange half at a known state, e.g. the
// producer resuming at SCORE_SUBMITTED to authorize feedback after the
// validator has responded.
func ResumeExchange(hash model.ContentHash, state string) *Exchange {
	return &Exchange{ID: uuid.New().String(), Hash: hash, State: state}
}

// advance moves the exchange to the given state, enforcing the protocol
// order. An illegal transition is a programming error in the caller.
func (e *Exchange) advance(to string) error {
	if transitions[e.State] != to {
		return fmt.Errorf("exchange %s: illegal transition %s→%s", e.ID, e.State, to)
	}
	e.State = to
	return nil
}

// abort moves the exchange to the terminal failure state.
func (e *Exchange) abort() {
	e.State = StateAborted
}
