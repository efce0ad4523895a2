package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/workproof/workproof/internal/model"
)

// Memory is an in-process Registry for tests and keyless demo runs. It
// mirrors the ledger's append-only behavior: responses never remove the
// underlying request record, they only mark it answered.
type Memory struct {
	mu        sync.Mutex
	nextID    int64
	agents    map[int64]string
	requests  []memoryRequest
	responses map[string]int
	feedback  map[int64][]string
}

type memoryRequest struct {
	ValidationRequest
	answered bool
}

var _ Registry = (*Memory)(nil)

// NewMemory creates an empty in-process registry.
func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		agents:    map[int64]string{},
		responses: map[string]int{},
		feedback:  map[int64][]string{},
	}
}

func (m *Memory) Register(_ context.Context, domain string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.agents[id] = domain
	return id, nil
}

func (m *Memory) RequestValidation(_ context.Context, validatorID int64, hash model.ContentHash) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, memoryRequest{
		ValidationRequest: ValidationRequest{
			ValidatorID: validatorID,
			Hash:        hash.Hex(),
		},
	})
	return Receipt{TxHash: uuid.New().String()}, nil
}

func (m *Memory) SubmitValidationResponse(_ context.Context, hash model.ContentHash, score int) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[hash.Hex()] = score
	for i := range m.requests {
		if m.requests[i].Hash == hash.Hex() {
			m.requests[i].answered = true
		}
	}
	return Receipt{TxHash: uuid.New().String()}, nil
}

func (m *Memory) AuthorizeFeedback(_ context.Context, clientID int64) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := uuid.New().String()
	m.feedback[clientID] = append(m.feedback[clientID], tx)
	return Receipt{TxHash: tx}, nil
}

func (m *Memory) PendingValidations(_ context.Context, validatorID int64) ([]ValidationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []ValidationRequest
	for _, req := range m.requests {
		if req.ValidatorID == validatorID && !req.answered {
			pending = append(pending, req.ValidationRequest)
		}
	}
	return pending, nil
}

// Score returns the recorded score for a hash, for inspection in tests
// and demo output.
func (m *Memory) Score(hash model.ContentHash) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.responses[hash.Hex()]
	return score, ok
}

// FeedbackAuthorized reports whether a client has at least one feedback
// authorization.
func (m *Memory) FeedbackAuthorized(clientID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feedback[clientID]) > 0
}
