package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/service"
)

// Events the approval queue sends to the frontend.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// DefaultApprovalTimeout bounds how long a destructive tool call waits for the user.
const DefaultApprovalTimeout = 120 * time.Second

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	PageID      string `json:"pageId"`
	BlockID     string `json:"blockId,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// ApprovalQueue manages human-in-the-loop approval for destructive tool calls
// made while the desktop editor is running. Each request blocks until the
// frontend answers through Approve/Reject or the timeout expires.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool
	emitter service.EventEmitter
	timeout time.Duration
}

func NewApprovalQueue(emitter service.EventEmitter, timeout time.Duration) *ApprovalQueue {
	if timeout <= 0 {
		timeout = DefaultApprovalTimeout
	}
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		emitter: emitter,
		timeout: timeout,
	}
}

// Request announces action and waits for the answer.
func (q *ApprovalQueue) Request(ctx context.Context, action PendingAction) error {
	action.ID = uuid.New().String()
	action.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	ch := make(chan bool, 1)

	q.mu.Lock()
	q.pending[action.ID] = ch
	q.mu.Unlock()
	defer q.cleanup(action.ID)

	q.emitter.Emit(ctx, EventApprovalRequired, action)

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()
	select {
	case ok := <-ch:
		if !ok {
			return fmt.Errorf("action rejected by user: %s", action.Tool)
		}
		return nil
	case <-timer.C:
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": action.ID})
		return fmt.Errorf("action timed out after %s: %s", q.timeout, action.Tool)
	case <-ctx.Done():
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": action.ID})
		return ctx.Err()
	}
}

// Approve marks a pending action as approved.
func (q *ApprovalQueue) Approve(actionID string) { q.answer(actionID, true) }

// Reject marks a pending action as rejected.
func (q *ApprovalQueue) Reject(actionID string) { q.answer(actionID, false) }

// Pending returns the number of unanswered requests.
func (q *ApprovalQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *ApprovalQueue) answer(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- approved:
	default:
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
