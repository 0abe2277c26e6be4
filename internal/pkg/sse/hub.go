package sse

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
)

// AllEmployees subscribes to events of every employee.
const AllEmployees = ""

// Hub manages SSE subscribers and event broadcasting
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan attendance.Event]struct{}
	dropped     int
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan attendance.Event]struct{}),
	}
}

// Subscribe registers a subscriber for one employee, or for everyone with AllEmployees,
// and returns the event channel and cleanup function
func (h *Hub) Subscribe(employeeID string) (<-chan attendance.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan attendance.Event, 16)

	if h.subscribers[employeeID] == nil {
		h.subscribers[employeeID] = make(map[chan attendance.Event]struct{})
	}
	h.subscribers[employeeID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[employeeID], ch)
			close(ch)
			if len(h.subscribers[employeeID]) == 0 {
				delete(h.subscribers, employeeID)
			}
		})
	}

	return ch, cleanup
}

// Publish implements attendance.EventPublisher. Slow subscribers lose events instead of blocking the ledger.
func (h *Hub) Publish(ctx context.Context, event attendance.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.send(h.subscribers[AllEmployees], event)
	if event.EmployeeID != AllEmployees {
		h.send(h.subscribers[event.EmployeeID], event)
	}
	return nil
}

func (h *Hub) send(subs map[chan attendance.Event]struct{}, event attendance.Event) {
	for ch := range subs {
		select {
		case ch <- event:
		default:
			h.dropped++
		}
	}
}

// SubscriberCount returns the number of active subscribers for an employee
func (h *Hub) SubscriberCount(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[employeeID])
}

// TotalSubscribers returns the total number of active subscribers
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.dropped
}
