package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/jwt"
)

// EventSubscriber is the part of the SSE hub the stream handler needs.
type EventSubscriber interface {
	Subscribe(employeeID string) (<-chan attendance.Event, func())
}

type EventHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type eventHandlerImpl struct {
	jwtService jwt.Service
	hub        EventSubscriber
	logger     *slog.Logger
	keepalive  time.Duration
}

func NewEventHandler(jwtService jwt.Service, hub EventSubscriber, logger *slog.Logger) EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventHandlerImpl{
		jwtService: jwtService,
		hub:        hub,
		logger:     logger,
		keepalive:  30 * time.Second,
	}
}

// Stream handles the SSE connection carrying live ledger events. ?employee_id= narrows it to one employee.
func (h *eventHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot set headers, so the short-lived token comes in the query
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	subject, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(r.URL.Query().Get("employee_id"))
	defer cleanup()

	h.logger.Debug("Event stream opened", "subject", subject)
	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			h.logger.Debug("Event stream closed", "subject", subject)
			return
		}
	}
}
