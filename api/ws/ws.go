// Package ws implements the WS /ws reference binding of spec.md §6.5 on top
// of gorilla/websocket, grounded on the teacher's hooks.Bus Subscriber
// pattern (runtime/agent/hooks/bus.go) adapted to push core.Event values
// out over a websocket connection instead of an in-process callback.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goadesign/webagent/core"
	"github.com/goadesign/webagent/telemetry"
	"github.com/goadesign/webagent/viz/graphviz"
)

// SessionLookup resolves a task_uuid to its running session, satisfied by
// *api.Server.
type SessionLookup func(taskUUID string) (*core.Session, bool)

// Handler upgrades incoming connections and joins them to a session's event
// bus on request.
type Handler struct {
	upgrader websocket.Upgrader
	lookup   SessionLookup
	logger   telemetry.Logger
}

// New returns a Handler resolving task ids via lookup.
func New(lookup SessionLookup, logger telemetry.Logger) *Handler {
	if logger == nil {
		logger = telemetry.Noop{}
	}
	return &Handler{
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		lookup:   lookup,
		logger:   logger,
	}
}

type clientMessage struct {
	Event    string `json:"event"`
	TaskUUID string `json:"task_uuid"`
}

// ServeHTTP implements http.Handler for the /ws route.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	writeMu := &sync.Mutex{}
	var subscription core.Subscription
	defer func() {
		if subscription != nil {
			subscription.Close()
		}
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Event {
		case "ping":
			writeJSON(conn, writeMu, map[string]string{"event": "pong"})
		case "join_task":
			if subscription != nil {
				subscription.Close()
			}
			session, ok := h.lookup(msg.TaskUUID)
			if !ok {
				writeJSON(conn, writeMu, map[string]string{"event": "error", "message": "unknown task_uuid"})
				continue
			}
			subscription = session.Subscribe(core.SubscriberFunc(func(ctx context.Context, evt core.Event) error {
				writeJSON(conn, writeMu, evt)
				// Every task_update carries a fresh graph shape; render and
				// push a visualization event alongside it (spec.md §6.4),
				// since the core itself stays format-agnostic (VizGraph any
				// on core.Event) and leaves rendering to this transport.
				// This runs on the bus's fanout goroutine, racing the
				// executor loop, so it renders from the event's own
				// Snapshot deep copy rather than the live session graph.
				if evt.Kind == core.EventTaskUpdate && evt.Snapshot != nil {
					snap := graphviz.RenderSnapshot(*evt.Snapshot)
					writeJSON(conn, writeMu, map[string]any{
						"event": string(core.EventVisualization),
						"label": "task_update",
						"graph": snap,
					})
				}
				return nil
			}))
		}
	}
}

func writeJSON(conn *websocket.Conn, mu *sync.Mutex, v any) {
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
