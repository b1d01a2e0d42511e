// Package api implements the HTTP/WebSocket reference binding of spec.md
// §6.5: a small multi-session registry fronting one core.Session per
// running task, grounded on the teacher's runtime.Runtime handle registry
// (agents/runtime/runtime/runtime.go's runHandles map) generalized from a
// Temporal workflow-handle map to a plain in-memory core.Session map, since
// this repository runs single-process with no cross-restart durability.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/goadesign/webagent/core"
	"github.com/goadesign/webagent/core/ids"
	"github.com/goadesign/webagent/telemetry"
)

// ScreenshotSource is implemented by a ToolExecutor able to serve the
// latest visual state (tools.Dispatcher today).
type ScreenshotSource interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// SessionFactory builds a fresh, unstarted session plus its screenshot
// source for one task request. Binaries (cmd/agentctl) supply this so the
// API package never constructs collaborators itself (SPEC_FULL §C.5).
type SessionFactory func(goal core.TaskGoal, headless bool) (*core.Session, ScreenshotSource)

// Server is the HTTP entry point for spec.md §6.5.
type Server struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	factory  SessionFactory
	logger   telemetry.Logger
}

type entry struct {
	session    *core.Session
	screenshot ScreenshotSource
}

// New returns a Server creating sessions via factory.
func New(factory SessionFactory, logger telemetry.Logger) *Server {
	if logger == nil {
		logger = telemetry.Noop{}
	}
	return &Server{sessions: make(map[string]*entry), factory: factory, logger: logger}
}

// Routes registers every spec.md §6.5 endpoint on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	mux.HandleFunc("POST /tasks/{id}/stop", s.handleStopTask)
	mux.HandleFunc("GET /tasks/{id}/screenshot", s.handleScreenshot)
}

type createTaskRequest struct {
	Description string `json:"description"`
	Headless    bool   `json:"headless"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	goal := core.TaskGoal{TaskUUID: ids.NewTaskUUID(), TargetDescription: req.Description}
	session, shot := s.factory(goal, req.Headless)

	s.mu.Lock()
	s.sessions[goal.TaskUUID] = &entry{session: session, screenshot: shot}
	s.mu.Unlock()

	session.Start(r.Context())
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	taskIDs := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		taskIDs = append(taskIDs, id)
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, taskIDs)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, e.session.Snapshot())
}

func (s *Server) handleStopTask(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	e.session.Stop()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if e.screenshot == nil {
		http.Error(w, "no screenshot source for this task", http.StatusNotImplemented)
		return
	}
	data, err := e.screenshot.Screenshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// Session returns the running session for taskUUID, used by the WS
// fanout handler to subscribe without duplicating the registry.
func (s *Server) Session(taskUUID string) (*core.Session, bool) {
	e, ok := s.lookup(taskUUID)
	if !ok {
		return nil, false
	}
	return e.session, true
}

func (s *Server) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
