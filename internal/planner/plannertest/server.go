// Package plannertest provides a scripted planner service for tests.
package plannertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/dusk-indust/stepgraph/internal/planner"
)

// Reply is one canned answer. A zero Status means 200.
type Reply struct {
	Status int
	Body   string
}

// OK returns a 200 reply with the given body.
func OK(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Server answers POST /plan with its replies in order and records every
// request it receives. Requests beyond the script get a 500.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []Reply
	requests []planner.Request
	headers  []http.Header
}

// NewServer starts a Server. Callers must Close it.
func NewServer(replies ...Reply) *Server {
	s := &Server{replies: replies}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /plan", s.handlePlan)
	s.Server = httptest.NewServer(mux)
	return s
}

// Endpoint returns the URL of the plan route.
func (s *Server) Endpoint() string {
	return s.URL + "/plan"
}

// Requests returns the decoded requests received so far.
func (s *Server) Requests() []planner.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]planner.Request(nil), s.requests...)
}

// Headers returns the request headers received so far.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planner.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.headers = append(s.headers, r.Header.Clone())
	var reply Reply
	ok := len(s.replies) > 0
	if ok {
		reply = s.replies[0]
		s.replies = s.replies[1:]
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "no scripted reply", http.StatusInternalServerError)
		return
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply.Body))
}
