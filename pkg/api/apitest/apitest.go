// Package apitest runs an in-process stand-in for the clinical records
// backend. Tests script replies per route and inspect the recorded calls.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Route keys: method plus the router's path template.
const (
	Login           = "POST /login"
	Patients        = "GET /users/{user}/patients"
	SearchPatients  = "GET /users/{user}/patients/search"
	RegisterPatient = "POST /register_patient"
	Patient         = "GET /patients/{patient}"
	Notes           = "GET /patients/{patient}/notes"
	Vitals          = "GET /patients/{patient}/vitals"
	Access          = "GET /patients/{patient}/access"
	CreateNote      = "POST /users/{user}/notes"
	CreateVitals    = "POST /users/{user}/vitals"
	Share           = "POST /patients/{patient}/share"
	Revoke          = "DELETE /patients/{patient}/share/{user}"
	Report          = "GET /patients/{patient}/report"
	Transcribe      = "POST /transcribe"
)

// Reply is a scripted response. JSON is encoded unless Raw is set.
type Reply struct {
	Status      int
	JSON        any
	Raw         []byte
	ContentType string
}

// Upload describes the file part of a multipart request.
type Upload struct {
	Field       string
	FileName    string
	ContentType string
	Size        int
}

// Call is one request the server received.
type Call struct {
	Route         string
	Vars          map[string]string
	Query         map[string][]string
	Authorization string
	RequestID     string
	Body          []byte
	Upload        *Upload
}

// Server is the fake backend.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	replies map[string]Reply
	calls   []Call
}

// New starts a fake backend that is shut down when the test ends. Routes
// without a scripted reply answer 200 with an empty JSON list.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{replies: make(map[string]Reply)}

	r := mux.NewRouter()
	for _, route := range []struct{ method, tmpl string }{
		{http.MethodPost, "/login"},
		{http.MethodGet, "/users/{user}/patients/search"},
		{http.MethodGet, "/users/{user}/patients"},
		{http.MethodPost, "/register_patient"},
		{http.MethodGet, "/patients/{patient}/notes"},
		{http.MethodGet, "/patients/{patient}/vitals"},
		{http.MethodGet, "/patients/{patient}/access"},
		{http.MethodGet, "/patients/{patient}/report"},
		{http.MethodPost, "/patients/{patient}/share"},
		{http.MethodDelete, "/patients/{patient}/share/{user}"},
		{http.MethodGet, "/patients/{patient}"},
		{http.MethodPost, "/users/{user}/notes"},
		{http.MethodPost, "/users/{user}/vitals"},
		{http.MethodPost, "/transcribe"},
	} {
		r.HandleFunc(route.tmpl, s.handle).Methods(route.method)
	}

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Reply scripts the response for a route key.
func (s *Server) Reply(route string, reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[route] = reply
}

// Calls returns every recorded call in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the recorded calls for one route key.
func (s *Server) CallsTo(route string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	tmpl, _ := mux.CurrentRoute(r).GetPathTemplate()
	route := r.Method + " " + tmpl

	call := Call{
		Route:         route,
		Vars:          mux.Vars(r),
		Query:         r.URL.Query(),
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
	}
	if route == Transcribe {
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			for field, files := range r.MultipartForm.File {
				for _, fh := range files {
					call.Upload = &Upload{
						Field:       field,
						FileName:    fh.Filename,
						ContentType: fh.Header.Get("Content-Type"),
						Size:        int(fh.Size),
					}
				}
			}
		}
	} else {
		call.Body, _ = io.ReadAll(r.Body)
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	reply, ok := s.replies[route]
	s.mu.Unlock()

	if !ok {
		reply = Reply{Status: http.StatusOK, JSON: []any{}}
	}
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}

	body := reply.Raw
	ct := reply.ContentType
	if body == nil {
		body, _ = json.Marshal(reply.JSON)
		if ct == "" {
			ct = "application/json"
		}
	}
	if ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(reply.Status)
	_, _ = w.Write(body)
}
