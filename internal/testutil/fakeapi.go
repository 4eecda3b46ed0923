package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"tasktrack/internal/service"
)

// FakeAPI serves the task-tracking HTTP API from a FakeService.
type FakeAPI struct {
	*httptest.Server
	Svc *FakeService

	mu       sync.Mutex
	requests []RecordedRequest
}

// RecordedRequest is what FakeAPI saw for one request.
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	RequestID     string
}

// NewFakeAPI starts a server backed by svc. The server is closed when the
// test ends. Its URL ends in /api, like the real deployment.
func NewFakeAPI(t *testing.T, svc *FakeService) *FakeAPI {
	t.Helper()

	api := &FakeAPI{Svc: svc}

	r := mux.NewRouter()
	r.Use(api.record)
	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/users/login", api.login).Methods(http.MethodPost)
	s.HandleFunc("/users", api.createUser).Methods(http.MethodPost)

	authed := func(h http.HandlerFunc) http.Handler { return api.requireToken(h) }
	s.Handle("/tasks/user", authed(api.listTasks)).Methods(http.MethodGet).Queries("userId", "{userId}")
	s.Handle("/tasks", authed(api.createTask)).Methods(http.MethodPost)
	s.Handle("/tasks", authed(api.updateTask)).Methods(http.MethodPut).Queries("id", "{id}")
	s.Handle("/tasks", authed(api.deleteTask)).Methods(http.MethodDelete).Queries("id", "{id}")

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Close)
	return api
}

// BaseURL returns the API root.
func (a *FakeAPI) BaseURL() string {
	return a.URL + "/api"
}

// Requests returns every request seen so far.
func (a *FakeAPI) Requests() []RecordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RecordedRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

func (a *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-Id"),
		})
		a.mu.Unlock()

		if _, err := uuid.Parse(r.Header.Get("X-Request-Id")); err != nil {
			writeError(w, http.StatusBadRequest, "missing or invalid request id")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		if _, valid := a.Svc.TokenOwner(token); !valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	res, err := a.Svc.Login(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *FakeAPI) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"userId"`
		Name      string `json:"name"`
		LastName  string `json:"lastName"`
		DateBirth string `json:"dateBirth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	var birth service.Timestamp
	if err := birth.UnmarshalJSON([]byte(`"` + req.DateBirth + `"`)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid dateBirth")
		return
	}
	res, err := a.Svc.CreateUser(r.Context(), service.NewUser{
		UserID:      req.UserID,
		Name:        req.Name,
		LastName:    req.LastName,
		DateOfBirth: birth.Time,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *FakeAPI) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.Svc.ListTasks(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (a *FakeAPI) createTask(w http.ResponseWriter, r *http.Request) {
	var req service.NewTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	task, err := a.Svc.CreateTask(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (a *FakeAPI) updateTask(w http.ResponseWriter, r *http.Request) {
	var req service.TaskFields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	task, err := a.Svc.UpdateTask(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *FakeAPI) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := a.Svc.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
