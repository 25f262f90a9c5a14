// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	FakeUsername = "admin"
	FakePassword = "s3cret"

	// FakeBasePath is where the fake API mounts its entity collection
	FakeBasePath = "/entities"
)

// RecordedRequest is a request received by the fake API
type RecordedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

type override struct {
	status int
	body   string
}

// FakeAPI is an in-memory entity API served over HTTP with basic authentication.
// It implements list (GET /), get (GET /<id>), create (POST /) and delete (DELETE /<id>).
type FakeAPI struct {
	Server *httptest.Server

	// OmitIDOnCreate makes create answer 201 with an empty body
	OmitIDOnCreate bool

	mu        sync.Mutex
	nextID    int64
	entities  map[int64]map[string]interface{}
	overrides map[string]override
	requests  []RecordedRequest
}

// NewFakeAPI starts a fake entity API, closed when the test ends
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	api := &FakeAPI{
		nextID:    1,
		entities:  make(map[int64]map[string]interface{}),
		overrides: make(map[string]override),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+FakeBasePath+"/{$}", api.list)
	mux.HandleFunc("POST "+FakeBasePath+"/{$}", api.create)
	mux.HandleFunc("GET "+FakeBasePath+"/{id}", api.get)
	mux.HandleFunc("DELETE "+FakeBasePath+"/{id}", api.delete)

	api.Server = httptest.NewServer(api.authenticate(mux))
	t.Cleanup(api.Server.Close)
	return api
}

// URL is the base URL to configure the plugin with
func (a *FakeAPI) URL() string {
	return a.Server.URL + FakeBasePath
}

// Seed stores an entity directly and returns its ID
func (a *FakeAPI) Seed(name string, attributes map[string]interface{}) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store(name, attributes)
}

// Has reports whether an entity with the given ID exists
func (a *FakeAPI) Has(id int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.entities[id]
	return ok
}

// Count returns the number of stored entities
func (a *FakeAPI) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entities)
}

// Respond makes the next request matching method and path (relative to the
// base URL) answer with status and body instead of the normal behavior
func (a *FakeAPI) Respond(method, path string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overrides[method+" "+path] = override{status: status, body: body}
}

// Requests returns the requests received so far, excluding rejected authentication
func (a *FakeAPI) Requests() []RecordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]RecordedRequest(nil), a.requests...)
}

// RequestCount returns how many requests used the given method
func (a *FakeAPI) RequestCount(method string) int {
	count := 0
	for _, r := range a.Requests() {
		if r.Method == method {
			count++
		}
	}
	return count
}

func (a *FakeAPI) store(name string, attributes map[string]interface{}) int64 {
	id := a.nextID
	a.nextID++

	doc := map[string]interface{}{"id": id, "name": name}
	if attributes != nil {
		doc["attributes"] = attributes
	}
	a.entities[id] = doc
	return id
}

func (a *FakeAPI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != FakeUsername || password != FakePassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}

		raw, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(raw))

		record := RecordedRequest{Method: r.Method, Path: r.URL.Path}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &record.Body)
		}

		a.mu.Lock()
		a.requests = append(a.requests, record)
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, FakeBasePath)
		o, overridden := a.overrides[key]
		delete(a.overrides, key)
		a.mu.Unlock()

		if overridden {
			w.WriteHeader(o.status)
			_, _ = io.WriteString(w, o.body)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *FakeAPI) list(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]int64, 0, len(a.entities))
	for id := range a.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		items = append(items, a.entities[id])
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *FakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var doc map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	name, _ := doc["name"].(string)
	if name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "name is required"})
		return
	}
	attributes, _ := doc["attributes"].(map[string]interface{})

	a.mu.Lock()
	id := a.store(name, attributes)
	created := a.entities[id]
	a.mu.Unlock()

	if a.OmitIDOnCreate {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *FakeAPI) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a.mu.Lock()
	doc, found := a.entities[id]
	a.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "entity not found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *FakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a.mu.Lock()
	_, found := a.entities[id]
	delete(a.entities, id)
	a.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "entity not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
