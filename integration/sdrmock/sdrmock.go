// Package sdrmock provides a fake SDR API for tests. It answers the calls made
// during a deposit with successful responses unless told otherwise and keeps
// a record of every request received.
package sdrmock

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	Druid       = "druid:bc123df4567"
	JobLocation = "/v1/jobs/1"
	Token       = "mock-token"

	uploadPrefix = "/rails/active_storage/disk/"
)

// Call is a request received by the server.
type Call struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// Server is the fake SDR API.
type Server struct {
	URL string

	t        *testing.T
	ts       *httptest.Server
	mu       sync.Mutex
	calls    []Call
	handlers map[string]http.HandlerFunc
}

// New starts a server that is closed when the test finishes.
func New(t *testing.T) *Server {
	s := &Server{
		t:        t,
		handlers: map[string]http.HandlerFunc{},
	}
	s.ts = httptest.NewServer(http.HandlerFunc(s.serve))
	s.URL = s.ts.URL
	t.Cleanup(s.ts.Close)
	return s
}

// Handle replaces the default handler of the given route, e.g.
// Handle("POST", "/v1/direct_uploads", ...). Routes are matched by prefix.
func (s *Server) Handle(method, prefix string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" "+prefix] = h
}

// Respond makes the given route reply with status and body.
func (s *Server) Respond(method, prefix string, status int, body string) {
	s.Handle(method, prefix, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the requests received for the given route.
func (s *Server) CallsTo(method, prefix string) []Call {
	var matched []Call
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			matched = append(matched, c)
		}
	}
	return matched
}

// Uploaded returns the contents received for the file with the given name.
func (s *Server) Uploaded(filename string) ([]byte, bool) {
	for _, c := range s.CallsTo(http.MethodPut, uploadPrefix) {
		if strings.TrimPrefix(c.Path, uploadPrefix) == filename {
			return c.Body, true
		}
	}
	return nil, false
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		s.t.Errorf("sdrmock: cannot read request body: %v", err)
	}
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	})
	var custom http.HandlerFunc
	for route, h := range s.handlers {
		parts := strings.SplitN(route, " ", 2)
		if parts[0] == r.Method && strings.HasPrefix(r.URL.Path, parts[1]) {
			custom = h
			break
		}
	}
	s.mu.Unlock()

	r.Body = ioutil.NopCloser(strings.NewReader(string(body)))
	if custom != nil {
		custom(w, r)
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/direct_uploads":
		s.directUpload(w, body)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, uploadPrefix):
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/resources":
		w.Header().Set("Location", JobLocation)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"druid":%q}`, Druid)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/jobs/"):
		fmt.Fprintf(w, `{"status":"complete","output":{"druid":%q}}`, Druid)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/auth/login":
		fmt.Fprintf(w, `{"token":%q}`, Token)
	default:
		http.NotFound(w, r)
	}
}

type blob struct {
	Filename    string `json:"filename"`
	ByteSize    int64  `json:"byte_size"`
	Checksum    string `json:"checksum"`
	ContentType string `json:"content_type"`
}

func (s *Server) directUpload(w http.ResponseWriter, body []byte) {
	req := struct {
		Blob blob `json:"blob"`
	}{}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	resp := map[string]interface{}{
		"key":          req.Blob.Filename,
		"filename":     req.Blob.Filename,
		"content_type": req.Blob.ContentType,
		"byte_size":    req.Blob.ByteSize,
		"checksum":     req.Blob.Checksum,
		"signed_id":    SignedID(req.Blob.Filename),
		"direct_upload": map[string]interface{}{
			"url":     s.URL + uploadPrefix + req.Blob.Filename,
			"headers": map[string]string{"Content-Type": req.Blob.ContentType},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// SignedID is the identifier given by the server to the file.
func SignedID(filename string) string {
	return "signed-" + filename
}
