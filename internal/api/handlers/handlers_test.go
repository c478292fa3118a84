package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/imovlocal/backend/internal/api/middleware"
	"github.com/imovlocal/backend/internal/domain/user"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// serve routes one request through pattern so chi URL params resolve.
// A nil user leaves the request anonymous.
func serve(t *testing.T, method, pattern, target string, h http.HandlerFunc, u *user.User, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), u))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
		}
	}
	return rr, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Data, err)
	}
}
