package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay/internal/auth/service"
	"chat-relay/internal/common/clock"
	commonerrors "chat-relay/internal/common/errors"
	"chat-relay/internal/common/logger"
	userdomain "chat-relay/internal/user/domain"
)

// memoryUserRepo is a map-backed stand-in for the Postgres repository.
type memoryUserRepo struct {
	users map[string]userdomain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]userdomain.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user userdomain.User) error {
	if _, ok := r.users[user.Username]; ok {
		return errors.New("duplicate")
	}
	r.users[user.Username] = user
	return nil
}

func (r *memoryUserRepo) FindByUsername(_ context.Context, username string) (userdomain.User, error) {
	user, ok := r.users[username]
	if !ok {
		return userdomain.User{}, commonerrors.ErrUserNotFound
	}
	return user, nil
}

type reversibleHasher struct{}

func (reversibleHasher) Hash(password string) (string, error) { return "h:" + password, nil }

func (reversibleHasher) Compare(hash, password string) error {
	if hash != "h:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	log, err := logger.New("", "test", "CRITICAL")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	auth := service.NewAuthService(service.AuthServiceDeps{
		Repo:   newMemoryUserRepo(),
		Hasher: reversibleHasher{},
		Clock:  clock.NewRealClock(),
		Log:    log,
	}, "0123456789abcdef0123456789abcdef", 24*time.Hour)

	return NewHandler(auth, log)
}

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := postJSON(handler, "/register", `{"username":"alice","password":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body)
	}

	rec = postJSON(handler, "/register", `{"username":"alice","password":"password123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate register status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = postJSON(handler, "/register", `{"username":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed json status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = postJSON(handler, "/register", `{"username":"ab","password":"password123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid username status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLoginEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	if rec := postJSON(handler, "/register", `{"username":"alice","password":"password123"}`); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec := postJSON(handler, "/login", `{"username":"alice","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Error("login response has empty token")
	}

	rec = postJSON(handler, "/login", `{"username":"alice","password":"wrong-password"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = postJSON(handler, "/login", `{"username":"nobody","password":"password123"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestEndpointsRejectNonPost(t *testing.T) {
	handler := newTestHandler(t)

	for _, path := range []string{"/register", "/login"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}
