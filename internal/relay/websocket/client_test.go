package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"chat-relay/internal/common/config"
	"chat-relay/internal/common/logger"
	messagedomain "chat-relay/internal/message/domain"
	"chat-relay/internal/relay/broadcast"
)

// recordingRepo captures inserts so tests can assert persistence ordering.
type recordingRepo struct {
	mu        sync.Mutex
	stored    []messagedomain.Message
	insertErr error
}

func (r *recordingRepo) Insert(_ context.Context, msg messagedomain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.stored = append(r.stored, msg)
	return nil
}

func (r *recordingRepo) List(context.Context, int) ([]messagedomain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messagedomain.Message(nil), r.stored...), nil
}

func (r *recordingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stored)
}

func testConfig() config.RelayConfig {
	return config.RelayConfig{
		JWTSecret:           "0123456789abcdef0123456789abcdef",
		RequestTimeout:      time.Second,
		WebSocketWriteWait:  time.Second,
		WebSocketPongWait:   5 * time.Second,
		WebSocketPingPeriod: 4 * time.Second,
		WebSocketMaxMsgSize: 64 * 1024,
	}
}

func startRelay(t *testing.T, repo *recordingRepo) *httptest.Server {
	t.Helper()
	log, err := logger.New("", "test", "CRITICAL")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	channel := broadcast.NewChannel(100)
	srv := httptest.NewServer(NewHandler(channel, repo, testConfig(), log))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *gorillaWS.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *gorillaWS.Conn) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return payload
}

func expectNoFrame(t *testing.T, conn *gorillaWS.Conn, wait time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	if _, payload, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected frame delivered: %s", payload)
	}
}

const validFrame = `{"username":"alice","content":"hello","timestamp":"2025-06-01T12:00:00Z"}`

func TestMessageIsPersistedAndFannedOut(t *testing.T) {
	repo := &recordingRepo{}
	srv := startRelay(t, repo)

	sender := dial(t, srv)
	receiver := dial(t, srv)
	time.Sleep(50 * time.Millisecond)

	if err := sender.WriteMessage(gorillaWS.TextMessage, []byte(validFrame)); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := readFrame(t, receiver)
	if string(got) != validFrame {
		t.Errorf("delivered frame = %s, want the original bytes", got)
	}

	// Delivery implies the insert already happened.
	if repo.count() != 1 {
		t.Fatalf("stored %d messages, want 1", repo.count())
	}
	stored := repo.stored[0]
	if stored.Username != "alice" || stored.Content != "hello" {
		t.Errorf("stored message = %+v", stored)
	}
	if want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC); !stored.Timestamp.Equal(want) {
		t.Errorf("stored timestamp = %v, want %v", stored.Timestamp, want)
	}
}

func TestSenderReceivesOwnMessage(t *testing.T) {
	srv := startRelay(t, &recordingRepo{})

	conn := dial(t, srv)
	time.Sleep(50 * time.Millisecond)

	if err := conn.WriteMessage(gorillaWS.TextMessage, []byte(validFrame)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := readFrame(t, conn); string(got) != validFrame {
		t.Errorf("self-delivered frame = %s, want the original bytes", got)
	}
}

func TestNonMessageFramesAreDroppedSilently(t *testing.T) {
	repo := &recordingRepo{}
	srv := startRelay(t, repo)

	sender := dial(t, srv)
	receiver := dial(t, srv)
	time.Sleep(50 * time.Millisecond)

	// Clients send their bearer token as the first frame; it is not a chat
	// message and must not be persisted or relayed.
	frames := []string{
		"Bearer eyJhbGciOiJIUzI1NiJ9.token",
		"{not json",
		`"just a string"`,
	}
	for _, frame := range frames {
		if err := sender.WriteMessage(gorillaWS.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write %q: %v", frame, err)
		}
	}

	expectNoFrame(t, receiver, 200*time.Millisecond)
	if repo.count() != 0 {
		t.Errorf("stored %d messages from non-message frames, want 0", repo.count())
	}

	// The timed-out read above leaves that receiver's reader permanently
	// failed, so verify the connection survives bad frames on a fresh one.
	fresh := dial(t, srv)
	time.Sleep(50 * time.Millisecond)

	if err := sender.WriteMessage(gorillaWS.TextMessage, []byte(validFrame)); err != nil {
		t.Fatalf("write after bad frames: %v", err)
	}
	if got := readFrame(t, fresh); string(got) != validFrame {
		t.Errorf("frame after bad input = %s, want the original bytes", got)
	}
}

func TestBadTimestampIsDropped(t *testing.T) {
	repo := &recordingRepo{}
	srv := startRelay(t, repo)

	sender := dial(t, srv)
	receiver := dial(t, srv)
	time.Sleep(50 * time.Millisecond)

	frame := `{"username":"alice","content":"hello","timestamp":"yesterday at noon"}`
	if err := sender.WriteMessage(gorillaWS.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}

	expectNoFrame(t, receiver, 200*time.Millisecond)
	if repo.count() != 0 {
		t.Errorf("stored %d messages with bad timestamps, want 0", repo.count())
	}
}

func TestDisconnectLeavesOthersRelaying(t *testing.T) {
	repo := &recordingRepo{}
	srv := startRelay(t, repo)

	a := dial(t, srv)
	b := dial(t, srv)
	c := dial(t, srv)
	time.Sleep(50 * time.Millisecond)

	_ = a.WriteControl(gorillaWS.CloseMessage,
		gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""), time.Now().Add(time.Second))
	a.Close()
	time.Sleep(50 * time.Millisecond)

	if err := b.WriteMessage(gorillaWS.TextMessage, []byte(validFrame)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := readFrame(t, c); string(got) != validFrame {
		t.Errorf("frame after peer disconnect = %s, want the original bytes", got)
	}
}

func TestStorageFailureClosesConnection(t *testing.T) {
	repo := &recordingRepo{insertErr: errors.New("connection refused")}
	srv := startRelay(t, repo)

	sender := dial(t, srv)
	receiver := dial(t, srv)
	time.Sleep(50 * time.Millisecond)

	if err := sender.WriteMessage(gorillaWS.TextMessage, []byte(validFrame)); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Nothing is relayed when persistence fails.
	expectNoFrame(t, receiver, 200*time.Millisecond)

	// The failing sender's connection is torn down.
	_ = sender.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := sender.ReadMessage(); err == nil {
		t.Error("connection stayed open after storage failure")
	}
}
