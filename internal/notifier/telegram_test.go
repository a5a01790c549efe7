package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type telegramStub struct {
	mu       sync.Mutex
	sent     []map[string]string
	failSend bool
	reject   string // answer sendMessage with 200 and ok=false
	updates  string
}

func (s *telegramStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/botTOKEN/sendMessage":
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		s.mu.Lock()
		s.sent = append(s.sent, payload)
		s.mu.Unlock()
		if s.reject != "" {
			fmt.Fprintf(w, `{"ok":false,"description":%q}`, s.reject)
			return
		}
		if s.failSend {
			http.Error(w, `{"ok":false}`, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	case "/botTOKEN/getUpdates":
		fmt.Fprint(w, s.updates)
	default:
		http.NotFound(w, r)
	}
}

func (s *telegramStub) messages() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.sent...)
}

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	return n
}

func TestSend(t *testing.T) {
	stub := &telegramStub{}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).Send(context.Background(), "<b>hi</b>"))

	sent := stub.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, map[string]string{"chat_id": "42", "text": "<b>hi</b>", "parse_mode": "HTML"}, sent[0])
}

func TestSendRejectedByAPI(t *testing.T) {
	stub := &telegramStub{reject: "Bad Request: chat not found"}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	err := newTestNotifier(srv).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sendMessage")
	assert.Contains(t, err.Error(), "chat not found")
}

func TestNewTelegramNotifierProxy(t *testing.T) {
	n := NewTelegramNotifier("TOKEN", "42", "http://proxy.local:3128")
	transport, ok := n.Client.Transport.(*http.Transport)
	require.True(t, ok)

	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org", nil)
	require.NoError(t, err)
	u, err := transport.Proxy(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "proxy.local:3128", u.Host)
}

func TestSendWithRetryExhausted(t *testing.T) {
	stub := &telegramStub{failSend: true}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	err := newTestNotifier(srv).SendWithRetry(context.Background(), "x", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 retries exhausted")
	assert.Len(t, stub.messages(), 1)
}

func TestSendWithRetryCancelled(t *testing.T) {
	stub := &telegramStub{failSend: true}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestNotifier(srv).SendWithRetry(ctx, "x", 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartPolling(t *testing.T) {
	stub := &telegramStub{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /kpi ","chat":{"id":42}}},
		{"update_id":8}
	]}`}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		newTestNotifier(srv).StartPolling(ctx, func(_ context.Context, cmd string) string {
			got = append(got, cmd)
			cancel()
			return "reply to " + cmd
		})
	}()
	<-done

	require.NotEmpty(t, got)
	assert.Equal(t, "/kpi", got[0])
	// The reply is sent with the cancelled context, so it may not arrive.
}

func TestStartPollingIgnoresOtherChats(t *testing.T) {
	stub := &telegramStub{updates: `{"ok":true,"result":[
		{"update_id":9,"message":{"text":"/run","chat":{"id":666}}},
		{"update_id":10,"message":{"text":"/kpi","chat":{"id":42}}}
	]}`}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		newTestNotifier(srv).StartPolling(ctx, func(_ context.Context, cmd string) string {
			got = append(got, cmd)
			cancel()
			return ""
		})
	}()
	<-done

	assert.Equal(t, []string{"/kpi"}, got, "command from chat 666 must not reach the handler")
}
