package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/scrypster/coref/internal/config"
	"github.com/scrypster/coref/internal/doctest"
	"github.com/scrypster/coref/internal/engine"
	"github.com/scrypster/coref/internal/lexicon"
	"github.com/scrypster/coref/internal/metrics"
	"github.com/scrypster/coref/pkg/types"
)

type stubResolver struct {
	err   error
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, doc *types.Document) (*types.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &types.Result{
		DocumentID: doc.ID,
		Chains: []types.Chain{{Reference: "r1", Mentions: []types.MentionRef{
			{Begin: 0, End: 5, Text: "Chris", Kind: types.KindEntity, Class: types.ClassPerson},
			{Begin: 10, End: 12, Text: "he", Kind: types.KindPronoun},
		}}},
		MentionCount: 2,
	}, nil
}

func (s *stubResolver) DebugResolve(ctx context.Context, doc *types.Document) (*types.Result, *engine.DebugResolveResult, error) {
	res, err := s.Resolve(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	return res, &engine.DebugResolveResult{DocumentID: doc.ID, MentionsDetected: 2}, nil
}

func (s *stubResolver) Sieves() []string { return []string{"exact-string-match", "pronoun-resolution"} }

type stubHealth string

func (h stubHealth) State() string { return string(h) }

const simpleDoc = `{"id": "d1", "text": "Chris said he left.", "sentences": [{"begin": 0, "end": 19}],
  "tokens": [{"begin": 0, "end": 5, "pos": "NNP"}, {"begin": 6, "end": 10, "pos": "VBD"},
    {"begin": 11, "end": 13, "pos": "PRP"}, {"begin": 14, "end": 18, "pos": "VBD"}, {"begin": 18, "end": 19, "pos": "."}]}`

func testConfig() config.ServerConfig {
	cfg := config.Defaults().Server
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.RateLimit = 0
	return cfg
}

func newTestServer(t *testing.T, r Resolver, mutate func(*Options)) *Server {
	t.Helper()
	opts := Options{Config: testConfig()}
	if mutate != nil {
		mutate(&opts)
	}
	return New(r, opts)
}

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResolveEndpoint(t *testing.T) {
	res := &stubResolver{}
	h := newTestServer(t, res, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/resolve", simpleDoc, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Result   types.Result    `json:"result"`
		Document *types.Document `json:"document"`
		Debug    json.RawMessage `json:"debug"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "d1", body.Result.DocumentID)
	require.Len(t, body.Result.Chains, 1)
	assert.Equal(t, []string{"Chris", "he"}, body.Result.Chains[0].Texts())
	require.NotNil(t, body.Document)
	assert.Len(t, body.Document.Tokens, 5)
	assert.Empty(t, body.Debug)
	assert.Equal(t, 1, res.calls)
}

func TestResolveEndpoint_Trace(t *testing.T) {
	h := newTestServer(t, &stubResolver{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/resolve?trace=1", simpleDoc, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Debug engine.DebugResolveResult `json:"debug"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "d1", body.Debug.DocumentID)
	assert.Equal(t, 2, body.Debug.MentionsDetected)
}

func TestResolveEndpoint_YAML(t *testing.T) {
	h := newTestServer(t, &stubResolver{}, nil).Handler()
	yamlDoc := "id: y1\ntext: Chris left.\ntokens:\n  - {begin: 0, end: 5, pos: NNP}\n"

	rec := do(t, h, http.MethodPost, "/api/resolve", yamlDoc, map[string]string{"Content-Type": "application/yaml"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"document_id":"y1"`)
}

func TestResolveEndpoint_Errors(t *testing.T) {
	t.Run("method", func(t *testing.T) {
		h := newTestServer(t, &stubResolver{}, nil).Handler()
		rec := do(t, h, http.MethodGet, "/api/resolve", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("invalid document", func(t *testing.T) {
		res := &stubResolver{}
		h := newTestServer(t, res, nil).Handler()
		rec := do(t, h, http.MethodPost, "/api/resolve", `{"text": "ab", "tokens": [{"begin": 0, "end": 9}]}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var e ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.Equal(t, "INVALID_DOCUMENT", e.Code)
		assert.Zero(t, res.calls)
	})

	t.Run("too large", func(t *testing.T) {
		srv := newTestServer(t, &stubResolver{}, func(o *Options) { o.Config.MaxBodyMB = 1 })
		big := `{"text": "` + strings.Repeat("a", 2<<20) + `"}`
		rec := do(t, srv.Handler(), http.MethodPost, "/api/resolve", big, nil)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("engine failure", func(t *testing.T) {
		h := newTestServer(t, &stubResolver{err: errors.New("dangling dependency")}, nil).Handler()
		rec := do(t, h, http.MethodPost, "/api/resolve", simpleDoc, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "MALFORMED_ANNOTATIONS")
	})

	t.Run("cancelled", func(t *testing.T) {
		h := newTestServer(t, &stubResolver{err: context.Canceled}, nil).Handler()
		rec := do(t, h, http.MethodPost, "/api/resolve", simpleDoc, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestSievesEndpoint(t *testing.T) {
	h := newTestServer(t, &stubResolver{}, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/sieves", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body SievesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"exact-string-match", "pronoun-resolution"}, body.Sieves)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, &stubResolver{}, func(o *Options) {
		o.Gazetteer = stubHealth("closed")
		o.Config.APIToken = "secret"
	}).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, "health needs no token")

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "closed", body.Gazetteer)
}

func TestAuth(t *testing.T) {
	h := newTestServer(t, &stubResolver{}, func(o *Options) { o.Config.APIToken = "secret" }).Handler()

	rec := do(t, h, http.MethodGet, "/api/sieves", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/sieves", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/sieves", "", map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, &stubResolver{}, func(o *Options) {
		o.Config.RateLimit = 0.001
		o.Config.RateBurst = 2
	}).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "", nil).Code)
	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, rl.limiter.Allow())
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestServer(t, &stubResolver{}, nil).Handler()
	rec := do(t, h, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := newTestServer(t, &stubResolver{}, func(o *Options) {
		o.Requests = m
		o.Gatherer = reg
	}).Handler()

	do(t, h, http.MethodGet, "/healthz", "", nil)
	do(t, h, http.MethodGet, "/nope", "", nil)

	rec := do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `coref_http_requests_total{code="200",path="/healthz"} 1`)
	assert.Contains(t, body, `coref_http_requests_total{code="404",path="other"} 1`)
}

func TestMetricsEndpoint_Absent(t *testing.T) {
	h := newTestServer(t, &stubResolver{}, nil).Handler()
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "", nil).Code)
}

// mockClient stands in for a WebSocket connection.
type mockClient struct {
	send    chan []byte
	dropped bool
	closed  bool
}

func (m *mockClient) getSendChannel() chan []byte { return m.send }
func (m *mockClient) drop()                       { m.dropped = true }
func (m *mockClient) close()                      { m.closed = true }

func TestHub_BroadcastOnResolve(t *testing.T) {
	srv := newTestServer(t, &stubResolver{}, nil)
	go srv.hub.Run()
	defer srv.hub.Stop()

	client := &mockClient{send: make(chan []byte, 4)}
	srv.hub.Register(client)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/resolve", simpleDoc, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case data := <-client.send:
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, EventResolved, ev.Type)
		assert.Equal(t, "d1", ev.DocumentID)
		assert.Equal(t, 1, ev.Chains)
		assert.Equal(t, 2, ev.Mentions)
	case <-time.After(2 * time.Second):
		t.Fatal("no event broadcast")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewWebSocketHub(nil, nil, nil)
	go hub.Run()
	defer hub.Stop()

	slow := &mockClient{send: make(chan []byte)}
	hub.Register(slow)
	hub.Broadcast(Event{Type: EventResolved})

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 0
	}, 2*time.Second, 10*time.Millisecond)

	hub.mu.RLock()
	assert.True(t, slow.dropped)
	hub.mu.RUnlock()
}

func TestHub_Stop(t *testing.T) {
	hub := NewWebSocketHub(nil, nil, nil)
	go hub.Run()

	client := &mockClient{send: make(chan []byte, 1)}
	hub.Register(client)
	hub.Stop()

	assert.True(t, client.closed)
	assert.True(t, client.dropped)
	// Registering after Stop must not block.
	hub.Register(&mockClient{send: make(chan []byte, 1)})
}

func TestServer_WebSocketRoundTrip(t *testing.T) {
	resolver, err := engine.NewResolver(lexicon.Default(), nil, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	srv := newTestServer(t, resolver, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := srv.Start(ctx)
	require.NoError(t, err)

	// Chris Smith went home and he slept.
	doc := doctest.New(t,
		`(S (S (NP (NNP Chris) (NNP Smith)) (VP (VBD went) (ADVP (RB home)))) (CC and) `+
			`(S (NP (PRP he)) (VP (VBD slept))) (. .))`).
		Heads(1, 2, -1, 2, 2, 6, 2, 2).
		Entity(types.ClassPerson, "Chris Smith").
		Doc()
	doc.ID = "ws-1"
	payload, err := json.Marshal(doc)
	require.NoError(t, err)

	dialCtx, dialCancel := context.WithTimeout(ctx, 5*time.Second)
	defer dialCancel()
	conn, _, err := websocket.Dial(dialCtx, "ws://"+addr+"/ws", nil) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }() //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	require.NoError(t, conn.Write(dialCtx, websocket.MessageText, payload)) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	// The reply and the broadcast event arrive in either order.
	var reply struct {
		Result types.Result `json:"result"`
	}
	var sawEvent, sawReply bool
	for !(sawEvent && sawReply) {
		_, data, err := conn.Read(dialCtx) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		require.NoError(t, err)
		if bytes.Contains(data, []byte(`"type":"`+EventResolved+`"`)) {
			sawEvent = true
			continue
		}
		require.NoError(t, json.Unmarshal(data, &reply))
		sawReply = true
	}

	assert.Equal(t, "ws-1", reply.Result.DocumentID)
	require.Len(t, reply.Result.Chains, 1)
	assert.Equal(t, []string{"Chris Smith", "he"}, reply.Result.Chains[0].Texts())

	// Plain HTTP works on the same listener.
	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(b))
}

func TestClient_TrySendAfterDrop(t *testing.T) {
	c := newClient(NewWebSocketHub(nil, nil, nil), nil)
	assert.True(t, c.trySend([]byte("a")))

	c.drop()
	c.drop()
	assert.False(t, c.trySend([]byte("b")))

	full := newClient(NewWebSocketHub(nil, nil, nil), nil)
	full.send = make(chan []byte)
	assert.False(t, full.trySend([]byte("c")), "a full queue never blocks the reader")
}

func startServer(t *testing.T, r Resolver, mutate func(*Options)) string {
	t.Helper()
	srv := newTestServer(t, r, mutate)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	addr, err := srv.Start(ctx)
	require.NoError(t, err)
	return addr
}

// readReply skips broadcast events and decodes the first direct reply.
func readReply(t *testing.T, ctx context.Context, conn *websocket.Conn) map[string]json.RawMessage { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	t.Helper()
	for {
		_, data, err := conn.Read(ctx) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		require.NoError(t, err)
		if bytes.Contains(data, []byte(`"type":"`+EventResolved+`"`)) {
			continue
		}
		var reply map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &reply))
		return reply
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	addr := startServer(t, &stubResolver{}, func(o *Options) { o.Config.APIToken = "secret" })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, "ws://"+addr+"/ws", nil) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.Dial(ctx, "ws://"+addr+"/ws?token=wrong", nil) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for _, dial := range []struct {
		url  string
		opts *websocket.DialOptions //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	}{
		{"ws://" + addr + "/ws?token=secret", nil},
		{"ws://" + addr + "/ws", &websocket.DialOptions{HTTPHeader: http.Header{"Authorization": {"Bearer secret"}}}}, //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	} {
		conn, _, err := websocket.Dial(ctx, dial.url, dial.opts) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		require.NoError(t, err, dial.url)
		require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(simpleDoc))) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		reply := readReply(t, ctx, conn)
		assert.Contains(t, reply, "result")
		_ = conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	}
}

func TestWebSocket_LargeDocument(t *testing.T) {
	addr := startServer(t, &stubResolver{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text := strings.Repeat("Chris said he left. ", 5000)
	payload := fmt.Sprintf(`{"id": "big", "text": %q, "tokens": [{"begin": 0, "end": 5, "pos": "NNP"}]}`, text)
	require.Greater(t, len(payload), 64<<10)

	conn, _, err := websocket.Dial(ctx, "ws://"+addr+"/ws", nil) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }() //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(payload))) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	reply := readReply(t, ctx, conn)
	require.Contains(t, reply, "result", string(reply["error"]))
	assert.Contains(t, string(reply["result"]), `"document_id":"big"`)
}
