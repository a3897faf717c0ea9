package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/skim/internal/config"
	"github.com/hpungsan/skim/internal/coordinator"
	"github.com/hpungsan/skim/internal/db"
	"github.com/hpungsan/skim/internal/ops"
	"github.com/hpungsan/skim/internal/settings"
)

type stubSummarizer struct{}

func (stubSummarizer) Summarize(context.Context, string, bool) (ops.Summary, error) {
	return ops.Summary{FileName: "stub", Text: "# Stub\nbody"}, nil
}

type testServer struct {
	*httptest.Server
	store  *settings.Store
	folder string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Init(t.TempDir())
	require.NoError(t, err)

	folder := t.TempDir()
	store := settings.New(database, settings.Defaults{OutputFolderPath: folder, WindowWidth: 1200, WindowHeight: 800}, nil)
	coord := coordinator.New(coordinator.Config{Store: store, Summarizer: stubSummarizer{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- coord.Run(ctx) }()

	srv, err := NewServer(coord, config.DefaultConfig(), "test", nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
		database.Close()
	})

	return &testServer{Server: ts, store: store, folder: folder}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Channel string          `json:"channel"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

func writeFrame(t *testing.T, conn *websocket.Conn, channel string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(coordinator.Inbound{Channel: channel, Payload: raw}))
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHandleIndex(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'self'")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "<!DOCTYPE html>")
	require.Contains(t, string(body), "/static/app.js")
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleRender(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/render", "application/json",
		strings.NewReader(`{"markdown": "# Title\n\n* one\n\n<script>alert(1)</script>"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out RenderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Contains(t, out.HTML, "<h1>Title</h1>")
	require.Contains(t, out.HTML, "<li>one</li>")
	require.NotContains(t, out.HTML, "<script>")
}

func TestHandleRender_BadBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/render", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "INVALID_REQUEST", out.Error.Code)
}

func TestWebSocket_ReadyAndSummary(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	writeFrame(t, conn, coordinator.ChannelReady, struct{}{})

	f := readFrame(t, conn)
	require.Equal(t, coordinator.ChannelCredentialStatus, f.Channel)
	require.JSONEq(t, `{"present": false}`, string(f.Payload))

	f = readFrame(t, conn)
	require.Equal(t, coordinator.ChannelFolderPath, f.Channel)
	var folder coordinator.FolderPath
	require.NoError(t, json.Unmarshal(f.Payload, &folder))
	require.Equal(t, ts.folder, folder.Path)

	f = readFrame(t, conn)
	require.Equal(t, coordinator.ChannelWindowSize, f.Channel)
	require.JSONEq(t, `{"width": 1200, "height": 800}`, string(f.Payload))

	writeFrame(t, conn, coordinator.ChannelRequestSummary, map[string]any{"url": "https://example.com", "withCode": false})
	f = readFrame(t, conn)
	require.Equal(t, coordinator.ChannelSummaryResult, f.Channel)
	require.NotEmpty(t, f.ID)
	require.JSONEq(t, `{"fileName": "", "text": "You must provide an API key"}`, string(f.Payload))

	writeFrame(t, conn, coordinator.ChannelSaveCredential, map[string]string{"secret": "sk-test"})
	f = readFrame(t, conn)
	require.JSONEq(t, `{"present": true}`, string(f.Payload))

	writeFrame(t, conn, coordinator.ChannelRequestSummary, map[string]any{"url": "https://example.com", "withCode": true})
	f = readFrame(t, conn)
	require.JSONEq(t, `{"fileName": "stub", "text": "# Stub\nbody"}`, string(f.Payload))
}

func TestWebSocket_MalformedFrameIgnored(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{{{`)))
	writeFrame(t, conn, coordinator.ChannelSaveCredential, map[string]string{"secret": "sk"})

	f := readFrame(t, conn)
	require.Equal(t, coordinator.ChannelCredentialStatus, f.Channel)
}

func TestWebSocket_NewConnectionReplacesOld(t *testing.T) {
	ts := newTestServer(t)
	first := ts.dial(t)
	writeFrame(t, first, coordinator.ChannelSaveCredential, map[string]string{"secret": "sk"})
	readFrame(t, first)

	second := ts.dial(t)
	writeFrame(t, second, coordinator.ChannelExport, map[string]string{"fileName": "notes", "text": "# Hi\nworld"})

	f := readFrame(t, second)
	require.Equal(t, coordinator.ChannelExportResult, f.Channel)
	var result struct {
		Path *string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(f.Payload, &result))
	require.NotNil(t, result.Path)
	require.True(t, strings.HasSuffix(*result.Path, "notes.md"))
}

func TestWebSocket_CrossOriginRejected(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
