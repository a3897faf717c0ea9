package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/skim/internal/config"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Channels in Practice</title></head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Channels in Practice</h1>
<p>Channels are the pipes that connect concurrent goroutines. You can send values into channels from one goroutine and receive those values into another goroutine, which makes them the primary coordination tool in most programs.</p>
<p>A buffered channel accepts a limited number of values without a corresponding receiver for those values. This is useful when producers and consumers run at different speeds and occasional bursts should not block the sender.</p>
<pre><code class="language-go">ch := make(chan int, 2)</code></pre>
<ul><li>Close a channel only from the sending side.</li><li>Range over a channel to drain it.</li></ul>
</article>
</body></html>`

type staticCreds string

func (s staticCreds) Credential(context.Context) (string, bool) { return string(s), s != "" }

type completionServer struct {
	*httptest.Server
	calls    atomic.Int32
	failures int32
	status   int
	reply    string
	lastReq  atomic.Pointer[chatRequest]
	lastAuth atomic.Pointer[string]
}

func newCompletionServer(t *testing.T, reply string) *completionServer {
	t.Helper()
	cs := &completionServer{reply: reply, status: http.StatusServiceUnavailable}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := cs.calls.Add(1)
		auth := r.Header.Get("Authorization")
		cs.lastAuth.Store(&auth)

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			cs.lastReq.Store(&req)
		}

		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if n <= cs.failures {
			w.WriteHeader(cs.status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": cs.reply}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(completionURL string, creds CredentialSource) *Client {
	cfg := config.DefaultConfig()
	cfg.SummarizerBaseURL = completionURL + "/v1/"
	cfg.SummarizerTimeoutSeconds = 5
	cfg.SummarizerMaxRetries = 2

	c := New(cfg, creds, nil)
	c.backoff = time.Millisecond
	c.now = func() time.Time { return time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC) }
	return c
}

func TestSummarize_Success(t *testing.T) {
	pages := newPageServer(t)
	model := newCompletionServer(t, "# Channels in Practice\n* pipes between goroutines")
	client := newTestClient(model.URL, staticCreds("sk-test"))

	summary, err := client.Summarize(context.Background(), pages.URL+"/post", false)
	require.NoError(t, err)
	require.Equal(t, "# Channels in Practice\n* pipes between goroutines", summary.Text)
	require.NotEmpty(t, summary.FileName)
	require.False(t, strings.HasPrefix(summary.FileName, "draft-skim-"))

	require.Equal(t, "Bearer sk-test", *model.lastAuth.Load())

	req := model.lastReq.Load()
	require.NotNil(t, req)
	require.Equal(t, config.DefaultConfig().SummarizerModel, req.Model)
	require.Len(t, req.Messages, 2)
	require.Contains(t, req.Messages[0].Content, "Do not include code")
	require.Contains(t, req.Messages[1].Content, "URL: "+pages.URL+"/post")
	require.Contains(t, req.Messages[1].Content, "buffered channel")
}

func TestSummarize_WithCodePrompt(t *testing.T) {
	pages := newPageServer(t)
	model := newCompletionServer(t, "# T")
	client := newTestClient(model.URL, staticCreds("sk-test"))

	_, err := client.Summarize(context.Background(), pages.URL, true)
	require.NoError(t, err)
	require.Contains(t, model.lastReq.Load().Messages[0].Content, "fenced code blocks")
}

func TestSummarize_NoHeadingUsesDraftName(t *testing.T) {
	pages := newPageServer(t)
	model := newCompletionServer(t, "just some prose")
	client := newTestClient(model.URL, staticCreds("sk-test"))

	summary, err := client.Summarize(context.Background(), pages.URL, false)
	require.NoError(t, err)
	require.Equal(t, "draft-skim-2024-1-2-3-4-5", summary.FileName)
}

func TestSummarize_EmptyReply(t *testing.T) {
	pages := newPageServer(t)
	model := newCompletionServer(t, "   ")
	client := newTestClient(model.URL, staticCreds("sk-test"))

	summary, err := client.Summarize(context.Background(), pages.URL, false)
	require.NoError(t, err)
	require.Empty(t, summary.Text)
}

func TestSummarize_RetriesTransientFailures(t *testing.T) {
	pages := newPageServer(t)
	model := newCompletionServer(t, "# Recovered")
	model.failures = 2
	client := newTestClient(model.URL, staticCreds("sk-test"))

	summary, err := client.Summarize(context.Background(), pages.URL, false)
	require.NoError(t, err)
	require.Equal(t, "# Recovered", summary.Text)
	require.Equal(t, int32(3), model.calls.Load())
}

func TestSummarize_GivesUpAfterMaxRetries(t *testing.T) {
	pages := newPageServer(t)
	model := newCompletionServer(t, "# Never")
	model.failures = 100
	client := newTestClient(model.URL, staticCreds("sk-test"))

	_, err := client.Summarize(context.Background(), pages.URL, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Equal(t, int32(3), model.calls.Load())
}

func TestSummarize_ClientErrorNotRetried(t *testing.T) {
	pages := newPageServer(t)
	model := newCompletionServer(t, "# Never")
	model.failures = 100
	model.status = http.StatusUnauthorized
	client := newTestClient(model.URL, staticCreds("sk-bad"))

	_, err := client.Summarize(context.Background(), pages.URL, false)
	require.Error(t, err)
	require.Equal(t, int32(1), model.calls.Load())
}

func TestSummarize_PageFetchFailure(t *testing.T) {
	pages := newPageServer(t)
	model := newCompletionServer(t, "# Never")
	client := newTestClient(model.URL, staticCreds("sk-test"))

	_, err := client.Summarize(context.Background(), pages.URL+"/missing", false)
	require.Error(t, err)
	require.Equal(t, int32(0), model.calls.Load())
}

func TestSummarize_NoCredential(t *testing.T) {
	model := newCompletionServer(t, "# Never")
	client := newTestClient(model.URL, staticCreds(""))

	_, err := client.Summarize(context.Background(), "https://example.com", false)
	require.Error(t, err)
	require.Equal(t, int32(0), model.calls.Load())
}

func TestRenderBlocks(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<h2>Setup</h2>
		<p>Install   the
		tool.</p>
		<pre><code class="hljs language-sh">go install ./...</code></pre>
		<ul><li>fast</li><li> </li></ul>`))
	require.NoError(t, err)

	require.Equal(t, "## Setup\n\nInstall the tool.\n\n- fast", renderBlocks(doc, false))
	require.Equal(t, "## Setup\n\nInstall the tool.\n\n```sh\ngo install ./...\n```\n\n- fast", renderBlocks(doc, true))
}

func TestExtract(t *testing.T) {
	html := `<html><head><title>Release notes</title></head><body>
		<nav><a href="/">Home</a></nav>
		<article>
			<h1>Release notes</h1>
			<p>This release makes the exporter write each document atomically, so an interrupted export never leaves a half written file behind in the output folder.</p>
			<p>It also    trims page text before it is sent to the model, which keeps long pages inside the configured character budget.</p>
			<pre><code class="language-go">fmt.Println("hi")</code></pre>
		</article>
	</body></html>`

	p, err := extract("https://example.com/notes", html, false)
	require.NoError(t, err)
	require.Equal(t, "Release notes", p.Title)
	require.Contains(t, p.Body, "It also trims page text before it is sent to the model")
	require.NotContains(t, p.Body, "fmt.Println")

	p, err = extract("https://example.com/notes", html, true)
	require.NoError(t, err)
	require.Contains(t, p.Body, "fmt.Println(\"hi\")\n```")
}

func TestExtract_NoContent(t *testing.T) {
	_, err := extract("https://example.com", "<html><body></body></html>", false)
	require.Error(t, err)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Install   the\n\t\ttool.", "Install the tool."},
		{"  padded  ", "padded"},
		{"\n\n", ""},
		{"one", "one"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, normalizeText(tc.in), "input %q", tc.in)
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "héll", truncate("héllo", 4))
	require.Equal(t, "héllo", truncate("héllo", 10))
	require.Equal(t, "héllo", truncate("héllo", 0))
}
