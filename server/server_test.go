package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/ui/avatar"
	"github.com/arogya-ai/chatview/ui/conversation"
)

type failingProber struct{ calls atomic.Int32 }

func (p *failingProber) Probe(context.Context, string) error {
	p.calls.Add(1)
	return errors.New("404")
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestRender_Fragment(t *testing.T) {
	s := New(Options{})
	body := `{"messages":[{"id":"m1","type":"user","contentType":"text","content":"Hello **world**","timestamp":"10:45 AM"}]}`
	rec := do(t, s, http.MethodPost, "/render", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	out := rec.Body.String()
	for _, want := range []string{`data-key="m1"`, "<strong", "world</strong>", "10:45 AM"} {
		if !strings.Contains(out, want) {
			t.Errorf("want %q in %s", want, out)
		}
	}
	if strings.Contains(out, "<html") {
		t.Error("fragment must not carry the page shell")
	}
}

func TestRender_ScriptIsEscaped(t *testing.T) {
	s := New(Options{})
	rec := do(t, s, http.MethodPost, "/render", `[{"id":"x","type":"user","contentType":"text","content":"<script>x</script>"}]`)
	if strings.Contains(rec.Body.String(), "<script>") {
		t.Errorf("script element in output: %s", rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "&lt;script&gt;x&lt;/script&gt;") {
		t.Errorf("want escaped script text, got %s", rec.Body)
	}
}

func TestRender_BadJSON(t *testing.T) {
	rec := do(t, New(Options{}), http.MethodPost, "/render", `{"messages":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400, got %d", rec.Code)
	}
}

func TestRender_LoadingQuery(t *testing.T) {
	rec := do(t, New(Options{}), http.MethodPost, "/render?loading=1", `[]`)
	out := rec.Body.String()
	if !strings.Contains(out, conversation.DefaultLoadingCaption) {
		t.Errorf("want typing item, got %s", out)
	}
	if strings.Contains(out, conversation.DefaultEmptyTitle) {
		t.Error("loading must suppress the empty state")
	}
}

func TestPage_Source(t *testing.T) {
	src := func() (chat.Snapshot, error) {
		return chat.Snapshot{Messages: chat.Conversation{{ID: "a", Type: chat.RoleAssistant, ContentType: chat.ContentText, Content: "Drink water"}}}, nil
	}
	rec := do(t, New(Options{Title: "Preview", Source: src}), http.MethodGet, "/", "")
	out := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(out, "<title>Preview</title>") || !strings.Contains(out, "Drink water") {
		t.Errorf("unexpected page (%d): %s", rec.Code, out)
	}
	if !strings.Contains(out, "@keyframes pulse") {
		t.Error("want page shell styles")
	}
}

func TestPage_SourceError(t *testing.T) {
	src := func() (chat.Snapshot, error) { return chat.Snapshot{}, errors.New("gone") }
	rec := do(t, New(Options{Source: src}), http.MethodGet, "/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("want 500, got %d", rec.Code)
	}
}

func TestPage_EmptyStateHandler(t *testing.T) {
	e := echo.New()
	s := New(Options{})
	e.Renderer = newTemplates()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := s.Page(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), conversation.DefaultEmptyTitle) {
		t.Errorf("want empty state, got %s", rec.Body)
	}
}

func TestRender_AvatarFallsBackAfterProbe(t *testing.T) {
	p := &failingProber{}
	s := New(Options{Prober: p})
	defer s.Shutdown(context.Background())
	body := `{"viewer":{"displayName":"Maria","avatarImageUrl":"https://img.example/broken.png"},"messages":[{"id":"u","type":"user","contentType":"text","content":"hi"}]}`

	first := do(t, s, http.MethodPost, "/render", body).Body.String()
	if !strings.Contains(first, `data-kind="image"`) {
		t.Errorf("unknown outcome should be shown optimistically: %s", first)
	}
	if !strings.Contains(first, ">M<") || !strings.Contains(first, "onerror=") {
		t.Errorf("first response must carry the letter under the image: %s", first)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.AvatarState("https://img.example/broken.png") != avatar.LoadFailed {
		if time.Now().After(deadline) {
			t.Fatal("probe never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	second := do(t, s, http.MethodPost, "/render", body).Body.String()
	if !strings.Contains(second, `data-kind="initial"`) || !strings.Contains(second, ">M<") {
		t.Errorf("want initial M after failed probe: %s", second)
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("want one probe, got %d", n)
	}
}

func TestProbe_OnlyPublicHTTP(t *testing.T) {
	p := &failingProber{}
	s := New(Options{Prober: p})
	defer s.Shutdown(context.Background())
	for _, src := range []string{
		"file:///etc/passwd",
		"/avatars/me.png",
		"ftp://img.example/me.png",
		"http://localhost:8080/me.png",
		"http://127.0.0.1/me.png",
		"http://[::1]/me.png",
		"http://169.254.169.254/latest/meta-data",
		"http://10.0.0.7/me.png",
	} {
		if s.probe(src) {
			t.Errorf("%q must not be probed", src)
		}
	}
	if !s.probe("https://img.example/me.png") {
		t.Error("public https avatar should be probed")
	}
}

func TestRender_MalformedMessageDoesNotFailConversation(t *testing.T) {
	s := New(Options{})
	body := `{"messages":[{"id":"ok","type":"user","contentType":"text","content":"fine"},{"id":"bad","type":"assistant","contentType":"text","content":42}]}`
	rec := do(t, s, http.MethodPost, "/render", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	out := rec.Body.String()
	if !strings.Contains(out, `data-key="ok"`) || !strings.Contains(out, `data-key="bad"`) || !strings.Contains(out, ">42<") {
		t.Errorf("want both items, the bad one as text: %s", out)
	}
}

func TestMetrics(t *testing.T) {
	s := New(Options{})
	do(t, s, http.MethodPost, "/render", `[]`)
	rec := do(t, s, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), `chatview_renders_total{output="fragment",result="ok"} 1`) {
		t.Errorf("want render counter, got %s", rec.Body)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, New(Options{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("want ok, got %d %s", rec.Code, rec.Body)
	}
}
