package client

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Write(pngHeader)
		case "/page":
			w.Write([]byte("<html><body>nope</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New("", time.Second)

	img, err := c.Fetch(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("want image/png, got %q", img.ContentType)
	}
	if err := c.Probe(context.Background(), srv.URL+"/page"); !errors.Is(err, ErrNotImage) {
		t.Errorf("want ErrNotImage, got %v", err)
	}
	if err := c.Probe(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("want error for 404")
	}
}

func TestFetch_RelativeAgainstBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/static/logo.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(pngHeader)
	}))
	defer srv.Close()
	c := New(srv.URL+"/static/", time.Second)
	if err := c.Probe(context.Background(), "logo.png"); err != nil {
		t.Errorf("want relative fetch to succeed, got %v", err)
	}
}

func TestFetch_LocalFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scan.png"), pngHeader, 0o644); err != nil {
		t.Fatal(err)
	}
	c := New("", time.Second)
	c.BaseDir = dir
	if err := c.Probe(context.Background(), "scan.png"); err != nil {
		t.Errorf("want local file to load, got %v", err)
	}
}

func TestFetch_LocalFileOutsideBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "conversations")
	if err := os.Mkdir(base, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "secret.png"), pngHeader, 0o644); err != nil {
		t.Fatal(err)
	}
	c := New("", time.Second)
	c.BaseDir = base
	for _, src := range []string{"../secret.png", "a/../../secret.png", "..%2fsecret.png"} {
		err := c.Probe(context.Background(), src)
		if err == nil {
			t.Errorf("%q: file outside the base directory must not load", src)
		}
	}
	if err := c.Probe(context.Background(), "../secret.png"); !errors.Is(err, ErrOutsideBase) {
		t.Errorf("want ErrOutsideBase, got %v", err)
	}
}

func TestFetch_PublicOnlyRefusesLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	if err := New("", time.Second).Probe(context.Background(), srv.URL+"/a.png"); err != nil {
		t.Fatalf("default client should reach the test server: %v", err)
	}
	err := New("", time.Second, WithPublicOnly()).Probe(context.Background(), srv.URL+"/a.png")
	if !errors.Is(err, ErrPrivateAddress) {
		t.Errorf("want ErrPrivateAddress, got %v", err)
	}
}

func TestPublicAddr(t *testing.T) {
	cases := map[string]bool{
		"8.8.8.8":         true,
		"2606:4700::1111": true,
		"127.0.0.1":       false,
		"10.1.2.3":        false,
		"192.168.0.10":    false,
		"169.254.169.254": false,
		"::1":             false,
		"::ffff:10.0.0.1": false,
		"0.0.0.0":         false,
	}
	for in, want := range cases {
		if got := PublicAddr(netip.MustParseAddr(in)); got != want {
			t.Errorf("PublicAddr(%s) = %v, want %v", in, got, want)
		}
	}
}

func TestFetch_DataURL(t *testing.T) {
	c := New("", time.Second)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	if err := c.Probe(context.Background(), src); err != nil {
		t.Errorf("want data url to load, got %v", err)
	}
	if err := c.Probe(context.Background(), "data:text/plain,hi"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("want ErrUnsupported, got %v", err)
	}
}

func TestFetch_Unsupported(t *testing.T) {
	c := New("", time.Second)
	for _, src := range []string{"", "ftp://x/y.png", "javascript:alert(1)", "relative.png"} {
		if err := c.Probe(context.Background(), src); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%q: want ErrUnsupported, got %v", src, err)
		}
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New("", time.Second).Probe(ctx, srv.URL+"/slow.png"); err == nil {
		t.Error("want error for canceled context")
	}
}
