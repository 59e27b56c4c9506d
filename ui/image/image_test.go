package image

import (
	"strings"
	"testing"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestDetect(t *testing.T) {
	cases := []struct {
		vals map[string]string
		want Protocol
	}{
		{map[string]string{"TERM_PROGRAM": "WezTerm"}, ProtocolKitty},
		{map[string]string{"TERM_PROGRAM": "iTerm.app"}, ProtocolITerm2},
		{map[string]string{"TERM": "xterm-kitty"}, ProtocolKitty},
		{map[string]string{"TERM": "xterm-256color"}, ProtocolNone},
	}
	for _, c := range cases {
		if got := detect(env(c.vals)); got != c.want {
			t.Errorf("%v: want %s, got %s", c.vals, c.want, got)
		}
	}
}

func TestRender_PlaceholderWithoutData(t *testing.T) {
	got := Render(ProtocolKitty, nil, "https://img.example/rash.jpg", 40)
	if !strings.Contains(got, "[Image: rash.jpg]") {
		t.Errorf("want placeholder, got %q", got)
	}
}

func TestRender_Protocols(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G'}
	if got := Render(ProtocolKitty, data, "a.png", 40); !strings.HasPrefix(got, "\033_G") {
		t.Errorf("want kitty APC sequence, got %q", got)
	}
	if got := Render(ProtocolITerm2, data, "a.png", 40); !strings.HasPrefix(got, "\033]1337;File=") {
		t.Errorf("want iTerm2 OSC sequence, got %q", got)
	}
	if got := Render(ProtocolNone, data, "a.png", 40); !strings.Contains(got, "[Image: a.png]") {
		t.Errorf("want placeholder, got %q", got)
	}
}

func TestName(t *testing.T) {
	cases := map[string]string{
		"https://img.example/u/rash.jpg?x=1": "rash.jpg",
		"data:image/png;base64,AAAA":         "inline image",
		"":                                   "image",
		"/uploads/scan.png":                  "scan.png",
	}
	for in, want := range cases {
		if got := Name(in); got != want {
			t.Errorf("Name(%q): want %q, got %q", in, want, got)
		}
	}
}
