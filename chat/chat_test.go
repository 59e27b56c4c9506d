package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTimestamp_JSONStringIsVerbatim(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"10:45 AM"`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s, ok := ts.Preformatted()
	if !ok || s != "10:45 AM" {
		t.Errorf("want preformatted %q, got %q (ok=%v)", "10:45 AM", s, ok)
	}
	if _, isTime := ts.Time(); isTime {
		t.Error("a string timestamp must not become a time value")
	}
}

func TestTimestamp_JSONNumberIsStructured(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`1714560300000`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	at, ok := ts.Time()
	if !ok {
		t.Fatal("want structured time")
	}
	if at.UnixMilli() != 1714560300000 {
		t.Errorf("want 1714560300000, got %d", at.UnixMilli())
	}
}

func TestTimestamp_MalformedDecodesToZero(t *testing.T) {
	for _, raw := range []string{`true`, `{"x":1}`, `[1]`, `null`, `-5`, `""`} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Errorf("%s: unexpected error %v", raw, err)
			continue
		}
		if !ts.IsZero() {
			t.Errorf("%s: want zero timestamp", raw)
		}
	}
}

func TestTimestamp_JSONRoundTripKeepsKind(t *testing.T) {
	in := []Timestamp{Text("yesterday"), At(time.UnixMilli(1700000000000))}
	for _, ts := range in {
		data, err := json.Marshal(ts)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out Timestamp
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if out != ts {
			t.Errorf("want %+v, got %+v", ts, out)
		}
	}
}

func TestDecode_JSONSnapshot(t *testing.T) {
	src := `{
	  "loading": true,
	  "viewer": {"displayName": "Maria", "avatarImageUrl": "https://img.example/m.png"},
	  "messages": [
	    {"id": "m1", "type": "user", "contentType": "text", "content": "Hello **world**", "timestamp": "10:45 AM"},
	    {"id": "m2", "type": "assistant", "contentType": "audio", "content": "", "transcription": "fever and cough", "timestamp": 1714560300000}
	  ]
	}`
	snap, err := Decode(strings.NewReader(src), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.Loading {
		t.Error("want loading=true")
	}
	if snap.Viewer == nil || snap.Viewer.DisplayName != "Maria" {
		t.Errorf("unexpected viewer %+v", snap.Viewer)
	}
	if len(snap.Messages) != 2 {
		t.Fatalf("want 2 messages, got %d", len(snap.Messages))
	}
	if snap.Messages[1].Transcription != "fever and cough" {
		t.Errorf("want transcription, got %q", snap.Messages[1].Transcription)
	}
}

func TestDecode_JSONBareList(t *testing.T) {
	snap, err := Decode(strings.NewReader(`[{"type":"user","contentType":"text","content":"hi"}]`), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Messages) != 1 {
		t.Fatalf("want 1 message, got %d", len(snap.Messages))
	}
	if snap.Messages[0].ID == "" {
		t.Error("missing IDs must be assigned")
	}
}

func TestDecode_JSONMalformedMessageIsDegraded(t *testing.T) {
	src := `{"loading":true,"messages":[
		{"id":"ok","type":"user","contentType":"text","content":"ok"},
		{"id":"bad","type":"assistant","contentType":"image","content":42,"timestamp":"10:45 AM"},
		7,
		{"id":"last","type":"assistant","contentType":"text","content":"still here"}
	]}`
	snap, err := Decode(strings.NewReader(src), FormatJSON)
	if err != nil {
		t.Fatalf("one bad message must not fail the snapshot: %v", err)
	}
	if !snap.Loading {
		t.Error("loading flag lost")
	}
	if len(snap.Messages) != 4 {
		t.Fatalf("want 4 messages, got %d", len(snap.Messages))
	}
	bad := snap.Messages[1]
	if bad.ID != "bad" || bad.Type != RoleAssistant || bad.ContentType != ContentText || bad.Content != "42" {
		t.Errorf("want degraded text message, got %+v", bad)
	}
	if s, ok := bad.Timestamp.Preformatted(); !ok || s != "10:45 AM" {
		t.Errorf("want timestamp kept, got %+v", bad.Timestamp)
	}
	if snap.Messages[2].Content != "7" || snap.Messages[2].ID == "" {
		t.Errorf("non-object item should show its source with an assigned ID, got %+v", snap.Messages[2])
	}
	if snap.Messages[3].Content != "still here" {
		t.Errorf("later messages must survive, got %+v", snap.Messages[3])
	}
	if len(snap.Issues) != 2 {
		t.Fatalf("want 2 issues, got %v", snap.Issues)
	}
	var me *MessageError
	if !errors.As(snap.Issues[0], &me) || me.Index != 1 || me.ID != "bad" {
		t.Errorf("want issue for message 1 (bad), got %v", snap.Issues[0])
	}
}

func TestDecode_YAMLMalformedMessageIsDegraded(t *testing.T) {
	src := `
messages:
  - id: a
    type: user
    contentType: text
    content: fine
  - id: b
    type: assistant
    contentType: text
    content:
      nested: value
`
	snap, err := Decode(strings.NewReader(src), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Messages) != 2 || len(snap.Issues) != 1 {
		t.Fatalf("want 2 messages and 1 issue, got %d and %v", len(snap.Messages), snap.Issues)
	}
	if got := snap.Messages[1]; got.ID != "b" || got.Content != "nested: value" {
		t.Errorf("want degraded message b, got %+v", got)
	}
}

func TestDecode_NotAConversationFails(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"messages":"nope"}`), FormatJSON); err == nil {
		t.Error("want error when messages is not a list")
	}
}

func TestDecode_YAMLTimestamps(t *testing.T) {
	src := `
messages:
  - id: a
    type: user
    contentType: text
    content: hi
    timestamp: 2024-05-01T10:45:00Z
  - id: b
    type: assistant
    contentType: text
    content: hello
    timestamp: "2024-05-01T10:46:00Z"
  - id: c
    type: assistant
    contentType: text
    content: later
    timestamp: 10:47 AM
`
	snap, err := Decode(strings.NewReader(src), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := snap.Messages[0].Timestamp.Time(); !ok {
		t.Error("unquoted YAML timestamp should be structured")
	}
	if s, ok := snap.Messages[1].Timestamp.Preformatted(); !ok || s != "2024-05-01T10:46:00Z" {
		t.Errorf("quoted YAML timestamp should stay verbatim, got %q", s)
	}
	if s, ok := snap.Messages[2].Timestamp.Preformatted(); !ok || s != "10:47 AM" {
		t.Errorf("want %q, got %q", "10:47 AM", s)
	}
}

func TestAssignIDs_UniqueAndStable(t *testing.T) {
	in := Conversation{{ID: "a"}, {ID: "a"}, {ID: ""}, {ID: "b"}}
	out := AssignIDs(in)
	if out[0].ID != "a" || out[1].ID != "a-2" || out[3].ID != "b" {
		t.Errorf("unexpected ids: %q %q %q", out[0].ID, out[1].ID, out[3].ID)
	}
	if out[2].ID == "" {
		t.Error("empty id should be filled")
	}
	if in[1].ID != "a" {
		t.Error("input conversation must not be mutated")
	}
}

func TestRole_Normalize(t *testing.T) {
	if Role("robot").Normalize() != RoleAssistant {
		t.Error("unknown roles lay out as assistant")
	}
	if !RoleUser.IsUser() || RoleAssistant.IsUser() {
		t.Error("IsUser mismatch")
	}
}
