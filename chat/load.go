package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a conversation file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the decoder from the file extension. Anything that is
// not .yaml/.yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads a snapshot from a JSON or YAML file.
func LoadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open conversation: %w", err)
	}
	defer f.Close()
	snap, err := Decode(f, FormatForPath(path))
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return snap, nil
}

// Decode reads a snapshot. A bare list of messages is accepted as well as
// the full {messages, loading, viewer} object. A message that does not
// decode is kept as plain text and reported in Snapshot.Issues; only a
// document that is not a conversation at all is an error.
func Decode(r io.Reader, format Format) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read conversation: %w", err)
	}
	var snap Snapshot
	switch format {
	case FormatYAML:
		err = decodeYAML(data, &snap)
	default:
		err = decodeJSON(data, &snap)
	}
	if err != nil {
		return Snapshot{}, err
	}
	snap.Messages = AssignIDs(snap.Messages)
	return snap, nil
}

// MessageError records a message that could not be decoded as written. The
// message is kept as plain text so the rest of the conversation still shows.
type MessageError struct {
	Index int
	ID    string
	Err   error
}

func (e *MessageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("message %d (%s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("message %d: %v", e.Index, e.Err)
}

func (e *MessageError) Unwrap() error { return e.Err }

// jsonSnapshot keeps messages undecoded so each one is decoded on its own.
type jsonSnapshot struct {
	Messages []json.RawMessage `json:"messages"`
	Loading  bool              `json:"loading"`
	Viewer   *Viewer           `json:"viewer"`
}

func decodeJSON(data []byte, snap *Snapshot) error {
	var raw jsonSnapshot
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raw.Messages); err != nil {
			return fmt.Errorf("decode messages: %w", err)
		}
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Loading = raw.Loading
	snap.Viewer = raw.Viewer
	snap.Messages = make(Conversation, 0, len(raw.Messages))
	for i, item := range raw.Messages {
		var m Message
		if err := json.Unmarshal(item, &m); err != nil {
			m = salvageJSON(item)
			snap.Issues = append(snap.Issues, &MessageError{Index: i, ID: m.ID, Err: err})
		}
		snap.Messages = append(snap.Messages, m)
	}
	return nil
}

// salvageJSON keeps whatever fields of a malformed message still decode and
// shows it as text. A non-string content is shown as its JSON source.
func salvageJSON(item json.RawMessage) Message {
	m := Message{ContentType: ContentText}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		m.Content = string(item)
		return m
	}
	_ = json.Unmarshal(fields["id"], &m.ID)
	_ = json.Unmarshal(fields["type"], &m.Type)
	_ = json.Unmarshal(fields["transcription"], &m.Transcription)
	if raw, ok := fields["timestamp"]; ok {
		var ts Timestamp
		if json.Unmarshal(raw, &ts) == nil {
			m.Timestamp = ts
		}
	}
	if raw, ok := fields["content"]; ok {
		if json.Unmarshal(raw, &m.Content) != nil {
			m.Content = string(raw)
		}
	}
	return m
}

// yamlSnapshot is the YAML counterpart of jsonSnapshot.
type yamlSnapshot struct {
	Messages []yaml.Node `yaml:"messages"`
	Loading  bool        `yaml:"loading"`
	Viewer   *Viewer     `yaml:"viewer"`
}

func decodeYAML(data []byte, snap *Snapshot) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil
	}
	var raw yamlSnapshot
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		if err := doc.Decode(&raw.Messages); err != nil {
			return fmt.Errorf("decode messages: %w", err)
		}
	} else if err := doc.Decode(&raw); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Loading = raw.Loading
	snap.Viewer = raw.Viewer
	snap.Messages = make(Conversation, 0, len(raw.Messages))
	for i := range raw.Messages {
		item := &raw.Messages[i]
		var m Message
		if err := item.Decode(&m); err != nil {
			m = salvageYAML(item)
			snap.Issues = append(snap.Issues, &MessageError{Index: i, ID: m.ID, Err: err})
		}
		snap.Messages = append(snap.Messages, m)
	}
	return nil
}

// salvageYAML is salvageJSON for YAML nodes. Non-scalar content is shown as
// its YAML source.
func salvageYAML(item *yaml.Node) Message {
	m := Message{ContentType: ContentText}
	if item.Kind != yaml.MappingNode {
		m.Content = yamlText(item)
		return m
	}
	for i := 0; i+1 < len(item.Content); i += 2 {
		key, val := item.Content[i].Value, item.Content[i+1]
		switch key {
		case "id":
			_ = val.Decode(&m.ID)
		case "type":
			_ = val.Decode(&m.Type)
		case "transcription":
			_ = val.Decode(&m.Transcription)
		case "timestamp":
			var ts Timestamp
			if val.Decode(&ts) == nil {
				m.Timestamp = ts
			}
		case "content":
			if val.Decode(&m.Content) != nil {
				m.Content = yamlText(val)
			}
		}
	}
	return m
}

func yamlText(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// AssignIDs returns a copy of msgs in which every message has a unique,
// non-empty ID. Messages missing an ID get a random one; repeated IDs get a
// numeric suffix so item keys stay unique.
func AssignIDs(msgs Conversation) Conversation {
	if len(msgs) == 0 {
		return msgs
	}
	out := make(Conversation, len(msgs))
	taken := make(map[string]bool, len(msgs))
	for i, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		id := m.ID
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s-%d", m.ID, n)
		}
		taken[id] = true
		m.ID = id
		out[i] = m
	}
	return out
}
