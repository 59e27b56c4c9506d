// Package chat defines the conversation data the renderer consumes.
// It has no upstream imports (ui, app) so every layer can depend on it.
package chat

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsUser reports whether r is the user role. Every other value, including
// unknown ones, is laid out as the assistant.
func (r Role) IsUser() bool { return r == RoleUser }

// Normalize maps unknown roles onto RoleAssistant.
func (r Role) Normalize() Role {
	if r == RoleUser {
		return RoleUser
	}
	return RoleAssistant
}

// ContentType classifies a message payload.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
)

// Message is one unit of conversation content. It is never mutated once
// handed to the renderer.
type Message struct {
	ID            string      `json:"id" yaml:"id"`
	Type          Role        `json:"type" yaml:"type"`
	ContentType   ContentType `json:"contentType" yaml:"contentType"`
	Content       string      `json:"content" yaml:"content"`
	Transcription string      `json:"transcription,omitempty" yaml:"transcription,omitempty"`
	Timestamp     Timestamp   `json:"timestamp" yaml:"timestamp"`
}

// HasTranscription reports whether a transcription block should be shown.
func (m Message) HasTranscription() bool { return m.Transcription != "" }

// Conversation is the ordered list of displayed messages, oldest first.
type Conversation []Message

// Viewer is the signed-in user's identity as supplied by the identity
// provider. Both fields may be empty.
type Viewer struct {
	DisplayName    string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	AvatarImageURL string `json:"avatarImageUrl,omitempty" yaml:"avatarImageUrl,omitempty"`
}

// Snapshot bundles the three render inputs: the conversation, the loading
// flag and the optional viewer identity.
type Snapshot struct {
	Messages Conversation `json:"messages" yaml:"messages"`
	Loading  bool         `json:"loading,omitempty" yaml:"loading,omitempty"`
	Viewer   *Viewer      `json:"viewer,omitempty" yaml:"viewer,omitempty"`

	// Issues lists messages that were degraded while decoding.
	Issues []error `json:"-" yaml:"-"`
}
