// Package msg defines the tea.Msg types dispatched within the terminal
// viewer. It has no upstream imports besides the data model to avoid
// import cycles.
package msg

import (
	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/ui/avatar"
)

// -- Loads --

// AvatarLoaded reports the outcome of a viewer avatar load. It is applied
// only while Ticket is still live.
type AvatarLoaded struct {
	Ticket avatar.Ticket
	Err    error
}

// ImageLoaded carries the bytes of an image message body.
type ImageLoaded struct {
	Ticket avatar.Ticket
	Data   []byte
	Err    error
}

// -- Conversation --

// SnapshotLoaded replaces the displayed conversation, e.g. after a reload.
type SnapshotLoaded struct {
	Snapshot chat.Snapshot
	Err      error
}

// LoadingToggled flips the loading flag.
type LoadingToggled struct{}
