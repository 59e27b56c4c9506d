// Package image draws message images in the terminal. It detects the inline
// image protocol the terminal speaks (Kitty or iTerm2) and falls back to a
// text placeholder when there is none or the bytes are not yet loaded.
package image

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/arogya-ai/chatview/style"
)

// Protocol identifies the terminal image protocol.
type Protocol int

const (
	ProtocolNone   Protocol = iota // placeholder only
	ProtocolKitty                  // Kitty graphics protocol (APC escape)
	ProtocolITerm2                 // iTerm2 inline images (OSC 1337)
)

func (p Protocol) String() string {
	switch p {
	case ProtocolKitty:
		return "Kitty"
	case ProtocolITerm2:
		return "iTerm2"
	default:
		return "None"
	}
}

// ParseProtocol maps a config value to a Protocol. "auto" and unknown
// values return DetectProtocol().
func ParseProtocol(s string) Protocol {
	switch strings.ToLower(s) {
	case "none", "off":
		return ProtocolNone
	case "kitty":
		return ProtocolKitty
	case "iterm2":
		return ProtocolITerm2
	default:
		return DetectProtocol()
	}
}

// DetectProtocol checks the environment of the running terminal.
func DetectProtocol() Protocol {
	return detect(os.Getenv)
}

func detect(getenv func(string) string) Protocol {
	switch getenv("TERM_PROGRAM") {
	case "WezTerm", "ghostty":
		return ProtocolKitty
	case "iTerm.app", "iTerm2.app":
		return ProtocolITerm2
	}
	if strings.Contains(getenv("TERM"), "kitty") {
		return ProtocolKitty
	}
	return ProtocolNone
}

// Render emits the escape sequence that draws data inline, or the
// placeholder when proto is ProtocolNone or data is empty. maxWidth is in
// cells; the terminal does the actual scaling.
func Render(proto Protocol, data []byte, name string, maxWidth int) string {
	if len(data) == 0 {
		return Placeholder(name)
	}
	switch proto {
	case ProtocolKitty:
		return renderKitty(data, maxWidth)
	case ProtocolITerm2:
		return renderITerm2(data, name, maxWidth)
	default:
		return Placeholder(name)
	}
}

// Placeholder is the text stand-in for an image.
func Placeholder(name string) string {
	return style.Faint.Render(fmt.Sprintf("[Image: %s]", Name(name)))
}

// Name reduces an image locator to a short display name.
func Name(src string) string {
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return "inline image"
	}
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		if base := path.Base(u.Path); base != "/" && base != "." {
			return base
		}
	}
	if src == "" {
		return "image"
	}
	return src
}

// renderKitty sends the PNG as a single chunk: a=T transmit and display,
// f=100 PNG, m=0 final chunk.
func renderKitty(data []byte, maxWidth int) string {
	b64 := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("\033_Ga=T,f=100,c=%d,m=0;%s\033\\", maxWidth, b64)
}

// renderITerm2 emits an OSC 1337 inline file. The name is base64 encoded.
func renderITerm2(data []byte, name string, maxWidth int) string {
	b64Data := base64.StdEncoding.EncodeToString(data)
	b64Name := base64.StdEncoding.EncodeToString([]byte(Name(name)))
	return fmt.Sprintf("\033]1337;File=name=%s;size=%d;inline=1;width=%d:%s\007",
		b64Name, len(data), maxWidth, b64Data)
}
