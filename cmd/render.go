package cmd

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/client"
	"github.com/arogya-ai/chatview/config"
	"github.com/arogya-ai/chatview/server"
	"github.com/arogya-ai/chatview/ui/avatar"
	"github.com/arogya-ai/chatview/ui/conversation"
	"github.com/arogya-ai/chatview/ui/termview"
	"github.com/arogya-ai/chatview/view"
)

var renderFlags struct {
	format       string
	loading      bool
	viewerName   string
	viewerAvatar string
	width        int
}

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Render a conversation once to stdout",
	Long: `Render a conversation file (JSON or YAML, "-" for JSON on stdin) to stdout,
either as an HTML fragment or page, or as ANSI text for the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		if len(snap.Issues) > 0 {
			log, err := newLogger("")
			if err != nil {
				return err
			}
			for _, issue := range snap.Issues {
				log.Warn("message shown as plain text", zap.Error(issue))
			}
			_ = log.Sync()
		}
		applyRenderFlags(&snap)
		probe := probeViewerAvatar(cmd.Context(), snap.Viewer, args[0])
		root := conversation.Render(snap.Messages, snap.Loading, snap.Viewer, cfg.Conversation(probe))
		return writeRendered(cmd.OutOrStdout(), root, renderFlags.format)
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderFlags.format, "format", "f", "ansi", "output format: ansi, html or page")
	f.BoolVar(&renderFlags.loading, "loading", false, "show the typing indicator")
	f.StringVar(&renderFlags.viewerName, "viewer-name", "", "display name of the signed-in user")
	f.StringVar(&renderFlags.viewerAvatar, "viewer-avatar", "", "avatar image URL of the signed-in user")
	f.IntVarP(&renderFlags.width, "width", "w", 0, "terminal width (default: detected)")
	rootCmd.AddCommand(renderCmd)
}

func readSnapshot(path string, stdin io.Reader) (chat.Snapshot, error) {
	if path == "-" {
		return chat.Decode(stdin, chat.FormatJSON)
	}
	return chat.LoadFile(path)
}

func applyRenderFlags(snap *chat.Snapshot) {
	if renderFlags.loading {
		snap.Loading = true
	}
	if renderFlags.viewerName != "" || renderFlags.viewerAvatar != "" {
		v := chat.Viewer{}
		if snap.Viewer != nil {
			v = *snap.Viewer
		}
		if renderFlags.viewerName != "" {
			v.DisplayName = renderFlags.viewerName
		}
		if renderFlags.viewerAvatar != "" {
			v.AvatarImageURL = renderFlags.viewerAvatar
		}
		snap.Viewer = &v
	}
}

// probeViewerAvatar loads the viewer's image once so a one-shot render can
// fall back to the initial when it is broken. Relative locators resolve
// against the conversation file's directory.
func probeViewerAvatar(ctx context.Context, v *chat.Viewer, path string) avatar.Probe {
	cache := avatar.NewCache()
	if v == nil {
		return cache
	}
	src := strings.TrimSpace(v.AvatarImageURL)
	if src == "" {
		return cache
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c := client.New(cfg.ImageBaseURL, cfg.AvatarTimeout)
	if path != "-" {
		if abs, err := filepath.Abs(path); err == nil {
			c.BaseDir = filepath.Dir(abs)
		}
	}
	timeout := cfg.AvatarTimeout
	if timeout <= 0 {
		timeout = config.Default().AvatarTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Probe(ctx, src); err != nil {
		cache.Set(src, avatar.LoadFailed)
	} else {
		cache.Set(src, avatar.LoadOK)
	}
	return cache
}

func writeRendered(w io.Writer, root *html.Node, format string) error {
	switch format {
	case "html":
		_, err := io.WriteString(w, view.HTML(root)+"\n")
		return err
	case "page":
		return server.WritePage(w, cfg.BrandName, template.HTML(view.HTML(root)))
	case "ansi":
		_, err := io.WriteString(w, termview.Render(root, termview.Options{Width: renderWidth()})+"\n")
		return err
	default:
		return fmt.Errorf("unknown format %q: want ansi, html or page", format)
	}
}

func renderWidth() int {
	if renderFlags.width > 0 {
		return renderFlags.width
	}
	if cfg.Width > 0 {
		return cfg.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return termview.DefaultWidth
}
