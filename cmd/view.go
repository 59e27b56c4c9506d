package cmd

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arogya-ai/chatview/app"
	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/client"
	"github.com/arogya-ai/chatview/ui/image"
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Open a conversation in the interactive terminal viewer",
	Long: `Open a conversation file in a scrollable terminal view.

Keys: r reloads the file, l toggles the typing indicator, g/G jump to the
top/bottom, q quits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		log, err := newLogger(filepath.Join(os.TempDir(), "chatview.log"))
		if err != nil {
			return err
		}
		defer log.Sync()

		snap, err := chat.LoadFile(path)
		if err != nil {
			return err
		}
		c := client.New(cfg.ImageBaseURL, cfg.AvatarTimeout)
		if abs, err := filepath.Abs(path); err == nil {
			c.BaseDir = filepath.Dir(abs)
		}
		proto := image.ParseProtocol(cfg.ImageProtocol)
		log.Info("viewer starting", zap.String("file", path), zap.Int("messages", len(snap.Messages)), zap.Stringer("image_protocol", proto))

		m := app.New(snap, app.Options{
			Title:        cfg.BrandName + " · " + filepath.Base(path),
			Conversation: cfg.Conversation(nil),
			Fetcher:      c,
			Loader:       func() (chat.Snapshot, error) { return chat.LoadFile(path) },
			Timeout:      cfg.AvatarTimeout,
			Protocol:     proto,
			Width:        cfg.Width,
			Logger:       log,
		})
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := p.Run(); err != nil {
			log.Error("viewer failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
