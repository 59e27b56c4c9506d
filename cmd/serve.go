package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/client"
	"github.com/arogya-ai/chatview/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve an HTML preview of a conversation",
	Long: `Serve an HTML preview. GET / renders the conversation file (re-read on every
request), POST /render renders a posted JSON or YAML snapshot, /metrics exposes
Prometheus metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger("")
		if err != nil {
			return err
		}
		defer log.Sync()

		var source server.Source
		if len(args) == 1 {
			path := args[0]
			source = func() (chat.Snapshot, error) { return chat.LoadFile(path) }
		}
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(server.Options{
			Title:        cfg.BrandName,
			Conversation: cfg.Conversation(nil),
			Source:       source,
			Prober:       client.New(cfg.ImageBaseURL, cfg.AvatarTimeout, client.WithPublicOnly()),
			ProbeTimeout: cfg.AvatarTimeout,
			Logger:       log,
		})

		errc := make(chan error, 1)
		go func() { errc <- srv.Start(addr) }()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errc:
			return err
		case <-quit:
		}

		log.Info("shutting down preview server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
