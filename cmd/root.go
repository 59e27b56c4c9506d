package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/arogya-ai/chatview/config"
	"github.com/arogya-ai/chatview/logging"
	"github.com/arogya-ai/chatview/style"
)

var (
	cfgFile string
	noColor bool
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chatview",
	Short: "Render health-assistant conversations in the terminal or as HTML",
	Long: `chatview renders a conversation between a user and the Arogya AI assistant:
text messages with markdown, images, voice notes with transcriptions, avatars
and the typing indicator.

Conversations are read from JSON or YAML files. Settings come from a TOML
configuration file and CHATVIEW_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}
		c, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		if noColor {
			lipgloss.SetColorProfile(0)
		}
		applyTheme(cfg.Theme)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/chatview/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
}

// applyTheme picks the terminal palette; auto follows the terminal
// background.
func applyTheme(name string) {
	if name == "auto" {
		name = "dark"
		if !lipgloss.HasDarkBackground() {
			name = "light"
		}
	}
	style.SetTheme(name)
}

// newLogger builds the configured logger. The interactive viewer passes a
// fallback file so logs never land on the alternate screen.
func newLogger(tuiFallback string) (*zap.Logger, error) {
	sink := cfg.LogSink
	if tuiFallback != "" && (sink == "" || sink == "stderr" || sink == "stdout") {
		sink = "file:" + tuiFallback
	}
	log, err := logging.New(cfg.LogLevel, sink)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}
