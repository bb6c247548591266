// Command finassist runs the Loft real-estate financing assistant: the
// WhatsApp webhook server, an interactive terminal chat, one-shot questions,
// outbound sends and the evaluation suite.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loft/finassist"
	"github.com/loft/finassist/internal/config"
	"github.com/loft/finassist/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "finassist",
		Short:         "Loft real-estate financing assistant",
		Long:          "finassist answers WhatsApp messages about real-estate financing: simulations, applications and general questions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runChat,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newSendCommand())
	rootCmd.AddCommand(newEvalCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Erro:", err)
		os.Exit(1)
	}
}

// runtime is the loaded configuration and logger shared by every command.
type runtime struct {
	cfg      *config.Config
	logger   logging.Logger
	closeLog func() error
}

// bootstrap loads configuration and builds the logger. Interactive commands
// keep stdout for the conversation, so their logs go to stderr.
func bootstrap(interactive bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if interactive && strings.EqualFold(cfg.Logging.Output, "stdout") {
		cfg.Logging.Output = "stderr"
	}

	logger, closeLog, err := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Backend: cfg.Logging.Backend,
		Output:  cfg.Logging.Output,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, closeLog: closeLog}, nil
}

func (rt *runtime) close() { _ = rt.closeLog() }

func (rt *runtime) newApp() (*finassist.App, error) {
	return finassist.New(func(o *finassist.Options) {
		o.Config = rt.cfg
		o.Logger = rt.logger
	})
}
