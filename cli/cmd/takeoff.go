package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"nasagent/runtime"
)

var logLevelFlag string

var takeoffCmd = &cobra.Command{
	Use:   "takeoff <config>",
	Short: "Run the agent against the given manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(logLevelFlag)
		if err != nil {
			return err
		}
		levelVar := new(slog.LevelVar)
		levelVar.Set(level)
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}))

		host, err := runtime.NewHost(logger, args[0])
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return host.Run(ctx)
	},
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func init() {
	takeoffCmd.Flags().StringVarP(&logLevelFlag, "level", "l", "INFO", "log level: DEBUG, INFO, WARNING, ERROR")
}
