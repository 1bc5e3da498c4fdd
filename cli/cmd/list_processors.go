package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"nasagent/runtime"
)

// noopPublisher lets list-processors build a registry without a dove
// configuration to resolve against — nothing in this command path ever
// calls Publish.
type noopPublisher struct{}

func (noopPublisher) Publish(string, map[string]any, []string) error { return nil }

var listProcessorsCmd = &cobra.Command{
	Use:   "list-processors",
	Short: "Print the processor registry with short descriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		registry := runtime.NewRegistry(&runtime.Env{
			Locks:  runtime.NewLockManager(logger),
			Notify: noopPublisher{},
			Log:    logger,
		})

		descriptions := registry.Descriptions()
		names := make([]string, 0, len(descriptions))
		for name := range descriptions {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Printf("%-16s %s\n", name, descriptions[name])
		}
		return nil
	},
}
