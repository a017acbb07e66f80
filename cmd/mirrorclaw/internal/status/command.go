package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/mirrorclaw/cmd/mirrorclaw/internal"
	"github.com/tinyland-inc/mirrorclaw/pkg/state"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show mirror state summary",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return statusCmd()
		},
	}
}

func statusCmd() error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	store, err := state.NewStore(cfg.Mirror.StateFile)
	if err != nil {
		return fmt.Errorf("error reading state file: %w", err)
	}

	singles, albums, history := store.Stats()
	fmt.Printf("State file: %s\n", store.Path())
	fmt.Printf("  • Mirrored posts:  %d\n", singles)
	fmt.Printf("  • Mirrored albums: %d\n", albums)
	fmt.Printf("  • Dedup history:   %d entries\n", history)
	fmt.Printf("Sources: %v\n", cfg.Mirror.Sources)
	fmt.Printf("Destination: %s\n", cfg.Mirror.Destination)
	return nil
}
