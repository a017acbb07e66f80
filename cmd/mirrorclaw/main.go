// MirrorClaw - Telegram feed mirror with dedup and ad moderation
//
// Copyright (c) 2026 MirrorClaw contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/mirrorclaw/cmd/mirrorclaw/internal"
	"github.com/tinyland-inc/mirrorclaw/cmd/mirrorclaw/internal/run"
	"github.com/tinyland-inc/mirrorclaw/cmd/mirrorclaw/internal/status"
	"github.com/tinyland-inc/mirrorclaw/cmd/mirrorclaw/internal/version"
)

func NewMirrorclawCommand() *cobra.Command {
	short := fmt.Sprintf("%s mirrorclaw - Telegram feed mirror v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "mirrorclaw",
		Short:   short,
		Example: "mirrorclaw run",
	}

	cmd.AddCommand(
		run.NewRunCommand(),
		status.NewStatusCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewMirrorclawCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
