// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dexsplit/dexsplit/cmd/dexsplit/cli"
	"github.com/dexsplit/dexsplit/lib/version"
)

// Root builds and returns the complete dexsplit command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "dexsplit",
		Description: `dexsplit: size-bounded classpath splitter.

Pack the classfiles of a classpath into one primary archive and an
ordered series of secondary archives, keeping each archive's estimated
linear-alloc footprint under a limit.`,
		Subcommands: []*cli.Command{
			splitCommand(),
			estimateCommand(),
			verifyCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Split two jars with a 5 MiB budget",
				Command:     "dexsplit split -i app.jar -i lib.jar --primary out/classes.jar --secondary-dir out/secondary --limit 5242880",
			},
			{
				Description: "Run every job of a job file, four at a time",
				Command:     "dexsplit split --config dexsplit.yaml --parallel 4",
			},
		},
	}
}

type versionParams struct {
	cli.JSONOutput
}

func versionCommand() *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("version takes no arguments")
			}
			stdout := cli.StreamsFrom(ctx).Stdout
			if done, err := params.EmitJSON(stdout, version.Current()); done {
				return err
			}
			_, err := fmt.Fprintf(stdout, "dexsplit %s\n", version.Full())
			return err
		},
	}
}
