// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dexsplit/dexsplit/cmd/dexsplit/cli"
	"github.com/dexsplit/dexsplit/lib/classpath"
	"github.com/dexsplit/dexsplit/lib/config"
	"github.com/dexsplit/dexsplit/lib/split"
)

type estimateParams struct {
	cli.JSONOutput
	cli.Verbosity
	cacheParams

	Config  string `json:"config"  flag:"config"  desc:"job file supplying cache settings (default: $DEXSPLIT_CONFIG)"`
	Summary bool   `json:"summary" flag:"summary" desc:"print only the totals"`
}

// estimateReport is the --json output of estimate.
type estimateReport struct {
	Entries []split.EntrySummary `json:"entries"`
	Classes int                  `json:"classes"`
	Total   int64                `json:"total"`
}

func estimateCommand() *cli.Command {
	var params estimateParams

	return &cli.Command{
		Name:    "estimate",
		Summary: "Print the linear-alloc footprint of classfiles",
		Description: `Estimate the linear-alloc footprint of every classfile in the given
inputs (jars, zips, directories or single class files) and print one
"path footprint" line per class followed by the total. Entries that
are not classfiles cost nothing and are not listed. A path present in
more than one input is counted once, from the first input.

Footprints come from the persistent footprint cache when it holds the
class content, so estimating an unchanged classpath twice is cheap.`,
		Usage: "dexsplit estimate [flags] INPUT...",
		Examples: []cli.Example{
			{
				Description: "Total footprint of a jar",
				Command:     "dexsplit estimate --summary app.jar",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("at least one input is required\n\nUsage: dexsplit estimate [flags] INPUT...")
			}

			cfg := config.Default()
			path := params.Config
			if path == "" {
				path = os.Getenv(config.EnvVar)
			}
			if path != "" {
				loaded, err := config.LoadFile(path)
				if err != nil {
					return cli.Validation("loading job file: %w", err)
				}
				cfg = loaded
			}
			params.cacheParams.apply(cfg)

			cache, err := openCache(cfg, logger)
			if err != nil {
				return err
			}
			report, err := estimateInputs(args, cache)
			if saveErr := cache.Save(); saveErr != nil {
				logger.Warn("saving footprint cache failed", "path", cache.Path(), "error", saveErr)
			}
			if err != nil {
				return err
			}
			stats := cache.Stats()
			logger.Debug("estimated inputs",
				"classes", report.Classes,
				"total", report.Total,
				"cache_hits", stats.Hits,
				"cache_misses", stats.Misses,
			)

			stdout := cli.StreamsFrom(ctx).Stdout
			if params.Summary {
				report.Entries = []split.EntrySummary{}
			}
			if done, err := params.EmitJSON(stdout, report); done {
				return err
			}
			for _, entry := range report.Entries {
				fmt.Fprintf(stdout, "%s  %d\n", entry.Path, entry.Footprint)
			}
			fmt.Fprintf(stdout, "classes  %d\n", report.Classes)
			_, err = fmt.Fprintf(stdout, "total  %d\n", report.Total)
			return err
		},
	}
}

// estimateInputs traverses inputs and estimates every classfile.
func estimateInputs(inputs []string, estimator split.Estimator) (*estimateReport, error) {
	report := &estimateReport{Entries: []split.EntrySummary{}}
	traverser := &classpath.Traverser{Inputs: inputs}
	err := traverser.Traverse(func(entry classpath.Entry) error {
		if !strings.HasSuffix(entry.Path(), ".class") {
			return nil
		}
		footprint, err := estimateEntry(entry, estimator)
		if err != nil {
			return err
		}
		report.Entries = append(report.Entries, split.EntrySummary{Path: entry.Path(), Footprint: footprint})
		report.Classes++
		report.Total += footprint
		return nil
	})
	if err != nil {
		var readError *classpath.ReadError
		if errors.As(err, &readError) {
			return nil, cli.Internal("%w", err)
		}
		return nil, err
	}
	return report, nil
}

func estimateEntry(entry classpath.Entry, estimator split.Estimator) (int64, error) {
	reader, err := entry.Open()
	if err != nil {
		return 0, cli.Internal("reading %s: %w", entry.Path(), err)
	}
	defer reader.Close()
	footprint, err := estimator.Estimate(reader)
	if err != nil {
		return 0, cli.Internal("estimating %s: %w", entry.Path(), err)
	}
	return footprint, nil
}
