// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dexsplit/dexsplit/cmd/dexsplit/cli"
	"github.com/dexsplit/dexsplit/lib/split"
)

type verifyParams struct {
	cli.JSONOutput
	cli.Verbosity

	Limit           int64    `json:"limit"            flag:"limit"           desc:"linear-alloc limit the split was made with (required)"`
	Primary         string   `json:"primary"          flag:"primary"         desc:"primary archive (required)"`
	PrimaryPatterns []string `json:"primary_patterns" flag:"primary-pattern" desc:"entries that must be in the primary: ^prefix or substring (repeatable)"`
	Canaries        bool     `json:"canaries"         flag:"canaries"        desc:"secondaries must start with their canary class"`
	Inputs          []string `json:"inputs"           flag:"input,i"         desc:"original classpath inputs; outputs must partition them exactly (repeatable)"`
	SecondaryDir    string   `json:"secondary_dir"    flag:"secondary-dir"   desc:"discover secondaries in this directory instead of listing them"`
	Pattern         string   `json:"pattern"          flag:"pattern"         desc:"secondary name pattern used with --secondary-dir" default:"secondary-%d.jar"`
}

// verifyReport is the --json output of verify.
type verifyReport struct {
	Archives   []string          `json:"archives"`
	Violations []split.Violation `json:"violations"`
}

func verifyCommand() *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check split outputs against the limit and placement rules",
		Description: `Re-read the outputs of a split and report every violated property:
an entry present twice, a secondary over the limit that holds more than
one entry, a primary over the limit through entries that are not
required there, a required entry outside the primary, and with
--canaries a secondary that does not start with its canary class.
With --input, the outputs must also hold exactly the entries of the
inputs, first occurrence wins.

Secondaries are listed in index order as arguments, or discovered with
--secondary-dir and --pattern. Exits 1 when any violation is found.`,
		Usage: "dexsplit verify --limit N --primary FILE [flags] [SECONDARY...]",
		Examples: []cli.Example{
			{
				Description: "Check a split with two secondaries",
				Command:     "dexsplit verify --limit 5242880 --primary out/classes.jar out/secondary-1.jar out/secondary-2.jar",
			},
			{
				Description: "Discover secondaries and check the partition of the inputs",
				Command:     "dexsplit verify --limit 5242880 --primary out/classes.jar --secondary-dir out -i app.jar -i lib.jar",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Limit <= 0 {
				return cli.Validation("--limit is required and must be positive")
			}
			if params.Primary == "" {
				return cli.Validation("--primary is required")
			}
			secondaries := args
			if params.SecondaryDir != "" {
				if len(args) > 0 {
					return cli.Validation("list secondaries or give --secondary-dir, not both")
				}
				discovered, err := discoverSecondaries(params.SecondaryDir, params.Pattern, params.Canaries)
				if err != nil {
					return err
				}
				secondaries = discovered
			}

			verifyConfig := split.VerifyConfig{
				Primary:     params.Primary,
				Secondaries: secondaries,
				Limit:       params.Limit,
				Inputs:      params.Inputs,
			}
			if len(params.PrimaryPatterns) > 0 {
				verifyConfig.RequiredInPrimary = split.PatternPredicate(params.PrimaryPatterns)
			}
			if params.Canaries {
				verifyConfig.Canaries = split.IncludeCanaries
			}
			logger.Debug("verifying split", "primary", params.Primary, "secondaries", len(secondaries))

			violations, err := split.Verify(verifyConfig)
			if err != nil {
				if split.IsKind(err, split.KindConfiguration) {
					return cli.Validation("%w", err)
				}
				return cli.Internal("%w", err)
			}

			stdout := cli.StreamsFrom(ctx).Stdout
			report := verifyReport{
				Archives:   append([]string{params.Primary}, secondaries...),
				Violations: violations,
			}
			if report.Violations == nil {
				report.Violations = []split.Violation{}
			}
			if done, err := params.EmitJSON(stdout, report); done {
				if err != nil {
					return err
				}
			} else {
				for _, violation := range violations {
					fmt.Fprintln(stdout, violation)
				}
				if len(violations) == 0 {
					fmt.Fprintf(stdout, "ok: %d archives\n", len(report.Archives))
				}
			}
			if len(violations) > 0 {
				logger.Debug("split has violations", "count", len(violations))
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// discoverSecondaries lists existing secondaries in index order,
// starting at the first index the splitter uses and stopping at the
// first missing one.
func discoverSecondaries(dir, pattern string, canaries bool) ([]string, error) {
	index := 1
	if canaries {
		index = 2
	}
	var paths []string
	for ; ; index++ {
		path := filepath.Join(dir, fmt.Sprintf(pattern, index))
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return paths, nil
		}
		if err != nil {
			return nil, cli.Internal("discovering secondaries: %w", err)
		}
		if len(paths) > 0 && paths[len(paths)-1] == path {
			return nil, cli.Validation("secondary pattern %q does not depend on the index", pattern)
		}
		paths = append(paths, path)
	}
}
