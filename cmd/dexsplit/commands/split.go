// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dexsplit/dexsplit/cmd/dexsplit/cli"
	"github.com/dexsplit/dexsplit/lib/classfile"
	"github.com/dexsplit/dexsplit/lib/config"
	"github.com/dexsplit/dexsplit/lib/costcache"
	"github.com/dexsplit/dexsplit/lib/split"
)

// adhocJobName names the job built from --input/--primary flags.
const adhocJobName = "command-line"

type splitParams struct {
	cli.JSONOutput
	cli.Verbosity
	cacheParams

	Config   string   `json:"config"   flag:"config"   desc:"job file (default: $DEXSPLIT_CONFIG)"`
	Jobs     []string `json:"jobs"     flag:"job"      desc:"run only the named jobs of the job file (repeatable)"`
	Parallel int      `json:"parallel" flag:"parallel" desc:"jobs to run concurrently (default: number of CPUs)"`

	Inputs          []string `json:"inputs"           flag:"input,i"         desc:"classpath input: jar, zip, directory or file (repeatable, in order)"`
	Primary         string   `json:"primary"          flag:"primary"         desc:"primary archive path"`
	SecondaryDir    string   `json:"secondary_dir"    flag:"secondary-dir"   desc:"directory for secondary archives"`
	ReportDir       string   `json:"report_dir"       flag:"report-dir"      desc:"directory for per-archive manifests and warnings.txt"`
	PrimaryPatterns []string `json:"primary_patterns" flag:"primary-pattern" desc:"entries that must be in the primary: ^prefix or substring (repeatable)"`

	Limit       int64  `json:"limit"       flag:"limit"       desc:"linear-alloc limit per archive (default from job file, else 5242880)"`
	Pattern     string `json:"pattern"     flag:"pattern"     desc:"secondary archive name pattern with one integer verb, e.g. secondary-%d.jar"`
	Strategy    string `json:"strategy"    flag:"strategy"    desc:"maximize-primary or minimize-primary"`
	Canaries    bool   `json:"canaries"    flag:"canaries"    desc:"insert a canary class at the start of every secondary"`
	Compression string `json:"compression" flag:"compression" desc:"zip method of output entries: deflate or store"`
}

// cacheParams are the footprint cache flags shared by split and estimate.
type cacheParams struct {
	CacheDir string `json:"cache_dir" flag:"cache-dir" desc:"footprint cache directory (default from job file, else ~/.cache/dexsplit)"`
	NoCache  bool   `json:"no_cache"  flag:"no-cache"  desc:"do not read or write the persistent footprint cache"`
}

// apply overrides the cache section of cfg.
func (p *cacheParams) apply(cfg *config.Config) {
	if p.CacheDir != "" {
		cfg.Cache.Dir = p.CacheDir
	}
	if p.NoCache {
		cfg.Cache.Dir = ""
	}
}

// jobResult is one job's outcome in --json output.
type jobResult struct {
	Job    string        `json:"job"`
	Result *split.Result `json:"result"`
}

func splitCommand() *cli.Command {
	var params splitParams

	return &cli.Command{
		Name:    "split",
		Summary: "Split a classpath into size-bounded archives",
		Description: `Split classpath inputs into a primary archive and numbered secondary
archives so that each archive's estimated linear-alloc footprint stays
under the limit.

Jobs come from a YAML job file (--config, or $DEXSPLIT_CONFIG) or from
--input/--primary/--secondary-dir, which define a single job and take
precedence over the file's jobs. The file still supplies defaults and
cache settings in that case. --limit, --pattern, --strategy, --canaries
and --compression override the file's defaults; a job that sets a
value itself keeps it.

Independent jobs run concurrently, up to --parallel at a time, and
share one footprint cache. Footprints are cached by class content and
persisted between runs unless --no-cache is given.`,
		Usage: "dexsplit split [--config FILE [--job NAME]... | -i INPUT... --primary FILE --secondary-dir DIR] [flags]",
		Examples: []cli.Example{
			{
				Description: "Split one jar, keeping the app package in the primary",
				Command:     "dexsplit split -i app.jar --primary out/classes.jar --secondary-dir out --primary-pattern ^com/example/app/",
			},
			{
				Description: "Run one job from a job file with manifests",
				Command:     "dexsplit split --config dexsplit.yaml --job release --report-dir out/reports",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected arguments %q; inputs are given with --input", args)
			}
			if params.Parallel < 0 {
				return cli.Validation("--parallel must not be negative, got %d", params.Parallel)
			}

			cfg, jobs, err := params.resolveJobs()
			if err != nil {
				return err
			}

			cache, err := openCache(cfg, logger)
			if err != nil {
				return err
			}
			results, runErr := runJobs(ctx, cfg, jobs, cache, params.Parallel, logger)
			if err := cache.Save(); err != nil {
				logger.Warn("saving footprint cache failed", "path", cache.Path(), "error", err)
			}
			stats := cache.Stats()
			logger.Info("footprint cache",
				"hits", stats.Hits,
				"misses", stats.Misses,
				"entries", stats.Entries,
			)
			if runErr != nil {
				return runErr
			}

			stdout := cli.StreamsFrom(ctx).Stdout
			if done, err := params.EmitJSON(stdout, results); done {
				return err
			}
			return printSplitResults(stdout, results)
		},
	}
}

// resolveJobs loads the job file, applies flag overrides, and returns
// the validated configuration with the jobs to run.
func (p *splitParams) resolveJobs() (*config.Config, []config.Job, error) {
	path := p.Config
	if path == "" {
		path = os.Getenv(config.EnvVar)
	}
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, nil, cli.Validation("loading job file: %w", err)
		}
		cfg = loaded
	}

	if p.Limit != 0 {
		cfg.Defaults.Limit = p.Limit
	}
	if p.Pattern != "" {
		cfg.Defaults.SecondaryPattern = p.Pattern
	}
	if p.Strategy != "" {
		cfg.Defaults.Strategy = p.Strategy
	}
	if p.Canaries {
		cfg.Defaults.Canaries = true
	}
	if p.Compression != "" {
		cfg.Defaults.Compression = p.Compression
	}
	p.cacheParams.apply(cfg)

	adhoc := len(p.Inputs) > 0 || p.Primary != "" || p.SecondaryDir != ""
	if adhoc {
		if len(p.Jobs) > 0 {
			return nil, nil, cli.Validation("--job selects jobs of the job file and cannot be combined with --input")
		}
		cfg.Jobs = []config.Job{{
			Name:            adhocJobName,
			Inputs:          p.Inputs,
			Primary:         p.Primary,
			SecondaryDir:    p.SecondaryDir,
			ReportDir:       p.ReportDir,
			PrimaryPatterns: p.PrimaryPatterns,
		}}
	} else if p.ReportDir != "" || len(p.PrimaryPatterns) > 0 {
		return nil, nil, cli.Validation("--report-dir and --primary-pattern apply to a job given with --input")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, cli.Validation("invalid configuration:\n%w", err)
	}
	if len(cfg.Jobs) == 0 {
		return nil, nil, cli.Validation("nothing to split: give --input, --primary and --secondary-dir, or a job file with jobs")
	}

	jobs := cfg.Jobs
	if len(p.Jobs) > 0 {
		jobs = nil
		selected := make(map[string]bool)
		for _, name := range p.Jobs {
			if selected[name] {
				continue
			}
			selected[name] = true
			job, err := cfg.Job(name)
			if err != nil {
				return nil, nil, cli.Validation("%w", err)
			}
			jobs = append(jobs, job)
		}
	}
	if err := checkOutputCollisions(jobs, cfg); err != nil {
		return nil, nil, err
	}
	return cfg, jobs, nil
}

// checkOutputCollisions rejects job sets in which two jobs would write
// the same file: a shared primary, a shared secondary directory and
// pattern, or a shared report directory.
func checkOutputCollisions(jobs []config.Job, cfg *config.Config) error {
	owners := make(map[string]string)
	claim := func(job, output string) error {
		if owner, taken := owners[output]; taken && owner != job {
			return cli.Validation("jobs %q and %q both write %s", owner, job, output)
		}
		owners[output] = job
		return nil
	}

	for _, job := range jobs {
		splitConfig, err := cfg.SplitConfig(job)
		if err != nil {
			return cli.Validation("%w", err)
		}
		outputs := []string{
			"primary " + filepath.Clean(job.Primary),
			"secondaries " + filepath.Join(filepath.Clean(job.SecondaryDir), splitConfig.SecondaryPattern),
		}
		if job.ReportDir != "" {
			outputs = append(outputs, "reports in "+filepath.Clean(job.ReportDir))
		}
		for _, output := range outputs {
			if err := claim(job.Name, output); err != nil {
				return err
			}
		}
	}
	return nil
}

// openCache opens the shared footprint cache around the classfile
// estimator.
func openCache(cfg *config.Config, logger *slog.Logger) (*costcache.Cache, error) {
	options, err := cfg.CacheOptions()
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	options.Estimator = classfile.Estimator{}
	options.EstimatorVersion = classfile.EstimatorVersion
	options.Logger = logger
	cache, err := costcache.Open(options)
	if err != nil {
		return nil, cli.Internal("opening footprint cache: %w", err)
	}
	return cache, nil
}

// runJobs splits every job, at most parallel at a time. The first
// failure cancels jobs that have not started; jobs already running
// finish and keep their outputs.
func runJobs(ctx context.Context, cfg *config.Config, jobs []config.Job, estimator split.Estimator, parallel int, logger *slog.Logger) ([]jobResult, error) {
	if parallel == 0 {
		parallel = runtime.NumCPU()
	}
	results := make([]jobResult, len(jobs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	for i, job := range jobs {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			result, err := runJob(cfg, job, estimator, logger.With("job", job.Name))
			if err != nil {
				return err
			}
			results[i] = jobResult{Job: job.Name, Result: result}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runJob(cfg *config.Config, job config.Job, estimator split.Estimator, logger *slog.Logger) (*split.Result, error) {
	splitConfig, err := cfg.SplitConfig(job)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	splitConfig.Estimator = estimator
	splitConfig.Logger = logger

	splitter, err := split.SplitZip(splitConfig)
	if err != nil {
		return nil, cli.Validation("job %q: %w", job.Name, err)
	}
	if _, err := splitter.Execute(); err != nil {
		if split.IsKind(err, split.KindConfiguration) {
			return nil, cli.Validation("job %q: %w", job.Name, err)
		}
		return nil, cli.Internal("job %q: %w", job.Name, err)
	}
	return splitter.Result(), nil
}

func printSplitResults(w io.Writer, results []jobResult) error {
	for i, job := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		result := job.Result
		fmt.Fprintf(w, "job %s: %d secondaries, limit %d\n", job.Job, len(result.Secondaries), result.Limit)
		for _, archive := range result.Archives() {
			marker := ""
			if archive.Oversize {
				marker = "  (oversize)"
			}
			fmt.Fprintf(w, "  %s  %d entries  footprint %d%s\n", archive.Path, len(archive.Entries), archive.Footprint, marker)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
		if len(result.Duplicates) > 0 {
			fmt.Fprintf(w, "  %d duplicate entries skipped\n", len(result.Duplicates))
		}
	}
	return nil
}
