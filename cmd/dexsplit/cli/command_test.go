// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// testContext captures command output.
func testContext(stdout, stderr *bytes.Buffer) context.Context {
	return WithStreams(context.Background(), Streams{Stdout: stdout, Stderr: stderr})
}

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "dexsplit",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "split",
				Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
					called = "split"
					return nil
				},
			},
		},
	}

	var stdout, stderr bytes.Buffer
	if err := root.Execute(testContext(&stdout, &stderr), []string{"split"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "split" {
		t.Errorf("dispatched to %q, want %q", called, "split")
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var params struct {
		Verbosity
		Limit  int64    `flag:"limit" desc:"budget" default:"100"`
		Inputs []string `flag:"input,i" desc:"inputs"`
	}
	var positional []string
	var logger *slog.Logger

	command := &Command{
		Name:   "split",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, commandLogger *slog.Logger) error {
			positional = args
			logger = commandLogger
			return nil
		},
	}

	var stdout, stderr bytes.Buffer
	args := []string{"--limit", "500", "-i", "a.jar", "--input", "b.jar", "-v", "extra"}
	if err := command.Execute(testContext(&stdout, &stderr), args); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.Limit != 500 {
		t.Errorf("Limit = %d, want 500", params.Limit)
	}
	if strings.Join(params.Inputs, " ") != "a.jar b.jar" {
		t.Errorf("Inputs = %v, want [a.jar b.jar]", params.Inputs)
	}
	if len(positional) != 1 || positional[0] != "extra" {
		t.Errorf("args = %v, want [extra]", positional)
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("--verbose did not enable debug logging")
	}
}

func TestCommand_Execute_DefaultLogLevel(t *testing.T) {
	var params struct{ Verbosity }
	command := &Command{
		Name:   "estimate",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if logger.Enabled(ctx, slog.LevelDebug) {
				t.Error("debug logging enabled without --verbose")
			}
			logger.Info("hello")
			return nil
		},
	}

	var stdout, stderr bytes.Buffer
	if err := command.Execute(testContext(&stdout, &stderr), nil); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(stderr.String(), `"msg":"hello"`) {
		t.Errorf("stderr = %q, want a JSON log line", stderr.String())
	}
	if !strings.Contains(stderr.String(), `"command":"estimate"`) {
		t.Errorf("stderr = %q, want the command attribute", stderr.String())
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	var params struct {
		Primary string `flag:"primary" desc:"primary archive"`
	}
	command := &Command{
		Name:   "split",
		Params: func() any { return &params },
		Run:    func(ctx context.Context, args []string, logger *slog.Logger) error { return nil },
	}

	var stdout, stderr bytes.Buffer
	err := command.Execute(testContext(&stdout, &stderr), []string{"--primray", "out.jar"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if !strings.Contains(err.Error(), "did you mean --primary") {
		t.Errorf("error = %q, want suggestion for --primary", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
	if ExitStatus(err) != 2 {
		t.Errorf("ExitStatus = %d, want 2", ExitStatus(err))
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "dexsplit",
		Subcommands: []*Command{
			{Name: "split"},
			{Name: "verify"},
			{Name: "version"},
		},
	}

	var stdout, stderr bytes.Buffer
	err := root.Execute(testContext(&stdout, &stderr), []string{"verfy"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), `did you mean "verify"`) {
		t.Errorf("error = %q, want suggestion for verify", err.Error())
	}

	err = root.Execute(testContext(&stdout, &stderr), []string{"zzzzzzz"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want unknown command without suggestion", err)
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	var params struct {
		Limit int64 `flag:"limit" desc:"linear-alloc limit"`
	}
	command := &Command{
		Name:        "verify",
		Description: "Check split outputs.",
		Params:      func() any { return &params },
		Examples:    []Example{{Description: "Check a split", Command: "dexsplit verify --limit 100 --primary p.jar"}},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			t.Error("Run called for help")
			return nil
		},
	}

	for _, helpArg := range []string{"-h", "--help", "help"} {
		var stdout, stderr bytes.Buffer
		if err := command.Execute(testContext(&stdout, &stderr), []string{helpArg}); err != nil {
			t.Fatalf("Execute(%q) error: %v", helpArg, err)
		}
		help := stderr.String()
		for _, want := range []string{"Check split outputs.", "--limit", "linear-alloc limit", "# Check a split"} {
			if !strings.Contains(help, want) {
				t.Errorf("help for %q missing %q:\n%s", helpArg, want, help)
			}
		}
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	root := &Command{Name: "dexsplit", Subcommands: []*Command{{Name: "split", Summary: "Split a classpath"}}}

	var stdout, stderr bytes.Buffer
	err := root.Execute(testContext(&stdout, &stderr), nil)
	if err == nil {
		t.Fatal("Execute() = nil, want error")
	}
	if !strings.Contains(stderr.String(), "Split a classpath") {
		t.Errorf("help not printed: %q", stderr.String())
	}
}

func TestCommand_FullNameInErrors(t *testing.T) {
	var params struct {
		Limit int64 `flag:"limit"`
	}
	root := &Command{
		Name: "dexsplit",
		Subcommands: []*Command{{
			Name:   "verify",
			Params: func() any { return &params },
			Run:    func(ctx context.Context, args []string, logger *slog.Logger) error { return nil },
		}},
	}

	var stdout, stderr bytes.Buffer
	err := root.Execute(testContext(&stdout, &stderr), []string{"verify", "--limit", "many"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for bad value")
	}
	if !strings.Contains(err.Error(), "Run 'dexsplit verify --help'") {
		t.Errorf("error = %q, want full command path", err.Error())
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"exit error", &ExitError{Code: 1}, 1},
		{"wrapped exit error", errors.Join(errors.New("x"), &ExitError{Code: 3}), 3},
		{"validation", Validation("bad flag"), 2},
		{"internal", Internal("disk full"), 1},
		{"plain", errors.New("boom"), 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ExitStatus(test.err); got != test.want {
				t.Errorf("ExitStatus = %d, want %d", got, test.want)
			}
		})
	}
}
