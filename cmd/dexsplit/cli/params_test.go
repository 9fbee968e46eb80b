// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

// upperValue is a pflag.Value that stores its input upper-cased.
type upperValue string

func (v *upperValue) String() string { return string(*v) }
func (v *upperValue) Type() string   { return "upper" }

func (v *upperValue) Set(s string) error {
	*v = upperValue(strings.ToUpper(s))
	return nil
}

func TestBindFlags_AllTypes(t *testing.T) {
	var params struct {
		JSONOutput
		Name     string     `flag:"name,n" desc:"name" default:"job"`
		Canaries bool       `flag:"canaries" desc:"canaries"`
		Parallel int        `flag:"parallel" desc:"jobs" default:"4"`
		Limit    int64      `flag:"limit" desc:"limit" default:"5242880"`
		Patterns []string   `flag:"primary-pattern" desc:"patterns" default:"^a/,b"`
		Mode     upperValue `flag:"mode" desc:"mode" default:"fast"`
		Ignored  string
	}

	flagSet := FlagsFromParams("test", &params)
	if params.Name != "job" || params.Parallel != 4 || params.Limit != 5242880 || params.Mode != "FAST" {
		t.Errorf("defaults not applied: %+v", params)
	}
	if diff := cmp.Diff([]string{"^a/", "b"}, params.Patterns); diff != "" {
		t.Errorf("default patterns (-want +got):\n%s", diff)
	}

	err := flagSet.Parse([]string{"-n", "app", "--canaries", "--parallel=2", "--limit", "10",
		"--primary-pattern", "^x/", "--mode", "slow", "--json"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Name != "app" || !params.Canaries || params.Parallel != 2 || params.Limit != 10 || params.Mode != "SLOW" || !params.OutputJSON {
		t.Errorf("parsed params = %+v", params)
	}
	if diff := cmp.Diff([]string{"^x/"}, params.Patterns); diff != "" {
		t.Errorf("patterns (-want +got):\n%s", diff)
	}
	if flagSet.Lookup("Ignored") != nil || flagSet.Lookup("ignored") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlags_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params any
	}{
		{"not a pointer", struct{}{}},
		{"pointer to non-struct", new(int)},
		{"unsupported type", &struct {
			Ratio float32 `flag:"ratio"`
		}{}},
		{"bad default", &struct {
			Limit int64 `flag:"limit" default:"lots"`
		}{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
			if err := BindFlags(test.params, flagSet); err == nil {
				t.Error("BindFlags succeeded")
			}
		})
	}
}

func TestFlagsFromParams_PanicsOnInvalidParams(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic")
		}
	}()
	FlagsFromParams("test", struct{}{})
}

func TestParseFlagTag(t *testing.T) {
	if name, shorthand := parseFlagTag("verbose,v"); name != "verbose" || shorthand != "v" {
		t.Errorf("parseFlagTag(verbose,v) = %q, %q", name, shorthand)
	}
	if name, shorthand := parseFlagTag("limit"); name != "limit" || shorthand != "" {
		t.Errorf("parseFlagTag(limit) = %q, %q", name, shorthand)
	}
}
