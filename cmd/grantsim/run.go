package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vestledger/grant-actors/support/scenario"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Replay scenarios and check their expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, opts, args)
		},
	}
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <scenario.yaml>...",
		Short: "Parse and validate scenarios without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkScenarios(cmd, opts, args)
		},
	}
}

func runScenarios(cmd *cobra.Command, opts *rootOptions, paths []string) error {
	supply, err := opts.initialSupply()
	if err != nil {
		return &exitError{code: exitCommandError, err: err}
	}
	cfg := scenario.Config{InitialSupply: supply, Logger: opts.log}

	var results []*scenario.Result
	failed := 0
	for _, path := range paths {
		s, err := scenario.Load(path)
		if err != nil {
			return &exitError{code: exitCommandError, err: fmt.Errorf("%s: %w", path, err)}
		}
		result, err := scenario.Run(cmd.Context(), s, cfg)
		if err != nil {
			return &exitError{code: exitCommandError, err: fmt.Errorf("%s: %w", path, err)}
		}
		if !result.Passed() {
			failed++
		}
		results = append(results, result)
	}

	if err := writeResults(cmd.OutOrStdout(), opts.Format, results); err != nil {
		return &exitError{code: exitCommandError, err: err}
	}
	if failed > 0 {
		return &exitError{code: exitFailure, err: fmt.Errorf("%d of %d scenarios failed", failed, len(results))}
	}
	return nil
}

func checkScenarios(cmd *cobra.Command, opts *rootOptions, paths []string) error {
	type checked struct {
		Path  string `json:"path"`
		Name  string `json:"name"`
		Steps int    `json:"steps"`
	}
	var out []checked
	for _, path := range paths {
		s, err := scenario.Load(path)
		if err != nil {
			return &exitError{code: exitCommandError, err: fmt.Errorf("%s: %w", path, err)}
		}
		out = append(out, checked{Path: path, Name: s.Name, Steps: len(s.Steps)})
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return json.NewEncoder(w).Encode(out)
	}
	for _, c := range out {
		fmt.Fprintf(w, "ok   %s: %q, %d steps\n", c.Path, c.Name, c.Steps)
	}
	return nil
}

func writeResults(w io.Writer, format string, results []*scenario.Result) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(results)
	}
	for _, r := range results {
		if r.Passed() {
			fmt.Fprintf(w, "PASS %s (%d steps, state %s)\n", r.Name, r.Steps, r.StateRoot)
			continue
		}
		fmt.Fprintf(w, "FAIL %s (%d steps)\n", r.Name, r.Steps)
		for _, f := range r.Failures {
			fmt.Fprintf(w, "     %s\n", f)
		}
	}
	return nil
}
