package main

import (
	"errors"
	"fmt"

	"github.com/filecoin-project/go-state-types/big"
	rtt "github.com/filecoin-project/go-state-types/rt"
	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/runtime"
)

// Exit codes.
const (
	exitSuccess      = 0
	exitFailure      = 1 // a scenario expectation did not hold
	exitCommandError = 2 // bad arguments, unreadable or invalid scenario files
)

const logSystem = "grants"

var validFormats = []string{"text", "json"}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitCommandError
}

type rootOptions struct {
	LogLevel string
	Format   string
	Supply   string

	log runtime.Logger
}

func newRootCommand() (*cobra.Command, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, &exitError{code: exitCommandError, err: err}
	}
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "grantsim",
		Short: "Replay vesting token ledger scenarios",
		Long: `Replay YAML scenarios of timed grants, transfers and revocations against a fresh
in-memory vesting token ledger, checking every expectation and the ledger's state invariants.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			if _, err := opts.initialSupply(); err != nil {
				return err
			}
			return opts.setupLogging()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", cfg.LogLevel, "ledger log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.Supply, "supply", cfg.InitialSupply, "initial supply for scenarios that declare none")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	return cmd, nil
}

func (o *rootOptions) initialSupply() (abi.TokenAmount, error) {
	supply, err := big.FromString(o.Supply)
	if err != nil {
		return big.Zero(), fmt.Errorf("invalid supply %q: %w", o.Supply, err)
	}
	if supply.Sign() < 0 {
		return big.Zero(), fmt.Errorf("negative supply %v", supply)
	}
	return supply, nil
}

var levelNames = map[rtt.LogLevel]string{
	rtt.DEBUG: "debug",
	rtt.INFO:  "info",
	rtt.WARN:  "warn",
	rtt.ERROR: "error",
}

// The go-log subsystem must exist before its level can be set.
func (o *rootOptions) setupLogging() error {
	level, err := runtime.ParseLogLevel(o.LogLevel)
	if err != nil {
		return err
	}
	o.log = runtime.NewLogger(logSystem, level)
	return logging.SetLogLevel(logSystem, levelNames[level])
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}
