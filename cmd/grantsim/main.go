// Command grantsim replays vesting ledger scenarios written in YAML.
//
//	grantsim run scenarios/*.yaml
//	grantsim check scenarios/*.yaml
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd, err := newRootCommand()
	if err == nil {
		err = cmd.Execute()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
