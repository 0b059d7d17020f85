package builtin

import (
	addr "github.com/filecoin-project/go-address"
)

// Addresses for singleton system accounts.
var (
	// Distinguished account holding burned tokens. No key controls it.
	BurnSinkAddr = mustMakeAddress(99)
)

// Creates an ID address from an ID, panicking on failure.
func mustMakeAddress(id uint64) addr.Address {
	address, err := addr.NewIDAddress(id)
	if err != nil {
		panic(err)
	}
	return address
}
