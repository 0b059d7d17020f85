package main

import (
	token "github.com/vestledger/grant-actors/actors/builtin/token"
	vesting "github.com/vestledger/grant-actors/actors/builtin/vesting"

	gen "github.com/whyrusleeping/cbor-gen"
)

func main() {
	if err := gen.WriteTupleEncodersToFile("./actors/builtin/vesting/cbor_gen.go", "vesting",
		// grant records
		vesting.Grant{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/builtin/token/cbor_gen.go", "token",
		// ledger state
		token.State{},
		token.Authority{},
	); err != nil {
		panic(err)
	}
}
