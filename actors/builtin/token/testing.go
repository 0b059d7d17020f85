package token

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin"
	"github.com/vestledger/grant-actors/actors/builtin/vesting"
	"github.com/vestledger/grant-actors/actors/util/adt"
)

type StateSummary struct {
	Balances     map[addr.Address]abi.TokenAmount
	Transferable map[addr.Address]abi.TokenAmount
	Grants       *vesting.StateSummary
}

// Checks internal invariants of token state at time `now`.
func CheckStateInvariants(st *State, store adt.Store, now abi.Timestamp) (*StateSummary, *builtin.MessageAccumulator) {
	acc := &builtin.MessageAccumulator{}
	summary := &StateSummary{
		Balances:     make(map[addr.Address]abi.TokenAmount),
		Transferable: make(map[addr.Address]abi.TokenAmount),
	}

	acc.Require(st.Authority.Granter != addr.Undef, "granter undefined")
	acc.Require(st.Authority.BurnSink != addr.Undef, "burn sink undefined")
	acc.Require(st.Authority.Granter != st.Authority.BurnSink, "granter is the burn sink")

	// Balances
	total := big.Zero()
	if balances, err := adt.AsBalanceTable(store, st.Balances); err != nil {
		acc.Addf("error loading balances: %v", err)
	} else {
		err = balances.ForEach(func(a addr.Address, amount abi.TokenAmount) error {
			acc.Require(amount.GreaterThan(big.Zero()), "stored non-positive balance %v for %v", amount, a)
			summary.Balances[a] = amount
			total = big.Add(total, amount)
			return nil
		})
		acc.RequireNoError(err, "error iterating balances")
	}
	acc.Require(total.Equals(st.TotalSupply), "sum of balances %v != total supply %v", total, st.TotalSupply)

	// Allowances
	if allowances, err := adt.AsMap(store, st.Allowances); err != nil {
		acc.Addf("error loading allowances: %v", err)
	} else {
		owners, err := allowances.CollectKeys()
		acc.RequireNoError(err, "error listing allowance owners")
		for _, k := range owners {
			owner, err := adt.ParseAddrKey(k)
			if err != nil {
				acc.Addf("invalid allowance owner key %x: %v", k, err)
				continue
			}
			checkAllowances(acc.WithPrefix("allowances of %v: ", owner), store, allowances, owner)
		}
	}

	// Grants
	if grants, err := vesting.AsGrantTable(store, st.Grants); err != nil {
		acc.Addf("error loading grants: %v", err)
	} else {
		grantSummary, grantAcc, err := vesting.CheckGrantTableInvariants(grants, st.NextGrantID, now)
		acc.WithPrefix("grants: ").AddAll(grantAcc)
		acc.RequireNoError(err, "error checking grants")
		if grantSummary != nil {
			summary.Grants = grantSummary
			for holder, locked := range grantSummary.LockedByHolder {
				balance, ok := summary.Balances[holder]
				if !ok {
					balance = big.Zero()
				}
				acc.Require(balance.GreaterThanEqual(locked), "balance %v of %v below locked %v", balance, holder, locked)
			}
		}
	}

	for a, balance := range summary.Balances {
		locked := big.Zero()
		if summary.Grants != nil {
			if l, ok := summary.Grants.LockedByHolder[a]; ok {
				locked = l
			}
		}
		summary.Transferable[a] = vesting.TransferableAmount(balance, locked)
	}
	return summary, acc
}

func checkAllowances(acc *builtin.MessageAccumulator, store adt.Store, allowances *adt.Map, owner addr.Address) {
	inner, found, err := loadSpenders(store, allowances, owner)
	if err != nil {
		acc.Addf("error loading: %v", err)
		return
	}
	if !found {
		return
	}
	var amount abi.TokenAmount
	count := 0
	err = inner.ForEach(&amount, func(k string) error {
		count++
		acc.Require(amount.GreaterThan(big.Zero()), "stored non-positive allowance %v", amount)
		return nil
	})
	acc.RequireNoError(err, "error iterating")
	acc.Require(count > 0, "empty allowance map stored")
}
