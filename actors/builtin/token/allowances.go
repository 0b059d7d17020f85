package token

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	cbg "github.com/whyrusleeping/cbor-gen"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/runtime/exitcode"
	"github.com/vestledger/grant-actors/actors/util/adt"
)

// Allowances are stored as a two-level map: owner -> root of (spender -> amount).
// Zero allowances are not stored, and an owner with no allowances has no inner map.

func getAllowance(store adt.Store, allowances *adt.Map, owner, spender addr.Address) (abi.TokenAmount, error) {
	inner, found, err := loadSpenders(store, allowances, owner)
	if err != nil || !found {
		return big.Zero(), err
	}
	var amount abi.TokenAmount
	found, err = inner.Get(adt.AddrKey(spender), &amount)
	if err != nil {
		return big.Zero(), exitcode.ErrIllegalState.Wrapf("failed to get allowance of %v for %v: %w", owner, spender, err)
	}
	if !found {
		return big.Zero(), nil
	}
	return amount, nil
}

func setAllowance(store adt.Store, allowances *adt.Map, owner, spender addr.Address, amount abi.TokenAmount) error {
	inner, found, err := loadSpenders(store, allowances, owner)
	if err != nil {
		return err
	}
	if !found {
		if amount.IsZero() {
			return nil
		}
		if inner, err = adt.MakeEmptyMap(store); err != nil {
			return exitcode.ErrIllegalState.Wrapf("failed to create allowances of %v: %w", owner, err)
		}
	}

	if amount.IsZero() {
		if _, err := inner.TryDelete(adt.AddrKey(spender)); err != nil {
			return exitcode.ErrIllegalState.Wrapf("failed to clear allowance of %v for %v: %w", owner, spender, err)
		}
	} else if err := inner.Put(adt.AddrKey(spender), &amount); err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to set allowance of %v for %v: %w", owner, spender, err)
	}

	keys, err := inner.CollectKeys()
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to list allowances of %v: %w", owner, err)
	}
	if len(keys) == 0 {
		if _, err := allowances.TryDelete(adt.AddrKey(owner)); err != nil {
			return exitcode.ErrIllegalState.Wrapf("failed to drop allowances of %v: %w", owner, err)
		}
		return nil
	}

	innerCid, err := inner.Root()
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to flush allowances of %v: %w", owner, err)
	}
	c := cbg.CborCid(innerCid)
	if err := allowances.Put(adt.AddrKey(owner), &c); err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to store allowances of %v: %w", owner, err)
	}
	return nil
}

func loadSpenders(store adt.Store, allowances *adt.Map, owner addr.Address) (*adt.Map, bool, error) {
	var root cbg.CborCid
	found, err := allowances.Get(adt.AddrKey(owner), &root)
	if err != nil {
		return nil, false, exitcode.ErrIllegalState.Wrapf("failed to look up allowances of %v: %w", owner, err)
	}
	if !found {
		return nil, false, nil
	}
	inner, err := adt.AsMap(store, cid.Cid(root))
	if err != nil {
		return nil, false, exitcode.ErrIllegalState.Wrapf("failed to load allowances of %v: %w", owner, err)
	}
	return inner, true, nil
}
