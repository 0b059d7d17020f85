package adt

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	errors "github.com/pkg/errors"

	"github.com/vestledger/grant-actors/actors/abi"
)

// A specialization of a map of addresses to (positive) token amounts.
// Absent keys implicitly have a balance of zero.
type BalanceTable Map

// Interprets a store as balance table with root `r`.
func AsBalanceTable(s Store, r cid.Cid) (*BalanceTable, error) {
	m, err := AsMap(s, r)
	if err != nil {
		return nil, err
	}

	return &BalanceTable{
		lastCid: m.lastCid,
		root:    m.root,
		store:   s,
	}, nil
}

// Returns the root cid of underlying HAMT.
func (t *BalanceTable) Root() (cid.Cid, error) {
	return (*Map)(t).Root()
}

// Gets the balance for a key, which is zero if they key has never been added to.
func (t *BalanceTable) Get(key addr.Address) (abi.TokenAmount, error) {
	var value abi.TokenAmount
	found, err := (*Map)(t).Get(AddrKey(key), &value)
	if !found || err != nil {
		value = big.Zero()
	}

	return value, err
}

// Adds an amount to a balance, requiring the resulting balance to be non-negative.
func (t *BalanceTable) Add(key addr.Address, value abi.TokenAmount) error {
	prev, err := t.Get(key)
	if err != nil {
		return err
	}
	sum := big.Add(prev, value)
	sign := sum.Sign()
	if sign < 0 {
		return errors.Errorf("adding %v to balance %v would give negative: %v", value, prev, sum)
	} else if sign == 0 {
		_, err = (*Map)(t).TryDelete(AddrKey(key))
		return err
	}
	return (*Map)(t).Put(AddrKey(key), &sum)
}

// Subtracts the full amount from a balance, failing without change if the balance is too low.
func (t *BalanceTable) MustSubtract(key addr.Address, req abi.TokenAmount) error {
	prev, err := t.Get(key)
	if err != nil {
		return err
	}
	if prev.LessThan(req) {
		return errors.Errorf("couldn't subtract %v from balance %v of %v", req, prev, key)
	}
	return t.Add(key, req.Neg())
}

// Iterates all non-zero balances in the table.
func (t *BalanceTable) ForEach(cb func(addr.Address, abi.TokenAmount) error) error {
	var amount abi.TokenAmount
	return (*Map)(t).ForEach(&amount, func(k string) error {
		a, err := ParseAddrKey(k)
		if err != nil {
			return err
		}
		return cb(a, amount)
	})
}

// Returns the total balance held by this BalanceTable
func (t *BalanceTable) Total() (abi.TokenAmount, error) {
	total := big.Zero()
	err := t.ForEach(func(_ addr.Address, amount abi.TokenAmount) error {
		total = big.Add(total, amount)
		return nil
	})
	return total, err
}
