package abi

import (
	"strconv"

	"github.com/filecoin-project/go-state-types/big"
)

// The abi package contains definitions of all types that cross the ledger boundary and are used
// within grant and transfer code.
//
// Primitive types include numerics and identifiers.

// Timestamp is a point in time, in seconds, supplied by the caller of every time-sensitive
// ledger operation. The ledger never reads a wall clock.
type Timestamp int64

func (t Timestamp) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// GrantID is a stable identifier assigned to a vesting grant when it is created.
// Identifiers are issued from a ledger-wide counter and never reused.
type GrantID uint64

func (id GrantID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// TokenAmount is an amount of ledger tokens, in the smallest indivisible unit.
//
// BigInt types are aliases rather than new types because the latter introduce incredible amounts of noise converting to
// and from types in order to manipulate values. We give up some type safety for ergonomics.
type TokenAmount = big.Int

func NewTokenAmount(t int64) TokenAmount {
	return big.NewInt(t)
}
