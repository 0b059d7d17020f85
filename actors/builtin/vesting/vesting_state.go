package vesting

import (
	addr "github.com/filecoin-project/go-address"

	"github.com/vestledger/grant-actors/actors/abi"
)

// Grant is one vesting commitment layered onto a holder's balance.
// A grant restricts transfer of the portion of the balance attributable to it; it does not track
// individual units.
type Grant struct {
	// Stable identifier, unique within a ledger.
	ID abi.GrantID
	// Receives the unvested remainder when the grant is revoked without burning.
	Issuer addr.Address
	// Amount originally granted. Always positive.
	Value abi.TokenAmount

	// Linear vesting accrues from Start and completes at Vesting.
	// Nothing is vested before Cliff.
	Start   abi.Timestamp
	Cliff   abi.Timestamp
	Vesting abi.Timestamp
	// No part of the grant may be transferred before LockUntil, however much has vested.
	LockUntil abi.Timestamp

	Revocable     bool
	BurnsOnRevoke bool

	// Tombstone. A revoked grant locks nothing and cannot be revoked again.
	Revoked   bool
	RevokedAt abi.Timestamp
}

// Checks a vesting schedule for consistency: Start <= Cliff <= Vesting.
func ValidateSchedule(start, cliff, vesting abi.Timestamp) error {
	if cliff < start {
		return ErrCliffBeforeStart
	}
	if vesting < cliff {
		return ErrVestingBeforeCliff
	}
	return nil
}

type scheduleError string

func (e scheduleError) Error() string { return string(e) }

const (
	ErrCliffBeforeStart   = scheduleError("cliff precedes start")
	ErrVestingBeforeCliff = scheduleError("vesting precedes cliff")
)
