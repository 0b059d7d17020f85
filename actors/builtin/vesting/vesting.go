package vesting

import (
	"github.com/filecoin-project/go-state-types/big"

	"github.com/vestledger/grant-actors/actors/abi"
)

// VestedAmount returns the portion of a grant's value vested at time t.
// Nothing vests before the cliff; everything has vested from the vesting timestamp on.
// In between, the value accrues linearly from Start, truncated toward zero.
func VestedAmount(g *Grant, t abi.Timestamp) abi.TokenAmount {
	if t < g.Cliff {
		return big.Zero()
	}
	if t >= g.Vesting {
		return g.Value
	}

	// Cliff <= t < Vesting implies Vesting > Start.
	// Division must be done last to avoid precision loss with integer values.
	// Differences are taken in big.Int: a schedule may span more than the int64 range.
	start := big.NewInt(int64(g.Start))
	elapsed := big.Sub(big.NewInt(int64(t)), start)
	duration := big.Sub(big.NewInt(int64(g.Vesting)), start)
	return big.Div(big.Mul(g.Value, elapsed), duration)
}

// LockedAmount returns the amount a grant withholds from its holder's transferable balance at time t.
// The lock timestamp withholds the whole value regardless of vesting. Revoked grants withhold nothing.
func LockedAmount(g *Grant, t abi.Timestamp) abi.TokenAmount {
	if g.Revoked {
		return big.Zero()
	}
	if t < g.LockUntil {
		return g.Value
	}
	return big.Max(big.Zero(), big.Sub(g.Value, VestedAmount(g, t)))
}

// RevokeSplit partitions a grant at time t into the amount the holder keeps and the unvested
// refund. The lock timestamp plays no part: once revoked, the kept amount is unencumbered.
func RevokeSplit(g *Grant, t abi.Timestamp) (kept, refund abi.TokenAmount) {
	kept = VestedAmount(g, t)
	refund = big.Sub(g.Value, kept)
	return kept, refund
}

// TransferableAmount returns the part of a balance not withheld by locked grant amounts.
func TransferableAmount(balance, locked abi.TokenAmount) abi.TokenAmount {
	return big.Max(big.Zero(), big.Sub(balance, locked))
}

// SumLocked adds up the locked contributions of a holder's grants at time t.
// Grants compose additively; each is evaluated on its own value and schedule.
func SumLocked(grants []Grant, t abi.Timestamp) abi.TokenAmount {
	total := big.Zero()
	for i := range grants {
		total = big.Add(total, LockedAmount(&grants[i], t))
	}
	return total
}

// LastTransferableTime returns the earliest time from which none of the live grants withholds
// anything: the latest vesting or lock timestamp among them. Zero if there are no live grants.
func LastTransferableTime(grants []Grant) abi.Timestamp {
	var last abi.Timestamp
	for i := range grants {
		g := &grants[i]
		if g.Revoked {
			continue
		}
		if g.Vesting > last {
			last = g.Vesting
		}
		if g.LockUntil > last {
			last = g.LockUntil
		}
	}
	return last
}
