package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin"
)

type StateSummary struct {
	HolderCount    int
	GrantCount     int
	LiveGrantCount int
	// Amount each holder's grants withhold at the checked time.
	LockedByHolder map[addr.Address]abi.TokenAmount
}

// Checks internal invariants of a grant table at time `now`.
// Grant identifiers must be unique and below `nextID`.
func CheckGrantTableInvariants(table *GrantTable, nextID abi.GrantID, now abi.Timestamp) (*StateSummary, *builtin.MessageAccumulator, error) {
	acc := &builtin.MessageAccumulator{}
	summary := &StateSummary{LockedByHolder: make(map[addr.Address]abi.TokenAmount)}
	seen := make(map[abi.GrantID]addr.Address)

	err := table.ForEachHolder(func(holder addr.Address) error {
		summary.HolderCount++
		hacc := acc.WithPrefix("holder %v: ", holder)
		locked := big.Zero()
		count := 0

		err := table.ForEach(holder, func(idx uint64, g *Grant) error {
			count++
			summary.GrantCount++
			if !g.Revoked {
				summary.LiveGrantCount++
			}

			gacc := hacc.WithPrefix("grant %d (pos %d): ", g.ID, idx)
			if other, dup := seen[g.ID]; dup {
				gacc.Addf("duplicate id, also held by %v", other)
			}
			seen[g.ID] = holder
			gacc.Require(g.ID < nextID, "id not below next id %d", nextID)
			gacc.Require(g.Value.GreaterThan(big.Zero()), "non-positive value %v", g.Value)
			gacc.RequireNoError(ValidateSchedule(g.Start, g.Cliff, g.Vesting), "invalid schedule")
			gacc.Require(g.Revoked || g.RevokedAt == 0, "live grant has revocation time %v", g.RevokedAt)
			gacc.Require(!g.Revoked || g.Revocable, "non-revocable grant is revoked")

			l := LockedAmount(g, now)
			gacc.Require(l.GreaterThanEqual(big.Zero()) && l.LessThanEqual(g.Value), "locked %v outside [0, %v]", l, g.Value)
			locked = big.Add(locked, l)
			return nil
		})
		if err != nil {
			return err
		}

		hacc.Require(count <= MaxGrantsPerAccount, "holds %d grants, above maximum %d", count, MaxGrantsPerAccount)
		summary.LockedByHolder[holder] = locked
		return nil
	})
	if err != nil {
		return nil, acc, err
	}
	return summary, acc, nil
}
