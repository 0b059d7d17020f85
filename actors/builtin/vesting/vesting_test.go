package vesting_test

import (
	"math"
	"testing"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin/vesting"
)

const (
	t0      = abi.Timestamp(1_600_000_000)
	cliff   = 10000
	vest    = 20000
	lockFor = 12000
)

func newGrant(value int64, start, cliffAt, vestedAt, lock abi.Timestamp) *vesting.Grant {
	return &vesting.Grant{
		Value:     abi.NewTokenAmount(value),
		Start:     start,
		Cliff:     cliffAt,
		Vesting:   vestedAt,
		LockUntil: lock,
		Revocable: true,
	}
}

func TestVestedAmount(t *testing.T) {
	g := newGrant(50, t0, t0+cliff, t0+vest, t0+lockFor)

	for _, tc := range []struct {
		at   abi.Timestamp
		want int64
	}{
		{t0 - 1, 0},
		{t0, 0},
		{t0 + cliff - 1, 0},
		{t0 + cliff, 25},
		{t0 + lockFor, 30},
		{t0 + vest - 1, 49},
		{t0 + vest, 50},
		{t0 + 10*vest, 50},
	} {
		assert.Equal(t, abi.NewTokenAmount(tc.want), vesting.VestedAmount(g, tc.at), "at %v", tc.at-t0)
	}

	t.Run("accrual is measured from start, not cliff", func(t *testing.T) {
		g := newGrant(7, 1000, 1500, 3000, 0)
		assert.Equal(t, abi.NewTokenAmount(3), vesting.VestedAmount(g, 2000))
		assert.Equal(t, big.Zero(), vesting.VestedAmount(g, 1499))
	})

	t.Run("instant schedule", func(t *testing.T) {
		g := newGrant(9, 500, 500, 500, 0)
		assert.Equal(t, big.Zero(), vesting.VestedAmount(g, 499))
		assert.Equal(t, abi.NewTokenAmount(9), vesting.VestedAmount(g, 500))
	})

	t.Run("monotonic and bounded by value", func(t *testing.T) {
		g := newGrant(1_000_003, t0, t0+333, t0+99_991, 0)
		prev := big.Zero()
		for at := t0 - 100; at < t0+100_500; at += 97 {
			v := vesting.VestedAmount(g, at)
			assert.True(t, v.GreaterThanEqual(prev), "vested decreased at %v", at)
			assert.True(t, v.LessThanEqual(g.Value))
			prev = v
		}
		assert.Equal(t, g.Value, prev)
	})

	t.Run("schedule wider than the int64 range", func(t *testing.T) {
		start := abi.Timestamp(math.MinInt64/2 - 10)
		end := abi.Timestamp(math.MaxInt64/2 + 10)
		g := newGrant(100, start, start, end, 0)
		require.NoError(t, vesting.ValidateSchedule(g.Start, g.Cliff, g.Vesting))

		assert.Equal(t, abi.NewTokenAmount(50), vesting.VestedAmount(g, 0))
		assert.Equal(t, abi.NewTokenAmount(50), vesting.LockedAmount(g, 0))
		assert.Equal(t, big.Zero(), vesting.VestedAmount(g, start))
		assert.Equal(t, abi.NewTokenAmount(99), vesting.VestedAmount(g, end-1))
		assert.Equal(t, g.Value, vesting.VestedAmount(g, end))

		prev := big.Zero()
		for _, at := range []abi.Timestamp{start, start / 2, -1, 0, 1, end / 2, end - 1, end} {
			v := vesting.VestedAmount(g, at)
			assert.True(t, v.GreaterThanEqual(prev), "vested decreased at %v", at)
			assert.True(t, v.LessThanEqual(g.Value), "vested above value at %v", at)
			prev = v
		}

		kept, refund := vesting.RevokeSplit(g, 0)
		assert.Equal(t, g.Value, big.Add(kept, refund))
		assert.True(t, refund.GreaterThanEqual(big.Zero()))
	})
}

func TestLockedAmount(t *testing.T) {
	g := newGrant(50, t0, t0+cliff, t0+vest, t0+lockFor)

	t.Run("whole value locked before cliff", func(t *testing.T) {
		for _, at := range []abi.Timestamp{t0 - 5, t0, t0 + cliff - 1} {
			assert.Equal(t, abi.NewTokenAmount(50), vesting.LockedAmount(g, at))
		}
	})

	t.Run("lock period withholds vested tokens", func(t *testing.T) {
		assert.Equal(t, abi.NewTokenAmount(50), vesting.LockedAmount(g, t0+cliff))
		assert.Equal(t, abi.NewTokenAmount(50), vesting.LockedAmount(g, t0+lockFor-1))
		assert.Equal(t, abi.NewTokenAmount(20), vesting.LockedAmount(g, t0+lockFor))
	})

	t.Run("nothing locked after vesting", func(t *testing.T) {
		assert.Equal(t, big.Zero(), vesting.LockedAmount(g, t0+vest))
		assert.Equal(t, big.Zero(), vesting.LockedAmount(g, t0+3*vest))
	})

	t.Run("lock after vesting still withholds everything", func(t *testing.T) {
		late := newGrant(50, t0, t0, t0+100, t0+500)
		assert.Equal(t, abi.NewTokenAmount(50), vesting.LockedAmount(late, t0+499))
		assert.Equal(t, big.Zero(), vesting.LockedAmount(late, t0+500))
	})

	t.Run("revoked grant locks nothing", func(t *testing.T) {
		revoked := *g
		revoked.Revoked = true
		revoked.RevokedAt = t0 + 1
		assert.Equal(t, big.Zero(), vesting.LockedAmount(&revoked, t0))
	})
}

func TestComposition(t *testing.T) {
	// One grant fully locked, the other 30% vested.
	grants := []vesting.Grant{
		*newGrant(50, t0, t0+5000, t0+10000, 0),
		*newGrant(50, t0, t0, t0+10000, 0),
	}
	at := t0 + 3000

	assert.Equal(t, abi.NewTokenAmount(50), vesting.LockedAmount(&grants[0], at))
	assert.Equal(t, abi.NewTokenAmount(35), vesting.LockedAmount(&grants[1], at))

	locked := vesting.SumLocked(grants, at)
	assert.Equal(t, abi.NewTokenAmount(85), locked)
	assert.Equal(t, abi.NewTokenAmount(15), vesting.TransferableAmount(abi.NewTokenAmount(100), locked))

	t.Run("transferable floors at zero", func(t *testing.T) {
		assert.Equal(t, big.Zero(), vesting.TransferableAmount(abi.NewTokenAmount(60), locked))
	})
}

func TestRevokeSplit(t *testing.T) {
	g := newGrant(50, t0, t0+cliff, t0+vest, t0+lockFor)

	for _, tc := range []struct {
		name         string
		at           abi.Timestamp
		kept, refund int64
	}{
		{"before cliff", t0 + 1, 0, 50},
		{"at cliff, inside lock period", t0 + cliff, 25, 25},
		{"after lock", t0 + lockFor, 30, 20},
		{"after vesting", t0 + vest, 50, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			kept, refund := vesting.RevokeSplit(g, tc.at)
			assert.Equal(t, abi.NewTokenAmount(tc.kept), kept)
			assert.Equal(t, abi.NewTokenAmount(tc.refund), refund)
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, vesting.ValidateSchedule(10, 10, 10))
	assert.NoError(t, vesting.ValidateSchedule(10, 20, 30))
	assert.Equal(t, vesting.ErrCliffBeforeStart, vesting.ValidateSchedule(10, 9, 30))
	assert.Equal(t, vesting.ErrVestingBeforeCliff, vesting.ValidateSchedule(10, 20, 19))
}

func TestLastTransferableTime(t *testing.T) {
	assert.Equal(t, abi.Timestamp(0), vesting.LastTransferableTime(nil))

	grants := []vesting.Grant{
		*newGrant(1, 0, 10, 100, 50),
		*newGrant(1, 0, 10, 80, 300),
		*newGrant(1, 0, 10, 1000, 0),
	}
	grants[2].Revoked = true
	assert.Equal(t, abi.Timestamp(300), vesting.LastTransferableTime(grants))

	grants[1].Revoked = true
	assert.Equal(t, abi.Timestamp(100), vesting.LastTransferableTime(grants))
}
