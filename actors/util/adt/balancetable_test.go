package adt_test

import (
	"context"
	"testing"

	addr "github.com/filecoin-project/go-address"
	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestledger/grant-actors/actors/util/adt"
	"github.com/vestledger/grant-actors/support/ipld"
	tutil "github.com/vestledger/grant-actors/support/testing"
)

func TestBalanceTable(t *testing.T) {
	newTable := func(t *testing.T) *adt.BalanceTable {
		store := ipld.NewADTStore(context.Background())
		emptyRoot, err := adt.StoreEmptyMap(store)
		require.NoError(t, err)
		bt, err := adt.AsBalanceTable(store, emptyRoot)
		require.NoError(t, err)
		return bt
	}

	t.Run("Add adds or creates", func(t *testing.T) {
		a := tutil.NewIDAddr(t, 100)
		bt := newTable(t)

		prev, err := bt.Get(a)
		assert.NoError(t, err)
		assert.Equal(t, big.Zero(), prev)

		err = bt.Add(a, abi.NewTokenAmount(10))
		assert.NoError(t, err)

		amount, err := bt.Get(a)
		assert.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(10), amount)

		err = bt.Add(a, abi.NewTokenAmount(20))
		assert.NoError(t, err)

		amount, err = bt.Get(a)
		assert.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(30), amount)
	})

	t.Run("Add rejects negative result", func(t *testing.T) {
		a := tutil.NewIDAddr(t, 100)
		bt := newTable(t)
		require.NoError(t, bt.Add(a, abi.NewTokenAmount(5)))

		assert.Error(t, bt.Add(a, abi.NewTokenAmount(-6)))
		amount, err := bt.Get(a)
		require.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(5), amount)
	})

	t.Run("MustSubtract fails when insufficient", func(t *testing.T) {
		a := tutil.NewIDAddr(t, 100)
		bt := newTable(t)
		require.NoError(t, bt.Add(a, abi.NewTokenAmount(80)))

		assert.Error(t, bt.MustSubtract(a, abi.NewTokenAmount(81)))
		require.NoError(t, bt.MustSubtract(a, abi.NewTokenAmount(80)))

		amount, err := bt.Get(a)
		require.NoError(t, err)
		assert.Equal(t, big.Zero(), amount)
	})

	t.Run("Total sums all balances", func(t *testing.T) {
		bt := newTable(t)
		require.NoError(t, bt.Add(tutil.NewIDAddr(t, 100), abi.NewTokenAmount(10)))
		require.NoError(t, bt.Add(tutil.NewIDAddr(t, 101), abi.NewTokenAmount(25)))
		require.NoError(t, bt.Add(tutil.NewIDAddr(t, 102), abi.NewTokenAmount(0)))

		total, err := bt.Total()
		require.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(35), total)

		count := 0
		require.NoError(t, bt.ForEach(func(_ addr.Address, _ abi.TokenAmount) error {
			count++
			return nil
		}))
		assert.Equal(t, 2, count)
	})
}
