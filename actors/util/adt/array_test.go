package adt_test

import (
	"context"
	"testing"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestledger/grant-actors/actors/util/adt"
	"github.com/vestledger/grant-actors/support/ipld"
)

func TestArrayNotFound(t *testing.T) {
	store := ipld.NewADTStore(context.Background())
	arr, err := adt.MakeEmptyArray(store)
	require.NoError(t, err)

	found, err := arr.Get(7, nil)
	require.NoError(t, err)
	require.False(t, found)
}

func TestArray(t *testing.T) {
	store := ipld.NewADTStore(context.Background())
	arr, err := adt.MakeEmptyArray(store)
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		v := abi.NewTokenAmount(i * 10)
		require.NoError(t, arr.AppendContinuous(&v))
	}
	assert.Equal(t, uint64(3), arr.Length())

	root, err := arr.Root()
	require.NoError(t, err)
	reloaded, err := adt.AsArray(store, root)
	require.NoError(t, err)

	var seen []int64
	var out abi.TokenAmount
	err = reloaded.ForEach(&out, func(i int64) error {
		assert.Equal(t, big.NewInt((i+1)*10), out)
		seen = append(seen, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, seen)

	replacement := abi.NewTokenAmount(7)
	require.NoError(t, reloaded.Set(1, &replacement))
	found, err := reloaded.Get(1, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, abi.NewTokenAmount(7), out)

	found, err = reloaded.Get(5, &out)
	require.NoError(t, err)
	assert.False(t, found)
}
