package agent_test

import (
	"context"
	"strings"
	"testing"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestledger/grant-actors/actors/builtin/token"
	"github.com/vestledger/grant-actors/actors/util/adt"
	"github.com/vestledger/grant-actors/support/agent"
	"github.com/vestledger/grant-actors/support/ipld"
)

func simConfig(seed int64) agent.SimConfig {
	return agent.SimConfig{
		AccountCount:  10,
		InitialSupply: big.Mul(big.NewInt(1_000_000), big.NewInt(1e18)),
		Seed:          seed,
		Start:         1_600_000_000,
		TickDuration:  3600,
		Granter: agent.GranterAgentConfig{
			GrantRate:         0.5,
			RevokeRate:        0.1,
			MaxGrantValue:     big.Mul(big.NewInt(10_000), big.NewInt(1e18)),
			VestingPeriod:     200 * 3600,
			RevocableProb:     0.7,
			BurnsOnRevokeProb: 0.3,
			LockProb:          0.5,
		},
		Holder: agent.HolderAgentConfig{
			TransferRate: 0.3,
			DelegateProb: 0.25,
		},
	}
}

func TestGrantTransferRevokeAndCheckInvariants(t *testing.T) {
	ctx := context.Background()
	ms := ipld.NewMetricsBlockStore(ipld.NewBlockStoreInMemory())
	sim := agent.NewSim(ctx, t, adt.WrapBlockStore(ctx, ms), simConfig(42))

	for i := 0; i < 500; i++ {
		require.NoError(t, sim.Tick())

		if i%25 == 0 {
			checkInvariants(t, sim)
		}
	}
	checkInvariants(t, sim)

	stats := sim.GetOpStats()
	for _, kind := range []string{"grant", "revoke", "transfer", "transfer_from"} {
		require.Contains(t, stats, kind)
		assert.Greater(t, stats[kind].Count, uint64(0), kind)
	}
	assert.Greater(t, len(sim.Agents), 1)

	total, err := sim.TotalBalance()
	require.NoError(t, err)
	assert.Equal(t, sim.Config.InitialSupply, total)
	assert.Greater(t, ms.Writes, uint64(0))
	assert.Greater(t, ms.Reads, uint64(0))
}

func TestSimIsDeterministic(t *testing.T) {
	ctx := context.Background()
	run := func(seed int64) (string, map[string]*agent.OpStats) {
		sim := agent.NewSim(ctx, t, ipld.NewADTStore(ctx), simConfig(seed))
		for i := 0; i < 100; i++ {
			require.NoError(t, sim.Tick())
		}
		root, err := sim.Ledger().StateRoot()
		require.NoError(t, err)
		return root.String(), sim.GetOpStats()
	}

	rootA, statsA := run(7)
	rootB, statsB := run(7)
	assert.Equal(t, rootA, rootB)
	assert.Equal(t, statsA, statsB)

	rootC, _ := run(8)
	assert.NotEqual(t, rootA, rootC)
}

func TestRateIterator(t *testing.T) {
	ri := agent.NewRateIterator(2.0, 1)
	count := 0
	for i := 0; i < 1000; i++ {
		require.NoError(t, ri.Tick(func() error {
			count++
			return nil
		}))
	}
	assert.InDelta(t, 2000, count, 200)

	never := agent.NewRateIterator(0, 1)
	require.NoError(t, never.Tick(func() error {
		t.Fatal("zero rate fired")
		return nil
	}))
}

func checkInvariants(t *testing.T, sim *agent.Sim) {
	st := sim.Ledger().State()
	summary, acc := token.CheckStateInvariants(&st, sim.Ledger().Store(), sim.Now())
	require.True(t, acc.IsEmpty(), strings.Join(acc.Messages(), "\n"))

	// Everything an account holds beyond its locked amount is transferable.
	for a, transferable := range summary.Transferable {
		actual, err := sim.Ledger().TransferableTokens(a, sim.Now())
		require.NoError(t, err)
		assert.Equal(t, transferable, actual, "transferable of %v", a)
		assert.True(t, actual.GreaterThanEqual(big.Zero()))
	}
}
