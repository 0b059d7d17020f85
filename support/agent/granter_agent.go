package agent

import (
	"math"
	"math/rand"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin/token"
	"github.com/vestledger/grant-actors/actors/builtin/vesting"
)

type GranterAgentConfig struct {
	GrantRate         float64         // average number of grants per tick
	RevokeRate        float64         // average number of revocations per tick
	MaxGrantValue     abi.TokenAmount // upper bound on a single grant's value
	VestingPeriod     abi.Timestamp   // upper bound on start-to-vesting duration
	RevocableProb     float32         // probability a grant is revocable
	BurnsOnRevokeProb float32         // probability a revocable grant burns on revocation
	LockProb          float32         // probability a grant carries a lock
}

// GranterAgent issues grants to the simulated accounts and revokes some of them later.
// Each account receives a HolderAgent along with its first grant.
type GranterAgent struct {
	Config   GranterAgentConfig
	Address  addr.Address
	holders  []addr.Address
	grantees map[addr.Address]*grantee

	holderConfig HolderAgentConfig
	revocable    []grantRef

	grantEvents  *RateIterator
	revokeEvents *RateIterator
	rnd          *rand.Rand
}

type grantee struct {
	grants   int
	hasAgent bool
}

type grantRef struct {
	holder addr.Address
	id     abi.GrantID
}

func NewGranterAgent(granter addr.Address, holders []addr.Address, config GranterAgentConfig, holderConfig HolderAgentConfig, rndSeed int64) *GranterAgent {
	rnd := rand.New(rand.NewSource(rndSeed))
	return &GranterAgent{
		Config:       config,
		Address:      granter,
		holders:      holders,
		grantees:     make(map[addr.Address]*grantee),
		holderConfig: holderConfig,
		grantEvents:  NewRateIterator(config.GrantRate, rnd.Int63()),
		revokeEvents: NewRateIterator(config.RevokeRate, rnd.Int63()),
		rnd:          rnd,
	}
}

func (ga *GranterAgent) Tick(s SimState) ([]message, error) {
	var msgs []message
	if len(ga.holders) == 0 {
		return msgs, nil
	}

	// Grants this tick may not exceed what is transferable now. Refunds arriving during the
	// tick are not counted.
	budget, err := s.Ledger().TransferableTokens(ga.Address, s.Now())
	if err != nil {
		return nil, err
	}
	err = ga.grantEvents.Tick(func() error {
		holder := ga.holders[ga.rnd.Intn(len(ga.holders))]
		g := ga.grantee(holder)
		if g.grants >= vesting.MaxGrantsPerAccount || budget.LessThanEqual(big.Zero()) {
			return nil
		}
		params := ga.grantParams(s.Now(), budget)
		budget = big.Sub(budget, params.Value)
		g.grants++
		msgs = append(msgs, ga.grant(holder, params))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = ga.revokeEvents.Tick(func() error {
		if len(ga.revocable) == 0 {
			return nil
		}
		i := ga.rnd.Intn(len(ga.revocable))
		ref := ga.revocable[i]
		ga.revocable[i] = ga.revocable[len(ga.revocable)-1]
		ga.revocable = ga.revocable[:len(ga.revocable)-1]
		msgs = append(msgs, ga.revoke(ref))
		return nil
	})
	return msgs, err
}

func (ga *GranterAgent) grantee(holder addr.Address) *grantee {
	g, ok := ga.grantees[holder]
	if !ok {
		g = &grantee{}
		ga.grantees[holder] = g
	}
	return g
}

func (ga *GranterAgent) grantParams(now abi.Timestamp, budget abi.TokenAmount) token.GrantParams {
	maxValue := budget
	if ga.Config.MaxGrantValue.Int != nil && ga.Config.MaxGrantValue.GreaterThan(big.Zero()) {
		maxValue = big.Min(maxValue, ga.Config.MaxGrantValue)
	}
	n := int64(math.MaxInt64)
	if maxValue.IsInt64() {
		n = maxValue.Int64()
	}
	value := big.NewInt(1 + ga.rnd.Int63n(n))

	period := int64(ga.Config.VestingPeriod)
	if period < 2 {
		period = 2
	}
	start := now + abi.Timestamp(ga.rnd.Int63n(period/2)) - abi.Timestamp(period/4)
	cliff := start + abi.Timestamp(ga.rnd.Int63n(period/2))
	vest := cliff + abi.Timestamp(ga.rnd.Int63n(period/2))
	var lock abi.Timestamp
	if ga.rnd.Float32() < ga.Config.LockProb {
		lock = now + abi.Timestamp(ga.rnd.Int63n(period))
	}
	revocable := ga.rnd.Float32() < ga.Config.RevocableProb
	return token.GrantParams{
		Value:         value,
		Start:         start,
		Cliff:         cliff,
		Vesting:       vest,
		LockUntil:     lock,
		Revocable:     revocable,
		BurnsOnRevoke: revocable && ga.rnd.Float32() < ga.Config.BurnsOnRevokeProb,
	}
}

func (ga *GranterAgent) grant(holder addr.Address, params token.GrantParams) message {
	var id abi.GrantID
	return message{
		Kind: "grant",
		From: ga.Address,
		Apply: func(l *token.Ledger, now abi.Timestamp) error {
			var err error
			id, err = l.GrantVestedTokens(ga.Address, holder, params, now)
			return err
		},
		ReturnHandler: func(s SimState, _ message) error {
			if params.Revocable {
				ga.revocable = append(ga.revocable, grantRef{holder: holder, id: id})
			}
			if g := ga.grantee(holder); !g.hasAgent {
				g.hasAgent = true
				s.AddAgent(NewHolderAgent(holder, ga.holderConfig, ga.rnd.Int63()))
			}
			return nil
		},
	}
}

func (ga *GranterAgent) revoke(ref grantRef) message {
	return message{
		Kind: "revoke",
		From: ga.Address,
		Apply: func(l *token.Ledger, now abi.Timestamp) error {
			return l.RevokeTokenGrant(ga.Address, ref.holder, ref.id, now)
		},
	}
}
