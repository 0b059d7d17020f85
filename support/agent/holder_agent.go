package agent

import (
	"math/rand"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin/token"
)

type HolderAgentConfig struct {
	TransferRate float64 // average number of transfers per tick
	DelegateProb float32 // probability a transfer goes through an allowance granted to a third account
}

// HolderAgent spends random parts of a grant holder's transferable balance.
type HolderAgent struct {
	Config  HolderAgentConfig
	Address addr.Address

	transferEvents *RateIterator
	rnd            *rand.Rand
}

func NewHolderAgent(holder addr.Address, config HolderAgentConfig, rndSeed int64) *HolderAgent {
	rnd := rand.New(rand.NewSource(rndSeed))
	return &HolderAgent{
		Config:         config,
		Address:        holder,
		transferEvents: NewRateIterator(config.TransferRate, rnd.Int63()),
		rnd:            rnd,
	}
}

func (ha *HolderAgent) Tick(s SimState) ([]message, error) {
	// Nothing applied during a tick lowers an account's transferable amount, so planning
	// against the amount at the start of the tick is safe.
	budget, err := s.Ledger().TransferableTokens(ha.Address, s.Now())
	if err != nil {
		return nil, err
	}

	var msgs []message
	accounts := s.AllAccounts()
	err = ha.transferEvents.Tick(func() error {
		if budget.IsZero() {
			return nil
		}
		n := int64(1 << 62)
		if budget.IsInt64() {
			n = budget.Int64()
		}
		amount := big.NewInt(1 + ha.rnd.Int63n(n))
		budget = big.Sub(budget, amount)

		to := accounts[ha.rnd.Intn(len(accounts))]
		if ha.rnd.Float32() < ha.Config.DelegateProb {
			spender := accounts[ha.rnd.Intn(len(accounts))]
			msgs = append(msgs, ha.delegatedTransfer(spender, to, amount))
		} else {
			msgs = append(msgs, ha.transfer(to, amount))
		}
		return nil
	})
	return msgs, err
}

func (ha *HolderAgent) transfer(to addr.Address, amount abi.TokenAmount) message {
	return message{
		Kind: "transfer",
		From: ha.Address,
		Apply: func(l *token.Ledger, now abi.Timestamp) error {
			return l.Transfer(ha.Address, to, amount, now)
		},
	}
}

// Approves exactly the amount and has the spender pull it, leaving no allowance behind.
func (ha *HolderAgent) delegatedTransfer(spender, to addr.Address, amount abi.TokenAmount) message {
	return message{
		Kind: "transfer_from",
		From: ha.Address,
		Apply: func(l *token.Ledger, now abi.Timestamp) error {
			if err := l.Approve(ha.Address, spender, amount); err != nil {
				return err
			}
			return l.TransferFrom(spender, ha.Address, to, amount, now)
		},
	}
}
