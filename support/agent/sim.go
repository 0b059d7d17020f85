package agent

import (
	"context"
	"math/rand"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin/token"
	"github.com/vestledger/grant-actors/actors/runtime"
	"github.com/vestledger/grant-actors/actors/util/adt"
)

// Sim drives a ledger with randomized, seeded traffic from a set of agents.
// Agents plan only operations they expect to succeed, so any failed operation is a bug.
type Sim struct {
	Config   SimConfig
	Accounts []addr.Address
	Agents   []Agent

	ledger      *token.Ledger
	rnd         *rand.Rand
	now         abi.Timestamp
	statsByKind map[string]*OpStats
}

type SimConfig struct {
	// Number of accounts besides the granter.
	AccountCount  int
	InitialSupply abi.TokenAmount
	Seed          int64
	// Time of the first tick, and seconds between ticks.
	Start        abi.Timestamp
	TickDuration abi.Timestamp
	Granter      GranterAgentConfig
	Holder       HolderAgentConfig
	Logger       runtime.Logger
}

// SimState is the view of the simulation available to agents while planning.
type SimState interface {
	Now() abi.Timestamp
	Ledger() *token.Ledger
	AllAccounts() []addr.Address
	AddAgent(a Agent)
}

type Agent interface {
	Tick(s SimState) ([]message, error)
}

type ReturnHandler func(s SimState, msg message) error

type message struct {
	Kind string
	From addr.Address
	// Applies the operation to the ledger at the current time.
	Apply         func(l *token.Ledger, now abi.Timestamp) error
	ReturnHandler ReturnHandler
}

// OpStats counts applied operations of one kind.
type OpStats struct {
	Count uint64
}

func NewSim(ctx context.Context, t require.TestingT, store adt.Store, config SimConfig) *Sim {
	accounts := make([]addr.Address, config.AccountCount+1)
	for i := range accounts {
		a, err := addr.NewIDAddress(uint64(FirstAccountID + i))
		require.NoError(t, err)
		accounts[i] = a
	}
	logger := config.Logger
	if logger == nil {
		logger = runtime.NopLogger{}
	}
	ledger, err := token.NewLedger(store, token.DefaultAuthority(accounts[0]), config.InitialSupply, token.WithLogger(logger))
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(config.Seed))
	s := &Sim{
		Config:      config,
		Accounts:    accounts,
		ledger:      ledger,
		rnd:         rnd,
		now:         config.Start,
		statsByKind: make(map[string]*OpStats),
	}
	s.AddAgent(NewGranterAgent(accounts[0], accounts[1:], config.Granter, config.Holder, rnd.Int63()))
	return s
}

// ID address of the granter; other accounts follow consecutively.
const FirstAccountID = 100

func (s *Sim) Tick() error {
	var msgs []message
	// Agents added while planning start acting on the next tick.
	agents := s.Agents
	for _, agent := range agents {
		am, err := agent.Tick(s)
		if err != nil {
			return err
		}
		msgs = append(msgs, am...)
	}

	s.rnd.Shuffle(len(msgs), func(i, j int) {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	})

	for _, msg := range msgs {
		if err := msg.Apply(s.ledger, s.now); err != nil {
			return errors.Wrapf(err, "%s from %v failed at %v", msg.Kind, msg.From, s.now)
		}
		stats, ok := s.statsByKind[msg.Kind]
		if !ok {
			stats = &OpStats{}
			s.statsByKind[msg.Kind] = stats
		}
		stats.Count++

		if msg.ReturnHandler != nil {
			if err := msg.ReturnHandler(s, msg); err != nil {
				return err
			}
		}
	}

	s.now += s.Config.TickDuration
	return nil
}

func (s *Sim) Now() abi.Timestamp {
	return s.now
}

func (s *Sim) Ledger() *token.Ledger {
	return s.ledger
}

func (s *Sim) AddAgent(a Agent) {
	s.Agents = append(s.Agents, a)
}

func (s *Sim) GetOpStats() map[string]*OpStats {
	return s.statsByKind
}

// TotalBalance sums the balances of all simulated accounts and the burn sink.
func (s *Sim) TotalBalance() (abi.TokenAmount, error) {
	total := big.Zero()
	st := s.ledger.State()
	for _, a := range append(s.Accounts, st.Authority.BurnSink) {
		balance, err := s.ledger.BalanceOf(a)
		if err != nil {
			return big.Zero(), err
		}
		total = big.Add(total, balance)
	}
	return total, nil
}

func (s *Sim) AllAccounts() []addr.Address {
	return s.Accounts
}
