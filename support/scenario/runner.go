package scenario

import (
	"context"
	"fmt"
	"sort"

	addr "github.com/filecoin-project/go-address"
	rtt "github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin"
	"github.com/vestledger/grant-actors/actors/builtin/token"
	"github.com/vestledger/grant-actors/actors/runtime"
	"github.com/vestledger/grant-actors/actors/runtime/exitcode"
	"github.com/vestledger/grant-actors/support/ipld"
)

// ID address of the first declared account.
const FirstAccountID = 100

// Config holds runner settings that scenarios may not override.
type Config struct {
	// Supply used when a scenario does not declare one.
	InitialSupply abi.TokenAmount
	Logger        runtime.Logger
}

// Failure is an expectation that did not hold.
type Failure struct {
	Step    int           `json:"step"`
	At      abi.Timestamp `json:"at"`
	Message string        `json:"message"`
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d (t=%v): %s", f.Step, f.At, f.Message)
}

// Result summarizes a scenario run.
type Result struct {
	Name      string    `json:"name"`
	Steps     int       `json:"steps"`
	Failures  []Failure `json:"failures,omitempty"`
	StateRoot cid.Cid   `json:"state_root"`
}

func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run replays a scenario against a fresh in-memory ledger. Expectations that do not hold are
// reported in the result; an error is returned only if the ledger could not be set up or stored.
// Ledger state invariants are checked after every step.
func Run(ctx context.Context, s *Scenario, cfg Config) (*Result, error) {
	accounts, err := resolveAccounts(s)
	if err != nil {
		return nil, err
	}
	granterName := s.Granter
	if granterName == "" {
		granterName = s.Accounts[0]
	}
	supply := cfg.InitialSupply
	if s.Supply != nil {
		supply = s.Supply.TokenAmount
	}
	if supply.Int == nil {
		return nil, xerrors.Errorf("scenario %q declares no supply and none is configured", s.Name)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = runtime.NopLogger{}
	}

	store := ipld.NewADTStore(ctx)
	ledger, err := token.NewLedger(store, token.DefaultAuthority(accounts[granterName]), supply, token.WithLogger(logger))
	if err != nil {
		return nil, xerrors.Errorf("failed to construct ledger: %w", err)
	}

	r := &runner{scenario: s, ledger: ledger, accounts: accounts, granter: accounts[granterName], log: logger}
	result := &Result{Name: s.Name, Steps: len(s.Steps)}
	for i := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Failures = append(result.Failures, r.step(i)...)
	}

	result.StateRoot, err = ledger.StateRoot()
	if err != nil {
		return nil, err
	}
	return result, nil
}

type runner struct {
	scenario *Scenario
	ledger   *token.Ledger
	accounts map[string]addr.Address
	granter  addr.Address
	log      runtime.Logger
}

func (r *runner) step(i int) []Failure {
	st := &r.scenario.Steps[i]
	now := r.time(st.At)
	var failures []Failure
	fail := func(format string, args ...interface{}) {
		failures = append(failures, Failure{Step: i, At: now, Message: fmt.Sprintf(format, args...)})
	}

	if ran, err := r.perform(st, now); ran {
		if st.Error == "" {
			if err != nil {
				fail("unexpected error: %v", err)
			}
		} else {
			expected, _ := exitcode.Parse(st.Error)
			if err == nil {
				fail("expected %v, operation succeeded", expected)
			} else if code := exitcode.Unwrap(err, exitcode.Ok); code != expected {
				fail("expected %v, got: %v", expected, err)
			}
		}
	}

	if st.Expect != nil {
		for _, msg := range r.check(st.Expect, now) {
			fail("%s", msg)
		}
	}

	state := r.ledger.State()
	_, acc := token.CheckStateInvariants(&state, r.ledger.Store(), now)
	for _, msg := range acc.Messages() {
		fail("invariant violated: %s", msg)
	}

	for _, f := range failures {
		r.log.Log(rtt.WARN, "%s: %v", r.scenario.Name, f)
	}
	return failures
}

// Performs the step's operation, if any. Reports false for expectation-only steps.
func (r *runner) perform(st *Step, now abi.Timestamp) (bool, error) {
	switch {
	case st.Transfer != nil:
		op := st.Transfer
		return true, r.ledger.Transfer(r.accounts[op.From], r.accounts[op.To], op.Value.TokenAmount, now)
	case st.TransferFrom != nil:
		op := st.TransferFrom
		return true, r.ledger.TransferFrom(r.accounts[op.Spender], r.accounts[op.From], r.accounts[op.To], op.Value.TokenAmount, now)
	case st.Approve != nil:
		op := st.Approve
		return true, r.ledger.Approve(r.accounts[op.Owner], r.accounts[op.Spender], op.Value.TokenAmount)
	case st.Grant != nil:
		op := st.Grant
		params := token.GrantParams{
			Value:         op.Value.TokenAmount,
			Start:         r.time(op.Start),
			Cliff:         r.time(op.Cliff),
			Vesting:       r.time(op.Vesting),
			LockUntil:     r.time(op.LockUntil),
			Revocable:     op.Revocable,
			BurnsOnRevoke: op.BurnsOnRevoke,
		}
		id, err := r.ledger.GrantVestedTokens(r.caller(op.By), r.accounts[op.To], params, now)
		if err == nil && op.ID != nil && uint64(id) != *op.ID {
			return true, xerrors.Errorf("grant created with id %v, expected %d", id, *op.ID)
		}
		return true, err
	case st.Revoke != nil:
		op := st.Revoke
		return true, r.ledger.RevokeTokenGrant(r.caller(op.By), r.accounts[op.Holder], abi.GrantID(op.ID), now)
	}
	return false, nil
}

func (r *runner) check(e *Expectation, now abi.Timestamp) []string {
	var msgs []string
	for _, name := range sortedKeys(e.Balance) {
		actual, err := r.ledger.BalanceOf(r.accounts[name])
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("balance of %s: %v", name, err))
		} else if expected := e.Balance[name]; !actual.Equals(expected.TokenAmount) {
			msgs = append(msgs, fmt.Sprintf("balance of %s: expected %v, got %v", name, expected, actual))
		}
	}
	for _, name := range sortedKeys(e.Transferable) {
		actual, err := r.ledger.TransferableTokens(r.accounts[name], now)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("transferable of %s: %v", name, err))
		} else if expected := e.Transferable[name]; !actual.Equals(expected.TokenAmount) {
			msgs = append(msgs, fmt.Sprintf("transferable of %s: expected %v, got %v", name, expected, actual))
		}
	}
	for _, a := range e.Allowance {
		actual, err := r.ledger.Allowance(r.accounts[a.Owner], r.accounts[a.Spender])
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("allowance of %s for %s: %v", a.Owner, a.Spender, err))
		} else if !actual.Equals(a.Value.TokenAmount) {
			msgs = append(msgs, fmt.Sprintf("allowance of %s for %s: expected %v, got %v", a.Owner, a.Spender, a.Value, actual))
		}
	}
	for _, name := range sortedKeys(e.Grants) {
		grants, err := r.ledger.GrantsOf(r.accounts[name])
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("grants of %s: %v", name, err))
		} else if len(grants) != e.Grants[name] {
			msgs = append(msgs, fmt.Sprintf("grants of %s: expected %d, got %d", name, e.Grants[name], len(grants)))
		}
	}
	if e.TotalSupply != nil {
		actual := r.ledger.State().TotalSupply
		if !actual.Equals(e.TotalSupply.TokenAmount) {
			msgs = append(msgs, fmt.Sprintf("total supply: expected %v, got %v", e.TotalSupply, actual))
		}
	}
	return msgs
}

func (r *runner) time(offset int64) abi.Timestamp {
	return abi.Timestamp(r.scenario.Start + offset)
}

func (r *runner) caller(name string) addr.Address {
	if name == "" {
		return r.granter
	}
	return r.accounts[name]
}

func resolveAccounts(s *Scenario) (map[string]addr.Address, error) {
	accounts := make(map[string]addr.Address, len(s.Accounts)+1)
	for i, name := range s.Accounts {
		a, err := addr.NewIDAddress(uint64(FirstAccountID + i))
		if err != nil {
			return nil, xerrors.Errorf("failed to assign address to %s: %w", name, err)
		}
		accounts[name] = a
	}
	accounts[BurnAccount] = builtin.BurnSinkAddr
	return accounts, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
