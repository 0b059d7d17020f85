package scenario

import (
	"bytes"
	"fmt"
	"os"

	"github.com/filecoin-project/go-state-types/big"
	"gopkg.in/yaml.v3"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/runtime/exitcode"
)

// BurnAccount is the reserved account name that refers to the ledger's burn sink.
const BurnAccount = "burn"

// Scenario is a timed sequence of ledger operations and expectations, replayed against a fresh
// ledger. All times in a scenario are offsets in seconds from Start.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Absolute timestamp that step and schedule offsets are relative to.
	Start int64 `yaml:"start"`
	// Initial supply minted to the granter. Defaults to the runner's configured supply.
	Supply *Amount `yaml:"supply,omitempty"`

	// Account names, assigned consecutive ID addresses from FirstAccountID in order.
	Accounts []string `yaml:"accounts"`
	// Account holding the grant authority. Defaults to the first account.
	Granter string `yaml:"granter,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step performs at most one operation at time At and then checks any expectations.
type Step struct {
	At int64 `yaml:"at"`

	Transfer     *TransferOp     `yaml:"transfer,omitempty"`
	TransferFrom *TransferFromOp `yaml:"transfer_from,omitempty"`
	Approve      *ApproveOp      `yaml:"approve,omitempty"`
	Grant        *GrantOp        `yaml:"grant,omitempty"`
	Revoke       *RevokeOp       `yaml:"revoke,omitempty"`

	// Name of the exit code the operation must fail with, e.g. ErrNotRevocable.
	// The operation must succeed if empty.
	Error string `yaml:"error,omitempty"`

	Expect *Expectation `yaml:"expect,omitempty"`
}

type TransferOp struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Value Amount `yaml:"value"`
}

type TransferFromOp struct {
	Spender string `yaml:"spender"`
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Value   Amount `yaml:"value"`
}

type ApproveOp struct {
	Owner   string `yaml:"owner"`
	Spender string `yaml:"spender"`
	Value   Amount `yaml:"value"`
}

type GrantOp struct {
	// Issuing account. Defaults to the granter.
	By            string `yaml:"by,omitempty"`
	To            string `yaml:"to"`
	Value         Amount `yaml:"value"`
	Start         int64  `yaml:"start"`
	Cliff         int64  `yaml:"cliff"`
	Vesting       int64  `yaml:"vesting"`
	LockUntil     int64  `yaml:"lock_until"`
	Revocable     bool   `yaml:"revocable"`
	BurnsOnRevoke bool   `yaml:"burns_on_revoke"`
	// Identifier the new grant must receive, if set.
	ID *uint64 `yaml:"id,omitempty"`
}

type RevokeOp struct {
	// Revoking account. Defaults to the granter.
	By     string `yaml:"by,omitempty"`
	Holder string `yaml:"holder"`
	ID     uint64 `yaml:"id"`
}

// Expectation lists values that must hold after a step.
type Expectation struct {
	Balance      map[string]Amount     `yaml:"balance,omitempty"`
	Transferable map[string]Amount     `yaml:"transferable,omitempty"`
	Allowance    []AllowanceExpectation `yaml:"allowance,omitempty"`
	// Number of grants, live or revoked, held by each account.
	Grants      map[string]int `yaml:"grants,omitempty"`
	TotalSupply *Amount        `yaml:"total_supply,omitempty"`
}

type AllowanceExpectation struct {
	Owner   string `yaml:"owner"`
	Spender string `yaml:"spender"`
	Value   Amount `yaml:"value"`
}

// Amount is a token amount written as a decimal integer of any size.
type Amount struct {
	abi.TokenAmount
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	v, err := big.FromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q: %w", node.Line, node.Value, err)
	}
	a.TokenAmount = v
	return nil
}

func (a Amount) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

func (a Amount) defined() bool {
	return a.Int != nil
}

// Load reads, parses and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	return &s, nil
}

// Validate checks that a scenario is well formed: every account it names is declared, every
// step does something, and every expected error names a known exit code.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Accounts) == 0 {
		return fmt.Errorf("accounts list is required and must be non-empty")
	}
	if s.Supply != nil && (!s.Supply.defined() || s.Supply.Sign() < 0) {
		return fmt.Errorf("supply must be non-negative")
	}
	seen := make(map[string]bool, len(s.Accounts))
	for _, name := range s.Accounts {
		if name == "" || name == BurnAccount {
			return fmt.Errorf("invalid account name %q", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate account %q", name)
		}
		seen[name] = true
	}
	if s.Granter != "" && !seen[s.Granter] {
		return fmt.Errorf("granter %q is not a declared account", s.Granter)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	known := func(name string) error {
		if name == BurnAccount || seen[name] {
			return nil
		}
		return fmt.Errorf("unknown account %q", name)
	}
	for i := range s.Steps {
		if err := s.Steps[i].validate(known); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (st *Step) validate(known func(string) error) error {
	ops := 0
	var names []string
	var amounts []Amount
	if op := st.Transfer; op != nil {
		ops++
		names = append(names, op.From, op.To)
		amounts = append(amounts, op.Value)
	}
	if op := st.TransferFrom; op != nil {
		ops++
		names = append(names, op.Spender, op.From, op.To)
		amounts = append(amounts, op.Value)
	}
	if op := st.Approve; op != nil {
		ops++
		names = append(names, op.Owner, op.Spender)
		amounts = append(amounts, op.Value)
	}
	if op := st.Grant; op != nil {
		ops++
		names = append(names, op.To)
		if op.By != "" {
			names = append(names, op.By)
		}
		amounts = append(amounts, op.Value)
	}
	if op := st.Revoke; op != nil {
		ops++
		names = append(names, op.Holder)
		if op.By != "" {
			names = append(names, op.By)
		}
	}

	if ops > 1 {
		return fmt.Errorf("at most one operation per step, found %d", ops)
	}
	if ops == 0 && st.Expect == nil {
		return fmt.Errorf("step has neither an operation nor an expectation")
	}
	if st.Error != "" {
		if ops == 0 {
			return fmt.Errorf("error %q given without an operation", st.Error)
		}
		if _, ok := exitcode.Parse(st.Error); !ok {
			return fmt.Errorf("unknown exit code %q", st.Error)
		}
	}
	for _, a := range amounts {
		if !a.defined() {
			return fmt.Errorf("operation value is required")
		}
	}

	if e := st.Expect; e != nil {
		for name := range e.Balance {
			names = append(names, name)
		}
		for name := range e.Transferable {
			names = append(names, name)
		}
		for name := range e.Grants {
			names = append(names, name)
		}
		for _, a := range e.Allowance {
			names = append(names, a.Owner, a.Spender)
		}
	}
	for _, name := range names {
		if err := known(name); err != nil {
			return err
		}
	}
	return nil
}
