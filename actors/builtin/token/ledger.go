package token

import (
	"sync"

	addr "github.com/filecoin-project/go-address"
	rtt "github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin/vesting"
	"github.com/vestledger/grant-actors/actors/runtime"
	"github.com/vestledger/grant-actors/actors/runtime/exitcode"
	"github.com/vestledger/grant-actors/actors/util/adt"
)

// Ledger serializes operations on a State held in a store. Queries hold the same lock, so the
// store need not be safe for concurrent use.
// Each mutation runs against a copy of the current state, which replaces it only if the
// operation succeeds, so a failed call never leaves partial changes behind.
type Ledger struct {
	mu    sync.Mutex
	store adt.Store
	st    State
	log   runtime.Logger
}

type LedgerOption func(*Ledger)

// WithLogger directs the ledger's diagnostic messages to `l`.
func WithLogger(l runtime.Logger) LedgerOption {
	return func(ledger *Ledger) {
		ledger.log = l
	}
}

// NewLedger constructs a fresh ledger whose initial supply is held by the authority's granter.
func NewLedger(store adt.Store, authority Authority, initialSupply abi.TokenAmount, opts ...LedgerOption) (*Ledger, error) {
	st, err := ConstructState(store, authority, initialSupply)
	if err != nil {
		return nil, err
	}
	l := newLedger(store, *st, opts)
	l.log.Log(rtt.INFO, "constructed ledger: granter %v, burn sink %v, supply %v", authority.Granter, authority.BurnSink, initialSupply)
	return l, nil
}

// LoadLedger opens the ledger whose state is stored at `root`.
func LoadLedger(store adt.Store, root cid.Cid, opts ...LedgerOption) (*Ledger, error) {
	var st State
	if err := store.Get(store.Context(), root, &st); err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to load state %v: %w", root, err)
	}
	return newLedger(store, st, opts), nil
}

func newLedger(store adt.Store, st State, opts []LedgerOption) *Ledger {
	l := &Ledger{store: store, st: st, log: runtime.NopLogger{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns a snapshot of the current state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st
}

// Store returns the store holding the ledger's state.
func (l *Ledger) Store() adt.Store {
	return l.store
}

// StateRoot writes the current state to the store and returns its root.
func (l *Ledger) StateRoot() (cid.Cid, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, err := l.store.Put(l.store.Context(), &l.st)
	if err != nil {
		return cid.Undef, exitcode.ErrIllegalState.Wrapf("failed to store state: %w", err)
	}
	return c, nil
}

//
// Mutations
//

func (l *Ledger) Transfer(from, to addr.Address, amount abi.TokenAmount, now abi.Timestamp) error {
	err := l.transaction(func(st *State) error {
		return st.Transfer(l.store, from, to, amount, now)
	})
	if err != nil {
		l.log.Log(rtt.WARN, "rejected transfer of %v from %v to %v at %v: %v", amount, from, to, now, err)
		return err
	}
	l.log.Log(rtt.DEBUG, "transferred %v from %v to %v at %v", amount, from, to, now)
	return nil
}

func (l *Ledger) Approve(owner, spender addr.Address, amount abi.TokenAmount) error {
	err := l.transaction(func(st *State) error {
		return st.Approve(l.store, owner, spender, amount)
	})
	if err != nil {
		l.log.Log(rtt.WARN, "rejected approval of %v by %v for %v: %v", amount, owner, spender, err)
		return err
	}
	l.log.Log(rtt.DEBUG, "%v approved %v to spend %v", owner, spender, amount)
	return nil
}

func (l *Ledger) TransferFrom(spender, from, to addr.Address, amount abi.TokenAmount, now abi.Timestamp) error {
	err := l.transaction(func(st *State) error {
		return st.TransferFrom(l.store, spender, from, to, amount, now)
	})
	if err != nil {
		l.log.Log(rtt.WARN, "rejected transfer of %v from %v to %v by %v at %v: %v", amount, from, to, spender, now, err)
		return err
	}
	l.log.Log(rtt.DEBUG, "%v transferred %v from %v to %v at %v", spender, amount, from, to, now)
	return nil
}

func (l *Ledger) GrantVestedTokens(issuer, recipient addr.Address, params GrantParams, now abi.Timestamp) (abi.GrantID, error) {
	var id abi.GrantID
	err := l.transaction(func(st *State) error {
		var err error
		id, err = st.GrantVestedTokens(l.store, issuer, recipient, params, now)
		return err
	})
	if err != nil {
		l.log.Log(rtt.WARN, "rejected grant of %v to %v by %v at %v: %v", params.Value, recipient, issuer, now, err)
		return 0, err
	}
	l.log.Log(rtt.INFO, "granted %v to %v as grant %v: start %v cliff %v vesting %v lock until %v",
		params.Value, recipient, id, params.Start, params.Cliff, params.Vesting, params.LockUntil)
	return id, nil
}

func (l *Ledger) RevokeTokenGrant(authority, holder addr.Address, id abi.GrantID, now abi.Timestamp) error {
	var res *RevokeResult
	err := l.transaction(func(st *State) error {
		var err error
		res, err = st.RevokeTokenGrant(l.store, authority, holder, id, now)
		return err
	})
	if err != nil {
		l.log.Log(rtt.WARN, "rejected revocation of grant %v of %v by %v at %v: %v", id, holder, authority, now, err)
		return err
	}
	l.log.Log(rtt.INFO, "revoked grant %v of %v at %v: kept %v, %v to %v", id, holder, now, res.Kept, res.Refund, res.Destination)
	return nil
}

//
// Queries
//

func (l *Ledger) BalanceOf(a addr.Address) (abi.TokenAmount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.BalanceOf(l.store, a)
}

func (l *Ledger) TransferableTokens(a addr.Address, now abi.Timestamp) (abi.TokenAmount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.TransferableTokens(l.store, a, now)
}

func (l *Ledger) Allowance(owner, spender addr.Address) (abi.TokenAmount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.Allowance(l.store, owner, spender)
}

func (l *Ledger) GrantsOf(holder addr.Address) ([]vesting.Grant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.GrantsOf(l.store, holder)
}

func (l *Ledger) GrantOf(holder addr.Address, id abi.GrantID) (*vesting.Grant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.GrantOf(l.store, holder, id)
}

func (l *Ledger) LastTransferableTime(holder addr.Address) (abi.Timestamp, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.LastTransferableTime(l.store, holder)
}

func (l *Ledger) transaction(fn func(st *State) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := l.st
	if err := fn(&next); err != nil {
		return err
	}
	l.st = next
	return nil
}
