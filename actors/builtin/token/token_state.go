package token

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/builtin"
	"github.com/vestledger/grant-actors/actors/builtin/vesting"
	"github.com/vestledger/grant-actors/actors/runtime/exitcode"
	"github.com/vestledger/grant-actors/actors/util/adt"
)

// State is the whole ledger: plain balances and allowances, plus the vesting grants that restrict
// outbound movement of balance.
// Every method either applies completely or returns an error having left the receiver untouched;
// HAMT/AMT roots are reassigned only after all writes have succeeded.
type State struct {
	Authority Authority
	// Sum of all balances. Burned tokens remain in supply, held by the burn sink.
	TotalSupply abi.TokenAmount

	Balances   cid.Cid // Map, HAMT[Address]TokenAmount
	Allowances cid.Cid // Map, HAMT[Address]HAMT[Address]TokenAmount
	Grants     cid.Cid // Map, HAMT[Address]AMT[Grant]

	NextGrantID abi.GrantID
}

// Authority is the capability to create and revoke grants on one ledger, and the sink that
// receives burned tokens. It is fixed at construction.
type Authority struct {
	Granter  addr.Address
	BurnSink addr.Address
}

// DefaultAuthority names `granter` as grant authority with the standard burn sink.
func DefaultAuthority(granter addr.Address) Authority {
	return Authority{Granter: granter, BurnSink: builtin.BurnSinkAddr}
}

// GrantParams describes a grant to be created.
type GrantParams struct {
	Value         abi.TokenAmount
	Start         abi.Timestamp
	Cliff         abi.Timestamp
	Vesting       abi.Timestamp
	LockUntil     abi.Timestamp
	Revocable     bool
	BurnsOnRevoke bool
}

// RevokeResult describes how a revoked grant's value was partitioned.
type RevokeResult struct {
	Kept        abi.TokenAmount
	Refund      abi.TokenAmount
	Destination addr.Address
}

// ConstructState creates an empty ledger whose entire initial supply is held by the granter.
func ConstructState(store adt.Store, authority Authority, initialSupply abi.TokenAmount) (*State, error) {
	if authority.Granter == addr.Undef || authority.BurnSink == addr.Undef {
		return nil, exitcode.ErrIllegalArgument.Wrapf("authority requires granter and burn sink")
	}
	if authority.Granter == authority.BurnSink {
		return nil, exitcode.ErrIllegalArgument.Wrapf("granter %v cannot be the burn sink", authority.Granter)
	}
	if initialSupply.LessThan(big.Zero()) {
		return nil, exitcode.ErrIllegalArgument.Wrapf("negative initial supply %v", initialSupply)
	}

	emptyMapCid, err := adt.StoreEmptyMap(store)
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to create empty map: %w", err)
	}

	balances, err := adt.AsBalanceTable(store, emptyMapCid)
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to load balances: %w", err)
	}
	if err := balances.Add(authority.Granter, initialSupply); err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to mint initial supply: %w", err)
	}
	balancesCid, err := balances.Root()
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to flush balances: %w", err)
	}

	return &State{
		Authority:   authority,
		TotalSupply: initialSupply,
		Balances:    balancesCid,
		Allowances:  emptyMapCid,
		Grants:      emptyMapCid,
		NextGrantID: 0,
	}, nil
}

//
// Queries
//

func (st *State) BalanceOf(store adt.Store, a addr.Address) (abi.TokenAmount, error) {
	balances, err := adt.AsBalanceTable(store, st.Balances)
	if err != nil {
		return big.Zero(), exitcode.ErrIllegalState.Wrapf("failed to load balances: %w", err)
	}
	return balances.Get(a)
}

// TransferableTokens returns the part of an account's balance not withheld by its grants at `now`.
func (st *State) TransferableTokens(store adt.Store, a addr.Address, now abi.Timestamp) (abi.TokenAmount, error) {
	balances, grants, err := st.loadBalancesAndGrants(store)
	if err != nil {
		return big.Zero(), err
	}
	return transferable(balances, grants, a, now)
}

// GrantsOf returns an account's grants, live and revoked, in the order they were created.
func (st *State) GrantsOf(store adt.Store, holder addr.Address) ([]vesting.Grant, error) {
	grants, err := vesting.AsGrantTable(store, st.Grants)
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to load grants: %w", err)
	}
	return grants.List(holder)
}

// GrantOf returns the grant with identifier `id` held by `holder`.
func (st *State) GrantOf(store adt.Store, holder addr.Address, id abi.GrantID) (*vesting.Grant, error) {
	grants, err := vesting.AsGrantTable(store, st.Grants)
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to load grants: %w", err)
	}
	grant, _, found, err := grants.Find(holder, id)
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to look up grant %d of %v: %w", id, holder, err)
	}
	if !found {
		return nil, exitcode.ErrNotFound.Wrapf("no grant %d held by %v", id, holder)
	}
	return grant, nil
}

// LastTransferableTime returns the time from which the holder's grants restrict nothing.
func (st *State) LastTransferableTime(store adt.Store, holder addr.Address) (abi.Timestamp, error) {
	grants, err := st.GrantsOf(store, holder)
	if err != nil {
		return 0, err
	}
	return vesting.LastTransferableTime(grants), nil
}

//
// Transfers
//

// Transfer moves `amount` from one account to another. The sender must hold at least `amount`
// free of vesting restrictions at `now`. Receiving is never restricted.
func (st *State) Transfer(store adt.Store, from, to addr.Address, amount abi.TokenAmount, now abi.Timestamp) error {
	if err := st.validateDebit(from, amount); err != nil {
		return err
	}
	balances, grants, err := st.loadBalancesAndGrants(store)
	if err != nil {
		return err
	}
	if err := checkDebit(balances, grants, from, amount, now); err != nil {
		return err
	}
	if err := move(balances, from, to, amount); err != nil {
		return err
	}

	balancesCid, err := balances.Root()
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to flush balances: %w", err)
	}
	st.Balances = balancesCid
	return nil
}

// TransferFrom moves `amount` from `from` to `to` on behalf of `spender`, consuming allowance.
// The allowance is checked first, then the owner's balance, then its transferable amount.
func (st *State) TransferFrom(store adt.Store, spender, from, to addr.Address, amount abi.TokenAmount, now abi.Timestamp) error {
	if err := st.validateDebit(from, amount); err != nil {
		return err
	}
	allowances, err := adt.AsMap(store, st.Allowances)
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to load allowances: %w", err)
	}
	allowed, err := getAllowance(store, allowances, from, spender)
	if err != nil {
		return err
	}
	if allowed.LessThan(amount) {
		return exitcode.ErrInsufficientAllowance.Wrapf("allowance %v of %v for %v below %v", allowed, from, spender, amount)
	}

	balances, grants, err := st.loadBalancesAndGrants(store)
	if err != nil {
		return err
	}
	if err := checkDebit(balances, grants, from, amount, now); err != nil {
		return err
	}
	if err := move(balances, from, to, amount); err != nil {
		return err
	}
	if err := setAllowance(store, allowances, from, spender, big.Sub(allowed, amount)); err != nil {
		return err
	}

	balancesCid, err := balances.Root()
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to flush balances: %w", err)
	}
	allowancesCid, err := allowances.Root()
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to flush allowances: %w", err)
	}
	st.Balances = balancesCid
	st.Allowances = allowancesCid
	return nil
}

// Approve sets the amount `spender` may move out of `owner`'s balance, replacing any previous
// allowance. Vesting does not restrict approval; it is enforced when the allowance is spent.
func (st *State) Approve(store adt.Store, owner, spender addr.Address, amount abi.TokenAmount) error {
	if amount.LessThan(big.Zero()) {
		return exitcode.ErrIllegalArgument.Wrapf("negative allowance %v", amount)
	}
	if owner == st.Authority.BurnSink {
		return exitcode.ErrIllegalArgument.Wrapf("burn sink %v cannot approve spending", owner)
	}
	allowances, err := adt.AsMap(store, st.Allowances)
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to load allowances: %w", err)
	}
	if err := setAllowance(store, allowances, owner, spender, amount); err != nil {
		return err
	}
	allowancesCid, err := allowances.Root()
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to flush allowances: %w", err)
	}
	st.Allowances = allowancesCid
	return nil
}

func (st *State) Allowance(store adt.Store, owner, spender addr.Address) (abi.TokenAmount, error) {
	allowances, err := adt.AsMap(store, st.Allowances)
	if err != nil {
		return big.Zero(), exitcode.ErrIllegalState.Wrapf("failed to load allowances: %w", err)
	}
	return getAllowance(store, allowances, owner, spender)
}

//
// Grants
//

// GrantVestedTokens moves `params.Value` from the granter's transferable balance to `recipient`
// and records a grant restricting it. Returns the new grant's identifier.
func (st *State) GrantVestedTokens(store adt.Store, caller, recipient addr.Address, params GrantParams, now abi.Timestamp) (abi.GrantID, error) {
	if caller != st.Authority.Granter {
		return 0, exitcode.ErrUnauthorized.Wrapf("caller %v is not the granter", caller)
	}
	if params.Value.LessThanEqual(big.Zero()) {
		return 0, exitcode.ErrIllegalArgument.Wrapf("grant value %v must be positive", params.Value)
	}
	if recipient == st.Authority.BurnSink {
		return 0, exitcode.ErrIllegalArgument.Wrapf("cannot grant to burn sink %v", recipient)
	}
	if err := vesting.ValidateSchedule(params.Start, params.Cliff, params.Vesting); err != nil {
		return 0, exitcode.ErrInvalidSchedule.Wrapf("start %v cliff %v vesting %v: %w", params.Start, params.Cliff, params.Vesting, err)
	}

	balances, grants, err := st.loadBalancesAndGrants(store)
	if err != nil {
		return 0, err
	}
	count, err := grants.Count(recipient)
	if err != nil {
		return 0, exitcode.ErrIllegalState.Wrapf("failed to count grants of %v: %w", recipient, err)
	}
	if count >= vesting.MaxGrantsPerAccount {
		return 0, exitcode.ErrIllegalArgument.Wrapf("%v already holds %d grants", recipient, count)
	}

	// The granter may only grant from its own unencumbered balance.
	free, err := transferable(balances, grants, caller, now)
	if err != nil {
		return 0, err
	}
	if free.LessThan(params.Value) {
		return 0, exitcode.ErrInsufficientTransferable.Wrapf("granter transferable %v below grant value %v", free, params.Value)
	}
	if err := move(balances, caller, recipient, params.Value); err != nil {
		return 0, err
	}

	id := st.NextGrantID
	grant := vesting.Grant{
		ID:            id,
		Issuer:        caller,
		Value:         params.Value,
		Start:         params.Start,
		Cliff:         params.Cliff,
		Vesting:       params.Vesting,
		LockUntil:     params.LockUntil,
		Revocable:     params.Revocable,
		BurnsOnRevoke: params.BurnsOnRevoke,
	}
	if err := grants.Append(recipient, &grant); err != nil {
		return 0, exitcode.ErrIllegalState.Wrapf("failed to record grant: %w", err)
	}

	balancesCid, err := balances.Root()
	if err != nil {
		return 0, exitcode.ErrIllegalState.Wrapf("failed to flush balances: %w", err)
	}
	grantsCid, err := grants.Root()
	if err != nil {
		return 0, exitcode.ErrIllegalState.Wrapf("failed to flush grants: %w", err)
	}
	st.Balances = balancesCid
	st.Grants = grantsCid
	st.NextGrantID = id + 1
	return id, nil
}

// RevokeTokenGrant terminates a grant early. The holder keeps the amount vested at `now`, free of
// any restriction; the unvested remainder is burned or returned to the grant's issuer.
func (st *State) RevokeTokenGrant(store adt.Store, caller, holder addr.Address, id abi.GrantID, now abi.Timestamp) (*RevokeResult, error) {
	if caller != st.Authority.Granter {
		return nil, exitcode.ErrUnauthorized.Wrapf("caller %v is not the granter", caller)
	}

	balances, grants, err := st.loadBalancesAndGrants(store)
	if err != nil {
		return nil, err
	}
	grant, pos, found, err := grants.Find(holder, id)
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to look up grant %d of %v: %w", id, holder, err)
	}
	if !found {
		return nil, exitcode.ErrNotFound.Wrapf("no grant %d held by %v", id, holder)
	}
	if grant.Revoked {
		return nil, exitcode.ErrAlreadyRevoked.Wrapf("grant %d of %v revoked at %v", id, holder, grant.RevokedAt)
	}
	if !grant.Revocable {
		return nil, exitcode.ErrNotRevocable.Wrapf("grant %d of %v is not revocable", id, holder)
	}

	kept, refund := vesting.RevokeSplit(grant, now)
	dest := grant.Issuer
	if grant.BurnsOnRevoke {
		dest = st.Authority.BurnSink
	}
	if err := move(balances, holder, dest, refund); err != nil {
		return nil, err
	}

	grant.Revoked = true
	grant.RevokedAt = now
	if err := grants.Replace(holder, pos, grant); err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to tombstone grant %d: %w", id, err)
	}

	balancesCid, err := balances.Root()
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to flush balances: %w", err)
	}
	grantsCid, err := grants.Root()
	if err != nil {
		return nil, exitcode.ErrIllegalState.Wrapf("failed to flush grants: %w", err)
	}
	st.Balances = balancesCid
	st.Grants = grantsCid
	return &RevokeResult{Kept: kept, Refund: refund, Destination: dest}, nil
}

//
// Misc helpers
//

func (st *State) loadBalancesAndGrants(store adt.Store) (*adt.BalanceTable, *vesting.GrantTable, error) {
	balances, err := adt.AsBalanceTable(store, st.Balances)
	if err != nil {
		return nil, nil, exitcode.ErrIllegalState.Wrapf("failed to load balances: %w", err)
	}
	grants, err := vesting.AsGrantTable(store, st.Grants)
	if err != nil {
		return nil, nil, exitcode.ErrIllegalState.Wrapf("failed to load grants: %w", err)
	}
	return balances, grants, nil
}

func (st *State) validateDebit(from addr.Address, amount abi.TokenAmount) error {
	if amount.LessThan(big.Zero()) {
		return exitcode.ErrIllegalArgument.Wrapf("negative amount %v", amount)
	}
	if from == st.Authority.BurnSink {
		return exitcode.ErrIllegalArgument.Wrapf("burn sink %v cannot spend", from)
	}
	return nil
}

func transferable(balances *adt.BalanceTable, grants *vesting.GrantTable, a addr.Address, now abi.Timestamp) (abi.TokenAmount, error) {
	balance, err := balances.Get(a)
	if err != nil {
		return big.Zero(), exitcode.ErrIllegalState.Wrapf("failed to get balance of %v: %w", a, err)
	}
	locked, err := grants.LockedAmount(a, now)
	if err != nil {
		return big.Zero(), exitcode.ErrIllegalState.Wrapf("failed to sum locked grants of %v: %w", a, err)
	}
	return vesting.TransferableAmount(balance, locked), nil
}

// Distinguishes a balance that is too low from one that is high enough but restricted by grants.
func checkDebit(balances *adt.BalanceTable, grants *vesting.GrantTable, from addr.Address, amount abi.TokenAmount, now abi.Timestamp) error {
	balance, err := balances.Get(from)
	if err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to get balance of %v: %w", from, err)
	}
	if balance.LessThan(amount) {
		return exitcode.ErrInsufficientBalance.Wrapf("balance %v of %v below %v", balance, from, amount)
	}
	free, err := transferable(balances, grants, from, now)
	if err != nil {
		return err
	}
	if free.LessThan(amount) {
		return exitcode.ErrInsufficientTransferable.Wrapf("transferable %v of %v below %v at %v", free, from, amount, now)
	}
	return nil
}

func move(balances *adt.BalanceTable, from, to addr.Address, amount abi.TokenAmount) error {
	if err := balances.MustSubtract(from, amount); err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to debit %v: %w", from, err)
	}
	if err := balances.Add(to, amount); err != nil {
		return exitcode.ErrIllegalState.Wrapf("failed to credit %v: %w", to, err)
	}
	return nil
}
