package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"

	"github.com/vestledger/grant-actors/actors/abi"
	"github.com/vestledger/grant-actors/actors/util/adt"
)

// GrantTable holds each holder's grants in insertion order.
// It is a HAMT from holder address to the root of an AMT of Grant records; the AMT index is the
// grant's position in the holder's sequence.
type GrantTable struct {
	index *adt.Map
	store adt.Store
}

// Interprets a store as a grant table with root `r`.
func AsGrantTable(s adt.Store, r cid.Cid) (*GrantTable, error) {
	index, err := adt.AsMap(s, r)
	if err != nil {
		return nil, xerrors.Errorf("failed to load grant index: %w", err)
	}
	return &GrantTable{index: index, store: s}, nil
}

// Returns the root cid of the table, flushing pending changes.
func (t *GrantTable) Root() (cid.Cid, error) {
	return t.index.Root()
}

// Loads a holder's grant sequence, or an empty one if the holder has none.
func (t *GrantTable) load(holder addr.Address) (*adt.Array, error) {
	var root cbg.CborCid
	found, err := t.index.Get(adt.AddrKey(holder), &root)
	if err != nil {
		return nil, xerrors.Errorf("failed to look up grants of %v: %w", holder, err)
	}
	if !found {
		return adt.MakeEmptyArray(t.store)
	}
	return adt.AsArray(t.store, cid.Cid(root))
}

func (t *GrantTable) save(holder addr.Address, grants *adt.Array) error {
	c, err := grants.Root()
	if err != nil {
		return xerrors.Errorf("failed to flush grants of %v: %w", holder, err)
	}
	root := cbg.CborCid(c)
	return t.index.Put(adt.AddrKey(holder), &root)
}

// Appends a grant to the end of a holder's sequence.
func (t *GrantTable) Append(holder addr.Address, g *Grant) error {
	grants, err := t.load(holder)
	if err != nil {
		return err
	}
	if err := grants.AppendContinuous(g); err != nil {
		return xerrors.Errorf("failed to append grant %d for %v: %w", g.ID, holder, err)
	}
	return t.save(holder, grants)
}

// Returns the number of grants, live or revoked, held by an address.
func (t *GrantTable) Count(holder addr.Address) (uint64, error) {
	grants, err := t.load(holder)
	if err != nil {
		return 0, err
	}
	return grants.Length(), nil
}

// Iterates a holder's grants in insertion order.
func (t *GrantTable) ForEach(holder addr.Address, fn func(idx uint64, g *Grant) error) error {
	grants, err := t.load(holder)
	if err != nil {
		return err
	}
	var g Grant
	return grants.ForEach(&g, func(i int64) error {
		return fn(uint64(i), &g)
	})
}

// Returns a copy of a holder's grants in insertion order.
func (t *GrantTable) List(holder addr.Address) ([]Grant, error) {
	var out []Grant
	err := t.ForEach(holder, func(_ uint64, g *Grant) error {
		out = append(out, *g)
		return nil
	})
	return out, err
}

// Finds a holder's grant by identifier, returning it with its position.
func (t *GrantTable) Find(holder addr.Address, id abi.GrantID) (*Grant, uint64, bool, error) {
	var found *Grant
	var pos uint64
	stop := xerrors.New("stop")
	err := t.ForEach(holder, func(idx uint64, g *Grant) error {
		if g.ID == id {
			cpy := *g
			found, pos = &cpy, idx
			return stop
		}
		return nil
	})
	if err != nil && !xerrors.Is(err, stop) {
		return nil, 0, false, err
	}
	return found, pos, found != nil, nil
}

// Overwrites the grant at a position in a holder's sequence.
func (t *GrantTable) Replace(holder addr.Address, pos uint64, g *Grant) error {
	grants, err := t.load(holder)
	if err != nil {
		return err
	}
	if pos >= grants.Length() {
		return xerrors.Errorf("grant position %d out of range for %v", pos, holder)
	}
	if err := grants.Set(pos, g); err != nil {
		return err
	}
	return t.save(holder, grants)
}

// Returns the amount withheld from a holder's transferable balance at time `now`.
func (t *GrantTable) LockedAmount(holder addr.Address, now abi.Timestamp) (abi.TokenAmount, error) {
	total := big.Zero()
	err := t.ForEach(holder, func(_ uint64, g *Grant) error {
		total = big.Add(total, LockedAmount(g, now))
		return nil
	})
	return total, err
}

// Iterates every holder that has ever received a grant.
func (t *GrantTable) ForEachHolder(fn func(holder addr.Address) error) error {
	return t.index.ForEach(nil, func(key string) error {
		holder, err := adt.ParseAddrKey(key)
		if err != nil {
			return err
		}
		return fn(holder)
	})
}
