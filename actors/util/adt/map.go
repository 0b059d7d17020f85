package adt

import (
	"bytes"

	"github.com/filecoin-project/go-state-types/cbor"
	hamt "github.com/filecoin-project/go-hamt-ipld/v3"
	cid "github.com/ipfs/go-cid"
	errors "github.com/pkg/errors"
	cbg "github.com/whyrusleeping/cbor-gen"
)

// Branching factor of the HAMTs.
const HamtBitwidth = 5

// Map stores key-value pairs in a HAMT.
type Map struct {
	lastCid cid.Cid
	root    *hamt.Node
	store   Store
}

// AsMap interprets a store as a HAMT-based map with root `r`.
func AsMap(s Store, r cid.Cid) (*Map, error) {
	nd, err := hamt.LoadNode(s.Context(), s, r, hamt.UseTreeBitWidth(HamtBitwidth))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load hamt node %v", r)
	}

	return &Map{
		lastCid: r,
		root:    nd,
		store:   s,
	}, nil
}

// Creates a new map backed by an empty HAMT.
func MakeEmptyMap(s Store) (*Map, error) {
	nd, err := hamt.NewNode(s, hamt.UseTreeBitWidth(HamtBitwidth))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create empty hamt")
	}
	return &Map{
		lastCid: cid.Undef,
		root:    nd,
		store:   s,
	}, nil
}

// Writes a new empty map to the store and returns its CID.
func StoreEmptyMap(s Store) (cid.Cid, error) {
	m, err := MakeEmptyMap(s)
	if err != nil {
		return cid.Undef, err
	}
	return m.Root()
}

// Returns the root cid of underlying HAMT, flushing pending changes to the store first.
func (m *Map) Root() (cid.Cid, error) {
	if err := m.root.Flush(m.store.Context()); err != nil {
		return cid.Undef, errors.Wrapf(err, "failed to flush map root %v", m.lastCid)
	}

	c, err := m.store.Put(m.store.Context(), m.root)
	if err != nil {
		return cid.Undef, errors.Wrapf(err, "writing map root object")
	}
	m.lastCid = c

	return c, nil
}

// Put adds value `v` with key `k` to the hamt store.
func (m *Map) Put(k Keyer, v cbor.Marshaler) error {
	if err := m.root.Set(m.store.Context(), k.Key(), v); err != nil {
		return errors.Wrapf(err, "failed to set key %v value %v in node %v", k.Key(), v, m.lastCid)
	}
	return nil
}

// Get puts the value at `k` into `out`, returning whether it was found.
func (m *Map) Get(k Keyer, out cbor.Unmarshaler) (bool, error) {
	found, err := m.root.Find(m.store.Context(), k.Key(), out)
	if err != nil {
		return false, errors.Wrapf(err, "failed to get key %v in node %v", k.Key(), m.lastCid)
	}
	return found, nil
}

// Has checks for the existence of a key without deserializing its value.
func (m *Map) Has(k Keyer) (bool, error) {
	found, err := m.root.Find(m.store.Context(), k.Key(), nil)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check key %v in node %v", k.Key(), m.lastCid)
	}
	return found, nil
}

// Removes the value at `k` from the hamt store, if it exists.
// Returns whether the key was previously present.
func (m *Map) TryDelete(k Keyer) (bool, error) {
	found, err := m.root.Delete(m.store.Context(), k.Key())
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete key %v in node %v", k.Key(), m.lastCid)
	}
	return found, nil
}

// Iterates all entries in the map, deserializing each value in turn into `out` and then
// calling a function with the corresponding key.
// Iteration halts if the function returns an error.
// If the output parameter is nil, deserialization is skipped.
func (m *Map) ForEach(out cbor.Unmarshaler, fn func(key string) error) error {
	return m.root.ForEach(m.store.Context(), func(k string, val *cbg.Deferred) error {
		if out != nil {
			// Why doesn't hamt.ForEach() just return the value as bytes?
			err := out.UnmarshalCBOR(bytes.NewReader(val.Raw))
			if err != nil {
				return err
			}
		}
		return fn(k)
	})
}

// Collects all the keys from the map into a slice of strings.
func (m *Map) CollectKeys() (out []string, err error) {
	err = m.ForEach(nil, func(key string) error {
		out = append(out, key)
		return nil
	})
	return
}
