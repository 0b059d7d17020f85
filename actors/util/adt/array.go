package adt

import (
	"bytes"

	amt "github.com/filecoin-project/go-amt-ipld/v4"
	"github.com/filecoin-project/go-state-types/cbor"
	cid "github.com/ipfs/go-cid"
	errors "github.com/pkg/errors"
	cbg "github.com/whyrusleeping/cbor-gen"
)

// Branching factor of the AMTs.
const AmtBitwidth = 3

// Array stores a sparse sequence of values in an AMT.
type Array struct {
	root  *amt.Root
	store Store
}

// AsArray interprets a store as an AMT-based array with root `r`.
func AsArray(s Store, r cid.Cid) (*Array, error) {
	root, err := amt.LoadAMT(s.Context(), s, r, amt.UseTreeBitWidth(AmtBitwidth))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load amt %v", r)
	}

	return &Array{
		root:  root,
		store: s,
	}, nil
}

// Creates a new array backed by an empty AMT.
func MakeEmptyArray(s Store) (*Array, error) {
	root, err := amt.NewAMT(s, amt.UseTreeBitWidth(AmtBitwidth))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create empty amt")
	}
	return &Array{
		root:  root,
		store: s,
	}, nil
}

// Writes a new empty array to the store and returns its CID.
func StoreEmptyArray(s Store) (cid.Cid, error) {
	arr, err := MakeEmptyArray(s)
	if err != nil {
		return cid.Undef, err
	}
	return arr.Root()
}

// Returns the root CID of the underlying AMT, flushing pending changes to the store first.
func (a *Array) Root() (cid.Cid, error) {
	return a.root.Flush(a.store.Context())
}

// Appends a value to the end of the array. Assumes continuous array.
// If the array isn't continuous use Set and a separate counter.
func (a *Array) AppendContinuous(value cbor.Marshaler) error {
	if err := a.root.Set(a.store.Context(), a.root.Len(), value); err != nil {
		return errors.Wrapf(err, "array append failed to set index %v value %v", a.root.Len(), value)
	}
	return nil
}

// Sets the value at index `i`, overwriting any previous value.
func (a *Array) Set(i uint64, value cbor.Marshaler) error {
	if err := a.root.Set(a.store.Context(), i, value); err != nil {
		return errors.Wrapf(err, "array set failed to set index %v value %v", i, value)
	}
	return nil
}

// Gets the value at index `i` into `out`, returning whether it was found.
func (a *Array) Get(i uint64, out cbor.Unmarshaler) (bool, error) {
	found, err := a.root.Get(a.store.Context(), i, out)
	if err != nil {
		return false, errors.Wrapf(err, "array get failed at index %v", i)
	}
	return found, nil
}

// Returns the number of values in the array.
func (a *Array) Length() uint64 {
	return a.root.Len()
}

// Iterates all entries in the array, deserializing each value in turn into `out` and then calling a function.
// Iteration halts if the function returns an error.
// If the output parameter is nil, deserialization is skipped.
func (a *Array) ForEach(out cbor.Unmarshaler, fn func(i int64) error) error {
	return a.root.ForEach(a.store.Context(), func(k uint64, val *cbg.Deferred) error {
		if out != nil {
			if err := out.UnmarshalCBOR(bytes.NewReader(val.Raw)); err != nil {
				return err
			}
		}
		return fn(int64(k))
	})
}
