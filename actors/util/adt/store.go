package adt

import (
	"context"

	addr "github.com/filecoin-project/go-address"
	ipldcbor "github.com/ipfs/go-ipld-cbor"
)

// Store defines an interface required to back the ADTs in this package.
type Store interface {
	Context() context.Context
	ipldcbor.IpldStore
}

// Adapts a vanilla IPLD store as an ADT store.
func WrapStore(ctx context.Context, store ipldcbor.IpldStore) Store {
	return &wstore{
		ctx:       ctx,
		IpldStore: store,
	}
}

// Adapts a block store as an ADT store.
func WrapBlockStore(ctx context.Context, bs ipldcbor.IpldBlockstore) Store {
	return WrapStore(ctx, ipldcbor.NewCborStore(bs))
}

type wstore struct {
	ctx context.Context
	ipldcbor.IpldStore
}

var _ Store = &wstore{}

func (s *wstore) Context() context.Context {
	return s.ctx
}

// Keyer defines an interface required to put values in mapping.
type Keyer interface {
	Key() string
}

// Adapts an address as a mapping key.
type AddrKey addr.Address

func (kw AddrKey) Key() string {
	return string(addr.Address(kw).Bytes())
}

// ParseAddrKey recovers the address a mapping key was made from.
func ParseAddrKey(key string) (addr.Address, error) {
	return addr.NewFromBytes([]byte(key))
}
