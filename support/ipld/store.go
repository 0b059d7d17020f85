package ipld

import (
	"bytes"
	"context"
	"fmt"

	block "github.com/ipfs/go-block-format"
	cid "github.com/ipfs/go-cid"
	ipldcbor "github.com/ipfs/go-ipld-cbor"
	mh "github.com/multiformats/go-multihash"

	"github.com/vestledger/grant-actors/actors/util/adt"
)

// Creates a new, empty, unsynchronized IPLD store in memory.
// This store is appropriate for most kinds of testing.
func NewADTStore(ctx context.Context) adt.Store {
	return adt.WrapBlockStore(ctx, NewBlockStoreInMemory())
}

//
// A basic in-memory block store.
// Put rejects blocks whose data does not hash to their CID.
//
type BlockStoreInMemory struct {
	data map[cid.Cid]block.Block
}

func NewBlockStoreInMemory() *BlockStoreInMemory {
	return &BlockStoreInMemory{make(map[cid.Cid]block.Block)}
}

func (mb *BlockStoreInMemory) Get(c cid.Cid) (block.Block, error) {
	d, ok := mb.data[c]
	if ok {
		return d, nil
	}
	return nil, fmt.Errorf("not found")
}

func (mb *BlockStoreInMemory) Put(b block.Block) error {
	if err := verifyBlock(b); err != nil {
		return err
	}
	mb.data[b.Cid()] = b
	return nil
}

// Len returns the number of distinct blocks held.
func (mb *BlockStoreInMemory) Len() int {
	return len(mb.data)
}

func verifyBlock(b block.Block) error {
	decoded, err := mh.Decode(b.Cid().Hash())
	if err != nil {
		return fmt.Errorf("block %v has invalid multihash: %w", b.Cid(), err)
	}
	sum, err := mh.Sum(b.RawData(), decoded.Code, decoded.Length)
	if err != nil {
		return fmt.Errorf("failed to hash block %v: %w", b.Cid(), err)
	}
	if !bytes.Equal(sum, b.Cid().Hash()) {
		return fmt.Errorf("block data does not match cid %v", b.Cid())
	}
	return nil
}

//
// A block store that counts reads and writes to an underlying store.
//
type MetricsBlockStore struct {
	bs     ipldcbor.IpldBlockstore
	Reads  uint64
	Writes uint64
	// Bytes read and written.
	ReadBytes  uint64
	WriteBytes uint64
}

func NewMetricsBlockStore(underlying ipldcbor.IpldBlockstore) *MetricsBlockStore {
	return &MetricsBlockStore{bs: underlying}
}

func (ms *MetricsBlockStore) Get(c cid.Cid) (block.Block, error) {
	ms.Reads++
	blk, err := ms.bs.Get(c)
	if err != nil {
		return blk, err
	}
	ms.ReadBytes += uint64(len(blk.RawData()))
	return blk, nil
}

func (ms *MetricsBlockStore) Put(b block.Block) error {
	ms.Writes++
	ms.WriteBytes += uint64(len(b.RawData()))
	return ms.bs.Put(b)
}
