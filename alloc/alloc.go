// Package alloc manages the allocation table: one entry per block, linking
// the blocks of each file into a chain.
//
// The table is held in memory and written back sector by sector; every
// mutation marks the sector holding the entry dirty, and the caller persists
// dirty sectors with EncodeSector.
package alloc

import (
	"errors"
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-rsfs/common"
	"github.com/mit-pdos/go-rsfs/disk"
	"github.com/mit-pdos/go-rsfs/util"
)

const (
	entriesPerSector = disk.BlockSize / common.FATENTRYSZ
	entriesPerWord   = 8 / common.FATENTRYSZ
	wordsPerSector   = entriesPerSector / entriesPerWord
)

var (
	ErrNoSpace     = errors.New("no free block")
	ErrBadChain    = errors.New("malformed block chain")
	ErrBadReserved = errors.New("reserved region not marked")
)

type Table struct {
	entries []Entry
	limit   uint64 // blocks at or above limit do not exist on the device
	dirty   []bool // per table sector
}

// MkTable creates an all-free table for a device of nblocks blocks. Call
// Reset or DecodeSector before use.
func MkTable(nblocks uint64) *Table {
	t := &Table{
		entries: make([]Entry, common.FATCLUSTERS),
		limit:   util.Min(nblocks, common.FATCLUSTERS),
		dirty:   make([]bool, common.FATSECTORS),
	}
	return t
}

// Limit is the number of addressable blocks (table sized and device sized).
func (t *Table) Limit() uint64 {
	return t.limit
}

func (t *Table) isData(bn common.Bnum) bool {
	return bn >= common.DATASTART && bn < t.limit
}

func (t *Table) Get(bn common.Bnum) Entry {
	if bn >= common.FATCLUSTERS {
		panic(fmt.Errorf("alloc: entry %d out of range", bn))
	}
	return t.entries[bn]
}

func (t *Table) set(bn common.Bnum, e Entry) {
	if bn >= common.FATCLUSTERS {
		panic(fmt.Errorf("alloc: entry %d out of range", bn))
	}
	t.entries[bn] = e
	t.dirty[bn/entriesPerSector] = true
}

// Reset marks the reserved region and frees everything else.
func (t *Table) Reset() {
	for bn := common.Bnum(0); bn < common.FATCLUSTERS; bn++ {
		switch {
		case bn < common.DIRSECTOR:
			t.set(bn, Reserved(RegionTable))
		case bn == common.DIRSECTOR:
			t.set(bn, Reserved(RegionDir))
		default:
			t.set(bn, Free())
		}
	}
}

// CheckReserved verifies that the reserved region carries its codes.
func (t *Table) CheckReserved() error {
	for bn := common.Bnum(0); bn < common.DIRSECTOR; bn++ {
		if r, ok := t.entries[bn].Region(); !ok || r != RegionTable {
			return fmt.Errorf("%w: block %d is %v", ErrBadReserved, bn, t.entries[bn])
		}
	}
	if r, ok := t.entries[common.DIRSECTOR].Region(); !ok || r != RegionDir {
		return fmt.Errorf("%w: directory block is %v", ErrBadReserved,
			t.entries[common.DIRSECTOR])
	}
	return nil
}

// FindFree returns the lowest free data block other than exclude. Pass
// common.NULLBNUM to exclude nothing.
func (t *Table) FindFree(exclude common.Bnum) (common.Bnum, error) {
	for bn := common.DATASTART; bn < t.limit; bn++ {
		if bn == exclude {
			continue
		}
		if t.entries[bn].IsFree() {
			util.DPrintf(5, "FindFree: %d\n", bn)
			return bn, nil
		}
	}
	return common.NULLBNUM, ErrNoSpace
}

// Claim makes bn a single-block chain.
func (t *Table) Claim(bn common.Bnum) {
	if !t.isData(bn) {
		panic(fmt.Errorf("alloc: claim of non-data block %d", bn))
	}
	t.set(bn, End())
}

// Extend allocates a block and links it after tail, which becomes an
// interior block of its chain.
func (t *Table) Extend(tail common.Bnum) (common.Bnum, error) {
	bn, err := t.FindFree(tail)
	if err != nil {
		return common.NULLBNUM, err
	}
	t.set(tail, Next(bn))
	t.set(bn, End())
	util.DPrintf(5, "Extend: %d -> %d\n", tail, bn)
	return bn, nil
}

// Terminate makes bn the last block of its chain.
func (t *Table) Terminate(bn common.Bnum) {
	t.set(bn, End())
}

// Unlink frees a single block without following its chain.
func (t *Table) Unlink(bn common.Bnum) {
	if !t.isData(bn) {
		panic(fmt.Errorf("alloc: unlink of non-data block %d", bn))
	}
	t.set(bn, Free())
}

// Walk returns the blocks of the chain starting at first, in order.
//
// The walk is bounded by the number of data blocks, so a cycle is reported
// as ErrBadChain, as is any step onto a free or reserved entry or outside the
// data region.
func (t *Table) Walk(first common.Bnum) ([]common.Bnum, error) {
	var chain []common.Bnum
	bn := first
	maxSteps := t.limit - common.DATASTART
	for {
		if !t.isData(bn) {
			return chain, fmt.Errorf("%w: block %d outside data region", ErrBadChain, bn)
		}
		if uint64(len(chain)) >= maxSteps {
			return chain, fmt.Errorf("%w: cycle through block %d", ErrBadChain, first)
		}
		chain = append(chain, bn)
		e := t.entries[bn]
		if e.IsEnd() {
			return chain, nil
		}
		next, ok := e.Next()
		if !ok {
			return chain, fmt.Errorf("%w: block %d is %v", ErrBadChain, bn, e)
		}
		bn = next
	}
}

// Release frees every block of the chain starting at first.
//
// On a malformed chain nothing is freed.
func (t *Table) Release(first common.Bnum) error {
	chain, err := t.Walk(first)
	if err != nil {
		return err
	}
	for _, bn := range chain {
		t.set(bn, Free())
	}
	util.DPrintf(5, "Release: %d blocks from %d\n", len(chain), first)
	return nil
}

// NumFree counts free data blocks.
func (t *Table) NumFree() uint64 {
	n := uint64(0)
	for bn := common.DATASTART; bn < t.limit; bn++ {
		if t.entries[bn].IsFree() {
			n++
		}
	}
	return n
}

//
// Sector codec: four little-endian 16-bit entries per 64-bit word.
//

func (t *Table) DirtySectors() []uint64 {
	var secs []uint64
	for i, d := range t.dirty {
		if d {
			secs = append(secs, uint64(i))
		}
	}
	return secs
}

func (t *Table) MarkClean(sec uint64) {
	t.dirty[sec] = false
}

func (t *Table) EncodeSector(sec uint64) disk.Block {
	words := make([]uint64, wordsPerSector)
	base := sec * entriesPerSector
	for w := range words {
		var v uint64
		for j := uint64(0); j < entriesPerWord; j++ {
			e := t.entries[base+uint64(w)*entriesPerWord+j]
			v |= uint64(e.raw()) << (16 * j)
		}
		words[w] = v
	}
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInts(words)
	return enc.Finish()
}

func (t *Table) DecodeSector(sec uint64, blk disk.Block) {
	dec := marshal.NewDec(blk)
	words := dec.GetInts(wordsPerSector)
	base := sec * entriesPerSector
	for w, v := range words {
		for j := uint64(0); j < entriesPerWord; j++ {
			raw := uint16(v >> (16 * j))
			t.entries[base+uint64(w)*entriesPerWord+j] = fromRaw(raw)
		}
	}
	t.dirty[sec] = false
}
