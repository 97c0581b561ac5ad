// Package buf holds the two process-wide byte buffers that sit between the
// byte-stream API and sector I/O: the write staging buffer and the read
// cache.
package buf

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/go-rsfs/common"
	"github.com/mit-pdos/go-rsfs/disk"
	"github.com/mit-pdos/go-rsfs/util"
)

var ErrTooLarge = errors.New("staging buffer capacity exceeded")

// Staging accumulates appended bytes for the one slot open for writing.
type Staging struct {
	owner  common.Slot
	active bool
	data   []byte
	max    uint64
}

func MkStaging(max uint64) *Staging {
	return &Staging{max: max}
}

func (s *Staging) Cap() uint64 {
	return s.max
}

// Owner reports which slot holds the buffer, if any.
func (s *Staging) Owner() (common.Slot, bool) {
	return s.owner, s.active
}

// Acquire hands the empty buffer to slot.
func (s *Staging) Acquire(slot common.Slot) bool {
	if s.active {
		return false
	}
	s.owner = slot
	s.active = true
	s.data = s.data[:0]
	return true
}

// Release empties the buffer and drops ownership.
func (s *Staging) Release() {
	s.active = false
	s.data = s.data[:0]
}

func (s *Staging) Len() uint64 {
	return uint64(len(s.data))
}

func (s *Staging) Append(p []byte) error {
	n := uint64(len(p))
	if util.SumOverflows(s.Len(), n) || s.Len()+n > s.max {
		return fmt.Errorf("%w: %d + %d > %d", ErrTooLarge, s.Len(), n, s.max)
	}
	s.data = append(s.data, p...)
	return nil
}

// NumBlocks is how many blocks a flush writes: at least one.
func (s *Staging) NumBlocks() uint64 {
	return util.Max(1, util.RoundUp(s.Len(), disk.BlockSize))
}

// Block returns the i-th sector-worth of staged bytes, zero padded.
func (s *Staging) Block(i uint64) disk.Block {
	blk := make(disk.Block, disk.BlockSize)
	start := i * disk.BlockSize
	if start < s.Len() {
		copy(blk, s.data[start:util.Min(start+disk.BlockSize, s.Len())])
	}
	return blk
}
