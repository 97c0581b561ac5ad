// Package dir is the flat directory: a fixed table of slots, each naming at
// most one file by its first block and byte size.
package dir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-rsfs/common"
	"github.com/mit-pdos/go-rsfs/disk"
	"github.com/mit-pdos/go-rsfs/util"
)

var (
	ErrNameTooLong  = errors.New("name too long")
	ErrBadName      = errors.New("invalid name")
	ErrDuplicate    = errors.New("name already exists")
	ErrFull         = errors.New("directory full")
	ErrNotFound     = errors.New("no such file")
	ErrSlotRange    = errors.New("slot out of range")
	ErrSizeTooLarge = errors.New("size not representable")
)

const (
	wordsPerEntry = common.DIRENTSZ / 8
	nameWords     = common.NAMELEN / 8
	maxSize       = 1<<32 - 1
)

type Entry struct {
	Used  bool
	Name  string
	First common.Bnum
	Size  uint64
}

// Info is what a listing reports for each file.
type Info struct {
	Name string
	Size uint64
}

type Dir struct {
	entries []Entry
}

func MkDir() *Dir {
	return &Dir{entries: make([]Entry, common.DIRENTRIES)}
}

func (d *Dir) Reset() {
	for i := range d.entries {
		d.entries[i] = Entry{}
	}
}

func ValidName(name string) error {
	if uint64(len(name)) > common.NAMELEN {
		return fmt.Errorf("%w: %q is %d bytes", ErrNameTooLong, name, len(name))
	}
	if name == "" || strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

func (d *Dir) Lookup(name string) (common.Slot, bool) {
	for i, e := range d.entries {
		if e.Used && e.Name == name {
			return common.Slot(i), true
		}
	}
	return 0, false
}

// Get returns the entry in slot s, used or not.
func (d *Dir) Get(s common.Slot) (Entry, error) {
	if uint64(s) >= common.DIRENTRIES {
		return Entry{}, fmt.Errorf("%w: %d", ErrSlotRange, s)
	}
	return d.entries[s], nil
}

func (d *Dir) InUse(s common.Slot) bool {
	return uint64(s) < common.DIRENTRIES && d.entries[s].Used
}

// Alloc claims the lowest free slot for name, starting at first with size 0.
func (d *Dir) Alloc(name string, first common.Bnum) (common.Slot, error) {
	if err := ValidName(name); err != nil {
		return 0, err
	}
	if _, ok := d.Lookup(name); ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	for i := range d.entries {
		if !d.entries[i].Used {
			d.entries[i] = Entry{Used: true, Name: name, First: first, Size: 0}
			util.DPrintf(3, "dir.Alloc: %q slot %d first %d\n", name, i, first)
			return common.Slot(i), nil
		}
	}
	return 0, ErrFull
}

// Free clears slot s and returns what it held.
func (d *Dir) Free(s common.Slot) (Entry, error) {
	if !d.InUse(s) {
		return Entry{}, fmt.Errorf("%w: slot %d", ErrNotFound, s)
	}
	e := d.entries[s]
	d.entries[s] = Entry{}
	util.DPrintf(3, "dir.Free: %q slot %d\n", e.Name, s)
	return e, nil
}

func (d *Dir) SetSize(s common.Slot, size uint64) error {
	if !d.InUse(s) {
		return fmt.Errorf("%w: slot %d", ErrNotFound, s)
	}
	if size > maxSize {
		return fmt.Errorf("%w: %d", ErrSizeTooLarge, size)
	}
	d.entries[s].Size = size
	return nil
}

// List reports used slots in slot order.
func (d *Dir) List() []Info {
	var infos []Info
	for _, e := range d.entries {
		if e.Used {
			infos = append(infos, Info{Name: e.Name, Size: e.Size})
		}
	}
	return infos
}

// Used returns the slots in use, in slot order.
func (d *Dir) Used() []common.Slot {
	var slots []common.Slot
	for i, e := range d.entries {
		if e.Used {
			slots = append(slots, common.Slot(i))
		}
	}
	return slots
}

// UsedBytes is the space charged to files: whole blocks, at least one per
// file.
func (d *Dir) UsedBytes() uint64 {
	n := uint64(0)
	for _, e := range d.entries {
		if e.Used {
			n += util.RoundUp(util.Max(e.Size, 1), disk.BlockSize) * disk.BlockSize
		}
	}
	return n
}

//
// Sector codec. Each entry is four words: the header word holds the used
// flag (bit 0), first block (bits 16-31) and size (bits 32-63); the other
// three hold the NUL-padded name.
//

func packName(name string) []uint64 {
	b := make([]byte, common.NAMELEN)
	copy(b, name)
	words := make([]uint64, nameWords)
	for i := range b {
		words[i/8] |= uint64(b[i]) << (8 * (uint64(i) % 8))
	}
	return words
}

func unpackName(words []uint64) string {
	b := make([]byte, 0, common.NAMELEN)
	for i := uint64(0); i < common.NAMELEN; i++ {
		c := byte(words[i/8] >> (8 * (i % 8)))
		if c == 0 {
			break
		}
		b = append(b, c)
	}
	return string(b)
}

func (d *Dir) Encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	for _, e := range d.entries {
		var hdr uint64
		if e.Used {
			hdr = 1 | uint64(uint16(e.First))<<16 | e.Size<<32
			enc.PutInt(hdr)
			enc.PutInts(packName(e.Name))
		} else {
			enc.PutInts(make([]uint64, wordsPerEntry))
		}
	}
	return enc.Finish()
}

func (d *Dir) Decode(blk disk.Block) {
	dec := marshal.NewDec(blk)
	for i := range d.entries {
		hdr := dec.GetInt()
		words := dec.GetInts(nameWords)
		if hdr&1 == 0 {
			d.entries[i] = Entry{}
			continue
		}
		d.entries[i] = Entry{
			Used:  true,
			Name:  unpackName(words),
			First: common.Bnum(uint16(hdr >> 16)),
			Size:  hdr >> 32,
		}
	}
}

func (d *Dir) Full() bool {
	for _, e := range d.entries {
		if !e.Used {
			return false
		}
	}
	return true
}
