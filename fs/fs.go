// Package fs is a single-volume file store on a block device: an allocation
// table chaining each file's blocks, a flat directory naming the files, and
// sequential read and write sessions over them.
//
// Layout of the device:
//
//	[ allocation table | directory | data blocks ... ]
//	  0 .. FATSECTORS-1  DIRSECTOR   DATASTART ..
//
// Writes are staged in memory and land on the device only when the file is
// closed; reads load the whole file on first use. Every mutating operation
// persists the table and directory before returning, but the two are not
// updated atomically.
//
// An Fs is not safe for concurrent use.
package fs

import (
	"fmt"

	"github.com/mit-pdos/go-rsfs/alloc"
	"github.com/mit-pdos/go-rsfs/buf"
	"github.com/mit-pdos/go-rsfs/common"
	"github.com/mit-pdos/go-rsfs/dir"
	"github.com/mit-pdos/go-rsfs/disk"
	"github.com/mit-pdos/go-rsfs/util"
)

// DefaultMaxFileSize bounds the write staging buffer.
const DefaultMaxFileSize uint64 = 1 << 20

// maxFileSize is what a directory entry can record.
const maxFileSize uint64 = 1<<32 - 1

// Handle identifies an open file; it is the file's directory slot.
type Handle = common.Slot

type Fs struct {
	d       disk.Disk
	nblocks uint64
	ready   bool

	fat *alloc.Table
	dir *dir.Dir

	sessions []session
	staging  *buf.Staging
	cache    *buf.Cache
}

type Option func(*Fs)

// WithMaxFileSize sets the staging capacity, the largest file a write
// session can produce.
func WithMaxFileSize(n uint64) Option {
	return func(fs *Fs) {
		fs.staging = buf.MkStaging(util.Min(n, maxFileSize))
	}
}

// MkFs prepares a filesystem over d. The volume is not ready until Mount or
// Format succeeds.
func MkFs(d disk.Disk, opts ...Option) (*Fs, error) {
	n, err := d.Size()
	if err != nil {
		return nil, fmt.Errorf("%w: size: %w", ErrDeviceIO, err)
	}
	fs := &Fs{
		d:        d,
		nblocks:  n,
		fat:      alloc.MkTable(n),
		dir:      dir.MkDir(),
		sessions: make([]session, common.DIRENTRIES),
		staging:  buf.MkStaging(DefaultMaxFileSize),
		cache:    buf.MkCache(),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs, nil
}

// Ready reports whether the last Mount or Format succeeded.
func (fs *Fs) Ready() bool {
	return fs.ready
}

func (fs *Fs) checkReady() error {
	if !fs.ready {
		return ErrNotFormatted
	}
	return nil
}

func (fs *Fs) resetSessions() {
	for i := range fs.sessions {
		fs.sessions[i] = closed
	}
	fs.staging.Release()
	fs.cache.Invalidate()
}

// Mount loads the allocation table and directory from the device and checks
// them. A volume that fails the check is left not ready and must be
// formatted; it is never repaired.
func (fs *Fs) Mount() error {
	fs.ready = false
	fs.resetSessions()
	if fs.nblocks <= common.NRESERVED {
		return fmt.Errorf("%w: device has %d blocks", ErrNotFormatted, fs.nblocks)
	}
	for sec := uint64(0); sec < common.FATSECTORS; sec++ {
		blk, err := fs.d.Read(sec)
		if err != nil {
			return ioError("read table", sec, err)
		}
		fs.fat.DecodeSector(sec, blk)
	}
	blk, err := fs.d.Read(common.DIRSECTOR)
	if err != nil {
		return ioError("read directory", common.DIRSECTOR, err)
	}
	fs.dir.Decode(blk)

	if err := fs.fat.CheckReserved(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotFormatted, err)
	}
	if err := fs.check(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotFormatted, err)
	}
	fs.ready = true
	util.DPrintf(1, "Mount: %d blocks, %d files\n", fs.nblocks, len(fs.dir.Used()))
	return nil
}

// check walks every file's chain: each must be well formed, exactly as long
// as its size needs, and share no block with another file.
func (fs *Fs) check() error {
	owner := make(map[common.Bnum]common.Slot)
	for _, s := range fs.dir.Used() {
		e, _ := fs.dir.Get(s)
		chain, err := fs.fat.Walk(e.First)
		if err != nil {
			return fmt.Errorf("%w: file %q: %w", ErrCorrupt, e.Name, err)
		}
		want := util.Max(1, util.RoundUp(e.Size, disk.BlockSize))
		if uint64(len(chain)) != want {
			return fmt.Errorf("%w: file %q has %d blocks for %d bytes",
				ErrCorrupt, e.Name, len(chain), e.Size)
		}
		for _, bn := range chain {
			if other, ok := owner[bn]; ok {
				o, _ := fs.dir.Get(other)
				return fmt.Errorf("%w: block %d shared by %q and %q",
					ErrCorrupt, bn, o.Name, e.Name)
			}
			owner[bn] = s
		}
	}
	return nil
}

// Format writes an empty volume. It can be repeated and always leaves a
// clean, ready volume (or an error).
func (fs *Fs) Format() error {
	fs.ready = false
	if fs.nblocks <= common.NRESERVED {
		return fmt.Errorf("%w: %d blocks, need more than %d",
			ErrDeviceTooSmall, fs.nblocks, common.NRESERVED)
	}
	fs.resetSessions()
	fs.dir.Reset()
	fs.fat.Reset()
	if err := fs.persist(); err != nil {
		return err
	}
	fs.ready = true
	util.DPrintf(1, "Format: %d blocks\n", fs.nblocks)
	return nil
}

// persist writes the dirty allocation table sectors, then the directory,
// then waits for the device. Data blocks must already be on the device, so
// the directory never names a chain that is not there.
func (fs *Fs) persist() error {
	for _, sec := range fs.fat.DirtySectors() {
		if err := fs.d.Write(sec, fs.fat.EncodeSector(sec)); err != nil {
			return &PersistError{Structure: StructTable, Sector: sec, Err: err}
		}
		fs.fat.MarkClean(sec)
		util.DPrintf(5, "persist: table sector %d\n", sec)
	}
	if err := fs.d.Write(common.DIRSECTOR, fs.dir.Encode()); err != nil {
		return &PersistError{Structure: StructDir, Sector: common.DIRSECTOR, Err: err}
	}
	if err := fs.d.Barrier(); err != nil {
		return &PersistError{Structure: StructBarrier, Err: err}
	}
	return nil
}

func (fs *Fs) capacity() uint64 {
	return (fs.fat.Limit() - common.NRESERVED) * disk.BlockSize
}

func (fs *Fs) freeSpace() uint64 {
	total := fs.capacity()
	used := fs.dir.UsedBytes()
	if used > total {
		return 0
	}
	return total - used
}
