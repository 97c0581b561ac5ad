package fs

import (
	"fmt"

	"github.com/mit-pdos/go-rsfs/disk"
	"github.com/mit-pdos/go-rsfs/util"
)

// Read returns up to max bytes from the read cursor. The first read of a
// session loads the whole file. At end of file Read returns no bytes and
// rewinds, so the next Read starts over from the beginning.
func (fs *Fs) Read(h Handle, max uint64) ([]byte, error) {
	if err := fs.checkReady(); err != nil {
		return nil, err
	}
	st, err := fs.handle(h)
	if err != nil {
		return nil, err
	}
	if st != reading {
		return nil, fmt.Errorf("%w: %d is %v", ErrWrongSessionMode, h, st)
	}
	if !fs.cache.Owns(h) {
		data, err := fs.load(h)
		if err != nil {
			return nil, err
		}
		fs.cache.Load(h, data)
	}
	if fs.cache.Remaining() == 0 {
		fs.cache.Invalidate()
		return []byte{}, nil
	}
	return fs.cache.Take(max), nil
}

// load reads the file's chain into memory, trimmed to its size.
func (fs *Fs) load(h Handle) ([]byte, error) {
	e, err := fs.dir.Get(h)
	if err != nil {
		return nil, translate(err)
	}
	chain, err := fs.fat.Walk(e.First)
	if err != nil {
		return nil, translate(err)
	}
	if need := util.RoundUp(e.Size, disk.BlockSize); uint64(len(chain)) < need {
		return nil, fmt.Errorf("%w: %q has %d blocks for %d bytes",
			ErrCorrupt, e.Name, len(chain), e.Size)
	}
	data := make([]byte, uint64(len(chain))*disk.BlockSize)
	for i, bn := range chain {
		off := uint64(i) * disk.BlockSize
		if err := fs.d.ReadTo(bn, data[off:off+disk.BlockSize]); err != nil {
			return nil, ioError("read", bn, err)
		}
	}
	util.DPrintf(5, "load: slot %d %d blocks\n", h, len(chain))
	return data[:e.Size], nil
}
