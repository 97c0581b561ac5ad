package fs

import (
	"fmt"

	"github.com/mit-pdos/go-rsfs/common"
	"github.com/mit-pdos/go-rsfs/util"
)

// Write appends p to the file's staging buffer and returns len(p). Nothing
// reaches the device until Close.
func (fs *Fs) Write(h Handle, p []byte) (uint64, error) {
	if err := fs.checkReady(); err != nil {
		return 0, err
	}
	st, err := fs.handle(h)
	if err != nil {
		return 0, err
	}
	if st != writing {
		return 0, fmt.Errorf("%w: %d is %v", ErrWrongSessionMode, h, st)
	}
	n := uint64(len(p))
	staged := fs.staging.Len()
	if free := fs.freeSpace(); util.SumOverflows(staged, n) || staged+n > free {
		return 0, fmt.Errorf("%w: %d bytes staged, %d more, %d free",
			ErrDiskFull, staged, n, free)
	}
	if err := fs.staging.Append(p); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// flush writes the staging buffer into the file's chain, starting at its
// first block and extending the chain one block at a time, then records the
// size and persists. On failure every block allocated here is freed and the
// chain is back to its single first block.
func (fs *Fs) flush(h Handle) error {
	e, err := fs.dir.Get(h)
	if err != nil {
		return translate(err)
	}
	n := fs.staging.Len()
	count := fs.staging.NumBlocks()
	var fresh []common.Bnum

	rollback := func() {
		for _, bn := range fresh {
			fs.fat.Unlink(bn)
		}
		fs.fat.Terminate(e.First)
	}

	bn := e.First
	for i := uint64(0); i < count; i++ {
		if err := fs.d.Write(bn, fs.staging.Block(i)); err != nil {
			rollback()
			return ioError("write", bn, err)
		}
		if i+1 == count {
			fs.fat.Terminate(bn)
			break
		}
		next, err := fs.fat.Extend(bn)
		if err != nil {
			rollback()
			return fmt.Errorf("%w: %w", ErrDiskFull, err)
		}
		fresh = append(fresh, next)
		bn = next
	}
	if err := fs.dir.SetSize(h, n); err != nil {
		rollback()
		return translate(err)
	}
	if err := fs.persist(); err != nil {
		fs.dir.SetSize(h, 0)
		rollback()
		return err
	}
	util.DPrintf(3, "flush: slot %d %d bytes in %d blocks\n", h, n, count)
	return nil
}
