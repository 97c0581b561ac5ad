package disk

import (
	"fmt"

	gdisk "github.com/tchajed/goose/machine/disk"
)

var _ Disk = (*gooseDisk)(nil)

// gooseDisk adapts a goose disk, which panics on failure, to Disk.
type gooseDisk struct {
	d gdisk.Disk
}

func FromGoose(d gdisk.Disk) Disk {
	return &gooseDisk{d: d}
}

func catch(op string, a uint64, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s %d: %v", op, a, r)
	}
}

func (g *gooseDisk) ReadTo(a uint64, buf Block) (err error) {
	defer catch("read", a, &err)
	if uint64(len(buf)) != BlockSize {
		return fmt.Errorf("%w (%d bytes)", ErrBlockSize, len(buf))
	}
	copy(buf, g.d.Read(a))
	return nil
}

func (g *gooseDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := g.ReadTo(a, buf)
	return buf, err
}

func (g *gooseDisk) Write(a uint64, v Block) (err error) {
	defer catch("write", a, &err)
	if uint64(len(v)) != BlockSize {
		return fmt.Errorf("%w (%d bytes)", ErrBlockSize, len(v))
	}
	g.d.Write(a, v)
	return nil
}

func (g *gooseDisk) Size() (n uint64, err error) {
	defer catch("size", 0, &err)
	return g.d.Size(), nil
}

func (g *gooseDisk) Barrier() (err error) {
	defer catch("barrier", 0, &err)
	g.d.Barrier()
	return nil
}

func (g *gooseDisk) Close() (err error) {
	defer catch("close", 0, &err)
	g.d.Close()
	return nil
}
